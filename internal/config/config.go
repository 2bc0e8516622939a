// Package config holds the validated runtime configuration. Every section a
// downstream component needs is checked up front so the pipeline fails fast
// with the exact missing key instead of halfway through a run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/spigell/arxiv-digest/internal/arxiv"
	"github.com/spigell/arxiv-digest/internal/secrets"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultThreshold  = 7.0
	defaultWorkers    = 10
	defaultMaxEntries = 20
	defaultMaxPapers  = 5
)

type Config struct {
	Arxiv     *arxiv.SearchParams `mapstructure:"arxiv"`
	LLM       *LLMConfig          `mapstructure:"llm"`
	Library   *LibraryConfig      `mapstructure:"library"`
	Interests *InterestsConfig    `mapstructure:"interests"`
	Email     *EmailConfig        `mapstructure:"email"`
	Feishu    *FeishuConfig       `mapstructure:"feishu"`
}

type LLMConfig struct {
	APIKey     string  `mapstructure:"api-key"`
	APIKeyEnv  string  `mapstructure:"api-key-env"`
	APIKeyFile string  `mapstructure:"api-key-file"`
	Model      string  `mapstructure:"model"`
	Threshold  float64 `mapstructure:"threshold"`
	Workers    int     `mapstructure:"workers"`
	Verbose    bool    `mapstructure:"verbose"`
}

type LibraryConfig struct {
	File       string `mapstructure:"file"`
	MaxEntries int    `mapstructure:"max-entries"`
}

type InterestsConfig struct {
	Description string `mapstructure:"description"`
}

type EmailConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SMTPServer string `mapstructure:"smtp-server"`
	SMTPPort   int    `mapstructure:"smtp-port"`
	From       string `mapstructure:"from"`
	Password   string `mapstructure:"password"`
	To         string `mapstructure:"to"`
}

type FeishuConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	WebhookURL    string `mapstructure:"webhook-url"`
	WebhookURLEnv string `mapstructure:"webhook-url-env"`
	Secret        string `mapstructure:"secret"`
	SecretEnv     string `mapstructure:"secret-env"`
	MaxPapers     int    `mapstructure:"max-papers"`
}

// Load unmarshals the viper-backed configuration, applies defaults, resolves
// secret references and validates required fields. The returned config has
// all env references already resolved into their final values.
func Load(v *viper.Viper) (*Config, error) {
	var cfg *Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg == nil {
		return nil, errors.New("configuration is empty")
	}

	cfg.applyDefaults(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults(v *viper.Viper) {
	if c.LLM != nil {
		if strings.TrimSpace(c.LLM.Model) == "" {
			c.LLM.Model = defaultModel
		}
		// Threshold zero is a valid keep-everything setting, so the default
		// applies only when the key is absent from the config.
		if !v.IsSet("llm.threshold") {
			c.LLM.Threshold = defaultThreshold
		}
		if c.LLM.Workers <= 0 {
			c.LLM.Workers = defaultWorkers
		}
	}

	if c.Library != nil && c.Library.MaxEntries <= 0 {
		c.Library.MaxEntries = defaultMaxEntries
	}

	if c.Feishu != nil && c.Feishu.MaxPapers <= 0 {
		c.Feishu.MaxPapers = defaultMaxPapers
	}
}

// Validate checks required sections and resolves secret references. Errors
// name the exact missing key.
func (c *Config) Validate() error {
	if c.Arxiv == nil {
		return missingField("arxiv")
	}
	if len(c.Arxiv.Categories) == 0 {
		return missingField("arxiv.categories")
	}

	if c.LLM == nil {
		return missingField("llm")
	}
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "llm api key",
		Value: c.LLM.APIKey,
		Env:   c.LLM.APIKeyEnv,
		File:  c.LLM.APIKeyFile,
	})
	if err != nil {
		return fmt.Errorf("llm.api-key: %w", err)
	}
	c.LLM.APIKey = apiKey

	if c.Interests == nil || strings.TrimSpace(c.Interests.Description) == "" {
		return missingField("interests.description")
	}

	if err := c.validateEmail(); err != nil {
		return err
	}

	return c.validateFeishu()
}

func (c *Config) validateEmail() error {
	if c.Email == nil || !c.Email.Enabled {
		return nil
	}

	switch {
	case strings.TrimSpace(c.Email.SMTPServer) == "":
		return missingField("email.smtp-server")
	case c.Email.SMTPPort == 0:
		return missingField("email.smtp-port")
	case strings.TrimSpace(c.Email.From) == "":
		return missingField("email.from")
	case strings.TrimSpace(c.Email.Password) == "":
		return missingField("email.password")
	case strings.TrimSpace(c.Email.To) == "":
		return missingField("email.to")
	}

	return nil
}

func (c *Config) validateFeishu() error {
	if c.Feishu == nil || !c.Feishu.Enabled {
		return nil
	}

	env := strings.TrimSpace(c.Feishu.WebhookURLEnv)
	if env != "" {
		url := strings.TrimSpace(os.Getenv(env))
		if url == "" {
			return fmt.Errorf("feishu.webhook-url-env: environment variable %q is not set", env)
		}
		c.Feishu.WebhookURL = url
	}
	if strings.TrimSpace(c.Feishu.WebhookURL) == "" {
		return missingField("feishu.webhook-url")
	}

	// The secret is optional, but a dangling env reference is a config error.
	if secretEnv := strings.TrimSpace(c.Feishu.SecretEnv); secretEnv != "" {
		secret, err := secrets.Load(secrets.Source{Name: "feishu webhook secret", Env: secretEnv})
		if err != nil {
			return fmt.Errorf("feishu.secret-env: %w", err)
		}
		c.Feishu.Secret = secret
	}

	return nil
}

// EmailEnabled reports whether the email channel should deliver.
func (c *Config) EmailEnabled() bool {
	return c.Email != nil && c.Email.Enabled
}

// FeishuEnabled reports whether the webhook channel should deliver.
func (c *Config) FeishuEnabled() bool {
	return c.Feishu != nil && c.Feishu.Enabled
}

func missingField(name string) error {
	return fmt.Errorf("missing required field: %s", name)
}
