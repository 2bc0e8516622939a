package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
arxiv:
  categories: [cs.LG, cs.CL]
  keywords: [attention]
llm:
  api-key: inline-key
interests:
  description: efficient transformers
email:
  enabled: true
  smtp-server: smtp.example.com
  smtp-port: 587
  from: bot@example.com
  password: app-password
  to: me@example.com
feishu:
  enabled: true
  webhook-url: https://open.feishu.cn/open-apis/bot/v2/hook/abc
`

func loadYAML(t *testing.T, yaml string) (*Config, error) {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yaml)))

	return Load(v)
}

func TestLoadValidConfigAppliesDefaults(t *testing.T) {
	cfg, err := loadYAML(t, validYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"cs.LG", "cs.CL"}, cfg.Arxiv.Categories)
	assert.Equal(t, "inline-key", cfg.LLM.APIKey)
	assert.Equal(t, defaultModel, cfg.LLM.Model)
	assert.Equal(t, 7.0, cfg.LLM.Threshold)
	assert.Equal(t, 10, cfg.LLM.Workers)
	assert.Equal(t, 5, cfg.Feishu.MaxPapers)
	assert.True(t, cfg.EmailEnabled())
	assert.True(t, cfg.FeishuEnabled())
}

func TestLoadMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no arxiv section",
			yaml:    "llm:\n  api-key: k\n",
			wantErr: "missing required field: arxiv",
		},
		{
			name:    "empty categories",
			yaml:    "arxiv:\n  keywords: [a]\nllm:\n  api-key: k\n",
			wantErr: "missing required field: arxiv.categories",
		},
		{
			name:    "no llm section",
			yaml:    "arxiv:\n  categories: [cs.LG]\n",
			wantErr: "missing required field: llm",
		},
		{
			name:    "no api key at all",
			yaml:    "arxiv:\n  categories: [cs.LG]\nllm:\n  model: m\n",
			wantErr: "llm.api-key",
		},
		{
			name:    "no interests",
			yaml:    "arxiv:\n  categories: [cs.LG]\nllm:\n  api-key: k\n",
			wantErr: "missing required field: interests.description",
		},
		{
			name: "email enabled without password",
			yaml: `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
interests:
  description: d
email:
  enabled: true
  smtp-server: s
  smtp-port: 587
  from: f@example.com
  to: t@example.com
`,
			wantErr: "missing required field: email.password",
		},
		{
			name: "feishu enabled without url",
			yaml: `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
interests:
  description: d
feishu:
  enabled: true
`,
			wantErr: "missing required field: feishu.webhook-url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yaml)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadExplicitZeroThresholdHonored(t *testing.T) {
	cfg, err := loadYAML(t, `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
  threshold: 0.0
interests:
  description: d
`)
	require.NoError(t, err)

	// Zero means keep everything; the default must not overwrite it.
	assert.Equal(t, 0.0, cfg.LLM.Threshold)
}

func TestLoadDisabledChannelsSkipValidation(t *testing.T) {
	cfg, err := loadYAML(t, `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
interests:
  description: d
email:
  enabled: false
feishu:
  enabled: false
`)
	require.NoError(t, err)
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.FeishuEnabled())
}

func TestLoadResolvesEnvReferences(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "env-key")
	t.Setenv("TEST_FEISHU_URL", "https://hook.example.com")
	t.Setenv("TEST_FEISHU_SECRET", "hook-secret")

	cfg, err := loadYAML(t, `
arxiv:
  categories: [cs.LG]
llm:
  api-key-env: TEST_GEMINI_KEY
interests:
  description: d
feishu:
  enabled: true
  webhook-url-env: TEST_FEISHU_URL
  secret-env: TEST_FEISHU_SECRET
`)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://hook.example.com", cfg.Feishu.WebhookURL)
	assert.Equal(t, "hook-secret", cfg.Feishu.Secret)
}

func TestLoadUnresolvedEnvReferenceFails(t *testing.T) {
	_, err := loadYAML(t, `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
interests:
  description: d
feishu:
  enabled: true
  webhook-url-env: TEST_UNSET_FEISHU_URL
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_UNSET_FEISHU_URL")
}

func TestLoadSecretEnvUnsetFails(t *testing.T) {
	_, err := loadYAML(t, `
arxiv:
  categories: [cs.LG]
llm:
  api-key: k
interests:
  description: d
feishu:
  enabled: true
  webhook-url: https://hook.example.com
  secret-env: TEST_UNSET_FEISHU_SECRET
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_UNSET_FEISHU_SECRET")
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	cfg, err := loadYAML(t, validYAML+"\nextra-section:\n  whatever: true\n")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
