package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/arxiv-digest/internal/arxiv"
	"github.com/spigell/arxiv-digest/internal/config"
	"github.com/spigell/arxiv-digest/internal/evaluator"
	"github.com/spigell/arxiv-digest/internal/library"
	"github.com/spigell/arxiv-digest/internal/llm/gemini"
	"github.com/spigell/arxiv-digest/internal/logger"
	"github.com/spigell/arxiv-digest/internal/notify"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes     = "Yes"
	PromptNo      = "No"
	PromptPreview = "Preview the digest"
)

var errDeliveryFailed = errors.New("delivery failed for at least one enabled channel")

var prompt = promptui.Select{
	Label: "Send the digest?",
	Items: []string{PromptYes, PromptPreview, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run [config-file]",
	Short: "Run the arxiv-digest main command",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before sending the digest")
	runCmd.Flags().Bool("dry-run", false, "render the digest to stdout instead of delivering it")
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	// A positional config path takes precedence over the --config flag.
	if len(args) == 1 {
		viper.SetConfigFile(args[0])
		if err := viper.ReadInConfig(); err != nil {
			logger.Fatal("reading a config", zap.Error(err))
		}
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the arxiv-digest", zap.String("version", version))

	researchContext := buildResearchContext(cfg, logger)

	client := arxiv.New(ctx, logger)

	logger.Info("fetching papers from arXiv", zap.Strings("categories", cfg.Arxiv.Categories))

	papers, err := client.FetchPapers(cfg.Arxiv)
	if err != nil {
		logger.Fatal("fetching papers", zap.Error(err))
	}

	logger.Info("fetched candidate papers", zap.Int("count", papers.Len()))

	generator, err := gemini.NewGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
	if err != nil {
		logger.Fatal("building llm generator", zap.Error(err))
	}

	ev := evaluator.New(generator, cfg.LLM.Threshold, cfg.LLM.Workers, cfg.LLM.Verbose, logger)

	relevant := ev.Evaluate(ctx, papers, researchContext, cfg.Interests.Description)

	logger.Info("evaluation completed",
		zap.Int("initial", papers.Len()),
		zap.Int("relevant", relevant.Len()),
		zap.Float64("threshold", cfg.LLM.Threshold),
	)

	if cmd.Flag("dry-run").Value.String() == "true" {
		fmt.Println(notify.RenderDigest(relevant))
		return nil
	}

	if cmd.Flag("yes").Value.String() == "false" {
		proceed, err := confirm(relevant)
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if !proceed {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return nil
		}
	}

	return deliver(ctx, cfg, relevant, logger)
}

// confirm asks the operator whether to send the digest, offering a preview.
func confirm(papers *arxiv.Papers) (bool, error) {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return false, err
		}

		switch action {
		case PromptYes:
			return true, nil
		case PromptNo:
			return false, nil
		case PromptPreview:
			fmt.Println(notify.RenderDigest(papers))
		default:
			return false, fmt.Errorf("invalid action: %s", action)
		}
	}
}

// deliver sends the ranked digest to every enabled channel. A failed channel
// is reported and marks the run as failed, but never blocks the other one.
func deliver(ctx context.Context, cfg *config.Config, papers *arxiv.Papers, logger *zap.Logger) error {
	failed := false

	if cfg.EmailEnabled() {
		sender := notify.NewEmailSender(
			cfg.Email.SMTPServer,
			cfg.Email.SMTPPort,
			cfg.Email.From,
			cfg.Email.Password,
			cfg.Email.To,
			logger,
		)

		if err := sender.SendDigest(papers); err != nil {
			logger.Error("sending email digest", zap.Error(err))
			failed = true
		}
	}

	if cfg.FeishuEnabled() {
		sender := notify.NewFeishuSender(
			cfg.Feishu.WebhookURL,
			cfg.Feishu.Secret,
			cfg.Feishu.MaxPapers,
			logger,
		)

		if err := sender.SendDigest(ctx, papers); err != nil {
			logger.Error("sending feishu digest", zap.Error(err))
			failed = true
		}
	}

	if !cfg.EmailEnabled() && !cfg.FeishuEnabled() {
		logger.Warn("no notification channels enabled",
			zap.String("hint", "enable the email or feishu section in the configuration file"),
		)
	}

	if failed {
		return errDeliveryFailed
	}

	logger.Info("digest completed", zap.Int("papers", papers.Len()))

	return nil
}

func buildResearchContext(cfg *config.Config, logger *zap.Logger) string {
	if cfg.Library == nil || strings.TrimSpace(cfg.Library.File) == "" {
		logger.Info("no library configured, using interests only")
		return library.NoLibrarySummary
	}

	lib, err := library.Load(cfg.Library.File)
	if err != nil {
		// A typo in the path degrades to interests-only context, but an
		// unsupported format means the config points at the wrong file.
		if errors.Is(err, library.ErrUnsupportedFormat) {
			logger.Fatal("loading library", zap.Error(err))
		}

		logger.Warn("library file is not readable, using interests only",
			zap.String("path", cfg.Library.File),
			zap.Error(err),
		)
		return library.NoLibrarySummary
	}

	logger.Info("parsed library", zap.Int("entries", len(lib.Entries)))

	return lib.Summary(cfg.Library.MaxEntries)
}
