package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xaenox/mailtime/internal/classifier"
	"github.com/xaenox/mailtime/internal/metrics"
	"github.com/xaenox/mailtime/internal/models"
	"github.com/xaenox/mailtime/internal/source"
	"github.com/xaenox/mailtime/pkg/config"
)

type options struct {
	configPath   string
	inputPath    string
	mboxPath     string
	samples      bool
	remote       bool
	onlyTimeInfo bool
	workers      int
	metricsFile  string
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:          "timeparse",
		Short:        "Find deadlines, payments and meetings in messages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, opts, cmd.OutOrStdout())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.inputPath, "input", "", "JSON file holding an array of messages")
	flags.StringVar(&opts.mboxPath, "mbox", "", "Path to an mbox archive")
	flags.BoolVar(&opts.samples, "samples", false, "Analyze the built-in sample messages")
	flags.BoolVar(&opts.remote, "remote", false, "Use the remote model first and fall back to local patterns")
	flags.BoolVar(&opts.onlyTimeInfo, "only-time-info", false, "Print only messages that carry time info")
	flags.IntVar(&opts.workers, "workers", 0, "Concurrent extractions (overrides config)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	rootCmd.MarkFlagsMutuallyExclusive("input", "mbox", "samples")
	rootCmd.MarkFlagsOneRequired("input", "mbox", "samples")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, opts options, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("remote") {
		cfg.Classifier.Remote = opts.remote
	}
	if opts.workers > 0 {
		cfg.Classifier.Workers = opts.workers
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	clf, err := buildClassifier(cfg, rec, logger)
	if err != nil {
		return err
	}

	envs, err := loadMessages(ctx, opts, logger)
	if err != nil {
		return err
	}

	msgs := make([]*models.Message, 0, len(envs))
	for _, env := range envs {
		if env.Err != nil {
			logger.Warn("Skipping unreadable message", zap.Error(env.Err))
			if err := writeLine(out, record{Error: env.Err.Error()}); err != nil {
				return err
			}
			continue
		}
		msgs = append(msgs, env.Message)
	}

	logger.Info("Extracting time info",
		zap.Int("messages", len(msgs)),
		zap.Bool("remote", cfg.Classifier.Remote),
		zap.Int("workers", cfg.Classifier.Workers))

	results := classifier.ExtractAll(ctx, clf, msgs, cfg.Classifier.Workers)
	found := 0
	for i, res := range results {
		line := newRecord(msgs[i], res)
		if res.Err != nil {
			logger.Error("Failed to extract message", zap.Error(res.Err), zap.String("message_id", msgs[i].ID))
		} else if res.Finding.HasTimeInfo {
			found++
		} else if opts.onlyTimeInfo {
			continue
		}
		if err := writeLine(out, line); err != nil {
			return err
		}
	}

	logger.Info("Extraction finished", zap.Int("messages", len(msgs)), zap.Int("with_time_info", found))

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return ctx.Err()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func buildClassifier(cfg *config.Config, rec *metrics.Recorder, logger *zap.Logger) (classifier.Classifier, error) {
	ecfg, err := extractorConfig(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	local, err := classifier.NewExtractor(ecfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	clf := classifier.WithMetrics(local, "local", rec)
	if !cfg.Classifier.Remote {
		return clf, nil
	}

	gpt := classifier.NewGPTClassifier(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.Timeout,
		logger,
	)
	if !gpt.Configured() {
		logger.Warn("Remote classifier requested without an API key, using local patterns only")
	}
	remote, err := classifier.NewCachedClassifier(classifier.WithMetrics(gpt, "remote", rec), cfg.Classifier.CacheSize)
	if err != nil {
		return nil, err
	}
	return classifier.NewFallbackClassifier(remote, clf, logger), nil
}

// extractorConfig overlays the configured vocabulary on the defaults.
func extractorConfig(c config.ClassifierConfig) (classifier.Config, error) {
	ecfg := classifier.DefaultConfig()
	ecfg.ContextWindow = c.ContextWindow
	ecfg.ClassifyUnmatched = c.ClassifyUnmatched
	if len(c.ObligationKeywords) > 0 {
		ecfg.ObligationKeywords = c.ObligationKeywords
	}
	if len(c.UrgencyKeywords) > 0 {
		ecfg.UrgencyKeywords = c.UrgencyKeywords
	}
	if len(c.ElevatedTypes) > 0 {
		ecfg.ElevatedTypes = ecfg.ElevatedTypes[:0]
		for _, name := range c.ElevatedTypes {
			t, err := models.ParseObligationType(name)
			if err != nil {
				return ecfg, fmt.Errorf("classifier.elevated_types: %w", err)
			}
			ecfg.ElevatedTypes = append(ecfg.ElevatedTypes, t)
		}
	}
	if len(c.Precedence) > 0 {
		ecfg.Precedence = make([]classifier.TypeRule, 0, len(c.Precedence))
		for _, rule := range c.Precedence {
			t, err := models.ParseObligationType(rule.Type)
			if err != nil {
				return ecfg, fmt.Errorf("classifier.precedence: %w", err)
			}
			ecfg.Precedence = append(ecfg.Precedence, classifier.TypeRule{Type: t, Keywords: rule.Keywords})
		}
	}
	return ecfg, nil
}

func loadMessages(ctx context.Context, opts options, logger *zap.Logger) ([]models.Envelope, error) {
	switch {
	case opts.samples:
		msgs, err := source.Samples()
		if err != nil {
			return nil, err
		}
		envs := make([]models.Envelope, len(msgs))
		for i, m := range msgs {
			envs[i] = models.Envelope{Message: m}
		}
		return envs, nil
	case opts.mboxPath != "":
		return source.ReadMboxFile(ctx, opts.mboxPath, logger)
	default:
		f, err := os.Open(opts.inputPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return source.DecodeMessages(f)
	}
}

type record struct {
	MessageID string          `json:"message_id,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Finding   *models.Finding `json:"finding,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func newRecord(msg *models.Message, res classifier.Result) record {
	r := record{MessageID: msg.ID, Subject: msg.Subject, Sender: msg.Sender}
	if res.Err != nil {
		r.Error = res.Err.Error()
		return r
	}
	f := res.Finding
	r.Finding = &f
	return r
}

func writeLine(w io.Writer, r record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
