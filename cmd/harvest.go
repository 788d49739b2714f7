package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/pipeline"
	"github.com/litstack/refharvest/internal/progress"
)

// newHarvestCmd creates the 'harvest' subcommand. It takes one target per
// invocation: a DOI, a DOI URL, or a publisher article page URL.
func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest <doi-or-url>",
		Short: "Harvests the reference list of one article",
		Long: `Runs the full harvesting pipeline against a single source article.
When the target is a DOI the registry's own bibliography listing is tried
first; if the registry has nothing, the publisher page is scraped in a
headless browser.`,
		Args: cobra.ExactArgs(1),
		RunE: runHarvestCommand,
	}
	return cmd
}

func runHarvestCommand(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := pipeline.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sinks := []progress.Sink{progress.NewLogSink(logger)}
	if viper.GetBool("metrics.enabled") {
		prom, err := progress.NewPromSink(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		sinks = append(sinks, prom)
	}
	// Progress narration goes to stderr so stdout stays parseable JSON.
	report := progress.NewReporter(
		func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), msg) },
		sinks...,
	)

	harvester, err := pipeline.New(cfg, logger, report)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := harvester.Run(ctx, args[0])
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("harvest interrupted")
			return nil
		}
		return fmt.Errorf("harvest: %w", err)
	}

	logger.Info("harvest complete",
		zap.String("run_id", res.RunID.String()),
		zap.Bool("fast_path", res.FastPath),
		zap.Int("references", len(res.Articles)),
		zap.Int("resolved", res.Resolved),
		zap.Int("enriched", res.Enriched),
		zap.Int("downloaded", res.Downloaded),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Articles); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
