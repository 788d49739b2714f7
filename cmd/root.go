// Package cmd defines and implements the CLI commands for the refharvest
// executable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/config"
	"github.com/litstack/refharvest/internal/logging"
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refharvest",
		Short: "Extracts and enriches a scholarly article's reference list.",
		Long: `refharvest harvests the bibliography of a published article: it
scrapes the reference section from the publisher's page, resolves each
entry to its DOI, fills in metadata from the public registry, and
downloads open-access full texts where they exist.`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(func() { config.Init(nil) })

	cmd.PersistentFlags().Bool("dev", false, "development logging (colored console output)")
	_ = viper.BindPFlag("log.development", cmd.PersistentFlags().Lookup("dev"))

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// Execute is the main entry point, returning the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

// buildLogger constructs the run logger from the loaded configuration.
func buildLogger() (*zap.Logger, error) {
	return logging.New(viper.GetBool("log.development"))
}
