// Package cmd provides the CLI commands for retrievalctl.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saoki0913/career-compass-retrieval/internal/logging"
	"github.com/saoki0913/career-compass-retrieval/pkg/version"
)

// Debug logging flag, shared by the persistent pre/post hooks below.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for retrievalctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrievalctl",
		Short: "Hybrid retrieval over company research pages",
		Long: `retrievalctl builds and queries the per-company BM25+vector
retrieval stack described by the career-compass retrieval core.

Run 'retrievalctl reindex <company-id>:<pages.json>' with a JSON file of
ingested pages to (re)build a company's indices, then 'retrievalctl query
<company-id> <query>' to run a one-shot hybrid search against them.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("retrievalctl version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.retrievalctl/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newMappingCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

// startLogging enables file-based debug logging when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to set up debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

// stopLogging flushes and closes the debug log file, if one was opened.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
