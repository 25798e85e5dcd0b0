package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"docrag/internal/config"
	"docrag/internal/contextutil"
)

// Global flags and the configuration loaded for the running command.
var (
	configPath   string
	outputFormat string
	cfg          *config.Config
)

// NewRootCmd creates the docrag root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docrag",
		Short: "Chunk documents and search them with hybrid retrieval",
		Long: `docrag splits a markdown-like document into context-preserving chunks and
answers queries over them by fusing BM25 relevance with vector distance.

Configuration comes from defaults, an optional YAML file (--config or
DOCRAG_CONFIG), a .env file and environment variables, in that order.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(NewChunkCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the configuration and installs the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("--format must be text or json, got %q", outputFormat)
	}
	if cmd.Name() == "version" {
		return nil
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg = loaded

	// Logs go to stderr so JSON output on stdout stays parseable
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)
	cmd.SetContext(contextutil.WithLogger(cmd.Context(), logger))
	logger.Debug("Logging configured", "level", cfg.Log.Level, "format", cfg.Log.Format)
	return nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
