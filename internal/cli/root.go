package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ChrisPritchard/FluentSharepoint/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DB         string
	LogLevel   string

	// Config is the merged configuration, set before any command runs.
	// Commands built without a root (tests) see nil and fall back to flags.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// settings returns the merged configuration, or one built from the flag
// values when PersistentPreRunE did not run.
func (o *RootOptions) settings() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	cfg := &config.Config{
		DB:       o.DB,
		Format:   o.Format,
		Verbose:  o.Verbose,
		LogLevel: o.LogLevel,
	}
	if cfg.DB == "" {
		cfg.DB = config.DefaultDB
	}
	if cfg.Format == "" {
		cfg.Format = config.DefaultFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = config.DefaultLogLevel
	}
	return cfg
}

// NewRootCommand creates the root command for the camlq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "camlq",
		Short: "camlq - CAML query compiler",
		Long: `Compile declarative list queries into CAML fragments.

Queries and list schemas are declared in CUE. Display names are resolved
against the list's field catalog, taken either from the specs themselves
or from schemas imported into a local SQLite store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.Config = cfg
			opts.Format = cfg.Format
			opts.Verbose = cfg.Verbose
			opts.DB = cfg.DB

			setupLogging(cmd.ErrOrStderr(), cfg.Level())
			slog.Debug("configuration loaded", "file", cfg.File, "db", cfg.DB, "format", cfg.Format)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./camlq.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", config.DefaultDB, "path to the SQLite catalog store")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupLogging installs the process-wide slog handler.
func setupLogging(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
