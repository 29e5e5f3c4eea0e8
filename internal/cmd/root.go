// Package cmd implements the umbra command line interface.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yacchi/umbra"
	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
	"github.com/yacchi/umbra/internal/config"
)

// Version is the CLI version, overridden at build time with -ldflags.
var Version = "dev"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	format     string
	verbose    bool

	cfg      config.Config
	logger   *zap.Logger
	registry *format.Registry
}

// NewRootCommand builds the umbra command tree.
func NewRootCommand() *cobra.Command {
	a := &app{registry: umbra.DefaultRegistry()}

	root := &cobra.Command{
		Use:           "umbra",
		Short:         "Design and convert CSS box-shadow documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $UMBRA_CONFIG or ~/.config/umbra/config.yaml)")
	flags.StringVarP(&a.format, "format", "f", "", "document format for stdin/stdout and unknown extensions (json, jsonc, yaml, toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCSSCommand(a),
		newConvertCommand(a),
		newPresetCommand(a),
		newLayerCommand(a),
		newSettingsCommand(a),
		newWatchCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) init(errOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Log.Level != "" {
		if level, err = zap.ParseAtomicLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
	}
	if a.verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	a.logger = newLogger(errOut, level)

	if _, err := a.defaultCodec(); err != nil {
		return err
	}
	return nil
}

// newLogger builds a production-style JSON logger writing to w.
func newLogger(w io.Writer, level zap.AtomicLevel) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// defaultCodec returns the codec named by --format, else by the config.
func (a *app) defaultCodec() (document.Codec, error) {
	name := a.cfg.Format
	if a.format != "" {
		name = a.format
	}
	codec, ok := a.registry.Lookup(document.Format(strings.ToLower(name)))
	if !ok {
		formats := make([]string, 0, 4)
		for _, f := range a.registry.Formats() {
			formats = append(formats, string(f))
		}
		return nil, fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(formats, ", "))
	}
	return codec, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "umbra version %s\n", Version)
			return err
		},
	}
}
