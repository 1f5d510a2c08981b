package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds state shared by all commands.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	c := &cli{}
	rootCmd := newRootCmd(c)
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vtree",
		Short: "Render and serve virtual trees",
		Long: `vtree reconciles virtual node trees against a host tree.

It renders HTML markup through the reconciler, prints the mutations
between two versions of a page, and serves pages as live sessions
that stream mutation batches over WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file (default: nearest vtree.json or vtree.yaml)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: text, json")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		renderCmd(c),
		diffCmd(c),
		serveCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// setup loads configuration, applies flag overrides and installs the logger.
func (c *cli) setup(stderr io.Writer) error {
	if c.noColor {
		errors.DisableColors()
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = newLogger(cfg.Log, stderr)
	slog.SetDefault(c.logger)
	return nil
}

// loadConfig reads --config, or the nearest project config. Without either
// the defaults apply.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		if ve := errors.Classify(err, ""); ve.Code == "C001" {
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// success prints a success message.
func (c *cli) success(w io.Writer, format string, args ...any) {
	mark := "\033[32m✓\033[0m"
	if c.noColor {
		mark = "✓"
	}
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
