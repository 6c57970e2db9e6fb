package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vango-dev/rask/internal/config"
	rerrors "github.com/vango-dev/rask/internal/errors"
	"github.com/vango-dev/rask/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds state shared by all commands. cfg and logger are set once the
// root command's persistent pre-run has loaded the configuration.
type cli struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var re *rerrors.Error
		if errors.As(err, &re) {
			rerrors.PrintError(os.Stderr, re)
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "rask",
		Short: "A reactive UI runtime for Go",
		Long: `rask renders component trees into a live document and keeps them
up to date as reactive state changes.

Commands:
  • render  mount a demo app, replay events and print the HTML
  • serve   run the inspector with a live websocket view
  • bench   measure keyed reconciliation`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "Config file (default rask.{yaml,json,toml} in . or the user config dir)")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "Log format: text or json")
	flags.Bool("debug", false, "Debug logging with source locations")
	c.v.BindPFlag("log.level", flags.Lookup("log-level"))
	c.v.BindPFlag("log.format", flags.Lookup("log-format"))
	c.v.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(
		renderCmd(c),
		serveCmd(c),
		benchCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// load reads the configuration and installs the logger.
func (c *cli) load(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "rask"))
	}
	cfg, err := config.Load(c.v, c.configFile, dirs...)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log, cfg.Debug)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if cfg.Path() != "" {
		logger.Debug("rask: loaded config", "file", cfg.Path())
	}
	c.cfg, c.logger = cfg, logger
	return nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", fmt.Sprintf(format, args...))
}
