// Package cli wires the command line: the GUI viewer plus headless
// validate, export, render and hit commands over map sources.
package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"pcb-annotator/internal/config"
	"pcb-annotator/internal/logging"
	"pcb-annotator/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GUIRunner starts the desktop viewer and blocks until it exits.
type GUIRunner func(cfg *config.Config) error

// RootOptions holds global flags and the configuration loaded for the
// running command.
type RootOptions struct {
	ConfigFile string

	Config *config.Config
	logs   io.Closer
}

// NewRootCommand creates the root command. runGUI is invoked by the view
// command, which is also the default when no subcommand is given.
func NewRootCommand(runGUI GUIRunner) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "pcb-annotator",
		Short:         "View and annotate circuit board photos",
		Long:          "Browse annotated board images, hover and select regions, and trace new polygons exported as JSON.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}
			closer, err := logging.SetupWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "logging", err)
			}
			opts.Config = cfg
			opts.logs = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logs != nil {
				return opts.logs.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(opts, runGUI)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./pcb-annotator.yaml)")
	flags.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	flags.String("log-file", "", "also write JSON logs to this file")
	flags.String("maps-dir", "./maps", "directory holding map source files")
	flags.Bool("dev", false, "start in developer mode")

	// Flags override file and environment settings when given.
	for key, name := range map[string]string{
		"logLevel": "log-level",
		"logFile":  "log-file",
		"mapsDir":  "maps-dir",
		"devMode":  "dev",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(NewViewCommand(opts, runGUI))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewHitCommand(opts))

	return cmd
}

// NewViewCommand creates the command that opens the viewer window.
func NewViewCommand(rootOpts *RootOptions, runGUI GUIRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the viewer window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(rootOpts, runGUI)
		},
	}
}

func runView(opts *RootOptions, runGUI GUIRunner) error {
	if runGUI == nil {
		return NewExitError(ExitCommandError, "viewer not available in this build")
	}
	return runGUI(opts.Config)
}

// resolveSource maps a command argument to a source file: configured view
// names resolve through the config, anything else is taken as a path.
func resolveSource(opts *RootOptions, arg string) string {
	if opts.Config != nil && filepath.Ext(arg) == "" {
		if path, ok := opts.Config.MapPath(arg); ok {
			return path
		}
	}
	return arg
}

var errNoSources = errors.New("no map sources given or configured")

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
