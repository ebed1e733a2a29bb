package main

import (
	"fmt"
	"io"

	"github.com/opd-ai/callaudio/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "audiomodectl",
		Short: "Explore the call audio mode state machine",
		Long: `audiomodectl replays call scenarios against the audio mode state machine
and prints its transition table.

The machine decides audio focus and the device audio mode (ringtone, in-call,
in-communication) from call-population events. Scenarios drive it with
simulated focus and route ports, so no audio hardware is touched.`,
		SilenceUsage:       true,
		PersistentPreRunE:  opts.setup,
		PersistentPostRunE: opts.teardown,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newReplayCmd(opts), newTableCmd(), newVersionCmd())
	return cmd
}

// setup loads configuration and installs logging before any subcommand runs.
func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	closer, err := config.ConfigureLogging(cfg)
	if err != nil {
		return err
	}
	// Keep stdout for reports.
	if cfg.LogFile == "" {
		logrus.SetOutput(cmd.ErrOrStderr())
	}

	o.cfg = cfg
	o.closer = closer

	logrus.WithFields(logrus.Fields{
		"function": "setup",
		"command":  cmd.Name(),
		"config":   o.configPath,
	}).Debug("Command configured")
	return nil
}

func (o *rootOptions) teardown(_ *cobra.Command, _ []string) error {
	if o.closer == nil {
		return nil
	}
	if err := o.closer.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	o.closer = nil
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "audiomodectl %s\n", version)
			return err
		},
	}
}
