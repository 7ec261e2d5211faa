package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	"github.com/SusheelSathyaraj/TableReplicator/monitoring"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigPath string
	EnvFiles   []string
}

// loaded configuration plus the logger built from it
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "replicator",
		Short:         "Copy the reference and detail tables from one database to another",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a yaml config file (env overrides use the REPLICATOR_ prefix)")
	cmd.PersistentFlags().StringArrayVar(&opts.EnvFiles, "env-file", []string{".env"}, "dotenv file to load before reading the environment, may be repeated")

	cmd.AddCommand(newReplicateCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	return cmd
}

// loading env files, config and logger for a subcommand
func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if _, err := config.LoadEnvFiles(opts.EnvFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	logger, err := monitoring.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func main() {
	Execute()
}
