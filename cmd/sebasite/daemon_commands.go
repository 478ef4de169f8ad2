package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sebasite/internal/daemonctl"
	"sebasite/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var serveLogLevel string
	var serveDev bool
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the site API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    serveLogLevel,
				Development: serveDev,
			})
		},
	}
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Override the configured log level")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Include source locations in log output")

	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the site daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), cfg, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath(),
				LogLevel:   startLogLevel,
			}, 10*time.Second)
			if err != nil {
				return err
			}
			return ctx.emit(cmd, result, func(w io.Writer) error {
				switch result.State {
				case daemonctl.StartStateAlreadyRunning:
					fmt.Fprintf(w, "Daemon already running at %s\n", result.URL)
				default:
					fmt.Fprintf(w, "Daemon started at %s\n", result.URL)
				}
				return nil
			})
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the site daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return ctx.emit(cmd, snap, func(w io.Writer) error {
				for _, line := range renderStatus(snap, shouldColorize(w)) {
					fmt.Fprintln(w, line)
				}
				return nil
			})
		},
	}

	return []*cobra.Command{serveCmd, startCmd, stopCmd, statusCmd}
}
