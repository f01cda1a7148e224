package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dailybriefing/internal/config"
	"dailybriefing/internal/httpapi"
	"dailybriefing/internal/logging"
	"dailybriefing/internal/metrics"
	"dailybriefing/internal/schedule"
)

// Version is overridden at build time with -ldflags "-X dailybriefing/internal/app.Version=...".
var Version = "dev"

type options struct {
	envFile string
}

// Run executes the command line.
func Run() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "dailybriefing",
		Short: "Daily weather, news, stock and calendar briefing",
		Long: "Collects weather, news headlines, stock quotes and today's schedule\n" +
			"into one briefing and delivers it to the configured channels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.envFile, "env", "e", "", "Environment file (default ./.env)")

	root.AddCommand(
		runCommand(opts),
		scheduleCommand(opts),
		configCommand(opts),
		versionCommand(),
	)
	return root
}

// boot loads and validates the configuration and opens the logger.
func boot(opts *options, stderr io.Writer) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	return cfg, log, nil
}

func runCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate and deliver one briefing now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := boot(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := NewService(cfg, log, metrics.New(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = svc.RunOnce(ctx)
			if err == nil {
				return nil
			}
			// Partial delivery is logged by the notifier; only a briefing that
			// reached nobody fails the command.
			if failedChannels(err) < len(svc.Notifier.Channels) {
				log.WithError(err).Warn("briefing delivered with channel failures")
				return nil
			}
			return err
		},
	}
}

func scheduleCommand(opts *options) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Deliver briefings daily at BRIEFING_TIMES until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := boot(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			svc, err := NewService(cfg, log, m, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			job := func(ctx context.Context) {
				if _, err := svc.RunOnce(ctx); err != nil {
					log.WithError(err).Error("scheduled briefing had delivery failures")
				}
			}
			sched, err := schedule.New(cfg.Schedule, job, log)
			if err != nil {
				return err
			}

			if cfg.StatusAddr != "" {
				access := log.Writer()
				defer access.Close()

				status := httpapi.NewServer(cfg.StatusAddr, svc, func() time.Time {
					return sched.Next(time.Now())
				}, m, log, access)
				go func() {
					if err := status.Start(); err != nil {
						log.WithError(err).Error("status server failed")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := status.Stop(shutdownCtx); err != nil {
						log.WithError(err).Warn("status server shutdown")
					}
				}()
			}

			if now {
				job(ctx)
			}
			return sched.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Also deliver one briefing immediately")
	return cmd
}

func configCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, color.GreenString("Daily Briefing configuration"))
			fmt.Fprintln(out, color.WhiteString("---------------------------------"))
			for _, line := range cfg.Redacted() {
				fmt.Fprintln(out, line)
			}
			for _, w := range cfg.Warnings() {
				fmt.Fprintln(out, color.YellowString("warning: %s", w))
			}
			return cfg.Validate()
		},
	}
}

func versionCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if all {
				fmt.Fprintf(out, "Version:     %s\nGo version:  %s\nOS/Arch:     %s/%s\n",
					Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
				return
			}
			fmt.Fprintln(out, Version)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Print all version information")
	return cmd
}
