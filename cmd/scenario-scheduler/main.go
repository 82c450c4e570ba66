// Package main provides the scenario scheduler, which runs active scenarios on
// their cron schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dukex/scenarios/pkg/cmd"
	"github.com/dukex/scenarios/pkg/log"
	"github.com/dukex/scenarios/pkg/scheduler"
)

const serviceName = "scenario-scheduler"

func main() {
	command := &cli.Command{
		Name:  serviceName,
		Usage: "Run scheduled scenarios",
		Flags: append(cmd.Flags(),
			&cli.DurationFlag{
				Name:    "resync-interval",
				Usage:   "How often scenario schedules are reloaded",
				Value:   time.Minute,
				Sources: cli.EnvVars("SCHEDULER_RESYNC_INTERVAL"),
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("scheduler")
			logger.InfoContext(ctx, "Initializing scenario scheduler")

			rt, err := cmd.NewRuntime(ctx, logger, cmd.ConfigFromCommand(serviceName, command))
			if err != nil {
				return err
			}

			defer func() {
				if err := rt.Close(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
				}
			}()

			if err := watchRuns(ctx, rt.EventBus, logger); err != nil {
				return err
			}

			s := scheduler.New(rt.Scenarios, logger, scheduler.WithResyncInterval(command.Duration("resync-interval")))

			return s.Start(ctx)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		log.WithModule("scheduler").Error("Scenario scheduler exited", "error", err)
		os.Exit(1)
	}
}
