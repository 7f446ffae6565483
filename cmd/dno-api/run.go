package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/dno/pkg/cmd"
	"github.com/dukex/dno/pkg/log"
	"github.com/dukex/dno/pkg/metrics"
	"github.com/dukex/dno/pkg/reaper"
	"github.com/urfave/cli/v3"
)

const (
	defaultPort      = 9092
	defaultRetention = 24 * time.Hour
	shutdownTimeout  = 10 * time.Second
)

func RunAPICommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start api",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "plugins-path",
				Usage:    "Path to the directory containing use case plugins",
				Value:    "./plugins",
				Required: false,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "How long a use case waits for a client action, 0 waits forever",
				Value:   0,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "retention",
				Usage:   "How long finished use cases are kept, 0 keeps them forever",
				Value:   defaultRetention,
				Sources: cli.EnvVars("RETENTION"),
			},
			&cli.StringFlag{
				Name:    "reap-schedule",
				Usage:   "Cron expression for evicting finished use cases",
				Value:   reaper.DefaultSchedule,
				Sources: cli.EnvVars("REAP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.Info("Initializing dno API")

			registry, err := cmd.NewRegistry(logger, command.String("plugins-path"))
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger, command.Bool("tracing"))
			if err != nil {
				return err
			}
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			if err := subscribeEventLog(ctx, eventBus, logger); err != nil {
				return fmt.Errorf("failed to subscribe to lifecycle events: %w", err)
			}

			collector := metrics.NewCollector(metrics.Namespace)

			engine, err := cmd.NewEngine(ctx, logger, registry, cmd.EngineOptions{
				ActionTimeout: command.Duration("action-timeout"),
				Tracing:       command.Bool("tracing"),
				ServiceName:   "dno-api",
				EventBus:      eventBus,
				Metrics:       collector,
			})
			if err != nil {
				return err
			}

			if retention := command.Duration("retention"); retention > 0 {
				r, err := reaper.NewReaper(engine, command.String("reap-schedule"), retention, logger)
				if err != nil {
					return err
				}

				if err := r.Start(ctx); err != nil {
					return err
				}
				defer func() {
					if err := r.Stop(context.Background()); err != nil {
						logger.Error("Failed to stop reaper", "error", err)
					}
				}()
			}

			api := NewAPI(logger, engine, collector)
			api.App()

			errs := make(chan error, 1)

			go func() {
				errs <- api.Start(command.Int("port"))
			}()

			select {
			case err := <-errs:
				if err != nil {
					logger.Error("Failed to start API", "error", err)
				}
			case <-ctx.Done():
				logger.Info("Shutting down dno API")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := api.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to stop HTTP server", "error", err)
			}

			if err := engine.Shutdown(shutdownCtx); err != nil {
				logger.Error("Use cases still running at shutdown", "error", err)
			}

			return nil
		},
	}
}
