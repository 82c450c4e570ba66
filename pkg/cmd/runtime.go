package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/eventbus"
	"github.com/dukex/scenarios/pkg/executor"
	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/otelhelper"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/registry"
	"github.com/dukex/scenarios/pkg/services"
	"github.com/dukex/scenarios/pkg/vault"
)

// Config holds the process settings shared by every command.
type Config struct {
	ServiceName     string
	DatabaseURL     string
	PluginsPath     string
	VaultKey        string
	EventBus        string
	KafkaBrokers    string
	RedisURL        string
	NodeTimeout     time.Duration
	AllowDeprecated bool
	Tracing         bool

	// WithoutVault skips the vault key for commands that never read
	// connection secrets.
	WithoutVault bool
}

// Flags returns the command-line flags backing Config.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence (file://path or postgres://...)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing handler plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.StringFlag{
			Name:    "vault-key",
			Usage:   "Base64 encoded 32 byte key for connection credentials",
			Sources: cli.EnvVars("VAULT_KEY"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Value:   "localhost:9092",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for shared run cancellation flags",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "node-timeout",
			Usage:   "Maximum duration of one node call (0 disables)",
			Value:   30 * time.Second,
			Sources: cli.EnvVars("NODE_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "allow-deprecated",
			Usage:   "Execute nodes whose definition is deprecated",
			Value:   true,
			Sources: cli.EnvVars("ALLOW_DEPRECATED_NODES"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

// ConfigFromCommand reads Config from the flags returned by Flags.
func ConfigFromCommand(serviceName string, command *cli.Command) Config {
	return Config{
		ServiceName:     serviceName,
		DatabaseURL:     command.String("database-url"),
		PluginsPath:     command.String("plugins-path"),
		VaultKey:        command.String("vault-key"),
		EventBus:        command.String("event-bus"),
		KafkaBrokers:    command.String("kafka-brokers"),
		RedisURL:        command.String("redis-url"),
		NodeTimeout:     command.Duration("node-timeout"),
		AllowDeprecated: command.Bool("allow-deprecated"),
		Tracing:         command.Bool("tracing"),
	}
}

// Runtime is the wired set of stores and services a command runs on.
type Runtime struct {
	Persistence persistence.Persistence
	Registry    *registry.Registry
	Resolver    *vault.Resolver
	EventBus    eventbus.EventBus
	Transforms  *mapping.Catalog
	Executor    *executor.Executor

	Scenarios   *services.Scenario
	Graph       *services.Graph
	Connections *services.Connection
	Catalog     *services.Catalog

	closers []func(ctx context.Context) error
}

// NewRuntime builds every dependency described by cfg. On error the parts
// created so far are closed.
func NewRuntime(ctx context.Context, logger *slog.Logger, cfg Config) (_ *Runtime, err error) {
	rt := &Runtime{}

	defer func() {
		if err != nil {
			_ = rt.Close(ctx)
		}
	}()

	rt.Registry, err = NewRegistry(ctx, logger, cfg.PluginsPath, registry.WithDeprecatedExecution(cfg.AllowDeprecated))
	if err != nil {
		return nil, err
	}

	rt.Persistence, err = NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	rt.closers = append(rt.closers, rt.Persistence.Close)

	if !cfg.WithoutVault {
		rt.Resolver, err = NewResolver(cfg.VaultKey, logger)
		if err != nil {
			return nil, err
		}
	}

	rt.EventBus, err = NewEventBus(cfg.EventBus, cfg.KafkaBrokers, cfg.ServiceName, logger)
	if err != nil {
		return nil, err
	}

	rt.closers = append(rt.closers, func(context.Context) error { return rt.EventBus.Close() })

	cancellations, err := NewCancellationStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	opts := []executor.Option{
		executor.WithVault(rt.Resolver),
		executor.WithCancellationStore(cancellations),
		executor.WithEventPublisher(rt.EventBus),
		executor.WithNodeTimeout(cfg.NodeTimeout),
	}

	if cfg.Tracing {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, cfg.ServiceName)
		if err != nil {
			return nil, err
		}

		rt.closers = append(rt.closers, shutdown)
		opts = append(opts, executor.WithTracer(tracer))
	}

	rt.Transforms = mapping.NewDefaultCatalog()
	logs := automationlog.New(rt.Persistence.LogRepository(), logger)
	rt.Executor = executor.New(rt.Persistence, rt.Registry, mapping.NewMapper(rt.Transforms), logs, logger, opts...)

	rt.Scenarios = services.NewScenario(rt.Persistence, rt.Executor, logs, logger)
	rt.Graph = services.NewGraph(rt.Persistence, rt.Registry, rt.Transforms)
	rt.Connections = services.NewConnection(rt.Persistence, rt.Resolver, logger)
	rt.Catalog = services.NewCatalog(rt.Registry, rt.Transforms)

	return rt, nil
}

// Close waits for in-flight runs and releases resources in reverse order.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.Scenarios != nil {
		rt.Scenarios.Wait()
	}

	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	rt.closers = nil

	return errors.Join(errs...)
}
