// Package di wires the service together with google/wire.
package di

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/wire"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"devaccountbook-backend/internal/application/services"
	"devaccountbook-backend/internal/config"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/observability"
	"devaccountbook-backend/internal/infrastructure/persistence/neo4j"
	"devaccountbook-backend/internal/interfaces/http/rest"
	"devaccountbook-backend/internal/interfaces/http/rest/handlers"
	"devaccountbook-backend/internal/interfaces/http/rest/middleware"
	"devaccountbook-backend/pkg/errors"
)

// Container holds the long-lived application dependencies.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Driver    *graph.Driver
	Router    *rest.Router
	Collector *observability.Collector
	Tracer    *observability.TracerProvider
	Watcher   *config.ConfigWatcher
}

// Bootstrap makes sure the schema constraints exist. It is idempotent.
func (c *Container) Bootstrap(ctx context.Context) error {
	session := c.Driver.NewSession(ctx)
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("Failed to close bootstrap session", zap.Error(err))
		}
	}()

	return neo4j.NewSchema(session, c.Logger).EnsureConstraints(ctx)
}

// ConfigProviders provides configuration and logging.
var ConfigProviders = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideConfigWatcher,
)

// InfrastructureProviders provides the database, breaker and telemetry.
var InfrastructureProviders = wire.NewSet(
	ProvideTracerProvider,
	ProvideDriver,
	ProvideCollector,
	ProvideBreaker,
	ProvideSessionDecorators,
	wire.Bind(new(middleware.SessionOpener), new(*graph.Driver)),
	wire.Bind(new(handlers.Pinger), new(*graph.Driver)),
)

// ApplicationProviders provides the request-scoped service factory.
var ApplicationProviders = wire.NewSet(
	ProvideTreeSettings,
	ProvideMetricsSink,
	services.NewFactory,
)

// InterfaceProviders provides handlers and the router.
var InterfaceProviders = wire.NewSet(
	ProvideErrorHandler,
	handlers.SessionResolver,
	handlers.NewAccountEntryHandler,
	handlers.NewHealthHandler,
	rest.NewRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
	ApplicationProviders,
	InterfaceProviders,
	wire.Struct(new(Container), "*"),
)

// ProvideLogLevel parses the configured level into an adjustable level.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("failed to parse log level: %w", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger builds a JSON logger in production and a console logger
// otherwise, unless logging.format says differently.
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	switch {
	case strings.EqualFold(cfg.Logging.Format, "json"):
		zcfg = zap.NewProductionConfig()
	case strings.EqualFold(cfg.Logging.Format, "console"):
		zcfg = zap.NewDevelopmentConfig()
	case cfg.IsProduction():
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build(zap.Fields(zap.String("environment", string(cfg.Environment))))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideConfigWatcher hot reloads the configuration in development and
// applies log level changes.
func ProvideConfigWatcher(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) (*config.ConfigWatcher, func(), error) {
	loader := config.NewLoader(config.ConfigDir(), cfg.Environment)
	watcher, err := config.NewConfigWatcher(cfg, config.ConfigDir(), loader.Load, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	watcher.OnChange(func(next *config.Config) {
		parsed, err := zapcore.ParseLevel(next.Logging.Level)
		if err != nil {
			logger.Warn("Ignoring invalid log level", zap.String("level", next.Logging.Level))
			return
		}
		if parsed != level.Level() {
			level.SetLevel(parsed)
			logger.Info("Log level changed", zap.String("level", parsed.String()))
		}
	})

	return watcher, watcher.Stop, nil
}

// ProvideTracerProvider installs the global tracer provider.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideDriver opens the process-wide Neo4j driver.
func ProvideDriver(cfg *config.Config, logger *zap.Logger) (*graph.Driver, func(), error) {
	driver, err := graph.NewDriver(graph.Settings{
		URI:                cfg.Neo4j.URI,
		Username:           cfg.Neo4j.User,
		Password:           cfg.Neo4j.Password,
		Database:           cfg.Neo4j.Database,
		MaxPoolSize:        cfg.Neo4j.MaxPoolSize,
		AcquireTimeout:     cfg.Neo4j.AcquireTimeout,
		TransactionTimeout: cfg.Neo4j.TransactionTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Error("Failed to close graph driver", zap.Error(err))
		}
	}
	return driver, cleanup, nil
}

// ProvideCollector creates the Prometheus collector.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideBreaker creates the database breaker, or nil when disabled.
func ProvideBreaker(cfg *config.Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}

	settings := graph.DefaultBreakerSettings()
	cb := cfg.CircuitBreaker
	if cb.MaxRequests > 0 {
		settings.MaxRequests = cb.MaxRequests
	}
	if cb.Interval > 0 {
		settings.Interval = cb.Interval
	}
	if cb.Timeout > 0 {
		settings.Timeout = cb.Timeout
	}
	if cb.FailureThreshold > 0 {
		settings.FailureThreshold = cb.FailureThreshold
	}
	if cb.MinRequests > 0 {
		settings.MinRequests = cb.MinRequests
	}
	return graph.NewBreaker(settings, logger)
}

// ProvideSessionDecorators puts the breaker closest to the driver so the
// instrumentation also sees fast failures.
func ProvideSessionDecorators(cfg *config.Config, breaker *gobreaker.CircuitBreaker, collector *observability.Collector) rest.SessionDecorators {
	var decorators rest.SessionDecorators
	if breaker != nil {
		decorators = append(decorators, func(s graph.Session) graph.Session {
			return graph.NewBreakerSession(s, breaker)
		})
	}
	if cfg.Metrics.Enabled || cfg.Tracing.Enabled {
		database := cfg.Neo4j.Database
		decorators = append(decorators, func(s graph.Session) graph.Session {
			return observability.NewInstrumentedSession(s, collector, database)
		})
	}
	return decorators
}

// ProvideTreeSettings maps the graph config onto the tree builder.
func ProvideTreeSettings(cfg *config.Config) neo4j.TreeSettings {
	return neo4j.TreeSettings{
		MaxDepth:  cfg.Graph.TreeMaxDepth,
		Traversal: neo4j.Traversal(cfg.Graph.TreeTraversal),
	}
}

// ProvideMetricsSink exposes the collector as business counters.
func ProvideMetricsSink(cfg *config.Config, collector *observability.Collector) services.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return collector
}

// ProvideErrorHandler includes stack traces in development responses.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}
