package dependency

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hilthontt/burnchat/infrastructure/cache"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/events"
	"github.com/hilthontt/burnchat/infrastructure/jobs"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"github.com/hilthontt/burnchat/infrastructure/metrics/exporters"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/hilthontt/burnchat/presentation/middlewares"
	"go.uber.org/zap"
)

func (c *Container) initInfrastructure() error {
	tracerProvider, err := exporters.InitJaegerExporter(c.Config)
	switch {
	case errors.Is(err, exporters.ErrTracingDisabled):
		c.Logger.Info("Jaeger endpoint not configured, tracing disabled")
	case err != nil:
		c.Logger.Error("failed to initialize Jaeger exporter", zap.Error(err))
		c.Logger.Warn("Using noop tracer provider as fallback")
	default:
		c.TracerProvider = tracerProvider
		c.Logger.Info("Jaeger exporter initialized successfully",
			zap.String("endpoint", c.Config.Jaeger.Endpoint),
			zap.String("service", c.Config.Jaeger.ServiceName),
		)

		go exporters.SendStartupTrace(tracerProvider, c.Config)
	}

	if c.Config.Sentry.Dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:            c.Config.Sentry.Dsn,
			Debug:          c.Config.Sentry.Debug,
			SendDefaultPII: c.Config.Sentry.SendDefaultPII,
			Environment:    c.Config.Server.RunMode,
		}); err != nil {
			c.Logger.Error("failed to initialize Sentry", zap.Error(err))
		} else {
			c.Logger.Info("Sentry initialized successfully")
		}
	}

	c.MetricsRegistry = metrics.NewRegistry()
	meter, err := exporters.Prometheus(c.Config.Jaeger.ServiceName, c.Config.Jaeger.ServiceVersion, c.MetricsRegistry)
	if err != nil {
		return err
	}

	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)
	metrics.RegisterDefaults(c.MetricsManager)

	c.Logger.Info("Metrics initialized successfully")

	return nil
}

func (c *Container) initStore() error {
	c.TokenCookie = security.NewTokenCookie(c.Config)

	if c.Config.UsesRedis() {
		if err := cache.InitRedis(c.Config); err != nil {
			return err
		}
		client := cache.GetRedis()
		c.Store = cache.NewRedisStore(client)
		c.RateLimiter = middlewares.NewRedisRateLimiter(client)

		c.Logger.Info("Redis store initialized", zap.String("address", c.Config.GetRedisAddress()))
		return nil
	}

	options := cache.DefaultOptions()
	if c.Config.Store.CleanupInterval > 0 {
		options.CleanupInterval = c.Config.Store.CleanupInterval
	}
	c.MemoryStore = cache.NewMemoryStore(options)
	c.Store = c.MemoryStore
	c.RateLimiter = middlewares.NewMemoryRateLimiter(10 * time.Minute)

	c.Logger.Warn("Using in-memory store, state is local to this process",
		zap.String("driver", config.StoreDriverMemory),
	)
	return nil
}

func (c *Container) initPublisher() {
	if c.Config.UsesRedis() {
		c.Publisher = events.NewRedisPublisher(cache.GetRedis())
		c.EventConsumer = events.NewEventConsumer(cache.GetRedis(), c.WSCore, c.Logger)
		return
	}

	c.Publisher = events.NewLocalPublisher(c.WSCore)
}

func (c *Container) initBackgroundJobs(ctx context.Context) {
	interval := c.Config.Room.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	c.RoomSweeperJob = jobs.NewRoomSweeperJob(c.RoomUC, c.Logger, interval)

	go c.RoomSweeperJob.Start(ctx)

	if c.EventConsumer != nil {
		go func() {
			if err := c.EventConsumer.Start(ctx); err != nil {
				c.Logger.Error("event consumer exited", zap.Error(err))
			}
		}()
	}

	c.Logger.Info("Background jobs initialized and started successfully")
}
