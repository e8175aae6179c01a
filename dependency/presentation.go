package dependency

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hilthontt/burnchat/infrastructure/cache"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"github.com/hilthontt/burnchat/presentation/controllers/join"
	"github.com/hilthontt/burnchat/presentation/controllers/message"
	"github.com/hilthontt/burnchat/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/burnchat/presentation/controllers/websocket"
	"github.com/hilthontt/burnchat/presentation/middlewares"
	"github.com/hilthontt/burnchat/presentation/routes"
	"go.uber.org/zap"
)

func (c *Container) initMiddleware() {
	binding.Validator = new(middlewares.DefaultValidator)

	c.Logger.Info("Middleware components initialized successfully")
}

func (c *Container) initControllers() {
	c.RoomController = room.NewRoomController(c.RoomUC, c.InviteUC, c.TokenCookie)
	c.JoinController = join.NewJoinController(c.InviteUC, c.TokenCookie, c.Config.GetFrontEndURL())
	c.MessageController = message.NewMessageController(c.MessageUC)
	c.WebsocketController = wsCtrl.NewWebSocketController(c.WSCore, c.Logger)

	c.Logger.Info("Controllers initialized successfully")
}

func (c *Container) SetupRouter() *gin.Engine {
	switch c.Config.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if c.Config.Sentry.Dsn != "" {
		router.Use(sentrygin.New(sentrygin.Options{
			Repanic:         true,
			WaitForDelivery: false,
			Timeout:         5 * time.Second,
		}))
	}

	if c.Config.IsProduction() {
		router.Use(middlewares.ForceHttps(c.Config, "/health", "/observability/metrics"))
	}

	router.Use(middlewares.GinLogger(c.Logger, "/health", "/observability/metrics"))
	router.Use(middlewares.MetricsMiddleware(c.MetricsManager))
	router.Use(middlewares.CorsMiddleware(c.Config))

	router.NoRoute(middlewares.NoRoute)

	routes.HealthRoutes(router)

	c.registerObservabilityRoutes(router)

	c.registerAPIRoutes(router)

	c.Logger.Info("Router configured successfully")

	return router
}

func (c *Container) registerAPIRoutes(router *gin.Engine) {
	auth := middlewares.RoomAuthMiddleware(c.RoomUC, c.TokenCookie)
	strict := c.rateLimit(middlewares.StrictRateLimiterConfig())
	sending := c.rateLimit(middlewares.MessageSendingRateLimiterConfig())

	api := router.Group("/api")
	{
		if c.Config.RateLimiter.Enabled {
			api.Use(c.rateLimit(middlewares.ModerateRateLimiterConfig(c.Config.RateLimiter)))
		}

		api.Use(func(ctx *gin.Context) {
			if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
				hub.Scope().SetUser(sentry.User{IPAddress: ctx.ClientIP()})
				if roomID := ctx.Query("roomId"); roomID != "" {
					hub.Scope().SetTag("room_id", roomID)
				}
			}
			ctx.Next()
		})

		routes.RoomRoutes(api, c.RoomController, auth, strict)
		routes.MessageRoutes(api, c.MessageController, auth, sending)
		routes.WebsocketRoutes(api, c.WebsocketController, auth)
		routes.JoinRoutes(api, router, c.JoinController, strict)
	}
}

// rateLimit returns the limiter for a tier, or a pass-through when rate
// limiting is switched off.
func (c *Container) rateLimit(config middlewares.RateLimiterConfig) gin.HandlerFunc {
	if !c.Config.RateLimiter.Enabled {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	return middlewares.RateLimiterMiddleware(c.RateLimiter, c.Logger, config)
}

func (c *Container) registerObservabilityRoutes(router *gin.Engine) {
	metricsGroup := router.Group("/observability")
	{
		metrics.GetHandler(metricsGroup, c.MetricsManager, c.MetricsRegistry, !c.Config.IsProduction())
	}
}

func (c *Container) Shutdown() error {
	c.Logger.Info("Shutting down dependencies...")

	if c.RoomSweeperJob != nil {
		c.RoomSweeperJob.Stop()
	}

	if c.EventConsumer != nil {
		if err := c.EventConsumer.Stop(); err != nil {
			c.Logger.Error("failed to stop event consumer", zap.Error(err))
		}
	}

	// Cancels the websocket core and background jobs.
	if c.cancel != nil {
		c.cancel()
	}

	if c.TracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if c.Config.Sentry.Dsn != "" {
		sentry.Flush(2 * time.Second)
	}

	if c.MemoryStore != nil {
		c.MemoryStore.Close()
	}
	if c.Config.UsesRedis() {
		cache.CloseRedis()
	}

	c.Logger.Info("Dependencies shut down successfully")

	_ = c.Logger.Log.Sync()

	return nil
}
