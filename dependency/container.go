package dependency

import (
	"context"
	"fmt"

	inviteUseCase "github.com/hilthontt/burnchat/application/usecases/invite"
	messageUseCase "github.com/hilthontt/burnchat/application/usecases/message"
	roomUseCase "github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/cache"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/events"
	"github.com/hilthontt/burnchat/infrastructure/jobs"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"github.com/hilthontt/burnchat/infrastructure/security"
	"github.com/hilthontt/burnchat/infrastructure/websocket"
	"github.com/hilthontt/burnchat/presentation/controllers/join"
	"github.com/hilthontt/burnchat/presentation/controllers/message"
	"github.com/hilthontt/burnchat/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/burnchat/presentation/controllers/websocket"
	"github.com/hilthontt/burnchat/presentation/middlewares"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	TracerProvider  *trace.TracerProvider
	MetricsRegistry *prometheus.Registry
	MetricsManager  metrics.Manager

	Store       repository.Store
	MemoryStore *cache.MemoryStore
	Publisher   repository.Publisher
	RateLimiter middlewares.RateLimiter
	TokenCookie *security.TokenCookie

	RoomRepo    repository.RoomRepository
	InviteRepo  repository.InviteRepository
	MessageRepo repository.MessageRepository

	WSRoomManager *websocket.RoomManager
	WSCore        *websocket.Core
	EventConsumer *events.EventConsumer

	RoomUC    roomUseCase.RoomUseCase
	InviteUC  inviteUseCase.InviteUseCase
	MessageUC messageUseCase.MessageUseCase

	RoomController      room.RoomController
	JoinController      join.JoinController
	MessageController   message.MessageController
	WebsocketController wsCtrl.WebSocketController

	RoomSweeperJob *jobs.RoomSweeperJob

	ctx    context.Context
	cancel context.CancelFunc
}

func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	loggerInstance, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.Logger.Info("Initializing burnchat dependencies")

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	if err := c.initStore(); err != nil {
		return nil, fmt.Errorf("error initializing store: %w", err)
	}

	c.initWebSocket()

	c.initPublisher()

	c.initRepositories()

	c.initUseCases()

	c.initMiddleware()

	c.initControllers()

	c.initBackgroundJobs(c.ctx)

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}
