package dependency

import (
	"github.com/hilthontt/burnchat/infrastructure/persistence/repository"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/hilthontt/burnchat/infrastructure/persistence/repository"

func (c *Container) initRepositories() {
	tracer := otel.Tracer(tracerName)

	c.RoomRepo = repository.NewRoomRepository(c.Store, tracer)
	c.InviteRepo = repository.NewInviteRepository(c.Store, tracer)
	c.MessageRepo = repository.NewMessageRepository(c.Store, tracer)

	c.Logger.Info("Repositories initialized successfully")
}
