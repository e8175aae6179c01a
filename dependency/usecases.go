package dependency

import (
	inviteUseCase "github.com/hilthontt/burnchat/application/usecases/invite"
	messageUseCase "github.com/hilthontt/burnchat/application/usecases/message"
	roomUseCase "github.com/hilthontt/burnchat/application/usecases/room"
)

func (c *Container) initUseCases() {
	c.RoomUC = roomUseCase.NewRoomUseCase(c.RoomRepo, c.InviteRepo, c.MessageRepo, c.Publisher, c.MetricsManager, c.Logger, c.Config.Room)
	c.InviteUC = inviteUseCase.NewInviteUseCase(c.RoomRepo, c.InviteRepo, c.MetricsManager, c.Logger, c.Config.Room)
	c.MessageUC = messageUseCase.NewMessageUseCase(c.MessageRepo, c.RoomRepo, c.RoomUC, c.Publisher, c.MetricsManager, c.Logger)

	c.Logger.Info("Use cases initialized successfully")
}
