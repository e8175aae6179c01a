package repository

import (
	"context"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	TTL(ctx context.Context, id string) (time.Duration, error)
	// AddToken appends token to the room's connected list unless the list
	// already holds limit tokens, in which case it returns model.ErrRoomFull.
	AddToken(ctx context.Context, id, token string, limit int) (*model.Room, error)
	// Delete removes metadata, the legacy key and the index entry.
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
	Unindex(ctx context.Context, id string) error
}
