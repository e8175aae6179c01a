package repository

import (
	"context"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
)

type InviteRepository interface {
	// Create stores the invite under its code; it returns false when the code
	// is already taken.
	Create(ctx context.Context, invite *model.Invite, ttl, roomTTL time.Duration) (bool, error)
	// Consume atomically fetches and deletes the invite, then drops it from
	// the room's outstanding set.
	Consume(ctx context.Context, code string) (*model.Invite, error)
	// Get reads the invite without consuming it.
	Get(ctx context.Context, code string) (*model.Invite, error)
	TTL(ctx context.Context, code string) (time.Duration, error)
	DeleteAll(ctx context.Context, roomID string) error
	Prune(ctx context.Context, roomID string) (int, error)
}
