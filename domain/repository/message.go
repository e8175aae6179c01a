package repository

import (
	"context"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
)

type MessageRepository interface {
	Append(ctx context.Context, message *model.Message) error
	GetByRoom(ctx context.Context, roomID string) ([]model.StoredMessage, error)
	Remove(ctx context.Context, roomID string, message model.StoredMessage) (bool, error)
	// Refresh aligns the log's expiry with ttl, deleting it when ttl <= 0.
	Refresh(ctx context.Context, roomID string, ttl time.Duration) error
	DeleteByRoom(ctx context.Context, roomID string) error
}
