package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type messageRepository struct {
	store  repository.Store
	tracer trace.Tracer
}

func NewMessageRepository(store repository.Store, tracer trace.Tracer) repository.MessageRepository {
	return &messageRepository{
		store:  store,
		tracer: tracer,
	}
}

func (r *messageRepository) Append(ctx context.Context, message *model.Message) error {
	ctx, span := r.tracer.Start(ctx, "messageRepository.Append")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", message.RoomID),
		attribute.String("message.id", message.ID),
		attribute.String("message.type", string(message.Type)),
	)

	data, err := json.Marshal(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal message")
		return err
	}

	if err := r.store.RPush(ctx, messagesKey(message.RoomID), string(data)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append message")
		return err
	}

	return nil
}

func (r *messageRepository) GetByRoom(ctx context.Context, roomID string) ([]model.StoredMessage, error) {
	ctx, span := r.tracer.Start(ctx, "messageRepository.GetByRoom")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	entries, err := r.store.LRange(ctx, messagesKey(roomID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read message log")
		return nil, err
	}

	messages := make([]model.StoredMessage, 0, len(entries))
	for _, raw := range entries {
		var msg model.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			span.AddEvent("skipped malformed entry")
			continue
		}
		messages = append(messages, model.StoredMessage{Message: msg, Raw: raw})
	}

	span.SetAttributes(attribute.Int("messages.count", len(messages)))
	return messages, nil
}

func (r *messageRepository) Remove(ctx context.Context, roomID string, message model.StoredMessage) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "messageRepository.Remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.String("message.id", message.ID),
	)

	removed, err := r.store.LRem(ctx, messagesKey(roomID), message.Raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove message")
		return false, err
	}

	return removed > 0, nil
}

func (r *messageRepository) Refresh(ctx context.Context, roomID string, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "messageRepository.Refresh")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.String("ttl", ttl.String()),
	)

	if ttl <= 0 {
		return r.store.Del(ctx, messagesKey(roomID), legacyKey(roomID))
	}

	for _, key := range []string{messagesKey(roomID), legacyKey(roomID)} {
		if err := r.store.Expire(ctx, key, ttl); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to refresh expiry")
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}

func (r *messageRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	ctx, span := r.tracer.Start(ctx, "messageRepository.DeleteByRoom")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	if err := r.store.Del(ctx, messagesKey(roomID), legacyKey(roomID)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete message log")
		return err
	}
	return nil
}
