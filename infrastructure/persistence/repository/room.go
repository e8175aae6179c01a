package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldConnected = "connected"
	fieldCreatedAt = "createdAt"

	// maxSwapAttempts bounds the optimistic loop in AddToken.
	maxSwapAttempts = 8
)

type roomRepository struct {
	store  repository.Store
	tracer trace.Tracer
}

func NewRoomRepository(store repository.Store, tracer trace.Tracer) repository.RoomRepository {
	return &roomRepository{
		store:  store,
		tracer: tracer,
	}
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.String("room.ttl", ttl.String()),
	)

	connected, err := json.Marshal(nonNil(room.Connected))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal connected tokens")
		return err
	}

	if err := r.store.HSetEx(ctx, metaKey(room.ID), map[string]string{
		fieldConnected: string(connected),
		fieldCreatedAt: strconv.FormatInt(room.CreatedAt.UnixMilli(), 10),
	}, ttl); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write room metadata")
		return err
	}

	if err := r.store.SAdd(ctx, roomIndexKey, room.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to index room")
		return err
	}

	span.SetStatus(codes.Ok, "room created")
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	room, _, err := r.load(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			span.SetAttributes(attribute.Bool("room.found", false))
		} else {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("room.found", true),
		attribute.Int("room.connected", len(room.Connected)),
	)
	return room, nil
}

// load returns the room along with the raw connected field it was decoded from.
func (r *roomRepository) load(ctx context.Context, id string) (*model.Room, string, error) {
	fields, err := r.store.HGetAll(ctx, metaKey(id))
	if err != nil {
		if errors.Is(err, repository.ErrNil) {
			return nil, "", model.ErrRoomNotFound
		}
		return nil, "", fmt.Errorf("read room metadata: %w", err)
	}

	raw := fields[fieldConnected]
	room := &model.Room{ID: id, Connected: []string{}}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &room.Connected); err != nil {
			return nil, "", fmt.Errorf("decode connected tokens: %w", err)
		}
	}

	if createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		room.CreatedAt = time.UnixMilli(createdAt)
	}

	return room, raw, nil
}

func (r *roomRepository) TTL(ctx context.Context, id string) (time.Duration, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.TTL")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	ttl, err := r.store.TTL(ctx, metaKey(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return 0, err
	}

	ttl = max(ttl, 0)
	span.SetAttributes(attribute.String("room.ttl", ttl.String()))
	return ttl, nil
}

func (r *roomRepository) AddToken(ctx context.Context, id, token string, limit int) (*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.AddToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", id),
		attribute.Int("room.limit", limit),
	)

	for attempt := 1; attempt <= maxSwapAttempts; attempt++ {
		room, raw, err := r.load(ctx, id)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if room.IsMember(token) {
			span.SetAttributes(attribute.Bool("token.already_member", true))
			return room, nil
		}

		if len(room.Connected) >= limit {
			span.SetAttributes(attribute.Bool("room.full", true))
			span.SetStatus(codes.Error, "room is full")
			return nil, model.ErrRoomFull
		}

		connected := append(slices.Clone(room.Connected), token)
		next, err := json.Marshal(connected)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		swapped, err := r.store.HCompareAndSwap(ctx, metaKey(id), fieldConnected, raw, string(next))
		if err != nil {
			if errors.Is(err, repository.ErrNil) {
				span.SetStatus(codes.Error, "room vanished during admission")
				return nil, model.ErrRoomNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to swap connected tokens")
			return nil, fmt.Errorf("swap connected tokens: %w", err)
		}

		if swapped {
			span.SetAttributes(attribute.Int("swap.attempts", attempt))
			room.Connected = connected
			return room, nil
		}
	}

	span.SetStatus(codes.Error, "too many concurrent admissions")
	return nil, model.ErrConflict
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	var errs []error
	if err := r.store.Del(ctx, metaKey(id), legacyKey(id)); err != nil {
		errs = append(errs, fmt.Errorf("delete room keys: %w", err))
	}
	if err := r.store.SRem(ctx, roomIndexKey, id); err != nil {
		errs = append(errs, fmt.Errorf("unindex room: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete room")
		return err
	}
	return nil
}

func (r *roomRepository) ListIDs(ctx context.Context) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.ListIDs")
	defer span.End()

	ids, err := r.store.SMembers(ctx, roomIndexKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list rooms")
		return nil, err
	}

	span.SetAttributes(attribute.Int("rooms.count", len(ids)))
	return ids, nil
}

func (r *roomRepository) Unindex(ctx context.Context, id string) error {
	return r.store.SRem(ctx, roomIndexKey, id)
}

func nonNil(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}
