package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type inviteRepository struct {
	store  repository.Store
	tracer trace.Tracer
}

func NewInviteRepository(store repository.Store, tracer trace.Tracer) repository.InviteRepository {
	return &inviteRepository{
		store:  store,
		tracer: tracer,
	}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite, ttl, roomTTL time.Duration) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "inviteRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", invite.RoomID),
		attribute.String("invite.ttl", ttl.String()),
	)

	data, err := json.Marshal(invite)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal invite")
		return false, err
	}

	stored, err := r.store.SetNX(ctx, inviteKey(invite.Code), string(data), ttl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store invite")
		return false, err
	}
	if !stored {
		span.SetAttributes(attribute.Bool("invite.collision", true))
		return false, nil
	}

	setKey := inviteSetKey(invite.RoomID)
	if err := r.store.SAdd(ctx, setKey, invite.Code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to track invite")
		return true, err
	}
	if err := r.store.Expire(ctx, setKey, roomTTL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clamp invite set expiry")
		return true, err
	}

	span.SetStatus(codes.Ok, "invite created")
	return true, nil
}

func (r *inviteRepository) Consume(ctx context.Context, code string) (*model.Invite, error) {
	ctx, span := r.tracer.Start(ctx, "inviteRepository.Consume")
	defer span.End()

	raw, err := r.store.GetDel(ctx, inviteKey(code))
	if err != nil {
		if errors.Is(err, repository.ErrNil) {
			span.SetAttributes(attribute.Bool("invite.found", false))
			span.SetStatus(codes.Error, "invite not found")
			return nil, model.ErrRoomNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to consume invite")
		return nil, fmt.Errorf("consume invite: %w", err)
	}

	invite := &model.Invite{Code: code}
	if err := json.Unmarshal([]byte(raw), invite); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode invite")
		return nil, fmt.Errorf("decode invite: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("invite.found", true),
		attribute.String("room.id", invite.RoomID),
	)

	if err := r.store.SRem(ctx, inviteSetKey(invite.RoomID), code); err != nil {
		// The invite is already consumed; a stale set entry is pruned later.
		span.RecordError(err)
	}

	return invite, nil
}

func (r *inviteRepository) Get(ctx context.Context, code string) (*model.Invite, error) {
	ctx, span := r.tracer.Start(ctx, "inviteRepository.Get")
	defer span.End()

	raw, err := r.store.Get(ctx, inviteKey(code))
	if err != nil {
		if errors.Is(err, repository.ErrNil) {
			span.SetAttributes(attribute.Bool("invite.found", false))
			return nil, model.ErrRoomNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read invite")
		return nil, fmt.Errorf("get invite: %w", err)
	}

	invite := &model.Invite{Code: code}
	if err := json.Unmarshal([]byte(raw), invite); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode invite")
		return nil, fmt.Errorf("decode invite: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("invite.found", true),
		attribute.String("room.id", invite.RoomID),
	)
	return invite, nil
}

func (r *inviteRepository) TTL(ctx context.Context, code string) (time.Duration, error) {
	ttl, err := r.store.TTL(ctx, inviteKey(code))
	if err != nil {
		return 0, err
	}
	return max(ttl, 0), nil
}

func (r *inviteRepository) DeleteAll(ctx context.Context, roomID string) error {
	ctx, span := r.tracer.Start(ctx, "inviteRepository.DeleteAll")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	var errs []error
	members, err := r.store.SMembers(ctx, inviteSetKey(roomID))
	if err != nil {
		errs = append(errs, fmt.Errorf("list invites: %w", err))
	}

	keys := make([]string, 0, len(members)+1)
	for _, code := range members {
		keys = append(keys, inviteKey(code))
	}
	keys = append(keys, inviteSetKey(roomID))

	if err := r.store.Del(ctx, keys...); err != nil {
		errs = append(errs, fmt.Errorf("delete invites: %w", err))
	}

	span.SetAttributes(attribute.Int("invites.deleted", len(members)))

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete invites")
		return err
	}
	return nil
}

// Prune drops codes from the room's set whose invite key has already expired.
func (r *inviteRepository) Prune(ctx context.Context, roomID string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "inviteRepository.Prune")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	members, err := r.store.SMembers(ctx, inviteSetKey(roomID))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	pruned := 0
	for _, code := range members {
		exists, err := r.store.Exists(ctx, inviteKey(code))
		if err != nil {
			span.RecordError(err)
			return pruned, err
		}
		if exists {
			continue
		}
		if err := r.store.SRem(ctx, inviteSetKey(roomID), code); err != nil {
			span.RecordError(err)
			return pruned, err
		}
		pruned++
	}

	span.SetAttributes(attribute.Int("invites.pruned", pruned))
	return pruned, nil
}
