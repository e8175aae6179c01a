package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DestroyReasonManual  = "manual"
	DestroyReasonExpired = "expired"
)

type RoomUseCase interface {
	Create(ctx context.Context) (*model.Room, error)
	GetMetadata(ctx context.Context, id string) (*model.Room, error)
	GetTTL(ctx context.Context, id string) (time.Duration, error)
	Restore(ctx context.Context, id, token string) error
	// Enter admits the room's first participant. A caller already holding a
	// member token gets it back unchanged.
	Enter(ctx context.Context, id, token string) (string, error)
	Authorize(ctx context.Context, id, token string) (*model.Room, error)
	Destroy(ctx context.Context, id string) error
	// SweepExpired clears leftovers of rooms whose metadata expired and tells
	// any listeners the room is gone.
	SweepExpired(ctx context.Context) (*SweepReport, error)
}

type SweepReport struct {
	Checked       int
	Expired       int
	PrunedInvites int
}

type roomUseCase struct {
	roomRepository    repository.RoomRepository
	inviteRepository  repository.InviteRepository
	messageRepository repository.MessageRepository
	publisher         repository.Publisher
	metrics           metrics.Manager
	logger            *logger.Logger

	ttl time.Duration
}

func NewRoomUseCase(
	roomRepository repository.RoomRepository,
	inviteRepository repository.InviteRepository,
	messageRepository repository.MessageRepository,
	publisher repository.Publisher,
	metrics metrics.Manager,
	logger *logger.Logger,
	cfg config.RoomConfig,
) RoomUseCase {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = model.DefaultRoomTTL
	}

	return &roomUseCase{
		roomRepository:    roomRepository,
		inviteRepository:  inviteRepository,
		messageRepository: messageRepository,
		publisher:         publisher,
		metrics:           metrics,
		logger:            logger,
		ttl:               ttl,
	}
}

func (uc *roomUseCase) Create(ctx context.Context) (*model.Room, error) {
	room := &model.Room{
		ID:        uuid.NewString(),
		Connected: []string{},
		CreatedAt: time.Now(),
	}

	if err := uc.roomRepository.Create(ctx, room, uc.ttl); err != nil {
		uc.logger.Error("failed to create room", zap.Error(err), zap.String("roomID", room.ID))
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	uc.metrics.IncrementCounter(ctx, "rooms_created_total")
	uc.logger.Info("room created", zap.String("roomID", room.ID), zap.Duration("ttl", uc.ttl))
	return room, nil
}

func (uc *roomUseCase) GetMetadata(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, fmt.Errorf("room ID cannot be empty: %w", model.ErrValidation)
	}

	room, err := uc.roomRepository.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrRoomNotFound) {
			uc.logger.Error("failed to get room", zap.Error(err), zap.String("roomID", id))
		}
		return nil, err
	}
	return room, nil
}

func (uc *roomUseCase) GetTTL(ctx context.Context, id string) (time.Duration, error) {
	ttl, err := uc.roomRepository.TTL(ctx, id)
	if err != nil {
		uc.logger.Error("failed to get room ttl", zap.Error(err), zap.String("roomID", id))
		return 0, fmt.Errorf("failed to get room ttl: %w", err)
	}
	return ttl, nil
}

func (uc *roomUseCase) Authorize(ctx context.Context, id, token string) (*model.Room, error) {
	room, err := uc.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	if !room.IsMember(token) {
		return nil, model.ErrInvalidToken
	}
	return room, nil
}

func (uc *roomUseCase) Restore(ctx context.Context, id, token string) error {
	if _, err := uc.Authorize(ctx, id, token); err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			uc.logger.Warn("restore attempted with foreign token", zap.String("roomID", id))
		}
		return err
	}

	uc.logger.Info("participant restored", zap.String("roomID", id))
	return nil
}

func (uc *roomUseCase) Enter(ctx context.Context, id, token string) (string, error) {
	room, err := uc.GetMetadata(ctx, id)
	if err != nil {
		return "", err
	}

	if room.IsMember(token) {
		return token, nil
	}

	newToken, err := GenerateToken()
	if err != nil {
		return "", err
	}

	// Only an empty room admits without an invite.
	if _, err := uc.roomRepository.AddToken(ctx, id, newToken, 1); err != nil {
		uc.metrics.IncrementCounter(ctx, "admissions_total", attribute.String("result", AdmissionResult(err)))
		if errors.Is(err, model.ErrRoomFull) {
			uc.logger.Info("direct entry refused, room already claimed", zap.String("roomID", id))
		}
		return "", err
	}

	uc.metrics.IncrementCounter(ctx, "admissions_total", attribute.String("result", "creator"))
	uc.logger.Info("creator admitted", zap.String("roomID", id))
	return newToken, nil
}

func (uc *roomUseCase) Destroy(ctx context.Context, id string) error {
	return uc.destroy(ctx, id, DestroyReasonManual)
}

// destroy notifies listeners first, then removes every key of the room. Each
// step runs even if an earlier one failed.
func (uc *roomUseCase) destroy(ctx context.Context, id, reason string) error {
	var errs []error

	payload := model.DestroyPayload{IsDestroyed: true}
	if reason != DestroyReasonManual {
		payload.Reason = reason
	}
	if err := uc.publisher.Publish(ctx, id, model.EventDestroy, payload); err != nil {
		uc.logger.Warn("failed to publish destroy event", zap.Error(err), zap.String("roomID", id))
		errs = append(errs, fmt.Errorf("publish destroy: %w", err))
	}

	if err := uc.inviteRepository.DeleteAll(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete invites: %w", err))
	}
	if err := uc.messageRepository.DeleteByRoom(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete messages: %w", err))
	}
	if err := uc.roomRepository.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete room: %w", err))
	}

	uc.metrics.IncrementCounter(ctx, "rooms_destroyed_total", attribute.String("reason", reason))

	if err := errors.Join(errs...); err != nil {
		uc.logger.Error("room destroyed with errors", zap.Error(err), zap.String("roomID", id), zap.String("reason", reason))
		return err
	}

	uc.logger.Info("room destroyed", zap.String("roomID", id), zap.String("reason", reason))
	return nil
}

func (uc *roomUseCase) SweepExpired(ctx context.Context) (*SweepReport, error) {
	ids, err := uc.roomRepository.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	report := &SweepReport{Checked: len(ids)}
	var errs []error

	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		_, err := uc.roomRepository.GetByID(ctx, id)
		switch {
		case err == nil:
			pruned, err := uc.inviteRepository.Prune(ctx, id)
			report.PrunedInvites += pruned
			if err != nil {
				errs = append(errs, fmt.Errorf("prune invites of %s: %w", id, err))
			}
		case errors.Is(err, model.ErrRoomNotFound):
			report.Expired++
			if err := uc.destroy(ctx, id, DestroyReasonExpired); err != nil {
				errs = append(errs, err)
			}
		default:
			errs = append(errs, fmt.Errorf("load room %s: %w", id, err))
		}
	}

	return report, errors.Join(errs...)
}

func AdmissionResult(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomFull):
		return "full"
	case errors.Is(err, model.ErrRoomNotFound):
		return "not_found"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
