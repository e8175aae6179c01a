package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds regeneration after a code collision.
const maxCodeAttempts = 5

type InviteUseCase interface {
	// Create issues a single-use code for a room the caller is already
	// authorized for.
	Create(ctx context.Context, roomID, createdBy string) (*model.Invite, error)
	// Redeem consumes a code and admits a new participant.
	Redeem(ctx context.Context, code string) (*Admission, error)
	// Inspect reports whether a code could be redeemed right now without
	// consuming it.
	Inspect(ctx context.Context, code string) (*Preview, error)
}

type Admission struct {
	RoomID string
	Token  string
}

// Preview describes an invite as seen before redemption. Valid means the code
// is live and its room still exists; Full means that room has no free seat.
type Preview struct {
	Code  string
	Valid bool
	Full  bool
	TTL   time.Duration
}

func (p *Preview) Redeemable() bool {
	return p.Valid && !p.Full
}

type inviteUseCase struct {
	roomRepository   repository.RoomRepository
	inviteRepository repository.InviteRepository
	metrics          metrics.Manager
	logger           *logger.Logger

	inviteTTL       time.Duration
	maxParticipants int
}

func NewInviteUseCase(
	roomRepository repository.RoomRepository,
	inviteRepository repository.InviteRepository,
	metrics metrics.Manager,
	logger *logger.Logger,
	cfg config.RoomConfig,
) InviteUseCase {
	inviteTTL := cfg.InviteTTL
	if inviteTTL <= 0 {
		inviteTTL = model.DefaultInviteTTL
	}

	limit := cfg.MaxParticipants
	if limit <= 0 || limit > model.MaxParticipants {
		limit = model.MaxParticipants
	}

	return &inviteUseCase{
		roomRepository:   roomRepository,
		inviteRepository: inviteRepository,
		metrics:          metrics,
		logger:           logger,
		inviteTTL:        inviteTTL,
		maxParticipants:  limit,
	}
}

func (uc *inviteUseCase) Create(ctx context.Context, roomID, createdBy string) (*model.Invite, error) {
	roomTTL, err := uc.roomRepository.TTL(ctx, roomID)
	if err != nil {
		uc.logger.Error("failed to read room ttl", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to read room ttl: %w", err)
	}
	if roomTTL <= 0 {
		return nil, model.ErrRoomNotFound
	}

	// An invite never outlives its room.
	ttl := min(uc.inviteTTL, roomTTL)

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := room.GenerateInviteCode()
		if err != nil {
			return nil, err
		}

		invite := &model.Invite{
			Code:      code,
			RoomID:    roomID,
			CreatedBy: createdBy,
		}

		stored, err := uc.inviteRepository.Create(ctx, invite, ttl, roomTTL)
		if err != nil {
			uc.logger.Error("failed to store invite", zap.Error(err), zap.String("roomID", roomID))
			return nil, fmt.Errorf("failed to store invite: %w", err)
		}
		if stored {
			uc.metrics.IncrementCounter(ctx, "invites_created_total")
			uc.logger.Info("invite created",
				zap.String("roomID", roomID),
				zap.Duration("ttl", ttl),
				zap.Int("attempt", attempt),
			)
			return invite, nil
		}

		uc.logger.Debug("invite code collision", zap.String("roomID", roomID), zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("no free invite code after %d attempts: %w", maxCodeAttempts, model.ErrConflict)
}

func (uc *inviteUseCase) Redeem(ctx context.Context, code string) (*Admission, error) {
	code = room.NormalizeInviteCode(code)
	if !room.IsValidInviteCode(code) {
		return nil, fmt.Errorf("malformed invite code: %w", model.ErrValidation)
	}

	// Consuming first makes the code single-use even when admission fails.
	invite, err := uc.inviteRepository.Consume(ctx, code)
	if err != nil {
		uc.recordAdmission(ctx, err)
		return nil, err
	}

	if _, err := uc.roomRepository.GetByID(ctx, invite.RoomID); err != nil {
		uc.recordAdmission(ctx, err)
		if errors.Is(err, model.ErrRoomNotFound) {
			uc.logger.Info("invite redeemed for vanished room", zap.String("roomID", invite.RoomID))
		}
		return nil, err
	}

	token, err := room.GenerateToken()
	if err != nil {
		return nil, err
	}

	if _, err := uc.roomRepository.AddToken(ctx, invite.RoomID, token, uc.maxParticipants); err != nil {
		uc.recordAdmission(ctx, err)
		if errors.Is(err, model.ErrRoomFull) {
			uc.logger.Info("invite redeemed for full room", zap.String("roomID", invite.RoomID))
		} else {
			uc.logger.Error("failed to admit participant", zap.Error(err), zap.String("roomID", invite.RoomID))
		}
		return nil, err
	}

	uc.metrics.IncrementCounter(ctx, "admissions_total", attribute.String("result", "invite"))
	uc.logger.Info("participant admitted", zap.String("roomID", invite.RoomID))

	return &Admission{RoomID: invite.RoomID, Token: token}, nil
}

func (uc *inviteUseCase) Inspect(ctx context.Context, code string) (*Preview, error) {
	code = room.NormalizeInviteCode(code)
	if !room.IsValidInviteCode(code) {
		return nil, fmt.Errorf("malformed invite code: %w", model.ErrValidation)
	}

	preview := &Preview{Code: code}

	invite, err := uc.inviteRepository.Get(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return preview, nil
		}
		uc.logger.Error("failed to read invite", zap.Error(err))
		return nil, fmt.Errorf("failed to read invite: %w", err)
	}

	ttl, err := uc.inviteRepository.TTL(ctx, code)
	if err != nil {
		uc.logger.Error("failed to read invite ttl", zap.Error(err), zap.String("roomID", invite.RoomID))
		return nil, fmt.Errorf("failed to read invite ttl: %w", err)
	}
	if ttl <= 0 {
		return preview, nil
	}

	target, err := uc.roomRepository.GetByID(ctx, invite.RoomID)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return preview, nil
		}
		uc.logger.Error("failed to read invited room", zap.Error(err), zap.String("roomID", invite.RoomID))
		return nil, err
	}

	preview.Valid = true
	preview.TTL = ttl
	preview.Full = len(target.Connected) >= uc.maxParticipants
	return preview, nil
}

func (uc *inviteUseCase) recordAdmission(ctx context.Context, err error) {
	uc.metrics.IncrementCounter(ctx, "admissions_total", attribute.String("result", room.AdmissionResult(err)))
}
