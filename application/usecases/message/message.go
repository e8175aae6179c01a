package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hilthontt/burnchat/application/usecases/room"
	"github.com/hilthontt/burnchat/domain/model"
	"github.com/hilthontt/burnchat/domain/repository"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	MaxSenderLength = 100
	MaxTextLength   = 50
)

type MessageUseCase interface {
	Send(ctx context.Context, roomID, token string, input SendInput) (*model.Message, error)
	// List returns the log in append order; tokens are kept only on the
	// caller's own entries.
	List(ctx context.Context, roomID, token string) ([]model.Message, error)
	// DeleteOwn removes the caller's non-system messages and reports how many
	// were removed.
	DeleteOwn(ctx context.Context, roomID, token string) (int, error)
	PostSystem(ctx context.Context, roomID, token, sender, text string) (*model.Message, error)
}

type SendInput struct {
	Sender string
	Text   string
	Type   model.MessageType
}

type messageUseCase struct {
	repository     repository.MessageRepository
	roomRepository repository.RoomRepository
	roomUseCase    room.RoomUseCase
	publisher      repository.Publisher
	metrics        metrics.Manager
	logger         *logger.Logger
}

func NewMessageUseCase(
	repository repository.MessageRepository,
	roomRepository repository.RoomRepository,
	roomUseCase room.RoomUseCase,
	publisher repository.Publisher,
	metrics metrics.Manager,
	logger *logger.Logger,
) MessageUseCase {
	return &messageUseCase{
		repository:     repository,
		roomRepository: roomRepository,
		roomUseCase:    roomUseCase,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
	}
}

func (uc *messageUseCase) Send(ctx context.Context, roomID, token string, input SendInput) (*model.Message, error) {
	if input.Type == "" {
		input.Type = model.MessageTypeMessage
	}
	if err := validateMessage(input); err != nil {
		return nil, err
	}

	if _, err := uc.roomRepository.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	return uc.append(ctx, roomID, token, input)
}

func (uc *messageUseCase) PostSystem(ctx context.Context, roomID, token, sender, text string) (*model.Message, error) {
	input := SendInput{Sender: sender, Text: text, Type: model.MessageTypeSystem}
	if err := validateMessage(input); err != nil {
		return nil, err
	}

	if _, err := uc.roomUseCase.Authorize(ctx, roomID, token); err != nil {
		return nil, err
	}

	return uc.append(ctx, roomID, token, input)
}

func (uc *messageUseCase) append(ctx context.Context, roomID, token string, input SendInput) (*model.Message, error) {
	message := &model.Message{
		ID:        uuid.NewString(),
		Sender:    input.Sender,
		Text:      input.Text,
		Timestamp: time.Now().UnixMilli(),
		RoomID:    roomID,
		Type:      input.Type,
		Token:     token,
	}

	if err := uc.repository.Append(ctx, message); err != nil {
		uc.logger.Error("failed to append message", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	// The log lives exactly as long as the room.
	remaining, err := uc.roomRepository.TTL(ctx, roomID)
	if err != nil {
		uc.logger.Error("failed to read room ttl", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to read room ttl: %w", err)
	}
	if err := uc.repository.Refresh(ctx, roomID, remaining); err != nil {
		uc.logger.Error("failed to align message log expiry", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to align message log expiry: %w", err)
	}

	// Listeners only hear about messages whose expiry is already settled.
	public := message.Public()
	if err := uc.publisher.Publish(ctx, roomID, model.EventMessage, public); err != nil {
		uc.logger.Warn("failed to publish message", zap.Error(err), zap.String("roomID", roomID))
	}

	uc.metrics.IncrementCounter(ctx, "messages_sent_total", attribute.String("type", string(message.Type)))
	uc.logger.Debug("message sent",
		zap.String("roomID", roomID),
		zap.String("messageID", message.ID),
		zap.String("type", string(message.Type)),
	)

	return &public, nil
}

func (uc *messageUseCase) List(ctx context.Context, roomID, token string) ([]model.Message, error) {
	stored, err := uc.repository.GetByRoom(ctx, roomID)
	if err != nil {
		uc.logger.Error("failed to read messages", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return lo.Map(stored, func(m model.StoredMessage, _ int) model.Message {
		if token != "" && m.Token == token {
			return m.Message
		}
		return m.Public()
	}), nil
}

func (uc *messageUseCase) DeleteOwn(ctx context.Context, roomID, token string) (int, error) {
	if _, err := uc.roomUseCase.Authorize(ctx, roomID, token); err != nil {
		return 0, err
	}

	stored, err := uc.repository.GetByRoom(ctx, roomID)
	if err != nil {
		uc.logger.Error("failed to read messages for deletion", zap.Error(err), zap.String("roomID", roomID))
		return 0, fmt.Errorf("failed to read messages: %w", err)
	}

	own := lo.Filter(stored, func(m model.StoredMessage, _ int) bool {
		return m.Token == token && !m.IsSystem()
	})

	var (
		removedIDs []string
		errs       []error
	)
	for _, m := range own {
		removed, err := uc.repository.Remove(ctx, roomID, m)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove message %s: %w", m.ID, err))
			continue
		}
		if removed {
			removedIDs = append(removedIDs, m.ID)
		}
	}

	if len(removedIDs) > 0 {
		if err := uc.publisher.Publish(ctx, roomID, model.EventDelete, model.DeletePayload{IDs: removedIDs}); err != nil {
			uc.logger.Warn("failed to publish delete", zap.Error(err), zap.String("roomID", roomID))
		}
	}

	uc.logger.Info("own messages deleted", zap.String("roomID", roomID), zap.Int("count", len(removedIDs)))

	if err := errors.Join(errs...); err != nil {
		uc.logger.Error("failed to delete some messages", zap.Error(err), zap.String("roomID", roomID))
		return len(removedIDs), err
	}
	return len(removedIDs), nil
}

func validateMessage(input SendInput) error {
	if utf8.RuneCountInString(input.Sender) > MaxSenderLength {
		return fmt.Errorf("sender exceeds %d characters: %w", MaxSenderLength, model.ErrValidation)
	}
	if strings.TrimSpace(input.Text) == "" {
		return fmt.Errorf("text cannot be empty: %w", model.ErrValidation)
	}
	if utf8.RuneCountInString(input.Text) > MaxTextLength {
		return fmt.Errorf("text exceeds %d characters: %w", MaxTextLength, model.ErrValidation)
	}
	if input.Type != model.MessageTypeMessage && input.Type != model.MessageTypeSystem {
		return fmt.Errorf("unknown message type %q: %w", input.Type, model.ErrValidation)
	}
	return nil
}
