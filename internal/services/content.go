package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/apperrors"
	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/pkg/logger"
	"github.com/warbler-app/warbler/pkg/queue"
	"gorm.io/gorm"
)

// DefaultFeedLimit bounds the feed when the caller does not override it.
const DefaultFeedLimit = 100

type ContentService struct {
	messageRepo *repository.MessageRepository
	likeRepo    *repository.LikeRepository
	followRepo  *repository.FollowRepository
	producer    queue.Publisher
	logger      *logger.Logger
}

func NewContentService(messageRepo *repository.MessageRepository, likeRepo *repository.LikeRepository, followRepo *repository.FollowRepository, producer queue.Publisher, logger *logger.Logger) *ContentService {
	return &ContentService{
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		followRepo:  followRepo,
		producer:    producer,
		logger:      logger,
	}
}

// PostMessage creates a message owned by the actor, stamped with the current
// time. Text must be non-empty after trimming and within the length bound.
func (s *ContentService) PostMessage(ctx context.Context, actor *models.User, text string) (*models.Message, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is empty: %w", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, fmt.Errorf("message text exceeds %d characters: %w", models.MaxMessageLength, apperrors.ErrValidation)
	}

	message := &models.Message{
		UserID: actor.ID,
		Text:   text,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type:      queue.EventMessageCreated,
		Timestamp: message.CreatedAt,
		Data: queue.MessageEventData{
			MessageID: message.ID.String(),
			UserID:    actor.ID.String(),
		},
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":    actor.ID,
		"message_id": message.ID,
	}).Info("Message posted")

	return message, nil
}

func (s *ContentService) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if message == nil {
		return nil, apperrors.ErrNotFound
	}
	return message, nil
}

// DeleteMessage removes a message and its likes. Only the owner may delete.
func (s *ContentService) DeleteMessage(ctx context.Context, actor *models.User, messageID uuid.UUID) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}
	if message == nil {
		return apperrors.ErrNotFound
	}

	if err := RequireOwner(actor, message.UserID); err != nil {
		return err
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type: queue.EventMessageDeleted,
		Data: queue.MessageEventData{
			MessageID: messageID.String(),
			UserID:    actor.ID.String(),
		},
	})

	return nil
}

// Like inserts a like edge. Liking your own message is a policy violation;
// re-liking is a no-op success absorbed by the unique pair constraint.
func (s *ContentService) Like(ctx context.Context, actor *models.User, messageID uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}
	if message == nil {
		return apperrors.ErrNotFound
	}
	if message.UserID == actor.ID {
		return apperrors.ErrSelfLike
	}

	like := &models.Like{
		UserID:    actor.ID,
		MessageID: messageID,
	}

	if err := s.likeRepo.Create(ctx, like); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create like: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type:      queue.EventLikeCreated,
		Timestamp: like.CreatedAt,
		Data: queue.LikeEventData{
			UserID:    actor.ID.String(),
			MessageID: messageID.String(),
		},
	})

	return nil
}

// Unlike deletes the like edge if present; absence is not an error.
func (s *ContentService) Unlike(ctx context.Context, actor *models.User, messageID uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}

	if err := s.likeRepo.Delete(ctx, actor.ID, messageID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type: queue.EventLikeDeleted,
		Data: queue.LikeEventData{
			UserID:    actor.ID.String(),
			MessageID: messageID.String(),
		},
	})

	return nil
}

func (s *ContentService) LikeCount(ctx context.Context, messageID uuid.UUID) (int64, error) {
	return s.likeRepo.CountByMessageID(ctx, messageID)
}

func (s *ContentService) ListLikedMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	return s.likeRepo.GetLikedMessages(ctx, userID)
}

func (s *ContentService) ListUserMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	return s.messageRepo.GetByUserID(ctx, userID)
}

// GetFeed returns the newest messages authored by the actor or anyone the
// actor follows, bounded to limit. Anonymous callers get ErrUnauthorized so
// the orchestration layer can render the logged-out view, distinct from an
// authenticated-but-empty feed.
func (s *ContentService) GetFeed(ctx context.Context, actor *models.User, limit int) ([]*models.Message, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	followedIDs, err := s.followRepo.GetFollowedIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followed users: %w", err)
	}

	authorIDs := append(followedIDs, actor.ID)
	messages, err := s.messageRepo.GetFeed(ctx, authorIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble feed: %w", err)
	}

	return messages, nil
}

func (s *ContentService) publish(ctx context.Context, key string, event queue.Event) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, key, event); err != nil {
		s.logger.WithError(err).Error("Failed to publish content event")
	}
}
