package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/apperrors"
	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/pkg/logger"
	"github.com/warbler-app/warbler/pkg/queue"
	"gorm.io/gorm"
)

type SocialService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	producer   queue.Publisher
	logger     *logger.Logger
}

func NewSocialService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, producer queue.Publisher, logger *logger.Logger) *SocialService {
	return &SocialService{
		userRepo:   userRepo,
		followRepo: followRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Follow creates an edge from actor to target. Self-follows are rejected
// everywhere, not just on some paths. Re-following is a no-op success: the
// unique pair constraint absorbs the duplicate insert.
func (s *SocialService) Follow(ctx context.Context, actor *models.User, targetID uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}
	if actor.ID == targetID {
		return apperrors.ErrSelfFollow
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to get target user: %w", err)
	}
	if target == nil {
		return fmt.Errorf("no such user: %w", apperrors.ErrNotFound)
	}

	follow := &models.Follow{
		FollowerID: actor.ID,
		FollowedID: targetID,
	}

	if err := s.followRepo.Create(ctx, follow); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type:      queue.EventFollowCreated,
		Timestamp: follow.CreatedAt,
		Data: queue.FollowEventData{
			FollowerID: actor.ID.String(),
			FollowedID: targetID.String(),
		},
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id": actor.ID,
		"followed_id": targetID,
	}).Info("User followed")

	return nil
}

// Unfollow deletes the edge if present; absence is not an error.
func (s *SocialService) Unfollow(ctx context.Context, actor *models.User, targetID uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}

	if err := s.followRepo.Delete(ctx, actor.ID, targetID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type: queue.EventFollowDeleted,
		Data: queue.FollowEventData{
			FollowerID: actor.ID.String(),
			FollowedID: targetID.String(),
		},
	})

	return nil
}

// IsFollowing reports whether a follows b, as a single keyed lookup.
func (s *SocialService) IsFollowing(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.followRepo.Exists(ctx, a, b)
}

// IsFollowedBy reports whether a is followed by b.
func (s *SocialService) IsFollowedBy(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.followRepo.Exists(ctx, b, a)
}

func (s *SocialService) ListFollowing(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	return s.followRepo.GetFollowing(ctx, userID)
}

func (s *SocialService) ListFollowers(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	return s.followRepo.GetFollowers(ctx, userID)
}

func (s *SocialService) publish(ctx context.Context, key string, event queue.Event) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, key, event); err != nil {
		s.logger.WithError(err).Error("Failed to publish follow event")
	}
}
