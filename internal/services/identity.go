package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/apperrors"
	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/pkg/logger"
	"github.com/warbler-app/warbler/pkg/queue"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username does not exist, so a
// failed lookup costs the same as a failed password check. Hash of an
// unguessable constant, never a real credential.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("warbler-no-such-user"), bcrypt.DefaultCost)

type IdentityService struct {
	userRepo *repository.UserRepository
	producer queue.Publisher
	logger   *logger.Logger
}

func NewIdentityService(userRepo *repository.UserRepository, producer queue.Publisher, logger *logger.Logger) *IdentityService {
	return &IdentityService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

type SignupParams struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email,max=50"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	ImageURL string `json:"image_url"`
}

type UpdateProfileParams struct {
	Username        string `json:"username" binding:"required,min=3,max=30"`
	Email           string `json:"email" binding:"required,email,max=50"`
	ImageURL        string `json:"image_url"`
	HeaderImageURL  string `json:"header_image_url"`
	Bio             string `json:"bio" binding:"max=500"`
	Location        string `json:"location" binding:"max=30"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// RequireOwner is the shared ownership check: the acting identity may only
// mutate its own resources.
func RequireOwner(actor *models.User, ownerID uuid.UUID) error {
	if actor == nil || actor.ID != ownerID {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// Signup creates a new identity. The store's uniqueness constraints are the
// source of truth for username/email collisions: the insert is attempted
// directly and a duplicate-key failure is translated to a conflict, so two
// concurrent signups cannot race past a pre-check.
func (s *IdentityService) Signup(ctx context.Context, params *SignupParams) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	imageURL := params.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	user := &models.User{
		Username:       params.Username,
		Email:          params.Email,
		Password:       string(hashed),
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email taken: %w", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publish(ctx, user.ID.String(), queue.Event{
		Type:      queue.EventUserCreated,
		Timestamp: user.CreatedAt,
		Data:      map[string]interface{}{"user_id": user.ID, "username": user.Username},
	})

	s.logger.WithField("user_id", user.ID).Info("User signed up")
	return user, nil
}

// Authenticate looks up the user by exact username and verifies the
// password. Unknown username and wrong password both return ErrNoMatch with
// no observable difference; the missing-user branch still pays for a bcrypt
// comparison.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperrors.ErrNoMatch
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrNoMatch
	}

	return user, nil
}

// UpdateProfile edits the acting user's own profile. The current password
// must re-verify before any field changes; empty image URLs reset to the
// documented defaults.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor *models.User, params *UpdateProfileParams) (*models.User, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.Password), []byte(params.CurrentPassword)); err != nil {
		return nil, fmt.Errorf("password verification failed: %w", apperrors.ErrUnauthorized)
	}

	actor.Username = params.Username
	actor.Email = params.Email
	actor.Bio = params.Bio
	actor.Location = params.Location

	actor.ImageURL = params.ImageURL
	if actor.ImageURL == "" {
		actor.ImageURL = models.DefaultImageURL
	}
	actor.HeaderImageURL = params.HeaderImageURL
	if actor.HeaderImageURL == "" {
		actor.HeaderImageURL = models.DefaultHeaderImageURL
	}

	if err := s.userRepo.Update(ctx, actor); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email taken: %w", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type:      queue.EventUserUpdated,
		Timestamp: actor.UpdatedAt,
		Data:      map[string]interface{}{"user_id": actor.ID, "username": actor.Username},
	})

	s.logger.WithField("user_id", actor.ID).Info("Profile updated")
	return actor, nil
}

// DeleteAccount removes the acting user and, in one transaction, all owned
// messages, likes, and follow edges in both directions. Irreversible.
// Session termination is the caller's responsibility.
func (s *IdentityService) DeleteAccount(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}

	if err := s.userRepo.Delete(ctx, actor.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.publish(ctx, actor.ID.String(), queue.Event{
		Type: queue.EventUserDeleted,
		Data: map[string]interface{}{"user_id": actor.ID},
	})

	s.logger.WithField("user_id", actor.ID).Info("Account deleted")
	return nil
}

func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// SearchUsers returns all users newest-first when query is empty, otherwise
// users whose username contains the query. Matching is case-insensitive on
// every store.
func (s *IdentityService) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	if strings.TrimSpace(query) == "" {
		return s.userRepo.List(ctx)
	}
	return s.userRepo.Search(ctx, query)
}

func (s *IdentityService) publish(ctx context.Context, key string, event queue.Event) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, key, event); err != nil {
		s.logger.WithError(err).Error("Failed to publish user event")
	}
}
