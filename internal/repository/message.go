package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&message, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

func (r *MessageRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages by user: %w", err)
	}
	return messages, nil
}

// Delete removes the message and its likes in one transaction.
func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete message likes: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return nil
	})
}

// GetFeed selects messages authored by any of authorIDs, newest first,
// bounded to limit.
func (r *MessageRepository) GetFeed(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return messages, nil
}
