package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/warbler-app/warbler/internal/models"
	"github.com/warbler-app/warbler/internal/repository"
	"github.com/warbler-app/warbler/internal/services"
	"github.com/warbler-app/warbler/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory store with the same error translation the
// production database uses, so duplicate-key conflicts surface identically.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Message{}, &models.Like{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	identity *services.IdentityService
	social   *services.SocialService
	content  *services.ContentService
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	log := logger.NewLogger()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	return &fixture{
		db:       db,
		identity: services.NewIdentityService(userRepo, nil, log),
		social:   services.NewSocialService(userRepo, followRepo, nil, log),
		content:  services.NewContentService(messageRepo, likeRepo, followRepo, nil, log),
	}
}

func (f *fixture) signup(t *testing.T, username, email string) *models.User {
	t.Helper()
	user, err := f.identity.Signup(context.Background(), &services.SignupParams{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("signup %s failed: %v", username, err)
	}
	return user
}
