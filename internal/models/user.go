package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Placeholder images used when a profile field is left empty.
const (
	DefaultImageURL       = "https://icon-library.com/images/default-user-icon/default-user-icon-28.jpg"
	DefaultHeaderImageURL = "https://images.unsplash.com/photo-1519751138087-5bf79df62d5b?auto=format&fit=crop&w=2070&q=80"
)

type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username       string    `json:"username" gorm:"uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"not null"`
	ImageURL       string    `json:"image_url" gorm:"not null"`
	HeaderImageURL string    `json:"header_image_url" gorm:"not null"`
	Bio            string    `json:"bio" gorm:"not null;default:''"`
	Location       string    `json:"location" gorm:"not null;default:''"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Follow is a directed edge: Follower follows Followed. The pair is unique.
type Follow struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FollowerID uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_followed"`
	FollowedID uuid.UUID `json:"followed_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_followed"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID"`
	Followed User `json:"-" gorm:"foreignKey:FollowedID"`
}

// IDs are generated app-side so the same models work against Postgres and the
// in-memory sqlite store used in tests.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (Follow) TableName() string {
	return "follows"
}
