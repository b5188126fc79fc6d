package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	DisplayName  string
	AvatarURL    sql.NullString
	Bio          sql.NullString
	IsOnline     bool
	LastSeenAt   sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSettings represents user_settings. A row is created lazily with
// defaults the first time the matchmaker encounters a user.
type UserSettings struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	AllowRandomChat  bool      `gorm:"default:true"`
	ShowOnlineStatus bool      `gorm:"default:true"`
	NotifyOnRequest  bool      `gorm:"default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Block is a directional block record. The matchmaker consults it in both
// directions and never mutates it.
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BlockerID uuid.UUID `gorm:"type:uuid;index:idx_blocks_pair,unique;not null"`
	BlockedID uuid.UUID `gorm:"type:uuid;index:idx_blocks_pair,unique;not null"`
	CreatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

func (UserSettings) TableName() string {
	return "user_settings"
}

func (Block) TableName() string {
	return "blocks"
}

// Profile is the sanitized projection sent to a matched partner. Display
// fields only, never credentials.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
}

func (u *User) Sanitized() Profile {
	p := Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
	if u.AvatarURL.Valid {
		p.AvatarURL = u.AvatarURL.String
	}
	if u.Bio.Valid {
		p.Bio = u.Bio.String
	}
	return p
}
