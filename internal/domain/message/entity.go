package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message types
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeFile     = "file"
	TypeLocation = "location"
)

// Message represents the messages table. DeleteAt is set at creation time
// to now plus the retention window of the owning conversation (30 days for
// random chat, 90 for private); the expiry sweeper deletes rows whose
// DeleteAt has passed.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Content        string
	Type           string `gorm:"not null;default:text"`
	MediaURL       sql.NullString
	DeleteAt       time.Time `gorm:"index;not null"`
	CreatedAt      time.Time
}

func (Message) TableName() string {
	return "messages"
}

// HasMedia reports whether the message references external media that must
// be reclaimed before the row is deleted.
func (m *Message) HasMedia() bool {
	return m.MediaURL.Valid && m.MediaURL.String != ""
}

// IsMediaType reports whether content of the given type carries a media
// reference rather than inline text.
func IsMediaType(t string) bool {
	switch t {
	case TypeImage, TypeVideo, TypeAudio, TypeFile:
		return true
	}
	return false
}
