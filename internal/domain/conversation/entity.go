package conversation

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation represents the conversations table. Participants are user
// ids, not connection ids, so a conversation survives reconnects. The
// participant pair is stored normalized (see NormalizePair) so one row
// exists per unordered user pair.
type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParticipantA uuid.UUID `gorm:"type:uuid;index:idx_conversations_pair;not null"`
	ParticipantB uuid.UUID `gorm:"type:uuid;index:idx_conversations_pair;not null"`
	IsRandomChat bool      `gorm:"index"`
	IsActive     bool
	MatchedAt    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

// NormalizePair orders two user ids so the unordered pair has one canonical
// representation.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

// Other returns the participant that is not the given user.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
