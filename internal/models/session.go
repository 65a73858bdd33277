package models

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus is the session state machine: active is the initial state,
// ended is terminal. There is no pending state.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session is one 1:1 pairing, active or historical. Participant order
// carries no meaning beyond "A requested, B was found".
type Session struct {
	SessionID string `gorm:"primaryKey" json:"session_id"`

	UserATelegramID int64  `gorm:"index;not null" json:"-"`
	UserAAnonID     string `gorm:"not null" json:"user_a"`
	UserBTelegramID int64  `gorm:"index;not null" json:"-"`
	UserBAnonID     string `gorm:"not null" json:"user_b"`

	Status    SessionStatus `gorm:"type:text;index;not null" json:"status"`
	StartedAt time.Time     `gorm:"index" json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`

	// MessageCount is only ever changed via an atomic SQL increment.
	MessageCount int64 `json:"message_count"`
}

// BeforeCreate allocates a session id of the form sess_XXXXXXXXXXXX.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == "" {
		s.SessionID = NewSessionID()
	}
	if s.Status == "" {
		s.Status = SessionActive
	}
	return nil
}

// NewSessionID returns a fresh unique session identifier.
func NewSessionID() string {
	u := uuid.New()
	return "sess_" + hex.EncodeToString(u[:])[:12]
}

// SessionParticipant is one row per user per session. The partial unique
// index on (telegram_id) WHERE active is what enforces "a user occupies at
// most one active session" across concurrent process instances; see
// storage.Migrate.
type SessionParticipant struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index;not null"`
	TelegramID int64  `gorm:"not null"`
	AnonID     string `gorm:"not null"`
	Active     bool   `gorm:"not null"`
}
