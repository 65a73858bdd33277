package models

import "time"

// TokenStatus is the lifecycle of a monetize token.
type TokenStatus string

const (
	TokenPending   TokenStatus = "pending"
	TokenCompleted TokenStatus = "completed"
	TokenExpired   TokenStatus = "expired"
)

// MonetizeToken is a one-shot sponsor-visit verification token delivered to
// the user inside a deep link. Tokens expire after a configured TTL.
type MonetizeToken struct {
	Token      string      `gorm:"primaryKey" json:"token"`
	AnonID     string      `gorm:"index;not null" json:"anon_id"`
	TelegramID int64       `gorm:"index;not null" json:"-"`
	Status     TokenStatus `gorm:"type:text;index;not null;default:'pending'" json:"status"`
	SponsorURL string      `json:"sponsor_url"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `gorm:"index" json:"expires_at"`
}
