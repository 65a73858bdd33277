package models

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus tracks a report through moderation.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportActioned ReportStatus = "actioned"
)

// Report is a user complaint about their current chat partner. Only
// anonymous ids are recorded; moderators resolve handles separately.
type Report struct {
	ReportID        string       `gorm:"primaryKey" json:"report_id"`
	ReporterAnonID  string       `gorm:"index;not null" json:"reporter"`
	ReportedAnonID  string       `gorm:"index;not null" json:"reported"`
	SessionID       string       `gorm:"index" json:"session_id"`
	Reason          string       `json:"reason"`
	Severity        string       `json:"severity"`
	Status          ReportStatus `gorm:"type:text;index;not null;default:'pending'" json:"status"`
	AdminNotes      string       `json:"admin_notes,omitempty"`
	CreatedAt       time.Time    `gorm:"index" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ReportID == "" {
		u := uuid.New()
		r.ReportID = "report_" + hex.EncodeToString(u[:])[:12]
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return nil
}
