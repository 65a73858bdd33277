package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"randomchat/backend/internal/anonid"
)

// Gender is a closed set of profile genders. The zero value is GenderUnset:
// a user who never answered the onboarding question. Unset is a real value,
// never silently defaulted to anything else.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderUnset  Gender = ""
)

// Valid reports whether g is one of the settable genders (unset excluded).
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Opposite returns the canonical opposite gender. male and female map to
// each other, other maps to itself. ok is false for unset.
func (g Gender) Opposite() (Gender, bool) {
	switch g {
	case GenderMale:
		return GenderFemale, true
	case GenderFemale:
		return GenderMale, true
	case GenderOther:
		return GenderOther, true
	default:
		return GenderUnset, false
	}
}

// Preference describes who a user wants to be matched with.
type Preference string

const (
	PreferenceAny      Preference = "any"
	PreferenceSame     Preference = "same"
	PreferenceOpposite Preference = "opposite"
	PreferenceOther    Preference = "other"
)

// Valid reports whether p is a known preference value.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceAny, PreferenceSame, PreferenceOpposite, PreferenceOther:
		return true
	}
	return false
}

// MonetizeInfo tracks a user's sponsor-visit state. It is embedded into the
// users table with a monetize_ column prefix.
type MonetizeInfo struct {
	Enabled         bool `gorm:"default:true"`
	LastCompletedAt *time.Time
	NextDueAt       *time.Time
	FailCount       int
}

// User represents a registered bot user. TelegramID is the platform handle
// and is never exposed to other users; AnonID is the public pseudonym.
type User struct {
	TelegramID int64  `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	AnonID     string `gorm:"uniqueIndex;not null" json:"anon_id"`
	Username   string `json:"-"`
	FirstName  string `json:"-"`

	Gender     Gender     `gorm:"type:text;not null;default:''" json:"gender"`
	Preference Preference `gorm:"type:text;not null;default:'any'" json:"preference"`

	// ConsentFiles gates whether partners may send this user media.
	ConsentFiles bool `json:"consent_files"`
	// BlockedUsers holds anonymous ids this user refuses to be matched with.
	BlockedUsers pq.StringArray `gorm:"type:text[]" json:"-"`

	Warnings int    `json:"warnings"`
	IsBanned bool   `gorm:"index" json:"is_banned"`
	Language string `gorm:"default:'en'" json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `gorm:"index" json:"last_active"`

	Monetize MonetizeInfo `gorm:"embedded;embeddedPrefix:monetize_" json:"-"`
}

// BeforeCreate assigns a fresh anonymous id if none is set. The id is
// immutable afterwards.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.AnonID == "" {
		u.AnonID = anonid.New()
	}
	if u.Preference == "" {
		u.Preference = PreferenceAny
	}
	return nil
}

// HasBlocked reports whether the given anonymous id is on u's block list.
func (u *User) HasBlocked(anonID string) bool {
	for _, b := range u.BlockedUsers {
		if b == anonID {
			return true
		}
	}
	return false
}
