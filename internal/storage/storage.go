// Package storage persists users, sessions, reports and monetize tokens in
// PostgreSQL and keeps the ban cache and event feed in Redis. It is the only
// package that talks to either store; everything above it works against the
// narrow interfaces declared here.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"randomchat/backend/internal/models"
)

var (
	// ErrNotFound reports an absent record where the caller asked for a
	// specific one. Lookups that may legitimately miss return (nil, nil).
	ErrNotFound = errors.New("storage: not found")

	// ErrSessionConflict is the storage-level uniqueness violation on "one
	// active session per participant". It is retryable: the losing side
	// must re-read state from storage, not trust its in-memory view.
	ErrSessionConflict = errors.New("storage: participant already in an active session")
)

// CandidateQuery describes the matcher's candidate scan: non-banned users
// outside the exclusion set, most recently active first, bounded window.
type CandidateQuery struct {
	// ExcludeTelegramIDs holds the requester and every active-session
	// participant.
	ExcludeTelegramIDs []int64
	// ExcludeAnonIDs is the requester's own block list.
	ExcludeAnonIDs []string
	// RequesterAnonID excludes candidates whose block list contains the
	// requester (mutual block exclusion).
	RequesterAnonID string
	Limit           int
}

// Directory owns user profile, preference, ban and block state. The matcher
// only ever reads from it.
type Directory interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByAnonID(ctx context.Context, anonID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	TouchLastActive(ctx context.Context, telegramID int64) error
	BlockUser(ctx context.Context, blockerAnonID, blockedAnonID string) error
	SetBanned(ctx context.Context, anonID string, banned bool) error
	IncrementWarnings(ctx context.Context, anonID string) (int, error)
	FindCandidates(ctx context.Context, q CandidateQuery) ([]models.User, error)
	ListUnbannedTelegramIDs(ctx context.Context) ([]int64, error)
}

// SessionStore is the persistence half of the session registry. InsertSession
// must fail with ErrSessionConflict when either participant already occupies
// an active session; MarkEnded reports whether a transition happened.
type SessionStore interface {
	InsertSession(ctx context.Context, session *models.Session) error
	FindActiveByTelegramID(ctx context.Context, telegramID int64) (*models.Session, error)
	ActiveParticipantIDs(ctx context.Context) ([]int64, error)
	MarkEnded(ctx context.Context, sessionID string) (bool, error)
	IncrementMessageCount(ctx context.Context, sessionID string) error
}

// ReportStore persists moderation reports.
type ReportStore interface {
	InsertReport(ctx context.Context, report *models.Report) error
	ListPendingReports(ctx context.Context, limit int) ([]models.Report, error)
}

// TokenStore persists monetize tokens. GetToken returns (nil, nil) for an
// unknown token.
type TokenStore interface {
	InsertToken(ctx context.Context, token *models.MonetizeToken) error
	GetToken(ctx context.Context, token string) (*models.MonetizeToken, error)
	UpdateTokenStatus(ctx context.Context, token string, status models.TokenStatus) error
}

// SettingsStore reads and writes the single runtime settings row.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, settings *models.AppSettings) error
}

// BanCache is the fast Redis-side ban check consulted on every inbound
// update, ahead of the authoritative is_banned column.
type BanCache interface {
	IsBanned(ctx context.Context, anonID string) (bool, error)
	CacheBan(ctx context.Context, anonID string) error
	ClearBan(ctx context.Context, anonID string) error
}

// Event is one entry on the moderation/match event feed.
type Event struct {
	Type         string    `json:"type"`
	SessionID    string    `json:"session_id,omitempty"`
	AnonID       string    `json:"anon_id,omitempty"`
	TargetAnonID string    `json:"target_anon_id,omitempty"`
	At           time.Time `json:"at"`
}

// Event types published on the feed.
const (
	EventMatchCreated = "match_created"
	EventSessionEnded = "session_ended"
	EventReportFiled  = "report_filed"
	EventUserBanned   = "user_banned"
	EventUserWarned   = "user_warned"
)

// EventBus publishes events for the admin live feed. Publishing is
// best-effort; callers log failures and move on.
type EventBus interface {
	PublishEvent(ctx context.Context, event Event) error
}

// StatsStore aggregates counters for the admin surfaces.
type StatsStore interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// Storage is the full persistence surface, implemented by Service.
type Storage interface {
	Directory
	SessionStore
	ReportStore
	TokenStore
	SettingsStore
	BanCache
	EventBus
	StatsStore
}

// Service is the PostgreSQL + Redis implementation of Storage.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService wires the service to its backing stores. Redis may be
// nil for tools that only touch PostgreSQL (the admin CLI).
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// Migrate creates the schema. Besides AutoMigrate it installs the partial
// unique index that enforces at most one active session per participant.
// The guarantee has to live in the database because multiple process
// instances may run at once.
func (s *Service) Migrate(ctx context.Context) error {
	err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.Report{},
		&models.MonetizeToken{},
		&models.AppSettings{},
	)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_session_per_user
		 ON session_participants (telegram_id) WHERE active`,
	).Error
}

// EnsureSettings inserts the settings row with the given defaults if it does
// not exist yet. Existing values are left untouched.
func (s *Service) EnsureSettings(ctx context.Context, defaults models.AppSettings) error {
	defaults.ID = 1
	return s.DB.WithContext(ctx).
		Where(models.AppSettings{ID: 1}).
		Attrs(defaults).
		FirstOrCreate(&models.AppSettings{}).Error
}

var _ Storage = (*Service)(nil)
