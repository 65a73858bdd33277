// Package monetize implements the periodic sponsor-visit gate. A user who
// is due must follow the sponsor link and come back through a deep link
// carrying a one-time token before searching again.
package monetize

import (
	"context"
	"fmt"
	"time"

	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"

	"github.com/google/uuid"
)

// ConfirmResult is the outcome of a deep-link confirmation.
type ConfirmResult int

const (
	ConfirmOK ConfirmResult = iota
	ConfirmInvalid
	ConfirmUsed
	ConfirmExpired
	ConfirmWrongUser
	// ConfirmTooFast means the user came back before the minimum wait;
	// the token stays pending and can be retried.
	ConfirmTooFast
)

// Challenge is what the bot presents to a gated user.
type Challenge struct {
	Token      string
	SponsorURL string
	DeepLink   string
	ExpiresAt  time.Time
}

// Service issues and confirms sponsor-visit tokens.
type Service struct {
	Tokens   storage.TokenStore
	Users    storage.Directory
	Settings storage.SettingsStore

	// BotUsername builds the confirmation deep link.
	BotUsername string

	// Now is swappable for tests.
	Now func() time.Time
}

func NewService(tokens storage.TokenStore, users storage.Directory, settings storage.SettingsStore, botUsername string) *Service {
	return &Service{
		Tokens:      tokens,
		Users:       users,
		Settings:    settings,
		BotUsername: botUsername,
		Now:         time.Now,
	}
}

// Required reports whether the user must complete a sponsor visit before
// their next search. The gate applies only when both the global switch
// and the user's own flag are on; a user who has never completed one and
// has no due date yet is let through until a due date is set.
func (s *Service) Required(ctx context.Context, user *models.User) (bool, error) {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	if !settings.MonetizeEnabled || !user.Monetize.Enabled {
		return false, nil
	}
	if user.Monetize.NextDueAt == nil {
		return false, nil
	}
	return !s.Now().Before(*user.Monetize.NextDueAt), nil
}

// IssueChallenge creates a fresh pending token for the user and returns
// the sponsor link plus the deep link that confirms the visit.
func (s *Service) IssueChallenge(ctx context.Context, user *models.User) (*Challenge, error) {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	now := s.Now().UTC()
	token := &models.MonetizeToken{
		Token:      uuid.NewString(),
		AnonID:     user.AnonID,
		TelegramID: user.TelegramID,
		Status:     models.TokenPending,
		SponsorURL: settings.SponsorURL,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(settings.MonetizeTokenTTLMins) * time.Minute),
	}
	if err := s.Tokens.InsertToken(ctx, token); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	return &Challenge{
		Token:      token.Token,
		SponsorURL: token.SponsorURL,
		DeepLink:   fmt.Sprintf("https://t.me/%s?start=monetize_%s", s.BotUsername, token.Token),
		ExpiresAt:  token.ExpiresAt,
	}, nil
}

// Confirm validates a deep-link token for the user. On success the token
// is consumed and the user's gate is pushed out by the configured
// interval. The returned duration is only meaningful for ConfirmTooFast,
// where it says how much longer the user has to wait.
func (s *Service) Confirm(ctx context.Context, user *models.User, tokenID string) (ConfirmResult, time.Duration, error) {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return ConfirmInvalid, 0, fmt.Errorf("load settings: %w", err)
	}

	token, err := s.Tokens.GetToken(ctx, tokenID)
	if err != nil {
		return ConfirmInvalid, 0, fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return ConfirmInvalid, 0, nil
	}

	switch token.Status {
	case models.TokenCompleted:
		return ConfirmUsed, 0, nil
	case models.TokenExpired:
		return ConfirmExpired, 0, nil
	}

	now := s.Now().UTC()
	if now.After(token.ExpiresAt) {
		if err := s.Tokens.UpdateTokenStatus(ctx, token.Token, models.TokenExpired); err != nil {
			return ConfirmExpired, 0, fmt.Errorf("expire token: %w", err)
		}
		return ConfirmExpired, 0, nil
	}
	if token.TelegramID != user.TelegramID {
		return ConfirmWrongUser, 0, nil
	}

	minWait := time.Duration(settings.MonetizeMinWaitSecs) * time.Second
	if elapsed := now.Sub(token.CreatedAt); elapsed < minWait {
		return ConfirmTooFast, minWait - elapsed, nil
	}

	if err := s.Tokens.UpdateTokenStatus(ctx, token.Token, models.TokenCompleted); err != nil {
		return ConfirmInvalid, 0, fmt.Errorf("complete token: %w", err)
	}

	nextDue := now.Add(time.Duration(settings.MonetizeIntervalHrs) * time.Hour)
	user.Monetize.LastCompletedAt = &now
	user.Monetize.NextDueAt = &nextDue
	user.Monetize.FailCount = 0
	if err := s.Users.UpdateUser(ctx, user); err != nil {
		return ConfirmInvalid, 0, fmt.Errorf("update user: %w", err)
	}
	return ConfirmOK, 0, nil
}

// ScheduleFirstGate sets the initial due date for a user whose gate has
// never fired, so the interval starts counting from their registration.
func (s *Service) ScheduleFirstGate(ctx context.Context, user *models.User) error {
	if user.Monetize.NextDueAt != nil {
		return nil
	}
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	due := s.Now().UTC().Add(time.Duration(settings.MonetizeIntervalHrs) * time.Hour)
	user.Monetize.NextDueAt = &due
	return s.Users.UpdateUser(ctx, user)
}
