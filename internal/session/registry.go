// Package session manages the lifecycle of 1:1 chat sessions. Exclusivity
// (at most one active session per user) is enforced by the storage layer;
// the registry translates the store's conflict error into a retryable
// domain error for callers.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"
)

// ErrAlreadyPaired means one of the two users was grabbed into another
// session between matching and pairing. The caller may retry with a
// fresh candidate scan.
var ErrAlreadyPaired = errors.New("session: participant already has an active session")

// Registry creates, resolves and ends sessions on top of a SessionStore.
type Registry struct {
	Store storage.SessionStore
}

func NewRegistry(store storage.SessionStore) *Registry {
	return &Registry{Store: store}
}

// GetActiveSession returns the user's active session, or (nil, nil) when
// there is none.
func (r *Registry) GetActiveSession(ctx context.Context, telegramID int64) (*models.Session, error) {
	return r.Store.FindActiveByTelegramID(ctx, telegramID)
}

// Create pairs two users into a new active session. If either user is
// already in an active session the store's unique constraint rejects the
// insert and ErrAlreadyPaired is returned.
func (r *Registry) Create(ctx context.Context, a, b *models.User) (*models.Session, error) {
	session := &models.Session{
		UserATelegramID: a.TelegramID,
		UserAAnonID:     a.AnonID,
		UserBTelegramID: b.TelegramID,
		UserBAnonID:     b.AnonID,
		Status:          models.SessionActive,
		StartedAt:       time.Now().UTC(),
	}
	if err := r.Store.InsertSession(ctx, session); err != nil {
		if errors.Is(err, storage.ErrSessionConflict) {
			return nil, ErrAlreadyPaired
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// End marks a session ended. The first caller gets true; later callers
// (the partner pressing /end at the same time, a vanished-partner sweep)
// get false without an error. Ending is idempotent.
func (r *Registry) End(ctx context.Context, sessionID string) (bool, error) {
	return r.Store.MarkEnded(ctx, sessionID)
}

// IncrementMessages bumps the session's relayed message counter.
func (r *Registry) IncrementMessages(ctx context.Context, sessionID string) error {
	return r.Store.IncrementMessageCount(ctx, sessionID)
}

// Partner returns the other participant's telegram id and anon id. ok is
// false when the given user is not part of the session.
func Partner(s *models.Session, telegramID int64) (int64, string, bool) {
	switch telegramID {
	case s.UserATelegramID:
		return s.UserBTelegramID, s.UserBAnonID, true
	case s.UserBTelegramID:
		return s.UserATelegramID, s.UserAAnonID, true
	default:
		return 0, "", false
	}
}
