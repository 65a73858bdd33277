package matching

import (
	"context"
	"errors"

	"randomchat/backend/internal/config"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"
)

// ErrAlreadyInSession is returned when the requester still has an active
// session. The caller must end it before searching again.
var ErrAlreadyInSession = errors.New("matching: requester already has an active session")

// MatcherService finds a compatible partner for a user. It only reads
// state; pairing the two users into a session is the chat service's job.
type MatcherService struct {
	Directory storage.Directory
	Sessions  storage.SessionStore

	// Window caps how many recent candidates are scanned per attempt.
	Window int
}

func NewMatcherService(dir storage.Directory, sessions storage.SessionStore) *MatcherService {
	return &MatcherService{
		Directory: dir,
		Sessions:  sessions,
		Window:    config.MatchCandidateLimit,
	}
}

// FindPartner returns the most recently active compatible candidate, or
// (nil, nil) when nobody suitable is waiting. Candidates already in a
// session, banned, or in a block relation with the requester (either
// direction) are never returned.
func (m *MatcherService) FindPartner(ctx context.Context, user *models.User) (*models.User, error) {
	active, err := m.Sessions.FindActiveByTelegramID(ctx, user.TelegramID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrAlreadyInSession
	}

	busy, err := m.Sessions.ActiveParticipantIDs(ctx)
	if err != nil {
		return nil, err
	}

	query := storage.CandidateQuery{
		ExcludeTelegramIDs: append(busy, user.TelegramID),
		ExcludeAnonIDs:     user.BlockedUsers,
		RequesterAnonID:    user.AnonID,
		Limit:              m.Window,
	}
	candidates, err := m.Directory.FindCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		c := &candidates[i]
		// The store query already filters block lists; re-check here so
		// the matcher's contract does not depend on the backing query.
		if user.HasBlocked(c.AnonID) || c.HasBlocked(user.AnonID) {
			continue
		}
		if Compatible(user, c) {
			return c, nil
		}
	}
	return nil, nil
}
