// Package chat orchestrates the anonymous 1:1 conversations: pairing two
// matched users into a session, relaying their messages, and tearing the
// session down on /end, skip or block. All user-visible delivery goes
// through the Notifier so the package stays transport-agnostic.
package chat

import (
	"context"
	"errors"
	"fmt"

	"randomchat/backend/internal/matching"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/session"
	"randomchat/backend/internal/storage"
	"randomchat/backend/pkg/logger"
)

// MediaKind names the forwardable media types.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaAudio     MediaKind = "audio"
	MediaVoice     MediaKind = "voice"
	MediaSticker   MediaKind = "sticker"
	MediaAnimation MediaKind = "animation"
	MediaVideoNote MediaKind = "video_note"
)

// Media is a reference to an already-uploaded file on the bot platform.
type Media struct {
	Kind    MediaKind
	FileID  string
	Caption string
}

// Message is one inbound chat message to relay.
type Message struct {
	Text  string
	Media *Media
}

// NoticeKind tells the notifier which template to render.
type NoticeKind int

const (
	// NoticeMatchFound is sent to both users when a session starts.
	NoticeMatchFound NoticeKind = iota
	// NoticePartnerLeft is sent to the remaining user when the other side
	// ends, skips, blocks or vanishes.
	NoticePartnerLeft
	// NoticeChatEnded confirms to the acting user that their session is over.
	NoticeChatEnded
	// NoticeRelay carries a partner's message (Text or Media set).
	NoticeRelay
)

// Notice is one outbound delivery to a user.
type Notice struct {
	Kind  NoticeKind
	Text  string
	Media *Media
}

// Notifier delivers notices to users. Implementations must not block
// indefinitely; delivery failures are logged, not propagated.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, n Notice) error
}

// StartResult is the user-facing outcome of a search.
type StartResult int

const (
	StartMatched StartResult = iota
	StartNoPartner
	StartAlreadyInSession
)

// ForwardResult is the user-facing outcome of relaying one message.
type ForwardResult int

const (
	ForwardOK ForwardResult = iota
	ForwardNoSession
	ForwardMediaDeclined
	ForwardPartnerGone
)

// EndResult is the user-facing outcome of /end, skip or block.
type EndResult int

const (
	EndOK EndResult = iota
	EndNoSession
)

// Service ties matching, the session registry and delivery together.
type Service struct {
	Users    storage.Directory
	Sessions *session.Registry
	Matcher  *matching.MatcherService
	Events   storage.EventBus
	Notifier Notifier
}

func NewService(users storage.Directory, sessions *session.Registry, matcher *matching.MatcherService, events storage.EventBus, notifier Notifier) *Service {
	return &Service{
		Users:    users,
		Sessions: sessions,
		Matcher:  matcher,
		Events:   events,
		Notifier: notifier,
	}
}

// Start searches for a partner and, if one is found, pairs both users into
// a session and notifies them. A pairing conflict (the candidate was
// grabbed between scan and insert) triggers one retry with a fresh scan.
func (s *Service) Start(ctx context.Context, user *models.User) (StartResult, error) {
	for attempt := 0; attempt < 2; attempt++ {
		partner, err := s.Matcher.FindPartner(ctx, user)
		if err != nil {
			if errors.Is(err, matching.ErrAlreadyInSession) {
				return StartAlreadyInSession, nil
			}
			return StartNoPartner, fmt.Errorf("find partner: %w", err)
		}
		if partner == nil {
			return StartNoPartner, nil
		}

		sess, err := s.Sessions.Create(ctx, user, partner)
		if err != nil {
			if errors.Is(err, session.ErrAlreadyPaired) {
				logger.Info("pairing conflict, rescanning", "anon_id", user.AnonID, "attempt", attempt)
				continue
			}
			return StartNoPartner, err
		}

		s.notify(ctx, user.TelegramID, Notice{Kind: NoticeMatchFound})
		s.notify(ctx, partner.TelegramID, Notice{Kind: NoticeMatchFound})
		s.publish(ctx, storage.Event{
			Type:         storage.EventMatchCreated,
			SessionID:    sess.SessionID,
			AnonID:       user.AnonID,
			TargetAnonID: partner.AnonID,
		})
		return StartMatched, nil
	}
	return StartNoPartner, nil
}

// Forward relays one message to the sender's current partner. Media is
// only relayed when the partner has consented to receiving files. If the
// partner's account has vanished the session is force-ended so the sender
// is not stuck in a dead chat.
func (s *Service) Forward(ctx context.Context, from *models.User, msg Message) (ForwardResult, error) {
	sess, err := s.Sessions.GetActiveSession(ctx, from.TelegramID)
	if err != nil {
		return ForwardNoSession, err
	}
	if sess == nil {
		return ForwardNoSession, nil
	}

	partnerTgID, partnerAnonID, ok := session.Partner(sess, from.TelegramID)
	if !ok {
		return ForwardNoSession, nil
	}

	partner, err := s.Users.GetUserByAnonID(ctx, partnerAnonID)
	if err != nil {
		return ForwardNoSession, err
	}
	if partner == nil || partner.IsBanned {
		// Dead partner record: close the session and tell the sender.
		if _, endErr := s.Sessions.End(ctx, sess.SessionID); endErr != nil {
			logger.Error("force-end of orphaned session failed", "session_id", sess.SessionID, "error", endErr)
		}
		s.notify(ctx, from.TelegramID, Notice{Kind: NoticePartnerLeft})
		return ForwardPartnerGone, nil
	}

	if msg.Media != nil && !partner.ConsentFiles {
		return ForwardMediaDeclined, nil
	}

	s.notify(ctx, partnerTgID, Notice{Kind: NoticeRelay, Text: msg.Text, Media: msg.Media})
	if err := s.Sessions.IncrementMessages(ctx, sess.SessionID); err != nil {
		logger.Error("message counter increment failed", "session_id", sess.SessionID, "error", err)
	}
	return ForwardOK, nil
}

// End closes the user's active session. The partner is told the chat
// ended only when this call is the one that actually ended it, so a
// simultaneous /end from both sides produces one notification each.
func (s *Service) End(ctx context.Context, user *models.User) (EndResult, error) {
	sess, err := s.Sessions.GetActiveSession(ctx, user.TelegramID)
	if err != nil {
		return EndNoSession, err
	}
	if sess == nil {
		return EndNoSession, nil
	}

	ended, err := s.Sessions.End(ctx, sess.SessionID)
	if err != nil {
		return EndNoSession, err
	}
	s.notify(ctx, user.TelegramID, Notice{Kind: NoticeChatEnded})
	if ended {
		if partnerTgID, _, ok := session.Partner(sess, user.TelegramID); ok {
			s.notify(ctx, partnerTgID, Notice{Kind: NoticePartnerLeft})
		}
		s.publish(ctx, storage.Event{
			Type:      storage.EventSessionEnded,
			SessionID: sess.SessionID,
			AnonID:    user.AnonID,
		})
	}
	return EndOK, nil
}

// Skip ends the current session and immediately searches again.
func (s *Service) Skip(ctx context.Context, user *models.User) (StartResult, error) {
	if _, err := s.End(ctx, user); err != nil {
		return StartNoPartner, err
	}
	return s.Start(ctx, user)
}

// Block adds the current partner to the user's block list and ends the
// session. Future matching between the two is excluded in both directions.
func (s *Service) Block(ctx context.Context, user *models.User) (EndResult, error) {
	sess, err := s.Sessions.GetActiveSession(ctx, user.TelegramID)
	if err != nil {
		return EndNoSession, err
	}
	if sess == nil {
		return EndNoSession, nil
	}

	_, partnerAnonID, ok := session.Partner(sess, user.TelegramID)
	if ok {
		if err := s.Users.BlockUser(ctx, user.AnonID, partnerAnonID); err != nil {
			return EndNoSession, fmt.Errorf("block partner: %w", err)
		}
	}
	return s.End(ctx, user)
}

// PartnerAnonID resolves the anon id of the user's current partner, for
// the report flow. Empty when there is no active session.
func (s *Service) PartnerAnonID(ctx context.Context, user *models.User) (string, string, error) {
	sess, err := s.Sessions.GetActiveSession(ctx, user.TelegramID)
	if err != nil || sess == nil {
		return "", "", err
	}
	_, partnerAnonID, ok := session.Partner(sess, user.TelegramID)
	if !ok {
		return "", "", nil
	}
	return partnerAnonID, sess.SessionID, nil
}

func (s *Service) notify(ctx context.Context, telegramID int64, n Notice) {
	if err := s.Notifier.Notify(ctx, telegramID, n); err != nil {
		logger.Error("notify failed", "telegram_id", telegramID, "kind", int(n.Kind), "error", err)
	}
}

func (s *Service) publish(ctx context.Context, e storage.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, e); err != nil {
		logger.Error("event publish failed", "type", e.Type, "error", err)
	}
}
