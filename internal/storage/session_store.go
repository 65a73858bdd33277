package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"randomchat/backend/internal/models"
)

// InsertSession atomically creates the session row plus one participant row
// per user. The partial unique index on active participants makes the whole
// transaction fail if either user already occupies an active session, which
// surfaces as ErrSessionConflict. This is what serializes concurrent
// create attempts across process instances; there is no in-process lock.
func (s *Service) InsertSession(ctx context.Context, session *models.Session) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		participants := []models.SessionParticipant{
			{SessionID: session.SessionID, TelegramID: session.UserATelegramID, AnonID: session.UserAAnonID, Active: true},
			{SessionID: session.SessionID, TelegramID: session.UserBTelegramID, AnonID: session.UserBAnonID, Active: true},
		}
		return tx.Create(&participants).Error
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSessionConflict
	}
	return err
}

// FindActiveByTelegramID returns the unique active session containing the
// handle, or (nil, nil). The participant invariant guarantees at most one
// row can match.
func (s *Service) FindActiveByTelegramID(ctx context.Context, telegramID int64) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.SessionActive).
		Where("user_a_telegram_id = ? OR user_b_telegram_id = ?", telegramID, telegramID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ActiveParticipantIDs returns every handle currently occupying an active
// session, for the matcher's exclusion set.
func (s *Service) ActiveParticipantIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.DB.WithContext(ctx).Model(&models.SessionParticipant{}).
		Where("active = ?", true).
		Pluck("telegram_id", &ids).Error
	return ids, err
}

// MarkEnded performs the one-way active→ended transition. The guarded UPDATE
// makes it idempotent: a second call, or a call for an unknown id, affects
// zero rows and reports false without error.
func (s *Service) MarkEnded(ctx context.Context, sessionID string) (bool, error) {
	var ended bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("session_id = ? AND status = ?", sessionID, models.SessionActive).
			Updates(map[string]interface{}{
				"status":   models.SessionEnded,
				"ended_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already ended or absent
		}
		ended = true

		// Releasing the participant rows is what frees both users for the
		// partial unique index.
		return tx.Model(&models.SessionParticipant{}).
			Where("session_id = ?", sessionID).
			Update("active", false).Error
	})
	return ended, err
}

// IncrementMessageCount bumps the session counter atomically; safe under
// concurrent delivery from both directions of the same session.
func (s *Service) IncrementMessageCount(ctx context.Context, sessionID string) error {
	return s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Update("message_count", gorm.Expr("message_count + 1")).Error
}
