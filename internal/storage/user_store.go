package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"randomchat/backend/internal/models"
)

// CreateUser inserts a freshly onboarded user. The anon id is assigned by
// the model's BeforeCreate hook if unset.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastActive.IsZero() {
		user.LastActive = now
	}
	return s.DB.WithContext(ctx).Create(user).Error
}

// GetUserByTelegramID returns (nil, nil) for an unregistered handle.
func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByAnonID returns (nil, nil) for an unknown pseudonym.
func (s *Service) GetUserByAnonID(ctx context.Context, anonID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("anon_id = ?", anonID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves the full profile record.
func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

// TouchLastActive bumps the recency timestamp that orders the matcher's
// candidate scan. Called on every inbound update.
func (s *Service) TouchLastActive(ctx context.Context, telegramID int64) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		Update("last_active", time.Now().UTC()).Error
}

// BlockUser appends blockedAnonID to the blocker's block list, skipping
// duplicates (the $addToSet equivalent).
func (s *Service) BlockUser(ctx context.Context, blockerAnonID, blockedAnonID string) error {
	return s.DB.WithContext(ctx).Exec(
		`UPDATE users
		 SET blocked_users = array_append(COALESCE(blocked_users, '{}'), ?)
		 WHERE anon_id = ? AND NOT (? = ANY(COALESCE(blocked_users, '{}')))`,
		blockedAnonID, blockerAnonID, blockedAnonID,
	).Error
}

// SetBanned flips the authoritative ban flag.
func (s *Service) SetBanned(ctx context.Context, anonID string, banned bool) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("anon_id = ?", anonID).
		Update("is_banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementWarnings bumps the warning counter and returns the new total.
func (s *Service) IncrementWarnings(ctx context.Context, anonID string) (int, error) {
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("anon_id = ?", anonID).
		Update("warnings", gorm.Expr("warnings + 1")).Error
	if err != nil {
		return 0, err
	}

	var warnings int
	err = s.DB.WithContext(ctx).Model(&models.User{}).
		Where("anon_id = ?", anonID).
		Pluck("warnings", &warnings).Error
	return warnings, err
}

// FindCandidates runs the matcher's pool query: non-banned users outside the
// exclusion set, with mutual block filtering, newest activity first, capped
// at q.Limit. Gender compatibility is deliberately NOT filtered here; that
// is the evaluator's job during the scan.
func (s *Service) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.User, error) {
	tx := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("is_banned = ?", false).
		Where("NOT (? = ANY(COALESCE(blocked_users, '{}')))", q.RequesterAnonID)

	if len(q.ExcludeTelegramIDs) > 0 {
		tx = tx.Where("telegram_id NOT IN ?", q.ExcludeTelegramIDs)
	}
	if len(q.ExcludeAnonIDs) > 0 {
		tx = tx.Where("anon_id NOT IN ?", q.ExcludeAnonIDs)
	}

	var users []models.User
	err := tx.Order("last_active DESC").Limit(q.Limit).Find(&users).Error
	return users, err
}

// ListUnbannedTelegramIDs feeds the admin broadcast.
func (s *Service) ListUnbannedTelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("is_banned = ?", false).
		Pluck("telegram_id", &ids).Error
	return ids, err
}
