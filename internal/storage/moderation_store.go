package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"randomchat/backend/internal/models"
)

// InsertReport persists a moderation report.
func (s *Service) InsertReport(ctx context.Context, report *models.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	return s.DB.WithContext(ctx).Create(report).Error
}

// ListPendingReports returns the oldest unreviewed reports first.
func (s *Service) ListPendingReports(ctx context.Context, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.ReportPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

// InsertToken stores a freshly issued monetize token.
func (s *Service) InsertToken(ctx context.Context, token *models.MonetizeToken) error {
	return s.DB.WithContext(ctx).Create(token).Error
}

// GetToken returns (nil, nil) for an unknown token.
func (s *Service) GetToken(ctx context.Context, token string) (*models.MonetizeToken, error) {
	var t models.MonetizeToken
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTokenStatus moves a token through pending → completed/expired.
func (s *Service) UpdateTokenStatus(ctx context.Context, token string, status models.TokenStatus) error {
	return s.DB.WithContext(ctx).Model(&models.MonetizeToken{}).
		Where("token = ?", token).
		Update("status", status).Error
}

// GetSettings loads the single runtime settings row.
func (s *Service) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := s.DB.WithContext(ctx).First(&settings, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings saves the settings row.
func (s *Service) UpdateSettings(ctx context.Context, settings *models.AppSettings) error {
	settings.ID = 1
	return s.DB.WithContext(ctx).Save(settings).Error
}

// Stats aggregates the counters shown on the admin surfaces.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	db := s.DB.WithContext(ctx)
	stats := &models.Stats{}
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.ActiveToday, db.Model(&models.User{}).Where("last_active >= ?", midnight)},
		{&stats.BannedUsers, db.Model(&models.User{}).Where("is_banned = ?", true)},
		{&stats.ActiveSessions, db.Model(&models.Session{}).Where("status = ?", models.SessionActive)},
		{&stats.TotalSessions, db.Model(&models.Session{})},
		{&stats.PendingReports, db.Model(&models.Report{}).Where("status = ?", models.ReportPending)},
		{&stats.TotalReports, db.Model(&models.Report{})},
		{&stats.MonetizeCurrent, db.Model(&models.User{}).Where("monetize_next_due_at >= ?", now)},
		{&stats.MonetizeRequired, db.Model(&models.User{}).Where("monetize_next_due_at < ?", now)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}
