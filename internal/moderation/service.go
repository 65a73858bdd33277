// Package moderation handles reports, warnings, bans and the aggregate
// stats the admin surfaces read. Severity weights drive how many warnings
// a report is worth; crossing the warning threshold bans automatically.
package moderation

import (
	"context"
	"fmt"

	"randomchat/backend/internal/config"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"
	"randomchat/backend/pkg/logger"
)

// Service implements the moderation flows over storage.
type Service struct {
	Users   storage.Directory
	Reports storage.ReportStore
	Stats   storage.StatsStore
	Bans    storage.BanCache
	Events  storage.EventBus

	// WarnThreshold is the warning count at which a user is auto-banned.
	WarnThreshold int
}

func NewService(users storage.Directory, reports storage.ReportStore, stats storage.StatsStore, bans storage.BanCache, events storage.EventBus, warnThreshold int) *Service {
	return &Service{
		Users:         users,
		Reports:       reports,
		Stats:         stats,
		Bans:          bans,
		Events:        events,
		WarnThreshold: warnThreshold,
	}
}

// SeverityFor classifies a free-form report reason into a severity bucket.
func SeverityFor(reason string) string {
	switch reason {
	case "spam", "ads":
		return "low"
	case "harassment", "scam":
		return "medium"
	case "illegal", "csam", "threats":
		return "critical"
	default:
		return "low"
	}
}

// FileReport persists a report against a user and applies its severity
// weight as warnings. A critical report can trip the auto-ban threshold
// in one shot.
func (s *Service) FileReport(ctx context.Context, reporterAnonID, reportedAnonID, sessionID, reason string) (*models.Report, error) {
	report := &models.Report{
		ReporterAnonID: reporterAnonID,
		ReportedAnonID: reportedAnonID,
		SessionID:      sessionID,
		Reason:         reason,
		Severity:       SeverityFor(reason),
		Status:         models.ReportPending,
	}
	if err := s.Reports.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	s.publish(ctx, storage.Event{
		Type:         storage.EventReportFiled,
		SessionID:    sessionID,
		AnonID:       reporterAnonID,
		TargetAnonID: reportedAnonID,
	})

	for i := 0; i < config.SeverityWarnings[report.Severity]; i++ {
		if _, err := s.Warn(ctx, reportedAnonID); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Warn increments a user's warning count and bans them once the count
// reaches the threshold. Returns the new count.
func (s *Service) Warn(ctx context.Context, anonID string) (int, error) {
	count, err := s.Users.IncrementWarnings(ctx, anonID)
	if err != nil {
		return 0, fmt.Errorf("increment warnings: %w", err)
	}
	s.publish(ctx, storage.Event{Type: storage.EventUserWarned, AnonID: anonID})

	if count >= s.WarnThreshold {
		if err := s.Ban(ctx, anonID); err != nil {
			return count, err
		}
		logger.Info("auto-ban after warning threshold", "anon_id", anonID, "warnings", count)
	}
	return count, nil
}

// Ban marks the user banned and caches the verdict so the hot path does
// not hit the database for every inbound update.
func (s *Service) Ban(ctx context.Context, anonID string) error {
	if err := s.Users.SetBanned(ctx, anonID, true); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if err := s.Bans.CacheBan(ctx, anonID); err != nil {
		logger.Error("ban cache write failed", "anon_id", anonID, "error", err)
	}
	s.publish(ctx, storage.Event{Type: storage.EventUserBanned, AnonID: anonID})
	return nil
}

// Unban lifts a ban and clears the cache entry.
func (s *Service) Unban(ctx context.Context, anonID string) error {
	if err := s.Users.SetBanned(ctx, anonID, false); err != nil {
		return fmt.Errorf("set unbanned: %w", err)
	}
	if err := s.Bans.ClearBan(ctx, anonID); err != nil {
		logger.Error("ban cache clear failed", "anon_id", anonID, "error", err)
	}
	return nil
}

// IsBanned consults the cache first and falls back to the directory.
func (s *Service) IsBanned(ctx context.Context, user *models.User) bool {
	banned, err := s.Bans.IsBanned(ctx, user.AnonID)
	if err == nil && banned {
		return true
	}
	return user.IsBanned
}

// PendingReports lists reports awaiting review, oldest first.
func (s *Service) PendingReports(ctx context.Context, limit int) ([]models.Report, error) {
	return s.Reports.ListPendingReports(ctx, limit)
}

// Snapshot returns the aggregate counters for /stats and the admin API.
func (s *Service) Snapshot(ctx context.Context) (*models.Stats, error) {
	return s.Stats.Stats(ctx)
}

func (s *Service) publish(ctx context.Context, e storage.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, e); err != nil {
		logger.Error("event publish failed", "type", e.Type, "error", err)
	}
}
