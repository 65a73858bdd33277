package telegram

import (
	"context"
	"fmt"
	"strings"

	"randomchat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleAdminCommand serves the moderation commands available in the
// admin chat.
func (s *BotService) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	loc := s.Localizer

	switch msg.Command() {
	case "ban":
		if args == "" {
			s.reply(s.AdminChatID, loc.GetString("en", "admin_usage_ban"))
			return
		}
		if err := s.Moderation.Ban(ctx, args); err != nil {
			logger.Error("admin ban failed", "anon_id", args, "error", err)
			return
		}
		s.reply(s.AdminChatID, loc.GetStringF("en", "admin_banned", args))

	case "unban":
		if args == "" {
			s.reply(s.AdminChatID, loc.GetString("en", "admin_usage_unban"))
			return
		}
		if err := s.Moderation.Unban(ctx, args); err != nil {
			logger.Error("admin unban failed", "anon_id", args, "error", err)
			return
		}
		s.reply(s.AdminChatID, loc.GetStringF("en", "admin_unbanned", args))

	case "warn":
		if args == "" {
			s.reply(s.AdminChatID, loc.GetString("en", "admin_usage_warn"))
			return
		}
		count, err := s.Moderation.Warn(ctx, args)
		if err != nil {
			logger.Error("admin warn failed", "anon_id", args, "error", err)
			return
		}
		s.reply(s.AdminChatID, loc.GetStringF("en", "admin_warned", args, count))

	case "broadcast":
		if args == "" {
			s.reply(s.AdminChatID, loc.GetString("en", "admin_usage_broadcast"))
			return
		}
		s.broadcast(ctx, args)

	case "stats":
		stats, err := s.Moderation.Snapshot(ctx)
		if err != nil {
			logger.Error("stats failed", "error", err)
			return
		}
		s.reply(s.AdminChatID, loc.GetStringF("en", "admin_stats",
			stats.TotalUsers, stats.BannedUsers, stats.ActiveToday,
			stats.TotalSessions, stats.ActiveSessions,
			stats.PendingReports, stats.TotalReports,
			stats.MonetizeCurrent, stats.MonetizeRequired))

	case "reports":
		s.listPendingReports(ctx)

	case "monetize_on":
		s.setMonetize(ctx, true)
	case "monetize_off":
		s.setMonetize(ctx, false)
	}
}

func (s *BotService) broadcast(ctx context.Context, text string) {
	ids, err := s.Store.ListUnbannedTelegramIDs(ctx)
	if err != nil {
		logger.Error("broadcast recipient listing failed", "error", err)
		return
	}
	delivered := 0
	for _, id := range ids {
		if _, err := s.BotAPI.Send(tgbotapi.NewMessage(id, text)); err != nil {
			logger.Warn("broadcast delivery failed", "telegram_id", id, "error", err)
			continue
		}
		delivered++
	}
	s.reply(s.AdminChatID, s.Localizer.GetStringF("en", "admin_broadcast_done", delivered))
}

func (s *BotService) listPendingReports(ctx context.Context) {
	reports, err := s.Moderation.PendingReports(ctx, 10)
	if err != nil {
		logger.Error("pending report listing failed", "error", err)
		return
	}
	if len(reports) == 0 {
		s.reply(s.AdminChatID, "No pending reports.")
		return
	}
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s [%s] %s -> %s: %s\n", r.ReportID, r.Severity, r.ReporterAnonID, r.ReportedAnonID, r.Reason)
	}
	s.reply(s.AdminChatID, b.String())
}

func (s *BotService) setMonetize(ctx context.Context, enabled bool) {
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		logger.Error("settings load failed", "error", err)
		return
	}
	settings.MonetizeEnabled = enabled
	if err := s.Store.UpdateSettings(ctx, settings); err != nil {
		logger.Error("settings update failed", "error", err)
		return
	}
	key := "admin_monetize_off"
	if enabled {
		key = "admin_monetize_on"
	}
	s.reply(s.AdminChatID, s.Localizer.GetString("en", key))
}
