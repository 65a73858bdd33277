package telegram

import (
	"context"
	"strings"

	"randomchat/backend/internal/chat"
	"randomchat/backend/internal/models"
	"randomchat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleBlock blocks the current partner, or shows the block list when
// there is no active chat.
func (s *BotService) handleBlock(ctx context.Context, user *models.User) {
	result, err := s.Chat.Block(ctx, user)
	if err != nil {
		logger.Error("block failed", "anon_id", user.AnonID, "error", err)
		return
	}
	if result == chat.EndNoSession {
		if len(user.BlockedUsers) == 0 {
			s.reply(user.TelegramID, s.t(user, "block_list_empty"))
			return
		}
		s.reply(user.TelegramID, s.tf(user, "block_list", strings.Join(user.BlockedUsers, "\n")))
		return
	}
	s.reply(user.TelegramID, s.t(user, "blocked_partner"))
}

func (s *BotService) handleUnblock(ctx context.Context, user *models.User, anonID string) {
	if anonID == "" {
		if len(user.BlockedUsers) == 0 {
			s.reply(user.TelegramID, s.t(user, "block_list_empty"))
			return
		}
		s.reply(user.TelegramID, s.tf(user, "block_list", strings.Join(user.BlockedUsers, "\n")))
		return
	}

	kept := user.BlockedUsers[:0]
	found := false
	for _, id := range user.BlockedUsers {
		if id == anonID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		s.reply(user.TelegramID, s.t(user, "unblock_unknown"))
		return
	}
	user.BlockedUsers = kept
	if err := s.Store.UpdateUser(ctx, user); err != nil {
		logger.Error("unblock failed", "anon_id", user.AnonID, "error", err)
		return
	}
	s.reply(user.TelegramID, s.tf(user, "unblocked", anonID))
}

// handleReportCommand covers "/report <reason>". Without a reason the
// usage hint is shown.
func (s *BotService) handleReportCommand(ctx context.Context, user *models.User, reason string) {
	target, sessionID, err := s.Chat.PartnerAnonID(ctx, user)
	if err != nil {
		logger.Error("partner lookup failed", "anon_id", user.AnonID, "error", err)
		return
	}
	if target == "" {
		s.reply(user.TelegramID, s.t(user, "no_active_chat"))
		return
	}
	if reason == "" {
		s.reply(user.TelegramID, s.t(user, "report_usage"))
		return
	}

	s.setReportTarget(user.TelegramID, reportTarget{AnonID: target, SessionID: sessionID})
	s.submitReport(ctx, user, reason)
}

// beginReport handles the inline Report button: remember who the report
// is about and ask for a reason.
func (s *BotService) beginReport(ctx context.Context, user *models.User) {
	target, sessionID, err := s.Chat.PartnerAnonID(ctx, user)
	if err != nil {
		logger.Error("partner lookup failed", "anon_id", user.AnonID, "error", err)
		return
	}
	if target == "" {
		s.reply(user.TelegramID, s.t(user, "no_active_chat"))
		return
	}

	s.setReportTarget(user.TelegramID, reportTarget{AnonID: target, SessionID: sessionID})
	s.setState(user.TelegramID, stateAwaitingReportReason)

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Spam", "report_reason_spam"),
			tgbotapi.NewInlineKeyboardButtonData("Harassment", "report_reason_harassment"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Scam", "report_reason_scam"),
			tgbotapi.NewInlineKeyboardButtonData("Illegal", "report_reason_illegal"),
		),
	)
	s.replyWithMarkup(user.TelegramID, s.t(user, "report_usage"), markup)
}

func (s *BotService) submitReport(ctx context.Context, user *models.User, reason string) {
	target, ok := s.takeReportTarget(user.TelegramID)
	s.setState(user.TelegramID, "")
	if !ok {
		s.reply(user.TelegramID, s.t(user, "no_active_chat"))
		return
	}

	report, err := s.Moderation.FileReport(ctx, user.AnonID, target.AnonID, target.SessionID, reason)
	if err != nil {
		logger.Error("report filing failed", "anon_id", user.AnonID, "error", err)
		return
	}

	s.reply(user.TelegramID, s.t(user, "report_sent"))
	if s.AdminChatID != 0 {
		s.reply(s.AdminChatID, s.Localizer.GetStringF("en", "admin_report_notice",
			report.ReportID, report.ReporterAnonID, report.ReportedAnonID,
			report.SessionID, report.Reason, report.Severity))
	}
}

func (s *BotService) setReportTarget(chatID int64, target reportTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportBuffer[chatID] = target
}

func (s *BotService) takeReportTarget(chatID int64) (reportTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.reportBuffer[chatID]
	delete(s.reportBuffer, chatID)
	return target, ok
}
