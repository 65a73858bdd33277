package telegram

import (
	"context"
	"strings"

	"randomchat/backend/internal/models"
	"randomchat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// beginOnboarding registers a new user and starts the gender question.
// The flow runs over inline keyboards: gender, then preference, then
// file consent.
func (s *BotService) beginOnboarding(ctx context.Context, msg *tgbotapi.Message) {
	user := &models.User{
		TelegramID: msg.Chat.ID,
		Language:   "en",
	}
	if msg.From != nil {
		user.Username = msg.From.UserName
		user.FirstName = msg.From.FirstName
		if msg.From.LanguageCode != "" {
			user.Language = msg.From.LanguageCode
		}
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		logger.Error("user registration failed", "telegram_id", msg.Chat.ID, "error", err)
		return
	}
	logger.Info("new user registered", "anon_id", user.AnonID)

	s.reply(user.TelegramID, s.t(user, "welcome"))
	s.replyWithMarkup(user.TelegramID, s.t(user, "ask_gender"), s.genderKeyboard(user, "onb_gender_"))
}

func (s *BotService) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge first so the button stops spinning.
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Error("callback ack failed", "error", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	user, err := s.Store.GetUserByTelegramID(ctx, chatID)
	if err != nil || user == nil {
		logger.Error("callback for unknown user", "telegram_id", chatID, "error", err)
		return
	}
	if s.Moderation.IsBanned(ctx, user) {
		s.reply(chatID, s.t(user, "banned"))
		return
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "onb_gender_"):
		s.saveGender(ctx, user, strings.TrimPrefix(data, "onb_gender_"))
		s.replyWithMarkup(chatID, s.t(user, "ask_preference"), s.preferenceKeyboard(user, "onb_pref_"))
	case strings.HasPrefix(data, "onb_pref_"):
		s.savePreference(ctx, user, strings.TrimPrefix(data, "onb_pref_"))
		s.replyWithMarkup(chatID, s.t(user, "ask_files"), s.filesKeyboard(user, "onb_files_"))
	case strings.HasPrefix(data, "onb_files_"):
		s.saveFileConsent(ctx, user, strings.TrimPrefix(data, "onb_files_") == "yes")
		if err := s.Monetize.ScheduleFirstGate(ctx, user); err != nil {
			logger.Error("first gate scheduling failed", "anon_id", user.AnonID, "error", err)
		}
		s.reply(chatID, s.tf(user, "onboarding_done", user.AnonID))

	case data == "settings_gender":
		s.replyWithMarkup(chatID, s.t(user, "ask_gender"), s.genderKeyboard(user, "set_gender_"))
	case data == "settings_pref":
		s.replyWithMarkup(chatID, s.t(user, "ask_preference"), s.preferenceKeyboard(user, "set_pref_"))
	case data == "settings_files":
		s.replyWithMarkup(chatID, s.t(user, "ask_files"), s.filesKeyboard(user, "set_files_"))
	case strings.HasPrefix(data, "set_gender_"):
		s.saveGender(ctx, user, strings.TrimPrefix(data, "set_gender_"))
		s.reply(chatID, s.t(user, "settings_saved"))
	case strings.HasPrefix(data, "set_pref_"):
		s.savePreference(ctx, user, strings.TrimPrefix(data, "set_pref_"))
		s.reply(chatID, s.t(user, "settings_saved"))
	case strings.HasPrefix(data, "set_files_"):
		s.saveFileConsent(ctx, user, strings.TrimPrefix(data, "set_files_") == "yes")
		s.reply(chatID, s.t(user, "settings_saved"))

	case data == "chat_skip":
		if _, err := s.Chat.Skip(ctx, user); err != nil {
			logger.Error("skip failed", "anon_id", user.AnonID, "error", err)
		}
	case data == "chat_end":
		s.handleEnd(ctx, user)
	case data == "chat_block":
		s.handleBlock(ctx, user)
	case data == "chat_report":
		s.beginReport(ctx, user)

	case strings.HasPrefix(data, "report_reason_"):
		s.submitReport(ctx, user, strings.TrimPrefix(data, "report_reason_"))
	}
}

func (s *BotService) saveGender(ctx context.Context, user *models.User, value string) {
	g := models.Gender(value)
	if !g.Valid() {
		return
	}
	user.Gender = g
	if err := s.Store.UpdateUser(ctx, user); err != nil {
		logger.Error("gender update failed", "anon_id", user.AnonID, "error", err)
	}
}

func (s *BotService) savePreference(ctx context.Context, user *models.User, value string) {
	p := models.Preference(value)
	if !p.Valid() {
		return
	}
	user.Preference = p
	if err := s.Store.UpdateUser(ctx, user); err != nil {
		logger.Error("preference update failed", "anon_id", user.AnonID, "error", err)
	}
}

func (s *BotService) saveFileConsent(ctx context.Context, user *models.User, consent bool) {
	user.ConsentFiles = consent
	if err := s.Store.UpdateUser(ctx, user); err != nil {
		logger.Error("consent update failed", "anon_id", user.AnonID, "error", err)
	}
}

func (s *BotService) handleProfile(user *models.User) {
	consent := s.t(user, "files_no")
	if user.ConsentFiles {
		consent = s.t(user, "files_yes")
	}
	s.reply(user.TelegramID, s.tf(user, "profile",
		user.AnonID,
		s.t(user, "gender_"+string(user.Gender)),
		s.t(user, "pref_"+string(user.Preference)),
		consent,
	))
}

func (s *BotService) handleSettings(user *models.User) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "settings_gender"), "settings_gender"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "settings_preference"), "settings_pref"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "settings_files"), "settings_files"),
		),
	)
	s.replyWithMarkup(user.TelegramID, s.t(user, "settings_intro"), markup)
}

func (s *BotService) genderKeyboard(user *models.User, prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "gender_male"), prefix+"male"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "gender_female"), prefix+"female"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "gender_other"), prefix+"other"),
		),
	)
}

func (s *BotService) preferenceKeyboard(user *models.User, prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "pref_any"), prefix+"any"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "pref_same"), prefix+"same"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "pref_opposite"), prefix+"opposite"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "pref_other"), prefix+"other"),
		),
	)
}

func (s *BotService) filesKeyboard(user *models.User, prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "files_yes"), prefix+"yes"),
			tgbotapi.NewInlineKeyboardButtonData(s.t(user, "files_no"), prefix+"no"),
		),
	)
}
