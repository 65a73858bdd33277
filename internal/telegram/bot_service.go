// Package telegram handles the integration with the Telegram Bot API.
// It receives updates, runs the onboarding flow, relays chat messages
// through the chat service and exposes the admin commands.
package telegram

import (
	"context"
	"strings"
	"sync"

	"randomchat/backend/internal/chat"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/moderation"
	"randomchat/backend/internal/monetize"
	"randomchat/backend/internal/storage"
	"randomchat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const stateAwaitingReportReason = "awaiting_report_reason"

// reportTarget pins down who a pending report button press is about, so
// the report still lands even if the session ends before the reason
// arrives.
type reportTarget struct {
	AnonID    string
	SessionID string
}

// BotService receives Telegram updates and routes them to the services.
type BotService struct {
	BotAPI      *tgbotapi.BotAPI
	Store       storage.Storage
	Chat        *chat.Service
	Monetize    *monetize.Service
	Moderation  *moderation.Service
	Localizer   *localization.Localizer
	AdminChatID int64

	mu           sync.Mutex
	userStates   map[int64]string
	reportBuffer map[int64]reportTarget
}

// NewBotService authorizes against the Bot API and wires the services.
func NewBotService(cfg *config.Config, store storage.Storage, chatSvc *chat.Service, monetizeSvc *monetize.Service, moderationSvc *moderation.Service, localizer *localization.Localizer) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	logger.Info("authorized on telegram", "account", bot.Self.UserName)

	return &BotService{
		BotAPI:       bot,
		Store:        store,
		Chat:         chatSvc,
		Monetize:     monetizeSvc,
		Moderation:   moderationSvc,
		Localizer:    localizer,
		AdminChatID:  cfg.AdminChatID,
		userStates:   make(map[int64]string),
		reportBuffer: make(map[int64]reportTarget),
	}, nil
}

// Run is the main loop for receiving Telegram updates. It returns when
// ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(ctx, &update)
		}
	}
}

func (s *BotService) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	}
}

func (s *BotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if chatID == s.AdminChatID && msg.IsCommand() {
		s.handleAdminCommand(ctx, msg)
		return
	}

	user, err := s.Store.GetUserByTelegramID(ctx, chatID)
	if err != nil {
		logger.Error("user lookup failed", "telegram_id", chatID, "error", err)
		return
	}
	if user == nil {
		s.beginOnboarding(ctx, msg)
		return
	}

	// Every inbound update refreshes recency for the matcher.
	if err := s.Store.TouchLastActive(ctx, chatID); err != nil {
		logger.Error("last_active touch failed", "telegram_id", chatID, "error", err)
	}

	if s.Moderation.IsBanned(ctx, user) {
		s.reply(chatID, s.t(user, "banned"))
		return
	}

	if state := s.getState(chatID); state == stateAwaitingReportReason && !msg.IsCommand() {
		s.submitReport(ctx, user, msg.Text)
		return
	}

	if msg.IsCommand() {
		s.handleCommand(ctx, user, msg)
		return
	}

	s.relayMessage(ctx, user, msg)
}

func (s *BotService) handleCommand(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		if token, ok := parseMonetizeDeepLink(msg.CommandArguments()); ok {
			s.handleMonetizeConfirm(ctx, user, token)
			return
		}
		s.reply(user.TelegramID, s.t(user, "welcome_back"))
	case "newchat":
		s.handleNewChat(ctx, user)
	case "end":
		s.handleEnd(ctx, user)
	case "profile":
		s.handleProfile(user)
	case "settings":
		s.handleSettings(user)
	case "help":
		s.reply(user.TelegramID, s.t(user, "help"))
	case "block":
		s.handleBlock(ctx, user)
	case "unblock":
		s.handleUnblock(ctx, user, strings.TrimSpace(msg.CommandArguments()))
	case "report":
		s.handleReportCommand(ctx, user, strings.TrimSpace(msg.CommandArguments()))
	default:
		s.reply(user.TelegramID, s.t(user, "help"))
	}
}

// relayMessage forwards a non-command message to the current partner.
func (s *BotService) relayMessage(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	relayed, ok := extractMessage(msg)
	if !ok {
		s.reply(user.TelegramID, s.t(user, "unsupported_message"))
		return
	}

	result, err := s.Chat.Forward(ctx, user, relayed)
	if err != nil {
		logger.Error("forward failed", "anon_id", user.AnonID, "error", err)
		return
	}
	switch result {
	case chat.ForwardNoSession:
		s.reply(user.TelegramID, s.t(user, "no_active_chat"))
	case chat.ForwardMediaDeclined:
		s.reply(user.TelegramID, s.t(user, "media_declined"))
	}
}

func (s *BotService) handleNewChat(ctx context.Context, user *models.User) {
	required, err := s.Monetize.Required(ctx, user)
	if err != nil {
		logger.Error("monetize check failed", "anon_id", user.AnonID, "error", err)
	}
	if required {
		challenge, err := s.Monetize.IssueChallenge(ctx, user)
		if err != nil {
			logger.Error("challenge issue failed", "anon_id", user.AnonID, "error", err)
			return
		}
		s.reply(user.TelegramID, s.tf(user, "monetize_gate", challenge.SponsorURL, challenge.DeepLink))
		return
	}

	result, err := s.Chat.Start(ctx, user)
	if err != nil {
		logger.Error("search failed", "anon_id", user.AnonID, "error", err)
		return
	}
	switch result {
	case chat.StartNoPartner:
		s.reply(user.TelegramID, s.t(user, "no_partner"))
	case chat.StartAlreadyInSession:
		s.reply(user.TelegramID, s.t(user, "already_in_chat"))
	}
}

func (s *BotService) handleEnd(ctx context.Context, user *models.User) {
	result, err := s.Chat.End(ctx, user)
	if err != nil {
		logger.Error("end failed", "anon_id", user.AnonID, "error", err)
		return
	}
	if result == chat.EndNoSession {
		s.reply(user.TelegramID, s.t(user, "no_active_chat"))
	}
}

func (s *BotService) handleMonetizeConfirm(ctx context.Context, user *models.User, token string) {
	result, remaining, err := s.Monetize.Confirm(ctx, user, token)
	if err != nil {
		logger.Error("monetize confirm failed", "anon_id", user.AnonID, "error", err)
		return
	}
	switch result {
	case monetize.ConfirmOK:
		s.reply(user.TelegramID, s.t(user, "monetize_ok"))
	case monetize.ConfirmUsed:
		s.reply(user.TelegramID, s.t(user, "monetize_used"))
	case monetize.ConfirmExpired:
		s.reply(user.TelegramID, s.t(user, "monetize_expired"))
	case monetize.ConfirmWrongUser:
		s.reply(user.TelegramID, s.t(user, "monetize_wrong_user"))
	case monetize.ConfirmTooFast:
		s.reply(user.TelegramID, s.tf(user, "monetize_too_fast", int(remaining.Seconds())+1))
	default:
		s.reply(user.TelegramID, s.t(user, "monetize_invalid"))
	}
}

// parseMonetizeDeepLink extracts the token from a /start payload of the
// form "monetize_<token>".
func parseMonetizeDeepLink(payload string) (string, bool) {
	token, found := strings.CutPrefix(payload, "monetize_")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func (s *BotService) getState(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userStates[chatID]
}

func (s *BotService) setState(chatID int64, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == "" {
		delete(s.userStates, chatID)
		return
	}
	s.userStates[chatID] = state
}

// t looks up a localized string for the user's language.
func (s *BotService) t(user *models.User, key string) string {
	return s.Localizer.GetString(user.Language, key)
}

func (s *BotService) tf(user *models.User, key string, args ...interface{}) string {
	return s.Localizer.GetStringF(user.Language, key, args...)
}

func (s *BotService) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.BotAPI.Send(msg); err != nil {
		logger.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (s *BotService) replyWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := s.BotAPI.Send(msg); err != nil {
		logger.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}
