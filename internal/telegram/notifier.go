package telegram

import (
	"context"
	"fmt"

	"randomchat/backend/internal/chat"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers chat notices over Telegram. It implements
// chat.Notifier.
type Notifier struct {
	BotAPI    *tgbotapi.BotAPI
	Users     storage.Directory
	Localizer *localization.Localizer
}

func NewNotifier(bot *tgbotapi.BotAPI, users storage.Directory, localizer *localization.Localizer) *Notifier {
	return &Notifier{BotAPI: bot, Users: users, Localizer: localizer}
}

func (n *Notifier) Notify(ctx context.Context, telegramID int64, notice chat.Notice) error {
	lang := "en"
	if user, err := n.Users.GetUserByTelegramID(ctx, telegramID); err == nil && user != nil {
		lang = user.Language
	}

	var msg tgbotapi.Chattable
	switch notice.Kind {
	case chat.NoticeMatchFound:
		m := tgbotapi.NewMessage(telegramID, n.Localizer.GetString(lang, "match_found"))
		m.ReplyMarkup = n.chatKeyboard(lang)
		msg = m
	case chat.NoticePartnerLeft:
		msg = tgbotapi.NewMessage(telegramID, n.Localizer.GetString(lang, "partner_left"))
	case chat.NoticeChatEnded:
		msg = tgbotapi.NewMessage(telegramID, n.Localizer.GetString(lang, "chat_ended"))
	case chat.NoticeRelay:
		if notice.Media != nil {
			msg = mediaChattable(telegramID, notice.Media)
		} else {
			msg = tgbotapi.NewMessage(telegramID, notice.Text)
		}
	}
	if msg == nil {
		return fmt.Errorf("undeliverable notice kind %d", notice.Kind)
	}

	_, err := n.BotAPI.Send(msg)
	return err
}

// chatKeyboard is the inline control row shown when a chat starts.
func (n *Notifier) chatKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(n.Localizer.GetString(lang, "btn_skip"), "chat_skip"),
			tgbotapi.NewInlineKeyboardButtonData(n.Localizer.GetString(lang, "btn_end"), "chat_end"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(n.Localizer.GetString(lang, "btn_report"), "chat_report"),
			tgbotapi.NewInlineKeyboardButtonData(n.Localizer.GetString(lang, "btn_block"), "chat_block"),
		),
	)
}
