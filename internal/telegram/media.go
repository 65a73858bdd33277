package telegram

import (
	"randomchat/backend/internal/chat"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// extractMessage converts an inbound Telegram message into a relayable
// chat message. ok is false for message types that cannot be forwarded
// (contacts, locations, polls).
func extractMessage(msg *tgbotapi.Message) (chat.Message, bool) {
	switch {
	case msg.Text != "":
		return chat.Message{Text: msg.Text}, true
	case msg.Photo != nil:
		// Telegram sends several resolutions; forward the largest.
		largest := msg.Photo[len(msg.Photo)-1]
		return mediaMessage(chat.MediaPhoto, largest.FileID, msg.Caption), true
	case msg.Video != nil:
		return mediaMessage(chat.MediaVideo, msg.Video.FileID, msg.Caption), true
	case msg.Document != nil:
		return mediaMessage(chat.MediaDocument, msg.Document.FileID, msg.Caption), true
	case msg.Audio != nil:
		return mediaMessage(chat.MediaAudio, msg.Audio.FileID, msg.Caption), true
	case msg.Voice != nil:
		return mediaMessage(chat.MediaVoice, msg.Voice.FileID, ""), true
	case msg.Sticker != nil:
		return mediaMessage(chat.MediaSticker, msg.Sticker.FileID, ""), true
	case msg.Animation != nil:
		return mediaMessage(chat.MediaAnimation, msg.Animation.FileID, msg.Caption), true
	case msg.VideoNote != nil:
		return mediaMessage(chat.MediaVideoNote, msg.VideoNote.FileID, ""), true
	default:
		return chat.Message{}, false
	}
}

func mediaMessage(kind chat.MediaKind, fileID, caption string) chat.Message {
	return chat.Message{Media: &chat.Media{Kind: kind, FileID: fileID, Caption: caption}}
}

// mediaChattable builds the outbound Telegram message that re-sends a
// file by its FileID.
func mediaChattable(chatID int64, media *chat.Media) tgbotapi.Chattable {
	file := tgbotapi.FileID(media.FileID)
	switch media.Kind {
	case chat.MediaPhoto:
		msg := tgbotapi.NewPhoto(chatID, file)
		msg.Caption = media.Caption
		return msg
	case chat.MediaVideo:
		msg := tgbotapi.NewVideo(chatID, file)
		msg.Caption = media.Caption
		return msg
	case chat.MediaDocument:
		msg := tgbotapi.NewDocument(chatID, file)
		msg.Caption = media.Caption
		return msg
	case chat.MediaAudio:
		msg := tgbotapi.NewAudio(chatID, file)
		msg.Caption = media.Caption
		return msg
	case chat.MediaVoice:
		return tgbotapi.NewVoice(chatID, file)
	case chat.MediaSticker:
		return tgbotapi.NewSticker(chatID, file)
	case chat.MediaAnimation:
		msg := tgbotapi.NewAnimation(chatID, file)
		msg.Caption = media.Caption
		return msg
	case chat.MediaVideoNote:
		return tgbotapi.NewVideoNote(chatID, 0, file)
	default:
		return nil
	}
}
