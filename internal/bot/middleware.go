package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) isAdmin(chatID int64) bool {
	return b.adminChatID != 0 && chatID == b.adminChatID
}

func (b *Bot) withAdminCheck(handler func(context.Context, tgbotapi.Update)) func(context.Context, tgbotapi.Update) {
	return func(ctx context.Context, update tgbotapi.Update) {
		chatID := update.Message.Chat.ID
		if !b.isAdmin(chatID) {
			b.logger.Warnf("Ignoring message from non-admin chat %d", chatID)
			b.sendMessage(chatID, "This bot is for operators only.", nil)
			return
		}
		handler(ctx, update)
	}
}
