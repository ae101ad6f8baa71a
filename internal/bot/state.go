package bot

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	stateDefault           = ""
	stateAwaitingResponse  = "awaiting_ticket_response"
	maxTelegramMessageSize = 4096
)

func (b *Bot) sendMessage(chatID int64, text string, replyMarkup any) {
	msg := tgbotapi.NewMessage(chatID, truncateMessage(text))
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}

// truncateMessage cuts text to Telegram's limit, counted in characters.
func truncateMessage(text string) string {
	if utf8.RuneCountInString(text) <= maxTelegramMessageSize {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxTelegramMessageSize-3]) + "..."
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) setState(chatID int64, state string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	if state == stateDefault {
		delete(b.userStates, chatID)
	} else {
		b.userStates[chatID] = state
	}
	b.logger.Debugf("Set state for chat %d: %s", chatID, state)
}

func (b *Bot) getState(chatID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userStates[chatID]
}

func (b *Bot) setActionData(chatID int64, data string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	b.userActionData[chatID] = data
}

// takeActionData returns and clears the pending action payload.
func (b *Bot) takeActionData(chatID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	data := b.userActionData[chatID]
	delete(b.userActionData, chatID)
	return data
}
