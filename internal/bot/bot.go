package bot

import (
	"context"
	"sync"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminService is what the operator commands need from the service layer.
type AdminService interface {
	ListHelpRequests(ctx context.Context, status string) ([]models.HelpRequest, error)
	UpdateHelpRequest(ctx context.Context, id int64, status string, response *string) (*models.HelpRequest, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
	ListPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot relays alerts to the admin chat and answers operator commands there.
type Bot struct {
	API         *tgbotapi.BotAPI
	sender      sender
	service     AdminService
	logger      *utils.Logger
	adminChatID int64

	userStates     map[int64]string
	userActionData map[int64]string
	stateMutex     *sync.Mutex
}

func NewBot(api *tgbotapi.BotAPI, svc AdminService, adminChatID int64, logger *utils.Logger) *Bot {
	b := newBot(api, svc, adminChatID, logger)
	b.API = api
	return b
}

func newBot(s sender, svc AdminService, adminChatID int64, logger *utils.Logger) *Bot {
	return &Bot{
		sender:         s,
		service:        svc,
		logger:         logger,
		adminChatID:    adminChatID,
		userStates:     make(map[int64]string),
		userActionData: make(map[int64]string),
		stateMutex:     &sync.Mutex{},
	}
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("Starting bot...")
	updates := b.API.GetUpdatesChan(tgbotapi.NewUpdate(0))
	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.logger.Debugf("Received update: %d", update.UpdateID)
			if update.CallbackQuery != nil {
				b.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}
			if update.Message != nil {
				b.HandleUpdate(ctx, update)
			}
		}
	}
}

// NotifyAdmin sends text to the admin chat. It is a no-op without a chat id.
func (b *Bot) NotifyAdmin(text string) {
	if b.adminChatID == 0 {
		return
	}
	b.sendMessage(b.adminChatID, text, nil)
}
