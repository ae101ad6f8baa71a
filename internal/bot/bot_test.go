package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const adminChat = int64(42)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

type fakeAdminService struct {
	tickets  []models.HelpRequest
	resolved map[int64]string
	stats    *models.PlatformStats
	payouts  []models.Withdrawal
}

func (f *fakeAdminService) ListHelpRequests(_ context.Context, status string) ([]models.HelpRequest, error) {
	return f.tickets, nil
}

func (f *fakeAdminService) UpdateHelpRequest(_ context.Context, id int64, status string, response *string) (*models.HelpRequest, error) {
	if id == 404 {
		return nil, errors.New("help request not found")
	}
	text := ""
	if response != nil {
		text = *response
	}
	f.resolved[id] = text
	return &models.HelpRequest{ID: id, Status: status, AdminResponse: response}, nil
}

func (f *fakeAdminService) PlatformStats(context.Context) (*models.PlatformStats, error) {
	return f.stats, nil
}

func (f *fakeAdminService) ListPendingWithdrawals(context.Context) ([]models.Withdrawal, error) {
	return f.payouts, nil
}

func newTestBot() (*Bot, *fakeSender, *fakeAdminService) {
	sender := &fakeSender{}
	svc := &fakeAdminService{resolved: make(map[int64]string)}
	return newBot(sender, svc, adminChat, utils.NewNopLogger()), sender, svc
}

func command(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestNonAdminChatIsRejected(t *testing.T) {
	b, sender, svc := newTestBot()
	b.HandleUpdate(context.Background(), command(7, "/resolve 1 done"))

	require.Empty(t, svc.resolved)
	require.Equal(t, []string{"This bot is for operators only."}, sender.texts())
}

func TestResolveCommand(t *testing.T) {
	b, sender, svc := newTestBot()
	ctx := context.Background()

	b.HandleUpdate(ctx, command(adminChat, "/resolve 5 refunded to wallet"))
	require.Equal(t, "refunded to wallet", svc.resolved[5])

	b.HandleUpdate(ctx, command(adminChat, "/resolve abc"))
	b.HandleUpdate(ctx, command(adminChat, "/resolve 404 nope"))

	texts := sender.texts()
	require.Len(t, texts, 3)
	require.Contains(t, texts[0], "#5 resolved")
	require.Contains(t, texts[1], "Usage")
	require.Contains(t, texts[2], "Could not resolve ticket #404")
}

func TestResolveViaButton(t *testing.T) {
	b, sender, svc := newTestBot()
	ctx := context.Background()

	b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    resolveCallbackPrefix + "9",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: adminChat}},
	})
	require.Equal(t, stateAwaitingResponse, b.getState(adminChat))

	b.HandleUpdate(ctx, command(adminChat, "prize sent"))
	require.Equal(t, "prize sent", svc.resolved[9])
	require.Equal(t, stateDefault, b.getState(adminChat))
	require.Contains(t, sender.texts()[len(sender.texts())-1], "#9 resolved")
}

func TestCancelDropsPendingResponse(t *testing.T) {
	b, _, svc := newTestBot()
	ctx := context.Background()

	b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    resolveCallbackPrefix + "9",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: adminChat}},
	})
	b.HandleUpdate(ctx, command(adminChat, "/cancel"))
	b.HandleUpdate(ctx, command(adminChat, "just chatting"))

	require.Empty(t, svc.resolved)
}

func TestTicketsStatsAndWithdrawals(t *testing.T) {
	b, sender, svc := newTestBot()
	ctx := context.Background()
	svc.tickets = []models.HelpRequest{{ID: 3, UserID: 11, IssueType: "payment", Description: "deposit missing"}}
	svc.stats = &models.PlatformStats{Users: 2, TotalDeposited: decimal.RequireFromString("150")}
	svc.payouts = []models.Withdrawal{{TransferID: "WTH_abc", UserID: 11, Amount: decimal.RequireFromString("120")}}

	b.HandleUpdate(ctx, command(adminChat, "/tickets"))
	b.HandleUpdate(ctx, command(adminChat, "/stats"))
	b.HandleUpdate(ctx, command(adminChat, "/withdrawals"))

	texts := sender.texts()
	require.Len(t, texts, 3)
	require.Contains(t, texts[0], "Ticket #3")
	require.Contains(t, texts[1], "Total deposited: ₹150.00")
	require.Contains(t, texts[2], "WTH_abc user 11 ₹120.00")
}

func TestNotifyAdmin(t *testing.T) {
	b, sender, _ := newTestBot()
	b.NotifyAdmin("deposit received")
	require.Equal(t, []string{"deposit received"}, sender.texts())

	silent := newBot(sender, nil, 0, utils.NewNopLogger())
	silent.NotifyAdmin("dropped")
	require.Len(t, sender.texts(), 1)
}

func TestTruncateMessageKeepsRunesIntact(t *testing.T) {
	short := "💰 Deposit ₹100.00"
	require.Equal(t, short, truncateMessage(short))

	long := strings.Repeat("₹", maxTelegramMessageSize+10)
	got := truncateMessage(long)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, maxTelegramMessageSize, utf8.RuneCountInString(got))
	require.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("🆘", maxTelegramMessageSize)
	require.Equal(t, exact, truncateMessage(exact))
}
