package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const resolveCallbackPrefix = "resolve:"

const helpText = `Operator commands:
/tickets - open help requests
/resolve <id> <response> - resolve a help request
/stats - platform totals
/withdrawals - payouts still pending at the gateway
/cancel - drop the pending action`

// HandleUpdate routes an admin chat message to its command.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	b.withAdminCheck(b.dispatch)(ctx, update)
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if !msg.IsCommand() && b.getState(chatID) == stateAwaitingResponse {
		b.handleTicketResponse(ctx, chatID, msg.Text)
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, helpText, nil)
	case "tickets":
		b.handleTickets(ctx, chatID)
	case "resolve":
		b.handleResolve(ctx, chatID, msg.CommandArguments())
	case "stats":
		b.handleStats(ctx, chatID)
	case "withdrawals":
		b.handleWithdrawals(ctx, chatID)
	case "cancel":
		b.setState(chatID, stateDefault)
		b.takeActionData(chatID)
		b.sendMessage(chatID, "Cancelled.", nil)
	default:
		b.sendMessage(chatID, "Unknown command. Send /help for the list.", nil)
	}
}

func (b *Bot) handleTickets(ctx context.Context, chatID int64) {
	tickets, err := b.service.ListHelpRequests(ctx, models.HelpStatusOpen)
	if err != nil {
		b.logger.Errorf("Failed to list help requests: %v", err)
		b.sendMessage(chatID, "Failed to load tickets.", nil)
		return
	}
	if len(tickets) == 0 {
		b.sendMessage(chatID, "No open tickets.", nil)
		return
	}

	for _, t := range tickets {
		text := fmt.Sprintf("Ticket #%d (user %d)\nType: %s\n%s", t.ID, t.UserID, t.IssueType, t.Description)
		if t.AttachmentURL != "" {
			text += "\nScreenshot: " + t.AttachmentURL
		}
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Resolve", resolveCallbackPrefix+strconv.FormatInt(t.ID, 10)),
			),
		)
		b.sendMessage(chatID, text, keyboard)
	}
}

func (b *Bot) handleResolve(ctx context.Context, chatID int64, args string) {
	idArg, response, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || id <= 0 {
		b.sendMessage(chatID, "Usage: /resolve <id> <response>", nil)
		return
	}
	b.resolveTicket(ctx, chatID, id, strings.TrimSpace(response))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil {
		b.answerCallback(query.ID, "")
		return
	}
	chatID := query.Message.Chat.ID
	if !b.isAdmin(chatID) {
		b.answerCallback(query.ID, "Not allowed")
		return
	}

	idArg, ok := strings.CutPrefix(query.Data, resolveCallbackPrefix)
	if !ok {
		b.answerCallback(query.ID, "Unknown action")
		return
	}
	if _, err := strconv.ParseInt(idArg, 10, 64); err != nil {
		b.answerCallback(query.ID, "Invalid ticket")
		return
	}

	b.setState(chatID, stateAwaitingResponse)
	b.setActionData(chatID, idArg)
	b.answerCallback(query.ID, "")
	b.sendMessage(chatID, fmt.Sprintf("Send the response for ticket #%s, or /cancel.", idArg), nil)
}

func (b *Bot) handleTicketResponse(ctx context.Context, chatID int64, text string) {
	b.setState(chatID, stateDefault)
	id, err := strconv.ParseInt(b.takeActionData(chatID), 10, 64)
	if err != nil {
		b.sendMessage(chatID, "No ticket selected.", nil)
		return
	}
	b.resolveTicket(ctx, chatID, id, strings.TrimSpace(text))
}

func (b *Bot) resolveTicket(ctx context.Context, chatID, id int64, response string) {
	var resp *string
	if response != "" {
		resp = &response
	}
	ticket, err := b.service.UpdateHelpRequest(ctx, id, models.HelpStatusResolved, resp)
	if err != nil {
		b.logger.Errorf("Failed to resolve help request %d: %v", id, err)
		b.sendMessage(chatID, fmt.Sprintf("Could not resolve ticket #%d: %v", id, err), nil)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Ticket #%d resolved.", ticket.ID), nil)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	stats, err := b.service.PlatformStats(ctx)
	if err != nil {
		b.logger.Errorf("Failed to load platform stats: %v", err)
		b.sendMessage(chatID, "Failed to load stats.", nil)
		return
	}

	text := fmt.Sprintf(
		"📊 Platform\nUsers: %d\nDeposit wallets: ₹%s\nWithdrawal wallets: ₹%s\nReferral wallets: ₹%s\nTotal deposited: ₹%s\nTotal withdrawn: ₹%s\nOpen tickets: %d\nPending payouts: %d",
		stats.Users,
		utils.FormatMoney(stats.DepositWallets),
		utils.FormatMoney(stats.WithdrawalWallets),
		utils.FormatMoney(stats.ReferralWallets),
		utils.FormatMoney(stats.TotalDeposited),
		utils.FormatMoney(stats.TotalWithdrawn),
		stats.OpenHelpRequests,
		stats.PendingWithdrawals,
	)
	b.sendMessage(chatID, text, nil)
}

func (b *Bot) handleWithdrawals(ctx context.Context, chatID int64) {
	withdrawals, err := b.service.ListPendingWithdrawals(ctx)
	if err != nil {
		b.logger.Errorf("Failed to list pending withdrawals: %v", err)
		b.sendMessage(chatID, "Failed to load withdrawals.", nil)
		return
	}
	if len(withdrawals) == 0 {
		b.sendMessage(chatID, "No pending payouts.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("🏦 Pending payouts\n")
	for _, w := range withdrawals {
		fmt.Fprintf(&sb, "%s user %d ₹%s %s\n", w.TransferID, w.UserID, utils.FormatMoney(w.Amount), w.CreatedAt.Format("2006-01-02 15:04"))
	}
	b.sendMessage(chatID, sb.String(), nil)
}
