package handlers

import (
	"time"

	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const defaultTransactionLimit = 500

type createTournamentRequest struct {
	GameID      int64           `json:"game_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	EntryFee    decimal.Decimal `json:"entry_fee"`
	PrizePool   decimal.Decimal `json:"prize_pool"`
	MaxPlayers  int             `json:"max_players"`
	StartTime   time.Time       `json:"start_time"`
	Rules       string          `json:"rules"`
	MapName     *string         `json:"map_name"`
}

type createGameRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type manualCreditRequest struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type updateHelpRequest struct {
	Status        string  `json:"status"`
	AdminResponse *string `json:"admin_response"`
}

type createMessageRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toUsers(users))
}

func (h *Handler) AdminListTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTransactionLimit)
	txs, err := h.service.ListAllTransactions(c.UserContext(), limit)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toTransactions(txs))
}

func (h *Handler) AdminStats(c *fiber.Ctx) error {
	stats, err := h.service.PlatformStats(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"users":               stats.Users,
		"deposit_wallets":     utils.FormatMoney(stats.DepositWallets),
		"withdrawal_wallets":  utils.FormatMoney(stats.WithdrawalWallets),
		"referral_wallets":    utils.FormatMoney(stats.ReferralWallets),
		"total_deposited":     utils.FormatMoney(stats.TotalDeposited),
		"total_withdrawn":     utils.FormatMoney(stats.TotalWithdrawn),
		"open_help_requests":  stats.OpenHelpRequests,
		"pending_withdrawals": stats.PendingWithdrawals,
	})
}

func (h *Handler) AdminCreateTournament(c *fiber.Ctx) error {
	var req createTournamentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tournament, err := h.service.CreateTournament(c.UserContext(), service.CreateTournamentInput{
		GameID:      req.GameID,
		Name:        req.Name,
		Description: req.Description,
		EntryFee:    req.EntryFee,
		PrizePool:   req.PrizePool,
		MaxPlayers:  req.MaxPlayers,
		StartTime:   req.StartTime,
		Rules:       req.Rules,
		MapName:     req.MapName,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTournament(tournament))
}

func (h *Handler) AdminTournamentEntries(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid tournament id")
	}

	entries, err := h.service.ListTournamentEntries(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toEntries(entries))
}

func (h *Handler) AdminCreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	game, err := h.service.CreateGame(c.UserContext(), service.CreateGameInput(req))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

func (h *Handler) AdminManualCredit(c *fiber.Ctx) error {
	var req manualCreditRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.ManualCredit(c.UserContext(), req.UserID, req.Amount, req.Note)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        "Deposit successful",
		"deposit_wallet": utils.FormatMoney(result.User.DepositWallet),
		"commission":     utils.FormatMoney(result.Commission),
	})
}

func (h *Handler) AdminListHelpRequests(c *fiber.Ctx) error {
	reqs, err := h.service.ListHelpRequests(c.UserContext(), c.Query("status"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(reqs)
}

func (h *Handler) AdminUpdateHelpRequest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid help request id")
	}
	var req updateHelpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.service.UpdateHelpRequest(c.UserContext(), id, req.Status, req.AdminResponse)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) AdminCreateMessage(c *fiber.Ctx) error {
	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	msg, err := h.service.CreateAdminMessage(c.UserContext(), req.Title, req.Message)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) AdminListMessages(c *fiber.Ctx) error {
	msgs, err := h.service.ListAdminMessages(c.UserContext(), false)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(msgs)
}

func (h *Handler) AdminDeactivateMessage(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid message id")
	}
	if err := h.service.DeactivateAdminMessage(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deactivated"})
}
