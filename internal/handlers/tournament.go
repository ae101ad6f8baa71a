package handlers

import (
	"strconv"

	"github.com/Fi44er/kirda/internal/middleware"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListGames(c *fiber.Ctx) error {
	games, err := h.service.ListGames(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(games)
}

func (h *Handler) ListTournaments(c *fiber.Ctx) error {
	var gameID *int64
	if raw := c.Query("gameId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid gameId")
		}
		gameID = &id
	}

	tournaments, err := h.service.ListTournaments(c.UserContext(), gameID)
	if err != nil {
		return h.respondError(c, err)
	}

	out := make([]tournamentResponse, 0, len(tournaments))
	for i := range tournaments {
		out = append(out, toTournament(&tournaments[i]))
	}
	return c.JSON(out)
}

func (h *Handler) MyEntries(c *fiber.Ctx) error {
	entries, err := h.service.ListUserEntries(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toEntries(entries))
}

func (h *Handler) JoinTournament(c *fiber.Ctx) error {
	tournamentID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid tournament id")
	}

	result, err := h.service.JoinTournament(c.UserContext(), tournamentID, middleware.SubjectID(c))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":         "Successfully joined tournament",
		"entry":           toEntry(result.Entry),
		"tournament":      toTournament(result.Tournament),
		"deposit_wallet":  utils.FormatMoney(result.User.DepositWallet),
		"referral_wallet": utils.FormatMoney(result.User.ReferralWallet),
	})
}
