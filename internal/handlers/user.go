package handlers

import (
	"github.com/Fi44er/kirda/internal/middleware"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	ReferredBy string `json:"referred_by"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.service.Register(c.UserContext(), req.Username, req.Password, req.ReferredBy)
	if err != nil {
		return h.respondError(c, err)
	}
	token, err := h.service.GenerateToken(user.ID, service.RoleUser)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": toUser(user), "token": token})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, token, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": toUser(user), "token": token})
}

func (h *Handler) AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	admin, token, err := h.service.AdminLogin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"admin": admin, "token": token})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toUser(user))
}

func (h *Handler) MyStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"tournaments_played": stats.TournamentsPlayed,
		"wins":               stats.Wins,
		"win_rate":           stats.WinRate,
		"total_earned":       utils.FormatMoney(stats.TotalEarned),
	})
}

func (h *Handler) MyTransactions(c *fiber.Ctx) error {
	txs, err := h.service.ListUserTransactions(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toTransactions(txs))
}
