package handlers

import (
	"errors"
	"strconv"

	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/middleware"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *service.Service
	logger  *utils.Logger
}

func NewHandler(svc *service.Service, logger *utils.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Public
	api.Post("/auth/register", h.Register)
	api.Post("/auth/login", h.Login)
	api.Get("/games", h.ListGames)
	api.Get("/tournaments", h.ListTournaments)
	api.Get("/messages", h.ListActiveMessages)
	api.Post("/payment/webhook", h.PaymentWebhook)
	api.Post("/admin/login", h.AdminLogin)

	// User
	user := middleware.JWTAuth(h.service, service.RoleUser)
	api.Get("/user/me", user, h.Me)
	api.Get("/user/me/stats", user, h.MyStats)
	api.Get("/transactions", user, h.MyTransactions)
	api.Get("/tournaments/entries", user, h.MyEntries)
	api.Post("/tournaments/:id/join", user, h.JoinTournament)
	api.Post("/payment/create-order", user, h.CreateOrder)
	api.Post("/payment/verify", user, h.VerifyPayment)
	api.Post("/wallet/withdraw", user, h.Withdraw)
	api.Get("/withdrawal/status/:transferId", user, h.WithdrawalStatus)
	api.Post("/help", user, h.CreateHelpRequest)

	// Admin
	admin := api.Group("/admin", middleware.JWTAuth(h.service, service.RoleAdmin))
	admin.Get("/users", h.AdminListUsers)
	admin.Get("/transactions", h.AdminListTransactions)
	admin.Get("/stats", h.AdminStats)
	admin.Get("/tournaments", h.ListTournaments)
	admin.Post("/tournaments", h.AdminCreateTournament)
	admin.Get("/tournaments/:id/entries", h.AdminTournamentEntries)
	admin.Post("/games", h.AdminCreateGame)
	admin.Post("/wallet/credit", h.AdminManualCredit)
	admin.Get("/help-requests", h.AdminListHelpRequests)
	admin.Put("/help-requests/:id", h.AdminUpdateHelpRequest)
	admin.Post("/messages", h.AdminCreateMessage)
	admin.Get("/messages", h.AdminListMessages)
	admin.Delete("/messages/:id", h.AdminDeactivateMessage)
}

// respondError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"message": err.Error()}

	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInsufficientBalance):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrUpstream):
		status = fiber.StatusBadGateway
		var apiErr *cashfree.APIError
		if errors.As(err, &apiErr) {
			body["upstream_status"] = apiErr.StatusCode
			body["error"] = apiErr.Message
		}
	default:
		h.logger.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		status = fiber.StatusInternalServerError
		body["message"] = "internal server error"
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}
