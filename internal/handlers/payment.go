package handlers

import (
	"github.com/Fi44er/kirda/internal/middleware"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type verifyRequest struct {
	OrderID string `json:"order_id"`
}

type withdrawRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	BankAccount       string          `json:"bank_account"`
	IFSC              string          `json:"ifsc"`
	AccountHolderName string          `json:"account_holder_name"`
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid amount")
	}

	order, err := h.service.CreateDepositOrder(c.UserContext(), middleware.SubjectID(c), req.Amount)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"order_id":           order.OrderID,
		"payment_session_id": order.PaymentSessionID,
		"amount":             utils.FormatMoney(order.Amount),
		"currency":           order.Currency,
		"status":             order.Status,
	})
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return badRequest(c, "order_id is required")
	}

	result, err := h.service.VerifyDeposit(c.UserContext(), middleware.SubjectID(c), req.OrderID)
	if err != nil {
		return h.respondError(c, err)
	}

	message := "Payment verified and wallet updated"
	if result.AlreadyProcessed {
		message = "Payment already processed"
	}
	return c.JSON(fiber.Map{
		"message":           message,
		"order_id":          result.OrderID,
		"amount":            utils.FormatMoney(result.Amount),
		"deposit_wallet":    utils.FormatMoney(result.User.DepositWallet),
		"already_processed": result.AlreadyProcessed,
	})
}

// PaymentWebhook is called by the gateway; the body must be read raw for the
// signature check.
func (h *Handler) PaymentWebhook(c *fiber.Ctx) error {
	err := h.service.HandleWebhook(
		c.UserContext(),
		c.Body(),
		c.Get("x-webhook-timestamp"),
		c.Get("x-webhook-signature"),
	)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.Withdraw(c.UserContext(), service.WithdrawInput{
		UserID:            middleware.SubjectID(c),
		Amount:            req.Amount,
		BankAccount:       req.BankAccount,
		IFSC:              req.IFSC,
		AccountHolderName: req.AccountHolderName,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Withdrawal request submitted successfully",
		"new_balance": utils.FormatMoney(result.User.WithdrawalWallet),
		"transfer_id": result.TransferID,
		"status":      result.Status,
	})
}

func (h *Handler) WithdrawalStatus(c *fiber.Ctx) error {
	withdrawal, err := h.service.WithdrawalStatus(c.UserContext(), middleware.SubjectID(c), c.Params("transferId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toWithdrawal(withdrawal))
}
