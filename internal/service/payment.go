package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/shopspring/decimal"
)

const (
	orderPrefix   = "KIRDA"
	orderCurrency = "INR"

	// Orders younger than this are left to the client poll and the webhook.
	reconcileGrace = time.Minute
	orderLifetime  = 24 * time.Hour
)

func newOrderID(userID int64, at time.Time) string {
	return fmt.Sprintf("%s_%d_%d", orderPrefix, userID, at.UnixMilli())
}

// userIDFromOrderID recovers the owner encoded in an order id.
func userIDFromOrderID(orderID string) (int64, bool) {
	parts := strings.Split(orderID, "_")
	if len(parts) != 3 || parts[0] != orderPrefix {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CreateDepositOrder opens a gateway order for amount. The deposit minimum is
// enforced here, not by the ledger.
func (s *Service) CreateDepositOrder(ctx context.Context, userID int64, amount decimal.Decimal) (*models.PaymentOrder, error) {
	amount = utils.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(s.minDeposit) {
		return nil, fmt.Errorf("%w: minimum deposit amount is ₹%s", ErrBelowMinimum, utils.FormatMoney(s.minDeposit))
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderID := newOrderID(user.ID, s.now())
	baseURL := strings.TrimRight(s.config.PublicBaseURL, "/")
	gwOrder, err := s.gateway.CreateOrder(ctx, cashfree.CreateOrderRequest{
		OrderID:  orderID,
		Amount:   amount,
		Currency: orderCurrency,
		Customer: cashfree.Customer{
			ID:    strconv.FormatInt(user.ID, 10),
			Name:  user.Username,
			Email: fmt.Sprintf("user%d@kirda.com", user.ID),
			Phone: "9999999999",
		},
		ReturnURL: baseURL + "/payment-success?order_id=" + orderID,
		NotifyURL: baseURL + "/api/payment/webhook",
	})
	if err != nil {
		s.logger.Errorf("Failed to create payment order for user %d: %v", user.ID, err)
		return nil, upstream(err)
	}

	order := &models.PaymentOrder{
		OrderID:          orderID,
		UserID:           user.ID,
		Amount:           amount,
		Currency:         orderCurrency,
		Status:           models.OrderStatusPending,
		PaymentSessionID: gwOrder.PaymentSessionID,
		CreatedAt:        s.now(),
	}
	if err := s.repo.CreatePaymentOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Infof("Payment order %s for %s created for user %d", orderID, utils.FormatMoney(amount), user.ID)
	return order, nil
}

type VerifyResult struct {
	OrderID          string
	User             *models.User
	Amount           decimal.Decimal
	Commission       decimal.Decimal
	AlreadyProcessed bool
}

// VerifyDeposit asks the gateway for the order status and credits a paid
// order through the idempotent deposit path.
func (s *Service) VerifyDeposit(ctx context.Context, userID int64, orderID string) (*VerifyResult, error) {
	ownerID, order, err := s.resolveOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrOrderNotFound
	}

	status, err := s.gateway.VerifyPayment(ctx, orderID)
	if err != nil {
		s.logger.Errorf("Failed to verify payment %s: %v", orderID, err)
		return nil, upstream(err)
	}

	switch status.Status {
	case cashfree.StatusPaid:
		return s.settlePaidOrder(ctx, ownerID, orderID, status.Amount, order)
	case cashfree.StatusFailed:
		s.markOrder(ctx, order, models.OrderStatusFailed)
	}
	return nil, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, status.Status)
}

// HandleWebhook processes a gateway payment notification. Duplicate
// notifications are acknowledged without crediting again.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, timestamp, signature string) error {
	if s.config.CashfreeSecretKey != "" {
		if err := s.gateway.VerifyWebhookSignature(timestamp, body, signature); err != nil {
			s.logger.Warnf("Rejected webhook: %v", err)
			return ErrInvalidSignature
		}
	}

	event, err := cashfree.ParseWebhook(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ownerID, order, err := s.resolveOrder(ctx, event.OrderID)
	if err != nil {
		s.logger.Warnf("Webhook for unknown order %s", event.OrderID)
		return err
	}

	if event.Status == cashfree.StatusPaid {
		_, err := s.settlePaidOrder(ctx, ownerID, event.OrderID, event.Amount, order)
		return err
	}

	// Attempt-level notifications never close the order: the session stays
	// payable and VerifyDeposit or reconciliation decides the final state.
	s.logger.Infof("Webhook for order %s with status %s acknowledged", event.OrderID, event.RawStatus)
	return nil
}

// ReconcilePendingOrders is the third confirmation path: it polls the gateway
// for orders that neither the client nor the webhook settled.
func (s *Service) ReconcilePendingOrders(ctx context.Context) error {
	now := s.now()
	orders, err := s.repo.ListPendingPaymentOrders(ctx, now.Add(-reconcileGrace))
	if err != nil {
		return err
	}

	for i := range orders {
		order := &orders[i]
		status, err := s.gateway.VerifyPayment(ctx, order.OrderID)
		if err != nil {
			s.logger.Errorf("Reconcile: failed to verify order %s: %v", order.OrderID, err)
			continue
		}

		switch status.Status {
		case cashfree.StatusPaid:
			if _, err := s.settlePaidOrder(ctx, order.UserID, order.OrderID, status.Amount, order); err != nil {
				s.logger.Errorf("Reconcile: failed to settle order %s: %v", order.OrderID, err)
			}
		case cashfree.StatusFailed:
			s.markOrder(ctx, order, models.OrderStatusFailed)
		default:
			if now.Sub(order.CreatedAt) > orderLifetime {
				s.markOrder(ctx, order, models.OrderStatusExpired)
			}
		}
	}
	return nil
}

func (s *Service) resolveOrder(ctx context.Context, orderID string) (int64, *models.PaymentOrder, error) {
	order, err := s.repo.GetPaymentOrder(ctx, orderID)
	if err != nil {
		return 0, nil, err
	}
	if order != nil {
		return order.UserID, order, nil
	}

	userID, ok := userIDFromOrderID(orderID)
	if !ok {
		return 0, nil, ErrOrderNotFound
	}
	return userID, nil, nil
}

func (s *Service) settlePaidOrder(ctx context.Context, userID int64, orderID string, paid decimal.Decimal, order *models.PaymentOrder) (*VerifyResult, error) {
	amount := paid
	if !amount.IsPositive() && order != nil {
		amount = order.Amount
	}

	result := &VerifyResult{OrderID: orderID, Amount: utils.RoundMoney(amount)}
	description := fmt.Sprintf("Deposit via Cashfree - Order %s", orderID)
	credit, err := s.CreditDeposit(ctx, userID, amount, orderID, description)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		result.User = user
		result.AlreadyProcessed = true
	case err != nil:
		return nil, err
	default:
		result.User = credit.User
		result.Commission = credit.Commission
		s.notify("💰 Deposit ₹%s by user %d (order %s)", utils.FormatMoney(amount), userID, orderID)
	}

	s.markOrder(ctx, order, models.OrderStatusPaid)
	return result, nil
}

func (s *Service) markOrder(ctx context.Context, order *models.PaymentOrder, status string) {
	if order == nil || order.Status == status {
		return
	}
	if err := s.repo.UpdatePaymentOrderStatus(ctx, order.OrderID, status); err != nil {
		s.logger.Errorf("Failed to mark order %s as %s: %v", order.OrderID, status, err)
		return
	}
	order.Status = status
}
