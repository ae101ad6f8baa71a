package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Fi44er/kirda/internal/models"
)

func (r *Repository) CreatePaymentOrder(ctx context.Context, order *models.PaymentOrder) error {
	if err := r.conn(ctx).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment order %s: %w", order.OrderID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create payment order: %w", err)
	}
	return nil
}

func (r *Repository) GetPaymentOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.conn(ctx).First(&order, "order_id = ?", orderID).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment order %s: %w", orderID, err)
	}
	return &order, nil
}

func (r *Repository) UpdatePaymentOrderStatus(ctx context.Context, orderID, status string) error {
	err := r.conn(ctx).
		Model(&models.PaymentOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).
		Error
	if err != nil {
		return fmt.Errorf("failed to update payment order %s: %w", orderID, err)
	}
	return nil
}

// ListPendingPaymentOrders returns pending orders created before the cutoff, oldest first.
func (r *Repository) ListPendingPaymentOrders(ctx context.Context, createdBefore time.Time) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.conn(ctx).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, createdBefore).
		Order("created_at ASC").
		Find(&orders).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payment orders: %w", err)
	}
	return orders, nil
}
