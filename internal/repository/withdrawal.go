package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Fi44er/kirda/internal/models"
)

func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	if err := r.conn(ctx).Create(withdrawal).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("withdrawal %s: %w", withdrawal.TransferID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *Repository) GetWithdrawalByTransferID(ctx context.Context, transferID string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.conn(ctx).First(&withdrawal, "transfer_id = ?", transferID).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", transferID, err)
	}
	return &withdrawal, nil
}

func (r *Repository) UpdateWithdrawalStatus(ctx context.Context, transferID, status string) error {
	err := r.conn(ctx).
		Model(&models.Withdrawal{}).
		Where("transfer_id = ?", transferID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).
		Error
	if err != nil {
		return fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	return nil
}

func (r *Repository) ListWithdrawalsByStatus(ctx context.Context, statuses ...string) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.conn(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&withdrawals).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *Repository) CountWithdrawalsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Withdrawal{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	return count, nil
}
