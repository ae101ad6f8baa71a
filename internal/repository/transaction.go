package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/shopspring/decimal"
)

func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.conn(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// HasTransactionWithReference reports whether the user already has a ledger
// record correlated with ref.
func (r *Repository) HasTransactionWithReference(ctx context.Context, userID int64, ref string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND reference_id = ?", userID, ref).
		Count(&count).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to look up transaction %s: %w", ref, err)
	}
	return count > 0, nil
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&txs).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}

func (r *Repository) ListTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.conn(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *Repository) SumTransactionsByType(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.conn(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("type = ?", txType).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s transactions: %w", txType, err)
	}
	return sum.Round(2), nil
}
