package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type txKey struct{}

var errNoTransaction = errors.New("no transaction in context")

// BeginTransaction opens a DB transaction and returns a context carrying it.
// Every repository call made with that context joins the transaction.
func (r *Repository) BeginTransaction(ctx context.Context) (context.Context, error) {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return nil, errors.New("transaction already in progress")
	}

	r.logger.Debug("Starting transaction...")
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.logger.Errorf("Failed to start transaction: %v", tx.Error)
		return nil, tx.Error
	}
	return context.WithValue(ctx, txKey{}, tx), nil
}

func (r *Repository) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return errNoTransaction
	}

	r.logger.Debug("Committing transaction...")
	if err := tx.Commit().Error; err != nil {
		r.logger.Errorf("Failed to commit transaction: %v", err)
		return err
	}
	return nil
}

func (r *Repository) Rollback(ctx context.Context) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return
	}

	r.logger.Warn("Rolling back transaction...")
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		r.logger.Errorf("Failed to roll back transaction: %v", err)
	}
}
