package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/kirda/internal/models"
)

func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.conn(ctx).First(&admin, "username = ?", username).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := r.conn(ctx).Create(admin).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin %s: %w", admin.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}
