package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/kirda/internal/models"
)

func (r *Repository) CreateHelpRequest(ctx context.Context, req *models.HelpRequest) error {
	if err := r.conn(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create help request: %w", err)
	}
	return nil
}

func (r *Repository) GetHelpRequest(ctx context.Context, id int64) (*models.HelpRequest, error) {
	var req models.HelpRequest
	err := r.conn(ctx).First(&req, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get help request %d: %w", id, err)
	}
	return &req, nil
}

// ListHelpRequests returns tickets newest first; an empty status lists all of them.
func (r *Repository) ListHelpRequests(ctx context.Context, status string) ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	q := r.conn(ctx).Order("created_at DESC").Order("id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list help requests: %w", err)
	}
	return reqs, nil
}

func (r *Repository) UpdateHelpRequest(ctx context.Context, req *models.HelpRequest) error {
	if err := r.conn(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update help request %d: %w", req.ID, err)
	}
	return nil
}

func (r *Repository) CountHelpRequests(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.HelpRequest{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count help requests: %w", err)
	}
	return count, nil
}

func (r *Repository) CreateAdminMessage(ctx context.Context, msg *models.AdminMessage) error {
	if err := r.conn(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create admin message: %w", err)
	}
	return nil
}

func (r *Repository) ListAdminMessages(ctx context.Context, activeOnly bool) ([]models.AdminMessage, error) {
	var msgs []models.AdminMessage
	q := r.conn(ctx).Order("created_at DESC").Order("id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list admin messages: %w", err)
	}
	return msgs, nil
}

// DeactivateAdminMessage reports false when no message has that id.
func (r *Repository) DeactivateAdminMessage(ctx context.Context, id int64) (bool, error) {
	res := r.conn(ctx).Model(&models.AdminMessage{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("failed to deactivate admin message %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
