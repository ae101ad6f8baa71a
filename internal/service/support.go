package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/google/uuid"
)

const maxScreenshotSize = 5 << 20

var screenshotTypes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

type HelpRequestInput struct {
	UserID       int64
	IssueType    string
	Description  string
	TournamentID *int64
	Screenshot   *multipart.FileHeader
}

func (s *Service) CreateHelpRequest(ctx context.Context, in HelpRequestInput) (*models.HelpRequest, error) {
	in.IssueType = strings.TrimSpace(in.IssueType)
	in.Description = strings.TrimSpace(in.Description)
	if in.IssueType == "" || in.Description == "" {
		return nil, fmt.Errorf("issue type and description are required: %w", ErrInvalidInput)
	}

	user, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.TournamentID != nil {
		if _, err := s.GetTournament(ctx, *in.TournamentID); err != nil {
			return nil, err
		}
	}

	req := &models.HelpRequest{
		UserID:       user.ID,
		IssueType:    in.IssueType,
		Description:  in.Description,
		TournamentID: in.TournamentID,
		Status:       models.HelpStatusOpen,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}

	if in.Screenshot != nil {
		url, err := s.uploadScreenshot(ctx, in.Screenshot)
		if err != nil {
			return nil, err
		}
		req.AttachmentURL = url
	}

	if err := s.repo.CreateHelpRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Infof("Help request %d opened by user %d", req.ID, user.ID)
	s.notify("🆘 Ticket #%d from %s\nType: %s\n%s", req.ID, user.Username, req.IssueType, req.Description)
	return req, nil
}

func (s *Service) uploadScreenshot(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("attachments are not enabled: %w", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !screenshotTypes[ext] {
		return "", fmt.Errorf("unsupported screenshot type %q: %w", ext, ErrInvalidInput)
	}
	if file.Size > maxScreenshotSize {
		return "", fmt.Errorf("screenshot exceeds 5MB: %w", ErrInvalidInput)
	}

	key := "help/" + uuid.NewString() + ext
	url, err := s.uploader.UploadFile(ctx, file, key)
	if err != nil {
		s.logger.Errorf("Failed to upload screenshot: %v", err)
		return "", upstream(err)
	}
	return url, nil
}

func (s *Service) ListHelpRequests(ctx context.Context, status string) ([]models.HelpRequest, error) {
	return s.repo.ListHelpRequests(ctx, status)
}

// UpdateHelpRequest changes a ticket's status and response. A resolved
// ticket cannot be reopened.
func (s *Service) UpdateHelpRequest(ctx context.Context, id int64, status string, response *string) (*models.HelpRequest, error) {
	if status != models.HelpStatusOpen && status != models.HelpStatusResolved {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
	}

	req, err := s.repo.GetHelpRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrHelpRequestNotFound
	}
	if req.Status == models.HelpStatusResolved && status == models.HelpStatusOpen {
		return nil, ErrInvalidStatus
	}

	req.Status = status
	if response != nil {
		req.AdminResponse = response
	}
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateHelpRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Infof("Help request %d is now %s", req.ID, req.Status)
	return req, nil
}

func (s *Service) CreateAdminMessage(ctx context.Context, title, message string) (*models.AdminMessage, error) {
	title, message = strings.TrimSpace(title), strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, fmt.Errorf("title and message are required: %w", ErrInvalidInput)
	}

	msg := &models.AdminMessage{Title: title, Message: message, IsActive: true, CreatedAt: s.now()}
	if err := s.repo.CreateAdminMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) ListAdminMessages(ctx context.Context, activeOnly bool) ([]models.AdminMessage, error) {
	return s.repo.ListAdminMessages(ctx, activeOnly)
}

func (s *Service) DeactivateAdminMessage(ctx context.Context, id int64) error {
	ok, err := s.repo.DeactivateAdminMessage(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMessageNotFound
	}
	return nil
}
