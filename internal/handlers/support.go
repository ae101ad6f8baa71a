package handlers

import (
	"github.com/Fi44er/kirda/internal/middleware"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/gofiber/fiber/v2"
)

type helpRequestBody struct {
	IssueType    string `json:"issue_type" form:"issue_type"`
	Description  string `json:"description" form:"description"`
	TournamentID *int64 `json:"tournament_id" form:"tournament_id"`
}

// CreateHelpRequest accepts JSON or a multipart form with an optional
// "screenshot" file.
func (h *Handler) CreateHelpRequest(c *fiber.Ctx) error {
	var body helpRequestBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	in := service.HelpRequestInput{
		UserID:       middleware.SubjectID(c),
		IssueType:    body.IssueType,
		Description:  body.Description,
		TournamentID: body.TournamentID,
	}
	if file, err := c.FormFile("screenshot"); err == nil {
		in.Screenshot = file
	}

	req, err := h.service.CreateHelpRequest(c.UserContext(), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *Handler) ListActiveMessages(c *fiber.Ctx) error {
	msgs, err := h.service.ListAdminMessages(c.UserContext(), true)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(msgs)
}
