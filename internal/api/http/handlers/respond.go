package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// respond writes the success envelope.
func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"ok": true, "data": data})
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func userSummary(u domain.UserSummary) dto.UserSummary {
	return dto.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	out := dto.TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Response:    t.Response,
		ClientID:    t.ClientID,
		SupportID:   t.SupportID,
		Client:      userSummary(t.Client),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Support != nil {
		s := userSummary(*t.Support)
		out.Support = &s
	}
	return out
}

func historyResponse(items []service.HistoryItem) []dto.HistoryEntryResponse {
	out := make([]dto.HistoryEntryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.HistoryEntryResponse{
			ID:            item.ID,
			TicketID:      item.TicketID,
			Field:         string(item.Field),
			Action:        string(item.Action),
			Description:   item.Description,
			PreviousValue: item.PreviousDisplay,
			NewValue:      item.NewDisplay,
			Author:        userSummary(item.Author),
			CreatedAt:     item.CreatedAt,
			Synthetic:     item.Synthetic,
		})
	}
	return out
}
