package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
)

// AdminHandler exposes account administration and the mail check.
type AdminHandler struct {
	users         *service.UserService
	notifications *service.NotificationService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, notifications *service.NotificationService) *AdminHandler {
	return &AdminHandler{users: users, notifications: notifications}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return respond(c, http.StatusOK, items)
}

// GetUser GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userResponse(user))
}

// CreateUser POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, userResponse(user))
}

// UpdateUser PUT /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), id, service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userResponse(user))
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), p.Actor(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"deleted": true})
}

// ListRoles GET /admin/roles.
func (h *AdminHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.users.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		items = append(items, dto.RoleResponse{ID: r.ID, Name: r.Name})
	}
	return respond(c, http.StatusOK, items)
}

// MailCheck GET /admin/mail/check.
func (h *AdminHandler) MailCheck(c *fiber.Ctx) error {
	check := h.notifications.CheckMail(c.UserContext())
	return respond(c, http.StatusOK, dto.MailCheckResponse{
		Configured: check.Configured,
		OK:         check.OK,
		Error:      check.Error,
	})
}
