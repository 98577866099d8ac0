package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
)

// TicketsHandler manages ticket endpoints for every role. Visibility and
// permissions are enforced by the service.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), p.Actor(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, ticketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), p.Actor())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return respond(c, http.StatusOK, items)
}

// GetTicket GET /tickets/:id returns the ticket with its history.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.GetTicket(c.UserContext(), p.Actor(), id)
	if err != nil {
		return err
	}
	history, err := h.service.TicketHistory(c.UserContext(), p.Actor(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.TicketDetailResponse{
		Ticket:  ticketResponse(ticket),
		History: historyResponse(history),
	})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	history, err := h.service.TicketHistory(c.UserContext(), p.Actor(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, historyResponse(history))
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), p.Actor(), id, service.TicketUpdateInput{
		Status:    req.Status,
		Response:  req.Response,
		SupportID: req.SupportID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ticketResponse(ticket))
}
