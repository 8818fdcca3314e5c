package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hostelkit/maintenance-service/internal/api/dto"
	"github.com/hostelkit/maintenance-service/internal/auth"
	"github.com/hostelkit/maintenance-service/internal/domain"
	"github.com/hostelkit/maintenance-service/internal/service"
	apperrors "github.com/hostelkit/maintenance-service/pkg/util/errorutil"
)

// TicketsHandler manages member-facing ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Hostel:      req.Hostel,
		RoomNumber:  req.RoomNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListPublic GET /tickets/public.
func (h *TicketsHandler) ListPublic(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListPublic(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.PublicTicket, 0, len(tickets))
	for i := range tickets {
		items = append(items, publicTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func publicTicket(ticket *domain.Ticket) dto.PublicTicket {
	return dto.PublicTicket{
		ID:           ticket.ID,
		ReporterName: ticket.ReporterName,
		Title:        ticket.Title,
		Hostel:       ticket.Hostel,
		RoomNumber:   ticket.RoomNumber,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		CreatedAt:    ticket.CreatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetail {
	return dto.TicketDetail{
		ID:                     ticket.ID,
		ReporterID:             ticket.ReporterID,
		ReporterName:           ticket.ReporterName,
		Title:                  ticket.Title,
		Description:            ticket.Description,
		Hostel:                 ticket.Hostel,
		RoomNumber:             ticket.RoomNumber,
		Category:               ticket.Category,
		Priority:               ticket.Priority,
		Status:                 ticket.Status,
		AssignedTechnicianName: ticket.AssignedTechnicianName,
		CreatedAt:              ticket.CreatedAt,
		UpdatedAt:              ticket.UpdatedAt,
	}
}
