package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hostelkit/maintenance-service/internal/api/dto"
	"github.com/hostelkit/maintenance-service/internal/auth"
	"github.com/hostelkit/maintenance-service/internal/service"
	apperrors "github.com/hostelkit/maintenance-service/pkg/util/errorutil"
)

// WardenTicketsHandler exposes the warden's triage endpoints. Role checks
// live in the service layer; these handlers only shape requests and
// responses.
type WardenTicketsHandler struct {
	service *service.TicketService
}

// NewWardenTicketsHandler constructs handler.
func NewWardenTicketsHandler(ticketService *service.TicketService) *WardenTicketsHandler {
	return &WardenTicketsHandler{service: ticketService}
}

// ListAll GET /tickets.
func (h *WardenTicketsHandler) ListAll(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListAll(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.TicketDetail, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketDetail(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Reclassify PUT /tickets/:id/classify.
func (h *WardenTicketsHandler) Reclassify(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReclassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Reclassify(c.Context(), actor, c.Params("id"), req.Category, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Assign PUT /tickets/:id/assign.
func (h *WardenTicketsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Assign(c.Context(), actor, c.Params("id"), req.TechnicianName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *WardenTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *WardenTicketsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListTechnicians GET /technicians.
func (h *WardenTicketsHandler) ListTechnicians(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	names, err := h.service.Technicians(actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": names})
}
