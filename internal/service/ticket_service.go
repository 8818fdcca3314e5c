package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hostelkit/maintenance-service/internal/auth"
	"github.com/hostelkit/maintenance-service/internal/classifier"
	"github.com/hostelkit/maintenance-service/internal/domain"
	"github.com/hostelkit/maintenance-service/internal/events"
	"github.com/hostelkit/maintenance-service/internal/persistence"
	"github.com/hostelkit/maintenance-service/internal/repository"
	apperrors "github.com/hostelkit/maintenance-service/pkg/util/errorutil"
)

// TicketService owns the ticket lifecycle: creation with automatic
// classification, warden-driven assignment, status transitions,
// reclassification, and deletion. Every mutating operation checks the actor's
// role before touching the store and executes as a single conditional update.
type TicketService struct {
	tickets     repository.TicketRepository
	intake      *classifier.Intake
	board       *persistence.BoardCache
	dispatcher  events.Dispatcher
	technicians []string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	Intake      *classifier.Intake
	BoardCache  *persistence.BoardCache
	Dispatcher  events.Dispatcher
	Technicians []string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Hostel      string
	RoomNumber  string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		intake:      deps.Intake,
		board:       deps.BoardCache,
		dispatcher:  deps.Dispatcher,
		technicians: deps.Technicians,
	}
}

// Create files a new ticket. Classification runs through the intake, which
// never fails, so ticket creation is never blocked on the classifier.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.authorize(actor, auth.OpCreateTicket); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	hostel := strings.TrimSpace(input.Hostel)
	room := strings.TrimSpace(input.RoomNumber)
	if title == "" || description == "" || hostel == "" || room == "" {
		return nil, apperrors.NewValidationError("title, description, hostel, room_number required", nil)
	}

	category, priority := s.intake.Classify(ctx, description)

	ticket := &domain.Ticket{
		ReporterID:  actor.ID,
		Title:       title,
		Description: description,
		Hostel:      hostel,
		RoomNumber:  room,
		Category:    category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	ticket.ReporterName = actor.Name

	s.board.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Hostel:   ticket.Hostel,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// Assign moves an OPEN ticket to ASSIGNED, recording the technician. The
// update is conditional on the ticket still being OPEN, so of two concurrent
// assigns exactly one succeeds and the other reports an invalid transition.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID, technicianName string) (*domain.Ticket, error) {
	if err := s.authorize(actor, auth.OpAssign); err != nil {
		return nil, err
	}
	technicianName = strings.TrimSpace(technicianName)
	if technicianName == "" {
		return nil, apperrors.NewValidationError("technician_name required", nil)
	}

	if err := s.tickets.AssignTechnician(ctx, ticketID, technicianName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.explainFailedTransition(ctx, ticketID, domain.TicketStatusAssigned)
		}
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	s.board.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload:  events.TicketAssignedPayload{TechnicianName: technicianName},
	})
	return ticket, nil
}

// StartWork moves an ASSIGNED ticket to IN_PROGRESS.
func (s *TicketService) StartWork(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, auth.OpStartWork, ticketID, domain.TicketStatusAssigned, domain.TicketStatusInProgress)
}

// Resolve moves an IN_PROGRESS ticket to RESOLVED.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, auth.OpResolve, ticketID, domain.TicketStatusInProgress, domain.TicketStatusResolved)
}

// ChangeStatus maps a requested target status onto the matching lifecycle
// operation. ASSIGNED is only reachable through Assign, and backward moves do
// not exist, so anything but IN_PROGRESS or RESOLVED is rejected outright.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.User, ticketID string, target domain.TicketStatus) (*domain.Ticket, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(target)})
	}
	switch target {
	case domain.TicketStatusInProgress:
		return s.StartWork(ctx, actor, ticketID)
	case domain.TicketStatusResolved:
		return s.Resolve(ctx, actor, ticketID)
	default:
		// Status updates are warden territory regardless of target.
		if err := s.authorize(actor, auth.OpStartWork); err != nil {
			return nil, err
		}
		return nil, apperrors.NewInvalidTransition("status not reachable via status update", map[string]any{"status": string(target)})
	}
}

// Reclassify overwrites category and priority regardless of status;
// classification corrections are independent of workflow progress.
func (s *TicketService) Reclassify(ctx context.Context, actor *domain.User, ticketID string, category domain.Category, priority domain.Priority) (*domain.Ticket, error) {
	if err := s.authorize(actor, auth.OpReclassify); err != nil {
		return nil, err
	}
	if !category.Valid() || !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid category or priority", map[string]any{
			"category": string(category),
			"priority": string(priority),
		})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	oldCategory, oldPriority := ticket.Category, ticket.Priority
	if err := s.tickets.UpdateClassification(ctx, ticketID, category, priority); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	ticket.Category = category
	ticket.Priority = priority

	s.board.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReclassified,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketReclassifiedPayload{
			OldCategory: oldCategory,
			NewCategory: category,
			OldPriority: oldPriority,
			NewPriority: priority,
		},
	})
	return ticket, nil
}

// Delete hard-removes a ticket.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID string) error {
	if err := s.authorize(actor, auth.OpDeleteTicket); err != nil {
		return err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return err
	}

	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return err
	}

	s.board.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    actorOf(actor),
		Payload:  events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// ListPublic returns the board visible to every authenticated member, newest
// first, served from the Redis cache when fresh.
func (s *TicketService) ListPublic(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := s.authorize(actor, auth.OpListPublic); err != nil {
		return nil, err
	}
	if cached, ok := s.board.Get(ctx); ok {
		return cached, nil
	}
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.board.Set(ctx, tickets)
	return tickets, nil
}

// ListAll returns every ticket with full detail for the warden dashboard.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := s.authorize(actor, auth.OpListAll); err != nil {
		return nil, err
	}
	return s.tickets.ListAll(ctx)
}

// Technicians returns the configured roster the warden can assign from.
func (s *TicketService) Technicians(actor *domain.User) ([]string, error) {
	if err := s.authorize(actor, auth.OpListTechnicians); err != nil {
		return nil, err
	}
	return s.technicians, nil
}

func (s *TicketService) transition(ctx context.Context, actor *domain.User, op auth.Operation, ticketID string, from, to domain.TicketStatus) (*domain.Ticket, error) {
	if err := s.authorize(actor, op); err != nil {
		return nil, err
	}

	if err := s.tickets.TransitionStatus(ctx, ticketID, from, to); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.explainFailedTransition(ctx, ticketID, to)
		}
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	s.board.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: from,
			NewStatus: to,
		},
	})
	return ticket, nil
}

// explainFailedTransition disambiguates a failed conditional update: the
// ticket either does not exist or is in a status the operation does not
// accept.
func (s *TicketService) explainFailedTransition(ctx context.Context, ticketID string, target domain.TicketStatus) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return err
	}
	return apperrors.NewInvalidTransition("ticket status does not allow this operation", map[string]any{
		"current": string(ticket.Status),
		"target":  string(target),
	})
}

func (s *TicketService) authorize(actor *domain.User, op auth.Operation) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !auth.Allowed(actor.Role, op) {
		return apperrors.NewUnauthorized("role not permitted for this operation")
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}
