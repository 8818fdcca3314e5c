package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/auth"
	"github.com/hostelkit/maintenance-service/internal/classifier"
	"github.com/hostelkit/maintenance-service/internal/domain"
	"github.com/hostelkit/maintenance-service/internal/events"
	"github.com/hostelkit/maintenance-service/internal/service"
)

type memoryUserRepo struct {
	users map[string]*domain.User
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// memoryTicketRepo serves a fixed board; only the listing path matters here.
type memoryTicketRepo struct {
	tickets []domain.Ticket
}

func (r *memoryTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.tickets = append(r.tickets, *ticket)
	return nil
}

func (r *memoryTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (r *memoryTicketRepo) ListAll(context.Context) ([]domain.Ticket, error) {
	return append([]domain.Ticket{}, r.tickets...), nil
}

func (r *memoryTicketRepo) UpdateClassification(context.Context, string, domain.Category, domain.Priority) error {
	return pgx.ErrNoRows
}

func (r *memoryTicketRepo) AssignTechnician(context.Context, string, string) error {
	return pgx.ErrNoRows
}

func (r *memoryTicketRepo) TransitionStatus(context.Context, string, domain.TicketStatus, domain.TicketStatus) error {
	return pgx.ErrNoRows
}

func (r *memoryTicketRepo) Delete(context.Context, string) error {
	return pgx.ErrNoRows
}

type rejectingGateway struct{}

func (rejectingGateway) Classify(context.Context, string) (classifier.Suggestion, error) {
	return classifier.Suggestion{}, classifier.ErrNotConfigured
}

func newBoardApp(t *testing.T) (*fiber.App, map[domain.Role]string) {
	t.Helper()

	technician := "Rajeev ji"
	users := &memoryUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Name: "Asha", Email: "asha@hostel.edu", Role: domain.RoleStudent},
		"user-2": {ID: "user-2", Name: "Hostel Warden", Email: "warden@hostel.edu", Role: domain.RoleWarden},
	}}
	tickets := &memoryTicketRepo{tickets: []domain.Ticket{{
		ID:                     "ticket-1",
		ReporterID:             "user-1",
		ReporterName:           "Asha",
		Title:                  "Wifi down",
		Description:            "No signal in room",
		Hostel:                 "H1",
		RoomNumber:             "101",
		Category:               domain.CategoryInternet,
		Priority:               domain.PriorityHigh,
		Status:                 domain.TicketStatusAssigned,
		AssignedTechnicianName: &technician,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}}}

	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  tickets,
		Intake:      classifier.NewIntake(rejectingGateway{}, zap.NewNop()),
		Dispatcher:  events.NewInMemoryDispatcher(zap.NewNop()),
		Technicians: []string{technician},
	})

	tokens := auth.NewTokenManager("test-secret", 5)
	middleware := auth.NewAuthMiddleware(tokens, users)

	app := fiber.New()
	ticketsHandler := NewTicketsHandler(svc)
	wardenHandler := NewWardenTicketsHandler(svc)
	app.Get("/tickets/public", middleware.Handle, ticketsHandler.ListPublic)
	app.Get("/tickets", middleware.Handle, wardenHandler.ListAll)

	headers := make(map[domain.Role]string)
	for id, role := range map[string]domain.Role{"user-1": domain.RoleStudent, "user-2": domain.RoleWarden} {
		token, _, err := tokens.GenerateToken(id, role)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		headers[role] = "Bearer " + token
	}
	return app, headers
}

func listItems(t *testing.T, app *fiber.App, path, authHeader string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", authHeader)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request %s returned status %d", path, resp.StatusCode)
	}
	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return body.Data
}

func TestPublicBoardOmitsTechnicianAssignment(t *testing.T) {
	app, headers := newBoardApp(t)

	items := listItems(t, app, "/tickets/public", headers[domain.RoleStudent])
	if len(items) != 1 {
		t.Fatalf("public board returned %d tickets", len(items))
	}
	item := items[0]
	if _, present := item["assigned_technician_name"]; present {
		t.Fatalf("public board payload exposes technician assignment: %v", item)
	}
	if item["status"] != string(domain.TicketStatusAssigned) {
		t.Fatalf("public board status = %v", item["status"])
	}
	if item["reporter_name"] != "Asha" {
		t.Fatalf("public board reporter = %v", item["reporter_name"])
	}
}

func TestWardenListingIncludesTechnicianAssignment(t *testing.T) {
	app, headers := newBoardApp(t)

	items := listItems(t, app, "/tickets", headers[domain.RoleWarden])
	if len(items) != 1 {
		t.Fatalf("warden listing returned %d tickets", len(items))
	}
	if items[0]["assigned_technician_name"] != "Rajeev ji" {
		t.Fatalf("warden listing technician = %v", items[0]["assigned_technician_name"])
	}
}
