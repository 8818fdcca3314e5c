package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/classifier"
	"github.com/hostelkit/maintenance-service/internal/domain"
	"github.com/hostelkit/maintenance-service/internal/events"
	apperrors "github.com/hostelkit/maintenance-service/pkg/util/errorutil"
)

// fakeTicketRepo is an in-memory TicketRepository with the same conditional
// update semantics as the Postgres implementation: status-changing methods
// only succeed when the guard status matches under the lock.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, stored := range r.tickets {
		result = append(result, *stored)
	}
	return result, nil
}

func (r *fakeTicketRepo) UpdateClassification(_ context.Context, id string, category domain.Category, priority domain.Priority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Category = category
	stored.Priority = priority
	return nil
}

func (r *fakeTicketRepo) AssignTechnician(_ context.Context, id, technicianName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.Status != domain.TicketStatusOpen {
		return pgx.ErrNoRows
	}
	stored.AssignedTechnicianName = &technicianName
	stored.Status = domain.TicketStatusAssigned
	return nil
}

func (r *fakeTicketRepo) TransitionStatus(_ context.Context, id string, from, to domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.Status != from {
		return pgx.ErrNoRows
	}
	stored.Status = to
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type stubGateway struct {
	suggestion classifier.Suggestion
	err        error
}

func (g stubGateway) Classify(context.Context, string) (classifier.Suggestion, error) {
	return g.suggestion, g.err
}

var (
	student = &domain.User{ID: "user-1", Name: "Asha", Role: domain.RoleStudent}
	warden  = &domain.User{ID: "user-2", Name: "Hostel Warden", Role: domain.RoleWarden}
)

func newTestService(gateway classifier.Gateway) (*TicketService, *fakeTicketRepo) {
	repo := newFakeTicketRepo()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  repo,
		Intake:      classifier.NewIntake(gateway, zap.NewNop()),
		Dispatcher:  events.NewInMemoryDispatcher(zap.NewNop()),
		Technicians: []string{"Rajeev ji", "Suresh Kumar"},
	})
	return svc, repo
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}

func TestCreateUsesClassifierResult(t *testing.T) {
	svc, _ := newTestService(stubGateway{suggestion: classifier.Suggestion{Category: "INTERNET", Priority: "P2_HIGH"}})

	ticket, err := svc.Create(context.Background(), student, TicketCreateInput{
		Title:       "Wifi down",
		Description: "Wifi down in whole block",
		Hostel:      "A Block",
		RoomNumber:  "214",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("new ticket status = %s, want OPEN", ticket.Status)
	}
	if ticket.Category != domain.CategoryInternet || ticket.Priority != domain.PriorityHigh {
		t.Fatalf("classification = %s/%s, want INTERNET/P2_HIGH", ticket.Category, ticket.Priority)
	}
	if ticket.AssignedTechnicianName != nil {
		t.Fatalf("fresh ticket must not carry a technician")
	}
}

func TestCreateFallsBackWhenClassifierFails(t *testing.T) {
	svc, _ := newTestService(stubGateway{err: errors.New("timeout")})

	ticket, err := svc.Create(context.Background(), student, TicketCreateInput{
		Title:       "Broken chair",
		Description: "Chair leg snapped",
		Hostel:      "B Block",
		RoomNumber:  "102",
	})
	if err != nil {
		t.Fatalf("create must absorb classifier failure, got %v", err)
	}
	if ticket.Category != domain.CategoryOther || ticket.Priority != domain.PriorityNormal {
		t.Fatalf("fallback classification = %s/%s, want OTHER/P3_NORMAL", ticket.Category, ticket.Priority)
	}
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	svc, _ := newTestService(stubGateway{})

	cases := []TicketCreateInput{
		{Title: "", Description: "d", Hostel: "h", RoomNumber: "1"},
		{Title: "t", Description: "  ", Hostel: "h", RoomNumber: "1"},
		{Title: "t", Description: "d", Hostel: "", RoomNumber: "1"},
		{Title: "t", Description: "d", Hostel: "h", RoomNumber: ""},
	}
	for _, input := range cases {
		_, err := svc.Create(context.Background(), student, input)
		wantCode(t, err, "VALIDATION_FAILED")
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	svc, _ := newTestService(stubGateway{suggestion: classifier.Suggestion{Category: "INTERNET", Priority: "P2_HIGH"}})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title:       "Wifi down",
		Description: "Wifi down in whole block",
		Hostel:      "A Block",
		RoomNumber:  "214",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket, err = svc.Assign(ctx, warden, ticket.ID, "Rajeev ji")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if ticket.Status != domain.TicketStatusAssigned {
		t.Fatalf("status after assign = %s", ticket.Status)
	}
	if ticket.AssignedTechnicianName == nil || *ticket.AssignedTechnicianName != "Rajeev ji" {
		t.Fatalf("technician not recorded: %v", ticket.AssignedTechnicianName)
	}

	ticket, err = svc.StartWork(ctx, warden, ticket.ID)
	if err != nil {
		t.Fatalf("start work: %v", err)
	}
	if ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("status after start = %s", ticket.Status)
	}

	ticket, err = svc.Resolve(ctx, warden, ticket.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ticket.Status != domain.TicketStatusResolved {
		t.Fatalf("status after resolve = %s", ticket.Status)
	}
	if ticket.AssignedTechnicianName == nil {
		t.Fatalf("technician cleared during lifecycle")
	}

	_, err = svc.Assign(ctx, warden, ticket.ID, "Suresh Kumar")
	wantCode(t, err, "INVALID_TRANSITION")
}

func TestTransitionsRejectSkipsAndReversals(t *testing.T) {
	svc, _ := newTestService(stubGateway{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// OPEN: neither startWork nor resolve is reachable.
	_, err = svc.StartWork(ctx, warden, ticket.ID)
	wantCode(t, err, "INVALID_TRANSITION")
	_, err = svc.Resolve(ctx, warden, ticket.ID)
	wantCode(t, err, "INVALID_TRANSITION")

	// Status endpoint can never produce OPEN or ASSIGNED.
	_, err = svc.ChangeStatus(ctx, warden, ticket.ID, domain.TicketStatusAssigned)
	wantCode(t, err, "INVALID_TRANSITION")
	_, err = svc.ChangeStatus(ctx, warden, ticket.ID, domain.TicketStatusOpen)
	wantCode(t, err, "INVALID_TRANSITION")

	_, err = svc.ChangeStatus(ctx, warden, ticket.ID, domain.TicketStatus("CLOSED"))
	wantCode(t, err, "VALIDATION_FAILED")

	if _, err := svc.Assign(ctx, warden, ticket.ID, "Rajeev ji"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// ASSIGNED: resolve skips IN_PROGRESS.
	_, err = svc.Resolve(ctx, warden, ticket.ID)
	wantCode(t, err, "INVALID_TRANSITION")
}

func TestReclassify(t *testing.T) {
	svc, repo := newTestService(stubGateway{err: errors.New("down")})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Reclassify(ctx, warden, ticket.ID, domain.Category("FURNITURE"), domain.PriorityLow)
	wantCode(t, err, "VALIDATION_FAILED")
	_, err = svc.Reclassify(ctx, warden, ticket.ID, domain.CategoryPlumbing, domain.Priority("P9"))
	wantCode(t, err, "VALIDATION_FAILED")

	first, err := svc.Reclassify(ctx, warden, ticket.ID, domain.CategoryPlumbing, domain.PriorityCritical)
	if err != nil {
		t.Fatalf("reclassify: %v", err)
	}
	second, err := svc.Reclassify(ctx, warden, ticket.ID, domain.CategoryPlumbing, domain.PriorityCritical)
	if err != nil {
		t.Fatalf("repeat reclassify: %v", err)
	}
	if first.Category != second.Category || first.Priority != second.Priority || first.Status != second.Status {
		t.Fatalf("reclassify not idempotent: %+v vs %+v", first, second)
	}

	// Reclassify stays available after workflow progress.
	if _, err := svc.Assign(ctx, warden, ticket.ID, "Rajeev ji"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Reclassify(ctx, warden, ticket.ID, domain.CategoryElectrical, domain.PriorityHigh); err != nil {
		t.Fatalf("reclassify after assign: %v", err)
	}
	stored, _ := repo.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusAssigned {
		t.Fatalf("reclassify changed status to %s", stored.Status)
	}
}

func TestStudentCannotTriage(t *testing.T) {
	svc, repo := newTestService(stubGateway{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Assign(ctx, student, ticket.ID, "Rajeev ji")
	wantCode(t, err, "UNAUTHORIZED")
	_, err = svc.Reclassify(ctx, student, ticket.ID, domain.CategoryOther, domain.PriorityLow)
	wantCode(t, err, "UNAUTHORIZED")
	_, err = svc.ListAll(ctx, student)
	wantCode(t, err, "UNAUTHORIZED")
	err = svc.Delete(ctx, student, ticket.ID)
	wantCode(t, err, "UNAUTHORIZED")

	stored, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("ticket vanished after denied operations: %v", err)
	}
	if stored.Status != domain.TicketStatusOpen || stored.AssignedTechnicianName != nil {
		t.Fatalf("denied operations mutated the ticket: %+v", stored)
	}
}

func TestOperationsOnMissingTicket(t *testing.T) {
	svc, _ := newTestService(stubGateway{})
	ctx := context.Background()

	_, err := svc.Assign(ctx, warden, "no-such-id", "Rajeev ji")
	wantCode(t, err, "NOT_FOUND")
	_, err = svc.StartWork(ctx, warden, "no-such-id")
	wantCode(t, err, "NOT_FOUND")
	_, err = svc.Reclassify(ctx, warden, "no-such-id", domain.CategoryOther, domain.PriorityLow)
	wantCode(t, err, "NOT_FOUND")
	err = svc.Delete(ctx, warden, "no-such-id")
	wantCode(t, err, "NOT_FOUND")
}

func TestDeleteRemovesTicket(t *testing.T) {
	svc, repo := newTestService(stubGateway{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, warden, ticket.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, ticket.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("ticket still present after delete")
	}
}

func TestConcurrentAssignExactlyOneWins(t *testing.T) {
	svc, repo := newTestService(stubGateway{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	names := []string{"Rajeev ji", "Suresh Kumar"}
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = svc.Assign(ctx, warden, ticket.ID, name)
		}(i, name)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, "INVALID_TRANSITION"):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes=%d conflicts=%d, want exactly one of each", successes, conflicts)
	}

	stored, _ := repo.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusAssigned {
		t.Fatalf("status = %s, want ASSIGNED", stored.Status)
	}
	if stored.AssignedTechnicianName == nil ||
		(*stored.AssignedTechnicianName != names[0] && *stored.AssignedTechnicianName != names[1]) {
		t.Fatalf("technician = %v, want one of %v", stored.AssignedTechnicianName, names)
	}
}

// TestRandomOperationSequences drives arbitrary operation sequences and
// checks after every step that no ticket ever leaves the enumerations or
// reaches a post-OPEN status without a technician.
func TestRandomOperationSequences(t *testing.T) {
	svc, repo := newTestService(stubGateway{suggestion: classifier.Suggestion{Category: "ELECTRICAL", Priority: "P4_LOW"}})
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var ids []string
	for step := 0; step < 500; step++ {
		switch rng.Intn(6) {
		case 0:
			ticket, err := svc.Create(ctx, student, TicketCreateInput{
				Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ids = append(ids, ticket.ID)
		case 1:
			if len(ids) > 0 {
				_, _ = svc.Assign(ctx, warden, ids[rng.Intn(len(ids))], "Rajeev ji")
			}
		case 2:
			if len(ids) > 0 {
				_, _ = svc.StartWork(ctx, warden, ids[rng.Intn(len(ids))])
			}
		case 3:
			if len(ids) > 0 {
				_, _ = svc.Resolve(ctx, warden, ids[rng.Intn(len(ids))])
			}
		case 4:
			if len(ids) > 0 {
				_, _ = svc.Reclassify(ctx, warden, ids[rng.Intn(len(ids))], domain.CategoryCarpentry, domain.PriorityNormal)
			}
		case 5:
			if len(ids) > 0 {
				_ = svc.Delete(ctx, warden, ids[rng.Intn(len(ids))])
			}
		}

		tickets, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, ticket := range tickets {
			if !ticket.Status.Valid() || !ticket.Category.Valid() || !ticket.Priority.Valid() {
				t.Fatalf("ticket %s outside enumerations: %+v", ticket.ID, ticket)
			}
			if ticket.Status != domain.TicketStatusOpen && ticket.AssignedTechnicianName == nil {
				t.Fatalf("ticket %s in %s without technician", ticket.ID, ticket.Status)
			}
			if ticket.Status == domain.TicketStatusOpen && ticket.AssignedTechnicianName != nil {
				t.Fatalf("OPEN ticket %s carries technician", ticket.ID)
			}
		}
	}
}

func TestListPublicAllowsAnyAuthenticatedRole(t *testing.T) {
	svc, _ := newTestService(stubGateway{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, student, TicketCreateInput{
		Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, actor := range []*domain.User{student, warden} {
		tickets, err := svc.ListPublic(ctx, actor)
		if err != nil {
			t.Fatalf("list public as %s: %v", actor.Role, err)
		}
		if len(tickets) != 1 {
			t.Fatalf("list public as %s returned %d tickets", actor.Role, len(tickets))
		}
	}

	_, err := svc.ListPublic(ctx, nil)
	wantCode(t, err, "UNAUTHORIZED")
}

func TestTechniciansRequiresWarden(t *testing.T) {
	svc, _ := newTestService(stubGateway{})

	names, err := svc.Technicians(warden)
	if err != nil {
		t.Fatalf("technicians: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("technicians = %v", names)
	}

	_, err = svc.Technicians(student)
	wantCode(t, err, "UNAUTHORIZED")
}

// erroringTicketRepo fails every store call with a fixed error, standing in
// for a lost database connection.
type erroringTicketRepo struct {
	*fakeTicketRepo
	err error
}

func (r *erroringTicketRepo) Create(context.Context, *domain.Ticket) error { return r.err }

func (r *erroringTicketRepo) ListAll(context.Context) ([]domain.Ticket, error) {
	return nil, r.err
}

func (r *erroringTicketRepo) AssignTechnician(context.Context, string, string) error {
	return r.err
}

func TestStoreErrorsPropagateUnchanged(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  &erroringTicketRepo{fakeTicketRepo: newFakeTicketRepo(), err: storeErr},
		Intake:      classifier.NewIntake(stubGateway{}, zap.NewNop()),
		Dispatcher:  events.NewInMemoryDispatcher(zap.NewNop()),
		Technicians: []string{"Rajeev ji"},
	})
	ctx := context.Background()

	checks := []struct {
		name string
		call func() error
	}{
		{"create", func() error {
			_, err := svc.Create(ctx, student, TicketCreateInput{
				Title: "t", Description: "d", Hostel: "h", RoomNumber: "1",
			})
			return err
		}},
		{"assign", func() error {
			_, err := svc.Assign(ctx, warden, "ticket-1", "Rajeev ji")
			return err
		}},
		{"list all", func() error {
			_, err := svc.ListAll(ctx, warden)
			return err
		}},
	}

	for _, check := range checks {
		err := check.call()
		if !errors.Is(err, storeErr) {
			t.Fatalf("%s: expected store error to surface unchanged, got %v", check.name, err)
		}
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			t.Fatalf("%s: store error was rewritten into %s", check.name, domainErr.Code)
		}
	}
}
