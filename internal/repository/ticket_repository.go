package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelkit/maintenance-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Status-changing methods
// are conditional updates keyed on the expected current status: the WHERE
// clause is the compare-and-swap guard, so two concurrent transitions on one
// ticket cannot both succeed. A failed guard surfaces as pgx.ErrNoRows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	UpdateClassification(ctx context.Context, id string, category domain.Category, priority domain.Priority) error
	AssignTechnician(ctx context.Context, id, technicianName string) error
	TransitionStatus(ctx context.Context, id string, from, to domain.TicketStatus) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.reporter_id, COALESCE(u.name, ''), t.title, t.description,
               t.hostel, t.room_number, t.category, t.priority, t.status,
               t.assigned_technician_name, t.created_at, t.updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reporter_id, title, description, hostel, room_number, category, priority, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReporterID,
		ticket.Title,
		ticket.Description,
		ticket.Hostel,
		ticket.RoomNumber,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN users u ON u.id = t.reporter_id
        WHERE t.id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ReporterID,
		&ticket.ReporterName,
		&ticket.Title,
		&ticket.Description,
		&ticket.Hostel,
		&ticket.RoomNumber,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTechnicianName,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN users u ON u.id = t.reporter_id
        ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateClassification(ctx context.Context, id string, category domain.Category, priority domain.Priority) error {
	const query = `
        UPDATE tickets SET category=$1, priority=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, category, priority, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) AssignTechnician(ctx context.Context, id, technicianName string) error {
	const query = `
        UPDATE tickets SET assigned_technician_name=$1, status=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, technicianName, domain.TicketStatusAssigned, id, domain.TicketStatusOpen)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) TransitionStatus(ctx context.Context, id string, from, to domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ReporterID,
			&ticket.ReporterName,
			&ticket.Title,
			&ticket.Description,
			&ticket.Hostel,
			&ticket.RoomNumber,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.AssignedTechnicianName,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
