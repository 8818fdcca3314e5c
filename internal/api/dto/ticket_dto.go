package dto

import (
	"time"

	"github.com/hostelkit/maintenance-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Hostel      string `json:"hostel"`
	RoomNumber  string `json:"room_number"`
}

// ReclassifyRequest payload for the warden's classification override.
type ReclassifyRequest struct {
	Category domain.Category `json:"category"`
	Priority domain.Priority `json:"priority"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianName string `json:"technician_name"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// PublicTicket is the board view visible to every member. Assignment detail
// is a staff concern and stays off the public board.
type PublicTicket struct {
	ID           string              `json:"id"`
	ReporterName string              `json:"reporter_name"`
	Title        string              `json:"title"`
	Hostel       string              `json:"hostel"`
	RoomNumber   string              `json:"room_number"`
	Category     domain.Category     `json:"category"`
	Priority     domain.Priority     `json:"priority"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// TicketDetail is the full warden view.
type TicketDetail struct {
	ID                     string              `json:"id"`
	ReporterID             string              `json:"reporter_id"`
	ReporterName           string              `json:"reporter_name"`
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	Hostel                 string              `json:"hostel"`
	RoomNumber             string              `json:"room_number"`
	Category               domain.Category     `json:"category"`
	Priority               domain.Priority     `json:"priority"`
	Status                 domain.TicketStatus `json:"status"`
	AssignedTechnicianName *string             `json:"assigned_technician_name"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}
