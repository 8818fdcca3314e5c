package domain

import "time"

// TicketStatus enumerates lifecycle states for maintenance tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// Category enumerates maintenance issue kinds.
type Category string

const (
	CategoryElectrical Category = "ELECTRICAL"
	CategoryPlumbing   Category = "PLUMBING"
	CategoryCarpentry  Category = "CARPENTRY"
	CategoryInternet   Category = "INTERNET"
	CategoryOther      Category = "OTHER"
)

// Valid reports whether the category is a member of the closed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectrical, CategoryPlumbing, CategoryCarpentry, CategoryInternet, CategoryOther:
		return true
	}
	return false
}

// Priority enumerates urgency levels.
type Priority string

const (
	PriorityCritical Priority = "P1_CRITICAL"
	PriorityHigh     Priority = "P2_HIGH"
	PriorityNormal   Priority = "P3_NORMAL"
	PriorityLow      Priority = "P4_LOW"
)

// Valid reports whether the priority is a member of the closed enumeration.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Defaults applied when the classifier cannot produce a usable answer.
const (
	DefaultCategory = CategoryOther
	DefaultPriority = PriorityNormal
)

// Ticket is the aggregate for maintenance requests.
// AssignedTechnicianName is set the first time a ticket is assigned and is
// never cleared afterwards.
type Ticket struct {
	ID                     string
	ReporterID             string
	ReporterName           string
	Title                  string
	Description            string
	Hostel                 string
	RoomNumber             string
	Category               Category
	Priority               Priority
	Status                 TicketStatus
	AssignedTechnicianName *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
