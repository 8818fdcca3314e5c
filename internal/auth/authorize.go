package auth

import "github.com/hostelkit/maintenance-service/internal/domain"

// Operation names every action the ticket engine exposes.
type Operation string

const (
	OpCreateTicket    Operation = "create_ticket"
	OpListPublic      Operation = "list_public"
	OpListAll         Operation = "list_all"
	OpAssign          Operation = "assign"
	OpStartWork       Operation = "start_work"
	OpResolve         Operation = "resolve"
	OpReclassify      Operation = "reclassify"
	OpDeleteTicket    Operation = "delete_ticket"
	OpListTechnicians Operation = "list_technicians"
)

// policy is the full authorization table. Operations absent for a role are
// denied; unauthenticated callers never reach this point.
var policy = map[Operation][]domain.Role{
	OpCreateTicket:    {domain.RoleStudent, domain.RoleWarden},
	OpListPublic:      {domain.RoleStudent, domain.RoleWarden},
	OpListAll:         {domain.RoleWarden},
	OpAssign:          {domain.RoleWarden},
	OpStartWork:       {domain.RoleWarden},
	OpResolve:         {domain.RoleWarden},
	OpReclassify:      {domain.RoleWarden},
	OpDeleteTicket:    {domain.RoleWarden},
	OpListTechnicians: {domain.RoleWarden},
}

// Allowed reports whether the role may invoke the operation.
func Allowed(role domain.Role, op Operation) bool {
	for _, allowed := range policy[op] {
		if allowed == role {
			return true
		}
	}
	return false
}
