package auth

import "github.com/smartsupport/helpdesk/internal/domain"

// Capabilities is the per-request capability set derived from a principal's
// role. Business logic consults these booleans, never role strings.
type Capabilities struct {
	UserID      string
	IsAdmin     bool
	IsAgentTier bool
	IsEndUser   bool
}

// CapabilitiesOf computes the capability set for an authenticated user.
func CapabilitiesOf(user *domain.User) Capabilities {
	caps := Capabilities{UserID: user.ID}
	switch {
	case user.Role == domain.RoleAdmin:
		caps.IsAdmin = true
	case user.Role.IsAgentTier():
		caps.IsAgentTier = true
	default:
		caps.IsEndUser = true
	}
	return caps
}

// CanViewTicket reports whether the principal may read the ticket.
// End-users see only tickets they created.
func (c Capabilities) CanViewTicket(ticket *domain.Ticket) bool {
	if c.IsAdmin || c.IsAgentTier {
		return true
	}
	return ticket.CreatedBy == c.UserID
}

// CanMutateTicket reports whether the principal may change the ticket at
// all. Which fields are changeable is gated separately per field.
func (c Capabilities) CanMutateTicket(ticket *domain.Ticket) bool {
	return c.CanViewTicket(ticket)
}

// CanSetWorkflowFields covers status, priority and category.
func (c Capabilities) CanSetWorkflowFields() bool {
	return c.IsAdmin || c.IsAgentTier
}

// CanAssignTicket covers assigned_to. Reassignment is admin-only.
func (c Capabilities) CanAssignTicket() bool {
	return c.IsAdmin
}

// CanMarkInternal reports whether the principal may author internal
// comments and read them.
func (c Capabilities) CanMarkInternal() bool {
	return c.IsAdmin || c.IsAgentTier
}

// CanManageCatalog covers status and category administration.
func (c Capabilities) CanManageCatalog() bool {
	return c.IsAdmin
}

// CanManageUsers covers user administration.
func (c Capabilities) CanManageUsers() bool {
	return c.IsAdmin
}
