package domain

import "time"

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ParsePriority validates a priority value coming from the outside.
func ParsePriority(value string) (TicketPriority, bool) {
	switch TicketPriority(value) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return TicketPriority(value), true
	}
	return "", false
}

// AllPriorities lists priorities in ascending urgency, used by stats.
func AllPriorities() []TicketPriority {
	return []TicketPriority{
		TicketPriorityLow,
		TicketPriorityMedium,
		TicketPriorityHigh,
		TicketPriorityCritical,
	}
}

// Ticket is the aggregate for support requests. CreatedBy never changes
// after creation. AssignedTo, when set, must reference a non-end-user.
type Ticket struct {
	ID          string
	Number      int64
	Subject     string
	Description string
	Priority    TicketPriority
	StatusID    string
	CategoryID  *string
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
