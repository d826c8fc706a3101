package domain

import "time"

// Comment is an append-only entry in a ticket's thread. Internal comments
// are visible to agent-tier and admin readers only; they are filtered at
// read time, never deleted.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Text       string
	IsInternal bool
	CreatedAt  time.Time
}
