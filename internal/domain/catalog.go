package domain

// TicketStatus is an admin-managed workflow state. SortOrder drives both
// display order and the default for new tickets (lowest-order non-terminal).
type TicketStatus struct {
	ID         string
	Name       string
	SortOrder  int
	IsTerminal bool
}

// Category groups tickets for triage. Description is optional.
type Category struct {
	ID          string
	Name        string
	Description string
}
