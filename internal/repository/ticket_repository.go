package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartsupport/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. All filter fields are optional
// and AND-combined. CreatedBy scopes the visible set for end-users.
type TicketFilter struct {
	CreatedBy  *string
	StatusID   *string
	Priority   *domain.TicketPriority
	CategoryID *string
	Search     *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes all mutable fields and refreshes updated_at in a
	// single statement, guarded on the updated_at the caller read.
	// Returns ErrStaleUpdate when the row moved on since that read.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// CountWithFilter counts the full filtered set, ignoring Limit/Offset.
	CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error)
	// StatusCounts maps status name to ticket count over the visible set,
	// including zero rows for unused statuses.
	StatusCounts(ctx context.Context, createdBy *string) (map[string]int64, error)
	// PriorityCounts maps priority to ticket count over the visible set.
	PriorityCounts(ctx context.Context, createdBy *string) (map[domain.TicketPriority]int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, subject, description, priority, status_id,
               category_id, created_by, assigned_to, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, description, priority, status_id, category_id, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, ticket_number, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.StatusID,
		ticket.CategoryID,
		ticket.CreatedBy,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, priority=$3, status_id=$4,
            category_id=$5, assigned_to=$6, updated_at=NOW()
        WHERE id=$7 AND updated_at=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.StatusID,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.ID,
		ticket.UpdatedAt,
	).Scan(&ticket.UpdatedAt)
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	// No row matched: either the ticket is gone or someone wrote it since
	// the caller read it. Tell the two apart.
	var exists bool
	if scanErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID,
	).Scan(&exists); scanErr != nil {
		return scanErr
	}
	if exists {
		return ErrStaleUpdate
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.StatusID,
		&ticket.CategoryID,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(subject) LIKE %s OR CAST(ticket_number AS TEXT) LIKE %s)", placeholder, placeholder))
	}
	return clauses, args
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s
        ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) StatusCounts(ctx context.Context, createdBy *string) (map[string]int64, error) {
	query := `
        SELECT s.name, COUNT(t.id)
        FROM ticket_statuses s
        LEFT JOIN tickets t ON t.status_id = s.id`
	args := []any{}
	if createdBy != nil {
		query += ` AND t.created_by = $1`
		args = append(args, *createdBy)
	}
	query += ` GROUP BY s.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) PriorityCounts(ctx context.Context, createdBy *string) (map[domain.TicketPriority]int64, error) {
	query := `SELECT priority, COUNT(*) FROM tickets`
	args := []any{}
	if createdBy != nil {
		query += ` WHERE created_by = $1`
		args = append(args, *createdBy)
	}
	query += ` GROUP BY priority`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int64)
	for _, priority := range domain.AllPriorities() {
		counts[priority] = 0
	}
	for rows.Next() {
		var priority domain.TicketPriority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Priority,
			&ticket.StatusID,
			&ticket.CategoryID,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
