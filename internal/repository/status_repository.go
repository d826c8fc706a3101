package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartsupport/helpdesk/internal/domain"
)

// StatusRepository manages the ordered ticket status catalog.
type StatusRepository interface {
	// Create assigns sort order max(existing)+1 when status.SortOrder is zero.
	Create(ctx context.Context, status *domain.TicketStatus) error
	Update(ctx context.Context, status *domain.TicketStatus) error
	// Delete returns ErrReferenced when any ticket still uses the status.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketStatus, error)
	GetByName(ctx context.Context, name string) (*domain.TicketStatus, error)
	// List returns statuses ordered by sort order ascending.
	List(ctx context.Context) ([]domain.TicketStatus, error)
	// DefaultOpen returns the lowest-order non-terminal status.
	DefaultOpen(ctx context.Context) (*domain.TicketStatus, error)
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository returns a Postgres-backed implementation.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) Create(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        INSERT INTO ticket_statuses (name, sort_order, is_terminal)
        VALUES ($1,
                COALESCE(NULLIF($2, 0), (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM ticket_statuses)),
                $3)
        RETURNING id, sort_order`
	return r.pool.QueryRow(ctx, query,
		status.Name,
		status.SortOrder,
		status.IsTerminal,
	).Scan(&status.ID, &status.SortOrder)
}

func (r *statusRepository) Update(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        UPDATE ticket_statuses SET name=$1, sort_order=$2, is_terminal=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		status.Name,
		status.SortOrder,
		status.IsTerminal,
		status.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *statusRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `
        DELETE FROM ticket_statuses WHERE id=$1
        AND NOT EXISTS (SELECT 1 FROM tickets WHERE status_id=$1)`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM ticket_statuses WHERE id=$1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrReferenced
		}
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, name, sort_order, is_terminal
        FROM ticket_statuses WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *statusRepository) GetByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, name, sort_order, is_terminal
        FROM ticket_statuses WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *statusRepository) DefaultOpen(ctx context.Context) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, name, sort_order, is_terminal
        FROM ticket_statuses WHERE is_terminal = FALSE
        ORDER BY sort_order ASC LIMIT 1`
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx, query).Scan(
		&status.ID,
		&status.Name,
		&status.SortOrder,
		&status.IsTerminal,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.TicketStatus, error) {
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&status.ID,
		&status.Name,
		&status.SortOrder,
		&status.IsTerminal,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) List(ctx context.Context) ([]domain.TicketStatus, error) {
	const query = `
        SELECT id, name, sort_order, is_terminal
        FROM ticket_statuses ORDER BY sort_order ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(&status.ID, &status.Name, &status.SortOrder, &status.IsTerminal); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}
