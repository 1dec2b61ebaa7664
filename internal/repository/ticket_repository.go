package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-pulse/pulse/internal/domain"
)

// TicketRepository encapsulates ticket persistence for the internal
// database backend and the session recovery lookup.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, id string, patch domain.TicketPatch, description string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// LatestOpenByReporter finds the most recent OPEN ticket for a user.
	// This backs session recovery after a process restart.
	LatestOpenByReporter(ctx context.Context, reporterID string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reporter_id, workspace_id, origin_channel_id, reporter_name, title, description,
       follow_up_details, urgency_score, status, type, priority, location, solution, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.pool == nil {
		return errors.New("ticket store not configured")
	}
	ticket.Normalize()

	const query = `
        INSERT INTO tickets (reporter_id, workspace_id, origin_channel_id, reporter_name, title, description,
            follow_up_details, urgency_score, status, type, priority, location, solution)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReporterID,
		ticket.WorkspaceID,
		ticket.OriginChannelID,
		ticket.ReporterName,
		ticket.Title,
		ticket.Description,
		ticket.FollowUpDetails,
		ticket.UrgencyScore,
		ticket.Status,
		ticket.Type,
		ticket.Priority,
		ticket.Location,
		ticket.Solution,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch domain.TicketPatch, description string) error {
	if r.pool == nil {
		return errors.New("ticket store not configured")
	}
	patch.Normalize()

	// The status='open' guard keeps a second follow-up from touching an
	// already resolved ticket.
	const query = `
        UPDATE tickets SET description=$2, title=$3, follow_up_details=$4, type=$5, priority=$6,
            location=$7, solution=$8, status=$9, updated_at=NOW()
        WHERE id=$1 AND status='open'`
	cmd, err := r.pool.Exec(ctx, query,
		id,
		description,
		patch.Title,
		patch.FollowUpDetails,
		patch.Type,
		patch.Priority,
		patch.Location,
		patch.Solution,
		patch.Status,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) LatestOpenByReporter(ctx context.Context, reporterID string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE reporter_id=$1 AND status='open'
        ORDER BY created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, reporterID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	if r.pool == nil {
		return nil, errors.New("ticket store not configured")
	}

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.ReporterID,
		&ticket.WorkspaceID,
		&ticket.OriginChannelID,
		&ticket.ReporterName,
		&ticket.Title,
		&ticket.Description,
		&ticket.FollowUpDetails,
		&ticket.UrgencyScore,
		&ticket.Status,
		&ticket.Type,
		&ticket.Priority,
		&ticket.Location,
		&ticket.Solution,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
