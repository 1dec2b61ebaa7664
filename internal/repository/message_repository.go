package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-pulse/pulse/internal/domain"
)

// querier is the subset of pgxpool.Pool the message repository executes
// against.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MessageRepository persists the ordered per-workspace message log.
type MessageRepository interface {
	// Record stores a message, deduplicating identical (user, channel,
	// content) tuples inside the trailing window. The returned id is the
	// existing row's id when a near-duplicate is found.
	Record(ctx context.Context, msg *domain.Message, window time.Duration) (string, error)
	// RecentWindow returns up to limit messages newer than the cutoff,
	// newest first. The limit is a hard ceiling, not a time-accurate
	// filter. An empty workspaceID matches all workspaces.
	RecentWindow(ctx context.Context, workspaceID string, window time.Duration, limit int) ([]domain.Message, error)
	// LinkToTicket sets the one-time ticket back-reference.
	LinkToTicket(ctx context.Context, messageID, ticketID string) error
}

type messageRepository struct {
	db querier
}

// NewMessageRepository instantiates the repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	repo := &messageRepository{}
	if pool != nil {
		repo.db = pool
	}
	return repo
}

func (r *messageRepository) Record(ctx context.Context, msg *domain.Message, window time.Duration) (string, error) {
	if r.db == nil {
		return "", errors.New("message store not configured")
	}

	const dupQuery = `
        SELECT id FROM messages
        WHERE user_id=$1 AND channel_id=$2 AND content=$3 AND created_at > $4
        ORDER BY created_at DESC
        LIMIT 1`
	cutoff := time.Now().Add(-window)

	var existingID string
	err := r.db.QueryRow(ctx, dupQuery, msg.UserID, msg.ChannelID, msg.Content, cutoff).Scan(&existingID)
	switch {
	case err == nil:
		msg.ID = existingID
		return existingID, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return "", err
	}

	const insertQuery = `
        INSERT INTO messages (workspace_id, channel_id, user_id, username, display_name, avatar_url, content)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, insertQuery,
		msg.WorkspaceID,
		msg.ChannelID,
		msg.UserID,
		msg.Username,
		msg.DisplayName,
		msg.AvatarURL,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (r *messageRepository) RecentWindow(ctx context.Context, workspaceID string, window time.Duration, limit int) ([]domain.Message, error) {
	if r.db == nil {
		return nil, errors.New("message store not configured")
	}
	if limit <= 0 {
		limit = 200
	}

	const query = `
        SELECT id, workspace_id, channel_id, user_id, username, display_name, avatar_url, content, ticket_id, created_at
        FROM messages
        WHERE ($1 = '' OR workspace_id = $1) AND created_at > $2
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := r.db.Query(ctx, query, workspaceID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.WorkspaceID,
			&msg.ChannelID,
			&msg.UserID,
			&msg.Username,
			&msg.DisplayName,
			&msg.AvatarURL,
			&msg.Content,
			&msg.TicketID,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) LinkToTicket(ctx context.Context, messageID, ticketID string) error {
	if r.db == nil {
		return errors.New("message store not configured")
	}

	const query = `UPDATE messages SET ticket_id=$2 WHERE id=$1 AND ticket_id IS NULL`
	cmd, err := r.db.Exec(ctx, query, messageID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
