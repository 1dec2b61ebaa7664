package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-pulse/pulse/internal/domain"
)

// ProfileRepository reads and syncs workspace subscription profiles.
// The bot side only ever reads; writes come from the billing webhook flow.
type ProfileRepository interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (*domain.SubscriptionProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.SubscriptionProfile, error)
	Upsert(ctx context.Context, profile *domain.SubscriptionProfile) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByWorkspace(ctx context.Context, workspaceID string) (*domain.SubscriptionProfile, error) {
	const query = `
        SELECT workspace_id, email, subscription_tier, subscription_status
        FROM subscription_profiles WHERE workspace_id=$1`
	return r.fetchSingle(ctx, query, workspaceID)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.SubscriptionProfile, error) {
	const query = `
        SELECT workspace_id, email, subscription_tier, subscription_status
        FROM subscription_profiles WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.SubscriptionProfile) error {
	if r.pool == nil {
		return errors.New("profile store not configured")
	}

	const query = `
        INSERT INTO subscription_profiles (workspace_id, email, subscription_tier, subscription_status, updated_at)
        VALUES ($1,$2,$3,$4,NOW())
        ON CONFLICT (workspace_id) DO UPDATE
        SET email=EXCLUDED.email,
            subscription_tier=EXCLUDED.subscription_tier,
            subscription_status=EXCLUDED.subscription_status,
            updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, profile.WorkspaceID, profile.Email, profile.Tier, profile.Status)
	return err
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SubscriptionProfile, error) {
	if r.pool == nil {
		return nil, errors.New("profile store not configured")
	}

	var profile domain.SubscriptionProfile
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&profile.WorkspaceID,
		&profile.Email,
		&profile.Tier,
		&profile.Status,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
