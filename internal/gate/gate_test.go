package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/domain"
)

type fakeProfileRepo struct {
	profile *domain.SubscriptionProfile
	err     error
}

func (f *fakeProfileRepo) GetByWorkspace(ctx context.Context, workspaceID string) (*domain.SubscriptionProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.SubscriptionProfile, error) {
	return f.GetByWorkspace(ctx, email)
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, profile *domain.SubscriptionProfile) error {
	f.profile = profile
	return nil
}

func TestCheckAccess(t *testing.T) {
	tests := []struct {
		name        string
		repo        *fakeProfileRepo
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "unregistered workspace",
			repo:        &fakeProfileRepo{err: pgx.ErrNoRows},
			wantAllowed: false,
			wantReason:  ReasonNotRegistered,
		},
		{
			name: "free tier denied",
			repo: &fakeProfileRepo{profile: &domain.SubscriptionProfile{
				Tier: domain.TierFree, Status: domain.StatusActive,
			}},
			wantAllowed: false,
			wantReason:  ReasonFreeTier,
		},
		{
			name: "past due denied",
			repo: &fakeProfileRepo{profile: &domain.SubscriptionProfile{
				Tier: domain.TierPro, Status: domain.StatusPastDue,
			}},
			wantAllowed: false,
			wantReason:  ReasonBadStanding,
		},
		{
			name: "canceled denied",
			repo: &fakeProfileRepo{profile: &domain.SubscriptionProfile{
				Tier: domain.TierStarter, Status: domain.StatusCanceled,
			}},
			wantAllowed: false,
			wantReason:  ReasonBadStanding,
		},
		{
			name: "active pro allowed",
			repo: &fakeProfileRepo{profile: &domain.SubscriptionProfile{
				Tier: domain.TierPro, Status: domain.StatusActive,
			}},
			wantAllowed: true,
		},
		{
			name: "trialing starter allowed",
			repo: &fakeProfileRepo{profile: &domain.SubscriptionProfile{
				Tier: domain.TierStarter, Status: domain.StatusTrialing,
			}},
			wantAllowed: true,
		},
		{
			name:        "lookup failure fails closed",
			repo:        &fakeProfileRepo{err: errors.New("connection refused")},
			wantAllowed: false,
			wantReason:  ReasonCheckFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.repo, zap.NewNop())
			allowed, reason := g.CheckAccess(context.Background(), "ws-1")
			assert.Equal(t, tt.wantAllowed, allowed)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
