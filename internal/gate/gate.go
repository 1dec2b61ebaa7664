package gate

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/repository"
)

// Denial reasons surfaced to the reporting channel.
const (
	ReasonNotRegistered = "This server is not registered with Pulse. Please sign up and link your Discord server to get started."
	ReasonFreeTier      = "This feature requires a paid Pulse subscription. Upgrade your plan to enable urgency monitoring."
	ReasonBadStanding   = "Your Pulse account is not in good standing. Please check your billing settings."
	ReasonCheckFailed   = "Subscription status could not be verified right now. Please try again later."
)

// Gate answers whether a workspace may use premium features. Stateless per
// call; lookup failures fail closed.
type Gate struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

// NewGate constructs the gate.
func NewGate(profiles repository.ProfileRepository, logger *zap.Logger) *Gate {
	return &Gate{profiles: profiles, logger: logger}
}

// CheckAccess returns whether the workspace is allowed and, if not, a
// human-readable reason.
func (g *Gate) CheckAccess(ctx context.Context, workspaceID string) (bool, string) {
	profile, err := g.profiles.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ReasonNotRegistered
		}
		g.logger.Error("subscription lookup failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return false, ReasonCheckFailed
	}
	if !profile.Tier.Paid() {
		return false, ReasonFreeTier
	}
	if !profile.Status.GoodStanding() {
		return false, ReasonBadStanding
	}
	return true, ""
}
