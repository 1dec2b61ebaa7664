package billing

import (
	"context"

	"github.com/project-pulse/pulse/internal/domain"
)

// CheckoutParams carries everything needed to start a subscription purchase.
type CheckoutParams struct {
	Plan        domain.PlanTier
	WorkspaceID string
	Email       string
	SuccessURL  string
	CancelURL   string
}

// Provider abstracts the payment processor.
type Provider interface {
	// CreateCheckoutSession returns the hosted checkout URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	// CreatePortalSession returns the hosted self-service portal URL for an
	// existing customer.
	CreatePortalSession(ctx context.Context, email, returnURL string) (string, error)
	// CancelSubscription cancels the customer's active subscription.
	CancelSubscription(ctx context.Context, email string) error
}
