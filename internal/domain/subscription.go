package domain

// SubscriptionTier enumerates plan levels synced from the payment provider.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierStarter    SubscriptionTier = "starter"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// SubscriptionStatus mirrors the payment provider's subscription state.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
)

// SubscriptionProfile links a workspace to its billing state. The bot only
// reads tier+status; mutation happens through the billing webhook flow.
type SubscriptionProfile struct {
	WorkspaceID string
	Email       string
	Tier        SubscriptionTier
	Status      SubscriptionStatus
}

// Paid reports whether the tier grants premium features.
func (t SubscriptionTier) Paid() bool {
	switch t {
	case TierStarter, TierPro, TierEnterprise:
		return true
	default:
		return false
	}
}

// GoodStanding reports whether the subscription state allows usage.
func (s SubscriptionStatus) GoodStanding() bool {
	return s == StatusActive || s == StatusTrialing
}
