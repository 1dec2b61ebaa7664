package domain

// PlanTier describes one entry of the in-code plan catalogue, the source
// of truth synced into the payment provider's product list.
type PlanTier struct {
	ID          SubscriptionTier
	Name        string
	Description string
	Amount      int64
	Currency    string
	Interval    string
	Features    string
	Tickets     string
	CTA         string
	Featured    bool
	TrialDays   int
}

// PlanCatalogue lists the sellable tiers in display order.
var PlanCatalogue = []PlanTier{
	{
		ID:          TierStarter,
		Name:        "Starter",
		Description: "For solopreneurs and early-stage projects.",
		Amount:      1800,
		Currency:    "gbp",
		Interval:    "month",
		Features:    "5 projects, Standard AI Analysis, Email support",
		Tickets:     "2,000 tickets/mo",
		CTA:         "Get Started",
	},
	{
		ID:          TierPro,
		Name:        "Pro",
		Description: "Perfect for growing teams and active projects.",
		Amount:      2400,
		Currency:    "gbp",
		Interval:    "month",
		Features:    "Unlimited projects, Advanced AI Analytics, Priority support, Web Dashboard Access",
		Tickets:     "10,000 tickets/mo",
		CTA:         "Get Started",
		Featured:    true,
		TrialDays:   7,
	},
	{
		ID:          TierEnterprise,
		Name:        "Enterprise",
		Description: "For large organizations requiring maximum throughput.",
		Amount:      12000,
		Currency:    "gbp",
		Interval:    "month",
		Features:    "Unlimited everything, Direct Ticketing Integration, Dedicated account manager",
		Tickets:     "Unlimited tickets",
		CTA:         "Contact Sales",
	},
}

// FindPlan returns the catalogue entry for a tier id.
func FindPlan(id SubscriptionTier) (PlanTier, bool) {
	for _, plan := range PlanCatalogue {
		if plan.ID == id {
			return plan, true
		}
	}
	return PlanTier{}, false
}
