package dto

// PlanResponse is one catalogue entry as rendered to the pricing page.
type PlanResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
	Features    string `json:"features"`
	Tickets     string `json:"tickets"`
	CTA         string `json:"cta"`
	Featured    bool   `json:"featured"`
	TrialDays   int    `json:"trial_days,omitempty"`
}

// CheckoutRequest payload for starting a subscription purchase.
type CheckoutRequest struct {
	Tier        string `json:"tier"`
	WorkspaceID string `json:"workspace_id"`
}

// SessionResponse carries a hosted-page URL back to the frontend.
type SessionResponse struct {
	URL string `json:"url"`
}
