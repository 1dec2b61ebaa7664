package domain

// Session is the ephemeral per-user state tracking a ticket awaiting
// follow-up detail. At most one session is active per user; the durable
// signal backing it is the OPEN ticket, which the engine recovers from
// after a restart.
type Session struct {
	UserID          string
	WorkspaceID     string
	OriginChannelID string
	OriginalContent string
	UrgencyScore    int
	TicketID        string
}
