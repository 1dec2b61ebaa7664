package domain

import "time"

// Message is one observed chat message in the per-workspace log.
// Immutable once stored except for TicketID, which is set exactly once
// when the message becomes the seed of a ticket.
type Message struct {
	ID          string
	WorkspaceID string
	ChannelID   string
	UserID      string
	Username    string
	DisplayName *string
	AvatarURL   *string
	Content     string
	TicketID    *string
	CreatedAt   time.Time
}
