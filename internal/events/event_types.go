package events

import (
	"time"

	"github.com/project-pulse/pulse/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened   EventType = "ticket_opened"
	EventTicketResolved EventType = "ticket_resolved"
	EventAccessDenied   EventType = "access_denied"
	EventDigestPosted   EventType = "digest_posted"
)

// Event represents a domain event emitted by the engine and scheduler.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	WorkspaceID string      `json:"workspace_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketOpenedPayload carries everything the admin alert needs.
type TicketOpenedPayload struct {
	TicketID     string `json:"ticket_id,omitempty"`
	ChannelID    string `json:"channel_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	UrgencyScore int    `json:"urgency_score"`
	Reason       string `json:"reason"`
	Content      string `json:"content"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	TicketID string                `json:"ticket_id"`
	UserID   string                `json:"user_id"`
	Priority domain.TicketPriority `json:"priority"`
	Type     domain.TicketType     `json:"type"`
	Tracked  bool                  `json:"tracked"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Reason   string `json:"reason"`
	Notified bool   `json:"notified"`
}

// DigestPostedPayload payload.
type DigestPostedPayload struct {
	ChannelID    string `json:"channel_id"`
	MessageCount int    `json:"message_count"`
}
