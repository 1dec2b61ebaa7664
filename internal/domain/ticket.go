package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
// A ticket moves OPEN -> COMPLETED exactly once and never reverts.
type TicketStatus string

const (
	TicketStatusOpen      TicketStatus = "open"
	TicketStatusCompleted TicketStatus = "completed"
)

// TicketType classifies what kind of report a ticket captures.
type TicketType string

const (
	TicketTypeBug     TicketType = "bug"
	TicketTypeFeature TicketType = "feature_request"
	TicketTypeUIUX    TicketType = "ui_ux"
	TicketTypeSupport TicketType = "support"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Defaults substituted when the generator or reporter leaves a field blank.
const (
	DefaultLocation        = "unknown"
	PendingFollowUpDetails = "Pending..."
)

// Ticket is the persisted support-issue record.
type Ticket struct {
	ID              string
	ReporterID      *string
	WorkspaceID     string
	OriginChannelID string
	ReporterName    string
	Title           string
	Description     string
	FollowUpDetails string
	UrgencyScore    int
	Status          TicketStatus
	Type            TicketType
	Priority        TicketPriority
	Location        string
	Solution        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketPatch carries the refined fields merged into a ticket when the
// reporter's follow-up resolves the session.
type TicketPatch struct {
	Title           string
	FollowUpDetails string
	Type            TicketType
	Priority        TicketPriority
	Location        string
	Solution        string
	Status          TicketStatus
}

// Normalize applies documented defaults for missing optional fields.
func (t *Ticket) Normalize() {
	t.Type = normalizeType(t.Type)
	t.Priority = normalizePriority(t.Priority)
	if strings.TrimSpace(t.Location) == "" {
		t.Location = DefaultLocation
	} else {
		t.Location = strings.ToLower(strings.TrimSpace(t.Location))
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.FollowUpDetails == "" {
		t.FollowUpDetails = PendingFollowUpDetails
	}
	if t.UrgencyScore < 0 {
		t.UrgencyScore = 0
	}
	if t.UrgencyScore > 10 {
		t.UrgencyScore = 10
	}
}

// Normalize applies documented defaults to a patch.
func (p *TicketPatch) Normalize() {
	p.Type = normalizeType(p.Type)
	p.Priority = normalizePriority(p.Priority)
	if strings.TrimSpace(p.Location) == "" {
		p.Location = DefaultLocation
	} else {
		p.Location = strings.ToLower(strings.TrimSpace(p.Location))
	}
	if p.Status == "" {
		p.Status = TicketStatusCompleted
	}
}

func normalizeType(t TicketType) TicketType {
	switch TicketType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case TicketTypeBug:
		return TicketTypeBug
	case TicketTypeFeature:
		return TicketTypeFeature
	case TicketTypeUIUX:
		return TicketTypeUIUX
	default:
		return TicketTypeSupport
	}
}

func normalizePriority(p TicketPriority) TicketPriority {
	switch TicketPriority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case TicketPriorityLow:
		return TicketPriorityLow
	case TicketPriorityHigh:
		return TicketPriorityHigh
	case TicketPriorityCritical:
		return TicketPriorityCritical
	case TicketPriorityMedium:
		return TicketPriorityMedium
	default:
		return TicketPriorityMedium
	}
}
