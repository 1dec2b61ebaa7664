package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketNormalizeDefaults(t *testing.T) {
	ticket := &Ticket{UrgencyScore: 8}
	ticket.Normalize()

	assert.Equal(t, TicketTypeSupport, ticket.Type)
	assert.Equal(t, TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, DefaultLocation, ticket.Location)
	assert.Equal(t, TicketStatusOpen, ticket.Status)
	assert.Equal(t, PendingFollowUpDetails, ticket.FollowUpDetails)
	assert.Equal(t, 8, ticket.UrgencyScore)
}

func TestTicketNormalizeClampsScore(t *testing.T) {
	ticket := &Ticket{UrgencyScore: 14}
	ticket.Normalize()
	assert.Equal(t, 10, ticket.UrgencyScore)

	ticket = &Ticket{UrgencyScore: -2}
	ticket.Normalize()
	assert.Equal(t, 0, ticket.UrgencyScore)
}

func TestTicketNormalizeCasing(t *testing.T) {
	ticket := &Ticket{
		Type:     "BUG",
		Priority: " High ",
		Location: " Checkout Page ",
	}
	ticket.Normalize()

	assert.Equal(t, TicketTypeBug, ticket.Type)
	assert.Equal(t, TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, "checkout page", ticket.Location)
}

func TestTicketNormalizeUnknownValues(t *testing.T) {
	ticket := &Ticket{Type: "incident", Priority: "sev1"}
	ticket.Normalize()

	assert.Equal(t, TicketTypeSupport, ticket.Type)
	assert.Equal(t, TicketPriorityMedium, ticket.Priority)
}

func TestTicketPatchNormalizeDefaults(t *testing.T) {
	patch := &TicketPatch{}
	patch.Normalize()

	assert.Equal(t, TicketTypeSupport, patch.Type)
	assert.Equal(t, TicketPriorityMedium, patch.Priority)
	assert.Equal(t, DefaultLocation, patch.Location)
	assert.Equal(t, TicketStatusCompleted, patch.Status)
}
