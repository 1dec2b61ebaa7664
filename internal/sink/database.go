package sink

import (
	"context"

	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/repository"
)

// databaseSink persists tickets to the internal postgres table. The only
// backend whose tickets back the session recovery path.
type databaseSink struct {
	tickets repository.TicketRepository
}

// NewDatabaseSink constructs the internal database backend.
func NewDatabaseSink(tickets repository.TicketRepository) TicketSink {
	return &databaseSink{tickets: tickets}
}

func (s *databaseSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return "", err
	}
	return ticket.ID, nil
}

func (s *databaseSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	return s.tickets.Update(ctx, ticketID, patch, description)
}
