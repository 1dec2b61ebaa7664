package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/domain"
)

// logSink records tickets to the structured log only. Default backend.
type logSink struct {
	logger *zap.Logger
}

// NewLogSink constructs the log-only backend.
func NewLogSink(logger *zap.Logger) TicketSink {
	return &logSink{logger: logger}
}

func (s *logSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	ticket.Normalize()
	s.logger.Info("ticket created internally",
		zap.String("reporter", ticket.ReporterName),
		zap.String("workspace_id", ticket.WorkspaceID),
		zap.Int("urgency_score", ticket.UrgencyScore),
		zap.String("type", string(ticket.Type)),
		zap.String("priority", string(ticket.Priority)),
		zap.String("title", ticket.Title),
		zap.String("description", ticket.Description))
	return "LOGGED-INTERNAL", nil
}

func (s *logSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	patch.Normalize()
	s.logger.Info("ticket updated internally",
		zap.String("ticket_id", ticketID),
		zap.String("title", patch.Title),
		zap.String("priority", string(patch.Priority)),
		zap.String("follow_up", patch.FollowUpDetails))
	return nil
}
