package sink

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
)

const trelloCardsURL = "https://api.trello.com/1/cards"

// trelloSink forwards tickets as cards on a kanban list.
type trelloSink struct {
	cfg    config.TicketConfig
	client *http.Client
	logger *zap.Logger
}

// NewTrelloSink constructs the Trello backend.
func NewTrelloSink(cfg config.TicketConfig, client *http.Client, logger *zap.Logger) TicketSink {
	return &trelloSink{cfg: cfg, client: client, logger: logger}
}

func (s *trelloSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if s.cfg.TrelloAPIKey == "" || s.cfg.TrelloToken == "" || s.cfg.TrelloListID == "" {
		return "", ErrConfigMissing
	}
	ticket.Normalize()

	query := url.Values{}
	query.Set("key", s.cfg.TrelloAPIKey)
	query.Set("token", s.cfg.TrelloToken)
	query.Set("idList", s.cfg.TrelloListID)
	query.Set("name", fmt.Sprintf("Urgent: %s (Score: %d)", ticket.ReporterName, ticket.UrgencyScore))
	query.Set("desc", fmt.Sprintf("**Summary**:\n%s\n\n**Full Details**:\n%s", ticket.Title, ticket.Description))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, trelloCardsURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("trello card create: status %d", resp.StatusCode)
	}
	return "TRELLO-CARD", nil
}

func (s *trelloSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	// Cards are forwarded fire-and-forget; there is no stored card id to
	// address afterwards.
	s.logger.Warn("trello backend cannot update forwarded cards", zap.String("ticket_id", ticketID))
	return ErrUpdateNotSupported
}
