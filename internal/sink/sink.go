package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/repository"
)

// TicketSink persists or forwards tickets to the configured backend. One
// backend is active per process, selected at startup.
//
// CreateTicket failures mean "ticket not tracked remotely"; callers must
// continue the conversational flow regardless. UpdateTicket failures are
// logged and surfaced to the user generically, never raised past callers.
type TicketSink interface {
	CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error)
	UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error
}

// ErrConfigMissing signals that a backend's credentials are absent. The
// backend degrades to this error instead of crashing.
var ErrConfigMissing = errors.New("ticket backend configuration missing")

// ErrUpdateNotSupported is returned by forward-only backends that cannot
// address a previously forwarded ticket.
var ErrUpdateNotSupported = errors.New("ticket backend does not support updates")

// New selects the active backend from configuration.
func New(cfg config.TicketConfig, tickets repository.TicketRepository, logger *zap.Logger) (TicketSink, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	switch cfg.Provider {
	case config.ProviderDatabase:
		return NewDatabaseSink(tickets), nil
	case config.ProviderTrello:
		return NewTrelloSink(cfg, httpClient, logger), nil
	case config.ProviderGitHub:
		return NewGitHubSink(cfg, httpClient, logger), nil
	case config.ProviderJira:
		return NewJiraSink(cfg, httpClient, logger), nil
	case config.ProviderLog, "":
		return NewLogSink(logger), nil
	default:
		return nil, fmt.Errorf("unknown ticket provider %q", cfg.Provider)
	}
}
