package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
)

// githubSink forwards tickets as issues on a repository.
type githubSink struct {
	cfg    config.TicketConfig
	client *http.Client
	logger *zap.Logger
}

// NewGitHubSink constructs the GitHub issue-tracker backend.
func NewGitHubSink(cfg config.TicketConfig, client *http.Client, logger *zap.Logger) TicketSink {
	return &githubSink{cfg: cfg, client: client, logger: logger}
}

func (s *githubSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if s.cfg.GitHubToken == "" || s.cfg.GitHubRepo == "" {
		return "", ErrConfigMissing
	}
	ticket.Normalize()

	body := fmt.Sprintf(
		"### Urgency Level: %d/10\n**User**: %s\n\n### Summary\n%s\n\n### Original Issue\n%s\n\n### Follow-up Details\n%s\n",
		ticket.UrgencyScore, ticket.ReporterName, ticket.Title, ticket.Description, ticket.FollowUpDetails)

	payload, err := json.Marshal(map[string]any{
		"title":  fmt.Sprintf("Urgency Report: %s", ticket.ReporterName),
		"body":   body,
		"labels": []string{"bug", "urgent"},
	})
	if err != nil {
		return "", err
	}

	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/issues", s.cfg.GitHubRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "token "+s.cfg.GitHubToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("github issue create: status %d", resp.StatusCode)
	}
	return "GITHUB-ISSUE", nil
}

func (s *githubSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	s.logger.Warn("github backend cannot update forwarded issues", zap.String("ticket_id", ticketID))
	return ErrUpdateNotSupported
}
