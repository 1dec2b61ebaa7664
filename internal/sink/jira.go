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

// jiraSink forwards tickets as issues in a Jira project.
type jiraSink struct {
	cfg    config.TicketConfig
	client *http.Client
	logger *zap.Logger
}

// NewJiraSink constructs the Jira helpdesk backend.
func NewJiraSink(cfg config.TicketConfig, client *http.Client, logger *zap.Logger) TicketSink {
	return &jiraSink{cfg: cfg, client: client, logger: logger}
}

func (s *jiraSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if s.cfg.JiraURL == "" || s.cfg.JiraEmail == "" || s.cfg.JiraAPIToken == "" || s.cfg.JiraProject == "" {
		return "", ErrConfigMissing
	}
	ticket.Normalize()

	// Jira descriptions use the Atlassian Document Format; a single
	// paragraph keeps the payload simple.
	descriptionText := fmt.Sprintf("User: %s\nSummary: %s\n\nDetails:\n%s",
		ticket.ReporterName, ticket.Title, ticket.Description)

	payload, err := json.Marshal(map[string]any{
		"fields": map[string]any{
			"project": map[string]string{"key": s.cfg.JiraProject},
			"summary": fmt.Sprintf("Urgent: %s (Score: %d)", ticket.ReporterName, ticket.UrgencyScore),
			"description": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []map[string]any{{
					"type": "paragraph",
					"content": []map[string]any{{
						"type": "text",
						"text": descriptionText,
					}},
				}},
			},
			"issuetype": map[string]string{"name": "Task"},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.JiraURL+"/rest/api/3/issue", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.cfg.JiraEmail, s.cfg.JiraAPIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("jira issue create: status %d", resp.StatusCode)
	}
	return "JIRA-TICKET", nil
}

func (s *jiraSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	s.logger.Warn("jira backend cannot update forwarded issues", zap.String("ticket_id", ticketID))
	return ErrUpdateNotSupported
}
