package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// TicketFields is the structured draft produced by the generator.
type TicketFields struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Summary  string `json:"summary"`
	Location string `json:"location"`
	Solution string `json:"solution"`
}

// FallbackFollowUp is sent when the generator cannot produce follow-up
// questions.
const FallbackFollowUp = "Hey there! I noticed you're reporting an issue. To help our team fix this faster, could you share:\n1. Any error codes you see?\n2. What steps led up to this?"

// Client wraps a chat model with the prompt surface the bot needs. Every
// call is bounded by the configured timeout; expiry is treated by callers
// as a model failure.
type Client struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient constructs the client.
func NewClient(chatModel model.BaseChatModel, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{chatModel: chatModel, timeout: timeout, logger: logger}
}

// ScoreUrgency rates a message 0-10 and returns the model's reason. The
// model answers in "Score|Reason" form; a missing separator falls back to a
// placeholder reason, an unparseable score returns an error so the caller
// can abort escalation silently.
func (c *Client) ScoreUrgency(ctx context.Context, content string) (int, string, error) {
	prompt := fmt.Sprintf(`Analyze the following Discord message for urgency and sentiment.
Message: %q

If it is a bug report, system outage, or very frustrated customer, rate urgency 7-10.
If it is a general question, rate 0-3.

Return strict format: Score|Reason
Example: 8|Critical bug report affecting payment`, content)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return 0, "", err
	}
	return ParseScore(raw)
}

// DraftFollowUpQuestions asks the model for 1-3 debugging questions phrased
// as a friendly direct message. Returns FallbackFollowUp on failure.
func (c *Client) DraftFollowUpQuestions(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(`A user just reported this issue in a tech support Discord: %q

Generate a helpful Direct Message asking between 1 and 3 specific follow-up questions to help debug this specific issue (ask only what is necessary).

Structure it EXACTLY like this:
"Hey there! I noticed your report about [mention the specific topic]. To help investigate further, could you share:
1. [Question 1]?
(Add more numbered questions only if needed)

Thanks so much for the details, it'll help us get this sorted out faster!"

IMPORTANT: Do NOT use words like "critical", "urgent", "severe", or "emergency". Keep it friendly.`, content)

	text, err := c.generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Warn("follow-up generation failed; using static fallback", zap.Error(err))
		return FallbackFollowUp
	}
	return strings.TrimSpace(text)
}

// DraftStructuredTicket turns the original report (plus the optional
// follow-up) into structured ticket fields. The model may wrap the JSON in
// code fences, which are stripped before parsing.
func (c *Client) DraftStructuredTicket(ctx context.Context, issue, followUp string) (TicketFields, error) {
	prompt := fmt.Sprintf(`Create a structured support ticket from this incident report.

Original Report: %q
User's Follow-up Details: %q

Respond with ONLY a JSON object with these keys:
  "type": one of "bug", "feature_request", "ui_ux", "support"
  "priority": one of "low", "medium", "high", "critical"
  "summary": one-line technical title
  "location": the affected page or component, or "unknown"
  "solution": a suggested next step for the team`, issue, followUp)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return TicketFields{}, err
	}

	var fields TicketFields
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &fields); err != nil {
		return TicketFields{}, fmt.Errorf("parse ticket draft: %w", err)
	}
	return fields, nil
}

// SummarizeActivity produces the daily digest for a transcript of the last
// day's messages.
func (c *Client) SummarizeActivity(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "No messages to summarize today.", nil
	}

	prompt := fmt.Sprintf(`Summarize the following Discord chat logs into a "Daily Pulse" executive summary.
Highlight the top 3 topics, the general mood, and any resolved issues.

Logs:
%s`, transcript)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
