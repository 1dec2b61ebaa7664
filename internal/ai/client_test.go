package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChatModel struct {
	reply string
	err   error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func newTestClient(reply string, err error) *Client {
	return NewClient(&fakeChatModel{reply: reply, err: err}, time.Second, zap.NewNop())
}

func TestScoreUrgency(t *testing.T) {
	c := newTestClient("9|Production outage reported", nil)

	score, reason, err := c.ScoreUrgency(context.Background(), "the api is down")

	require.NoError(t, err)
	assert.Equal(t, 9, score)
	assert.Equal(t, "Production outage reported", reason)
}

func TestScoreUrgencyPropagatesModelError(t *testing.T) {
	c := newTestClient("", errors.New("rate limited"))

	_, _, err := c.ScoreUrgency(context.Background(), "the api is down")
	assert.Error(t, err)
}

func TestDraftFollowUpQuestionsFallsBack(t *testing.T) {
	c := newTestClient("", errors.New("rate limited"))
	assert.Equal(t, FallbackFollowUp, c.DraftFollowUpQuestions(context.Background(), "broken"))

	c = newTestClient("   ", nil)
	assert.Equal(t, FallbackFollowUp, c.DraftFollowUpQuestions(context.Background(), "broken"))
}

func TestDraftStructuredTicketParsesFencedJSON(t *testing.T) {
	reply := "```json\n{\"type\":\"bug\",\"priority\":\"high\",\"summary\":\"Checkout 500\",\"location\":\"checkout\",\"solution\":\"Check gateway\"}\n```"
	c := newTestClient(reply, nil)

	fields, err := c.DraftStructuredTicket(context.Background(), "checkout broken", "error 500")

	require.NoError(t, err)
	assert.Equal(t, "bug", fields.Type)
	assert.Equal(t, "high", fields.Priority)
	assert.Equal(t, "Checkout 500", fields.Summary)
}

func TestDraftStructuredTicketRejectsNonJSON(t *testing.T) {
	c := newTestClient("sorry, I cannot do that", nil)

	_, err := c.DraftStructuredTicket(context.Background(), "checkout broken", "")
	assert.Error(t, err)
}

func TestSummarizeActivityEmptyTranscript(t *testing.T) {
	c := newTestClient("should not be called", nil)

	summary, err := c.SummarizeActivity(context.Background(), "   ")

	require.NoError(t, err)
	assert.Equal(t, "No messages to summarize today.", summary)
}
