package sink

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
)

type fakeTicketRepo struct {
	created []*domain.Ticket
	updated []string
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.ID = "db-1"
	f.created = append(f.created, ticket)
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, id string, patch domain.TicketPatch, description string) error {
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) LatestOpenByReporter(ctx context.Context, reporterID string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func TestNewSelectsBackend(t *testing.T) {
	logger := zap.NewNop()
	repo := &fakeTicketRepo{}

	tests := []struct {
		name     string
		provider config.TicketProvider
		wantErr  bool
	}{
		{name: "log", provider: config.ProviderLog},
		{name: "empty defaults to log", provider: ""},
		{name: "database", provider: config.ProviderDatabase},
		{name: "trello", provider: config.ProviderTrello},
		{name: "github", provider: config.ProviderGitHub},
		{name: "jira", provider: config.ProviderJira},
		{name: "unknown", provider: "asana", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(config.TicketConfig{Provider: tt.provider}, repo, logger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
		})
	}
}

func TestLogSinkReturnsPseudoID(t *testing.T) {
	s := NewLogSink(zap.NewNop())
	ticket := &domain.Ticket{ReporterName: "alice", UrgencyScore: 9}

	id, err := s.CreateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Equal(t, "LOGGED-INTERNAL", id)
	// Defaults are applied before logging.
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)

	assert.NoError(t, s.UpdateTicket(context.Background(), id, domain.TicketPatch{}, "details"))
}

func TestDatabaseSinkReturnsRowID(t *testing.T) {
	repo := &fakeTicketRepo{}
	s := NewDatabaseSink(repo)

	id, err := s.CreateTicket(context.Background(), &domain.Ticket{})

	require.NoError(t, err)
	assert.Equal(t, "db-1", id)

	require.NoError(t, s.UpdateTicket(context.Background(), id, domain.TicketPatch{}, "details"))
	assert.Equal(t, []string{"db-1"}, repo.updated)
}

func TestForwardOnlyBackendsRequireConfig(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	ticket := &domain.Ticket{}

	_, err := NewTrelloSink(config.TicketConfig{}, nil, logger).CreateTicket(ctx, ticket)
	assert.ErrorIs(t, err, ErrConfigMissing)

	_, err = NewGitHubSink(config.TicketConfig{}, nil, logger).CreateTicket(ctx, ticket)
	assert.ErrorIs(t, err, ErrConfigMissing)

	_, err = NewJiraSink(config.TicketConfig{}, nil, logger).CreateTicket(ctx, ticket)
	assert.ErrorIs(t, err, ErrConfigMissing)
}

func TestForwardOnlyBackendsCannotUpdate(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	patch := domain.TicketPatch{}

	err := NewTrelloSink(config.TicketConfig{}, nil, logger).UpdateTicket(ctx, "TRELLO-CARD", patch, "d")
	assert.ErrorIs(t, err, ErrUpdateNotSupported)

	err = NewGitHubSink(config.TicketConfig{}, nil, logger).UpdateTicket(ctx, "GITHUB-ISSUE", patch, "d")
	assert.ErrorIs(t, err, ErrUpdateNotSupported)

	err = NewJiraSink(config.TicketConfig{}, nil, logger).UpdateTicket(ctx, "JIRA-TICKET", patch, "d")
	assert.ErrorIs(t, err, ErrUpdateNotSupported)
}
