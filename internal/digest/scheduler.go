package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/events"
	"github.com/project-pulse/pulse/internal/gate"
	"github.com/project-pulse/pulse/internal/observability"
	"github.com/project-pulse/pulse/internal/repository"
)

const emptyDigest = "📉 The Daily Pulse: No messages were logged in the last 24 hours. All quiet!"

// Summarizer condenses a day's transcript into a digest.
type Summarizer interface {
	SummarizeActivity(ctx context.Context, transcript string) (string, error)
}

// WorkspaceLister enumerates the workspaces the bot currently serves.
type WorkspaceLister interface {
	ListWorkspaces() []string
}

// Sender is the subset of messaging the scheduler needs.
type Sender interface {
	SendToChannel(ctx context.Context, channelID, text string) error
	EnsureChannel(ctx context.Context, workspaceID, name string, private bool) (string, error)
}

// Scheduler posts a daily activity summary to each subscribed workspace.
type Scheduler struct {
	cfg        config.DigestConfig
	channel    string
	gate       *gate.Gate
	messages   repository.MessageRepository
	summarizer Summarizer
	workspaces WorkspaceLister
	sender     Sender
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cron       *cron.Cron
}

// New constructs the scheduler. Call Start to arm the cron entry.
func New(cfg config.DigestConfig, channel string, g *gate.Gate, messages repository.MessageRepository, summarizer Summarizer, workspaces WorkspaceLister, sender Sender, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		channel:    channel,
		gate:       g,
		messages:   messages,
		summarizer: summarizer,
		workspaces: workspaces,
		sender:     sender,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start registers the cron entry and begins scheduling. A run that is
// still in flight when the next tick fires causes that tick to be skipped
// rather than overlapped.
func (s *Scheduler) Start() error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(s.cfg.CronSpec, s.runAll); err != nil {
		return fmt.Errorf("invalid digest cron spec %q: %w", s.cfg.CronSpec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("digest scheduler started", zap.String("spec", s.cfg.CronSpec))
	return nil
}

// Stop halts scheduling and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runAll() {
	ctx := context.Background()
	for _, workspaceID := range s.workspaces.ListWorkspaces() {
		if err := s.RunForWorkspace(ctx, workspaceID); err != nil {
			s.logger.Warn("digest run failed",
				zap.String("workspace_id", workspaceID),
				zap.Error(err))
		}
	}
}

// RunForWorkspace generates and posts one digest. Workspaces without an
// active paid subscription are skipped silently; the digest never nags.
func (s *Scheduler) RunForWorkspace(ctx context.Context, workspaceID string) error {
	if allowed, _ := s.gate.CheckAccess(ctx, workspaceID); !allowed {
		s.logger.Debug("digest skipped for unsubscribed workspace", zap.String("workspace_id", workspaceID))
		return nil
	}

	recent, err := s.messages.RecentWindow(ctx, workspaceID, s.cfg.Window(), s.cfg.Limit)
	if err != nil {
		return fmt.Errorf("load recent messages: %w", err)
	}

	text := emptyDigest
	if len(recent) > 0 {
		summary, err := s.summarizer.SummarizeActivity(ctx, transcript(recent))
		if err != nil {
			return fmt.Errorf("summarize activity: %w", err)
		}
		text = "☀️ **The Daily Pulse**\n\n" + summary
	}

	channelID, err := s.sender.EnsureChannel(ctx, workspaceID, s.channel, false)
	if err != nil {
		return fmt.Errorf("resolve digest channel: %w", err)
	}
	if err := s.sender.SendToChannel(ctx, channelID, text); err != nil {
		return fmt.Errorf("post digest: %w", err)
	}

	s.metrics.Inc(observability.MetricDigestsPosted)
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventDigestPosted,
			WorkspaceID: workspaceID,
			Timestamp:   time.Now(),
			Payload: events.DigestPostedPayload{
				ChannelID:    channelID,
				MessageCount: len(recent),
			},
		})
	}
	return nil
}

// transcript renders messages oldest-first as "username: content" lines,
// the shape the summarizer prompt expects.
func transcript(recent []domain.Message) string {
	var b strings.Builder
	for i := len(recent) - 1; i >= 0; i-- {
		b.WriteString(recent[i].Username)
		b.WriteString(": ")
		b.WriteString(recent[i].Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
