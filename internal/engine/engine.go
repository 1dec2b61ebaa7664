package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/ai"
	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/events"
	"github.com/project-pulse/pulse/internal/gate"
	"github.com/project-pulse/pulse/internal/messenger"
	"github.com/project-pulse/pulse/internal/observability"
	"github.com/project-pulse/pulse/internal/repository"
	"github.com/project-pulse/pulse/internal/sink"
)

// Classifier scores message urgency.
type Classifier interface {
	ScoreUrgency(ctx context.Context, content string) (int, string, error)
}

// Generator drafts follow-up questions and structured ticket fields.
type Generator interface {
	DraftFollowUpQuestions(ctx context.Context, content string) string
	DraftStructuredTicket(ctx context.Context, issue, followUp string) (ai.TicketFields, error)
}

// Engine is the urgency-detection and ticket lifecycle state machine. Each
// user is IDLE until a qualifying report opens a ticket and a session;
// their next direct message resolves it back to IDLE.
type Engine struct {
	cfg        config.UrgencyConfig
	reportChan string
	gate       *gate.Gate
	denials    *gate.DenialNotifier
	messages   repository.MessageRepository
	tickets    repository.TicketRepository
	sink       sink.TicketSink
	classifier Classifier
	generator  Generator
	msgr       messenger.Messenger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	sessions   *sessionStore
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	Gate        *gate.Gate
	Denials     *gate.DenialNotifier
	MessageRepo repository.MessageRepository
	TicketRepo  repository.TicketRepository
	Sink        sink.TicketSink
	Classifier  Classifier
	Generator   Generator
	Messenger   messenger.Messenger
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// New constructs the engine.
func New(cfg config.UrgencyConfig, reportChannel string, deps Dependencies) *Engine {
	return &Engine{
		cfg:        cfg,
		reportChan: reportChannel,
		gate:       deps.Gate,
		denials:    deps.Denials,
		messages:   deps.MessageRepo,
		tickets:    deps.TicketRepo,
		sink:       deps.Sink,
		classifier: deps.Classifier,
		generator:  deps.Generator,
		msgr:       deps.Messenger,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		sessions:   newSessionStore(),
	}
}

// HandleChannelMessage processes a message posted in a server channel. No
// error escapes: every capability failure is logged and converted into a
// safe default so unrelated events are never affected.
func (e *Engine) HandleChannelMessage(ctx context.Context, in messenger.Inbound) {
	if in.FromBot {
		return
	}
	if !strings.EqualFold(in.ChannelName, e.reportChan) {
		return
	}

	allowed, reason := e.gate.CheckAccess(ctx, in.WorkspaceID)
	if !allowed {
		e.metrics.Inc(observability.MetricAccessDenied)
		notified := false
		if e.denials.ShouldNotify(ctx, in.WorkspaceID) {
			notified = true
			if err := e.msgr.SendToChannel(ctx, in.ChannelID, reason); err != nil {
				e.logger.Warn("denial notice delivery failed", zap.Error(err))
			}
		}
		e.publish(ctx, events.EventAccessDenied, in.WorkspaceID, events.AccessDeniedPayload{
			Reason:   reason,
			Notified: notified,
		})
		return
	}

	messageID := e.recordMessage(ctx, in)

	// One session per user: rapid-fire reports must not open concurrent
	// duplicate tickets.
	if e.sessions.has(in.UserID) {
		e.logger.Debug("session active; suppressing classification", zap.String("user_id", in.UserID))
		return
	}

	if len(in.Content) < e.cfg.MinMessageLength {
		return
	}

	score, scoreReason, err := e.classifier.ScoreUrgency(ctx, in.Content)
	if err != nil {
		// Unparseable score aborts this message's escalation path.
		e.metrics.Inc(observability.MetricClassifierErrors)
		e.logger.Warn("urgency classification failed", zap.String("user_id", in.UserID), zap.Error(err))
		return
	}
	if score < e.cfg.Threshold {
		return
	}

	e.escalate(ctx, in, messageID, score, scoreReason)
}

func (e *Engine) escalate(ctx context.Context, in messenger.Inbound, messageID string, score int, scoreReason string) {
	fields, err := e.generator.DraftStructuredTicket(ctx, in.Content, "")
	if err != nil {
		e.logger.Warn("ticket draft generation failed; using defaults", zap.Error(err))
		fields = ai.TicketFields{}
	}
	if strings.TrimSpace(fields.Summary) == "" {
		fields.Summary = preview(in.Content, 80)
	}

	reporterID := in.UserID
	ticket := &domain.Ticket{
		ReporterID:      &reporterID,
		WorkspaceID:     in.WorkspaceID,
		OriginChannelID: in.ChannelID,
		ReporterName:    in.Username,
		Title:           fields.Summary,
		Description:     in.Content,
		UrgencyScore:    score,
		Status:          domain.TicketStatusOpen,
		Type:            domain.TicketType(fields.Type),
		Priority:        domain.TicketPriority(fields.Priority),
		Location:        fields.Location,
		Solution:        fields.Solution,
	}

	ticketID, err := e.sink.CreateTicket(ctx, ticket)
	if err != nil {
		// The ticket is not tracked remotely; the conversational flow
		// continues regardless.
		e.logger.Error("ticket creation failed",
			zap.String("user_id", in.UserID),
			zap.String("workspace_id", in.WorkspaceID),
			zap.Error(err))
	}

	if ticketID != "" && messageID != "" {
		if err := e.messages.LinkToTicket(ctx, messageID, ticketID); err != nil {
			e.logger.Warn("message-ticket link failed", zap.String("message_id", messageID), zap.Error(err))
		}
	}

	e.sessions.begin(&domain.Session{
		UserID:          in.UserID,
		WorkspaceID:     in.WorkspaceID,
		OriginChannelID: in.ChannelID,
		OriginalContent: in.Content,
		UrgencyScore:    score,
		TicketID:        ticketID,
	})
	e.metrics.Inc(observability.MetricTicketsOpened)

	e.publish(ctx, events.EventTicketOpened, in.WorkspaceID, events.TicketOpenedPayload{
		TicketID:     ticketID,
		ChannelID:    in.ChannelID,
		UserID:       in.UserID,
		Username:     in.Username,
		UrgencyScore: score,
		Reason:       scoreReason,
		Content:      in.Content,
	})

	followUp := e.generator.DraftFollowUpQuestions(ctx, in.Content)
	if err := e.msgr.SendDirect(ctx, in.UserID, followUp); err != nil {
		// Without a reachable DM channel there is no way to collect the
		// follow-up; discard the session. The ticket stays OPEN in the
		// sink for manual handling.
		e.sessions.end(in.UserID)
		e.metrics.Inc(observability.MetricSessionsDiscarded)
		e.logger.Warn("follow-up DM failed; session discarded",
			zap.String("user_id", in.UserID),
			zap.Error(err))
		fallback := fmt.Sprintf("<@%s> I tried to DM you some follow-up questions about your report, but your DMs appear to be closed. Your report has still been logged.", in.UserID)
		if err := e.msgr.SendToChannel(ctx, in.ChannelID, fallback); err != nil {
			e.logger.Warn("public DM-failure notice also failed", zap.Error(err))
		}
		return
	}

	if err := e.msgr.AddReaction(ctx, in.ChannelID, in.MessageID, "📬"); err != nil {
		e.logger.Debug("reaction failed", zap.Error(err))
	}
}

// HandleDirectMessage processes a user's DM, resolving a pending follow-up
// from memory or by recovering the most recent OPEN ticket.
func (e *Engine) HandleDirectMessage(ctx context.Context, in messenger.Inbound) {
	if in.FromBot {
		return
	}

	e.recordMessage(ctx, in)

	sess, ok := e.sessions.get(in.UserID)
	if !ok {
		sess = e.recoverSession(ctx, in.UserID)
	}
	if sess == nil {
		if err := e.msgr.SendToChannel(ctx, in.ChannelID, "Thanks for reaching out! Please report issues in the #"+e.reportChan+" channel of your server first, and I'll follow up with you here."); err != nil {
			e.logger.Warn("DM guidance reply failed", zap.Error(err))
		}
		return
	}

	fields, err := e.generator.DraftStructuredTicket(ctx, sess.OriginalContent, in.Content)
	if err != nil {
		e.logger.Warn("refined ticket generation failed; using defaults", zap.Error(err))
		fields = ai.TicketFields{}
	}
	if strings.TrimSpace(fields.Summary) == "" {
		fields.Summary = preview(sess.OriginalContent, 80)
	}

	patch := domain.TicketPatch{
		Title:           fields.Summary,
		FollowUpDetails: in.Content,
		Type:            domain.TicketType(fields.Type),
		Priority:        domain.TicketPriority(fields.Priority),
		Location:        fields.Location,
		Solution:        fields.Solution,
		Status:          domain.TicketStatusCompleted,
	}
	patch.Normalize()
	description := sess.OriginalContent + "\n\nFOLLOW-UP:\n" + in.Content

	tracked := true
	if sess.TicketID == "" {
		tracked = false
	} else if err := e.sink.UpdateTicket(ctx, sess.TicketID, patch, description); err != nil {
		tracked = false
		e.logger.Error("ticket update failed",
			zap.String("ticket_id", sess.TicketID),
			zap.String("user_id", in.UserID),
			zap.Error(err))
	}

	e.sessions.end(in.UserID)
	e.metrics.Inc(observability.MetricTicketsResolved)

	e.publish(ctx, events.EventTicketResolved, sess.WorkspaceID, events.TicketResolvedPayload{
		TicketID: sess.TicketID,
		UserID:   in.UserID,
		Priority: patch.Priority,
		Type:     patch.Type,
		Tracked:  tracked,
	})

	confirmation := fmt.Sprintf(
		"Thanks! I've added your details to the report.\n**Priority:** %s\n**Type:** %s\n**Suggested next step:** %s",
		patch.Priority, patch.Type, patch.Solution)
	if !tracked {
		confirmation += "\n\n⚠️ I couldn't confirm the update was saved in our ticket system; the team has been notified either way."
	}
	if err := e.msgr.SendToChannel(ctx, in.ChannelID, confirmation); err != nil {
		e.logger.Warn("confirmation delivery failed", zap.String("user_id", in.UserID), zap.Error(err))
	}
}

// recoverSession rebuilds the minimal session from the most recent OPEN
// ticket. This tolerates process restarts between ticket creation and the
// user's reply; without it a restart would silently lose every pending
// follow-up.
func (e *Engine) recoverSession(ctx context.Context, userID string) *domain.Session {
	ticket, err := e.tickets.LatestOpenByReporter(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			e.logger.Warn("session recovery lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}

	sess := &domain.Session{
		UserID:          userID,
		WorkspaceID:     ticket.WorkspaceID,
		OriginChannelID: ticket.OriginChannelID,
		OriginalContent: ticket.Description,
		UrgencyScore:    ticket.UrgencyScore,
		TicketID:        ticket.ID,
	}
	e.sessions.begin(sess)
	e.metrics.Inc(observability.MetricSessionsRecovered)
	e.logger.Info("session recovered from open ticket",
		zap.String("user_id", userID),
		zap.String("ticket_id", ticket.ID))
	return sess
}

func (e *Engine) recordMessage(ctx context.Context, in messenger.Inbound) string {
	msg := &domain.Message{
		WorkspaceID: in.WorkspaceID,
		ChannelID:   in.ChannelID,
		UserID:      in.UserID,
		Username:    in.Username,
		Content:     in.Content,
	}
	if in.DisplayName != "" {
		msg.DisplayName = &in.DisplayName
	}
	if in.AvatarURL != "" {
		msg.AvatarURL = &in.AvatarURL
	}

	id, err := e.messages.Record(ctx, msg, e.cfg.DedupWindow())
	if err != nil {
		e.logger.Warn("message logging failed", zap.String("user_id", in.UserID), zap.Error(err))
		return ""
	}
	e.metrics.Inc(observability.MetricMessagesLogged)
	return id
}

func (e *Engine) publish(ctx context.Context, eventType events.EventType, workspaceID string, payload any) {
	if e.dispatcher == nil {
		return
	}
	_ = e.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		WorkspaceID: workspaceID,
		Timestamp:   time.Now(),
		Payload:     payload,
	})
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	suffix := "..."
	cut := max - len(suffix)
	if max <= len(suffix) {
		cut = max
		suffix = ""
	}
	// Never cut inside a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + suffix
}
