package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/ai"
	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/domain"
	"github.com/project-pulse/pulse/internal/events"
	"github.com/project-pulse/pulse/internal/gate"
	"github.com/project-pulse/pulse/internal/messenger"
	"github.com/project-pulse/pulse/internal/observability"
)

type fakeProfiles struct {
	profile *domain.SubscriptionProfile
	err     error
}

func (f *fakeProfiles) GetByWorkspace(ctx context.Context, workspaceID string) (*domain.SubscriptionProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeProfiles) GetByEmail(ctx context.Context, email string) (*domain.SubscriptionProfile, error) {
	return f.GetByWorkspace(ctx, email)
}

func (f *fakeProfiles) Upsert(ctx context.Context, profile *domain.SubscriptionProfile) error {
	return nil
}

type fakeMessages struct {
	nextID  int
	records []*domain.Message
	links   map[string]string
	err     error
}

func (f *fakeMessages) Record(ctx context.Context, msg *domain.Message, window time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	f.records = append(f.records, msg)
	return msg.ID, nil
}

func (f *fakeMessages) RecentWindow(ctx context.Context, workspaceID string, window time.Duration, limit int) ([]domain.Message, error) {
	return nil, nil
}

func (f *fakeMessages) LinkToTicket(ctx context.Context, messageID, ticketID string) error {
	if f.links == nil {
		f.links = make(map[string]string)
	}
	f.links[messageID] = ticketID
	return nil
}

type fakeTickets struct {
	open *domain.Ticket
}

func (f *fakeTickets) Create(ctx context.Context, ticket *domain.Ticket) error { return nil }

func (f *fakeTickets) Update(ctx context.Context, id string, patch domain.TicketPatch, description string) error {
	return nil
}

func (f *fakeTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) LatestOpenByReporter(ctx context.Context, reporterID string) (*domain.Ticket, error) {
	if f.open == nil {
		return nil, pgx.ErrNoRows
	}
	return f.open, nil
}

type sinkUpdate struct {
	ticketID    string
	patch       domain.TicketPatch
	description string
}

type fakeSink struct {
	createID  string
	createErr error
	updateErr error
	created   []*domain.Ticket
	updates   []sinkUpdate
}

func (f *fakeSink) CreateTicket(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, ticket)
	return f.createID, nil
}

func (f *fakeSink) UpdateTicket(ctx context.Context, ticketID string, patch domain.TicketPatch, description string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, sinkUpdate{ticketID: ticketID, patch: patch, description: description})
	return nil
}

type fakeClassifier struct {
	score  int
	reason string
	err    error
	calls  int
}

func (f *fakeClassifier) ScoreUrgency(ctx context.Context, content string) (int, string, error) {
	f.calls++
	if f.err != nil {
		return 0, "", f.err
	}
	return f.score, f.reason, nil
}

type fakeGenerator struct {
	fields    ai.TicketFields
	fieldsErr error
	followUp  string
}

func (f *fakeGenerator) DraftFollowUpQuestions(ctx context.Context, content string) string {
	if f.followUp == "" {
		return ai.FallbackFollowUp
	}
	return f.followUp
}

func (f *fakeGenerator) DraftStructuredTicket(ctx context.Context, issue, followUp string) (ai.TicketFields, error) {
	if f.fieldsErr != nil {
		return ai.TicketFields{}, f.fieldsErr
	}
	return f.fields, nil
}

type sentMessage struct {
	target string
	text   string
}

type fakeMessenger struct {
	channelMsgs []sentMessage
	directMsgs  []sentMessage
	reactions   []string
	dmErr       error
}

func (f *fakeMessenger) SendToChannel(ctx context.Context, channelID, text string) error {
	f.channelMsgs = append(f.channelMsgs, sentMessage{target: channelID, text: text})
	return nil
}

func (f *fakeMessenger) SendDirect(ctx context.Context, userID, text string) error {
	if f.dmErr != nil {
		return f.dmErr
	}
	f.directMsgs = append(f.directMsgs, sentMessage{target: userID, text: text})
	return nil
}

func (f *fakeMessenger) EnsureChannel(ctx context.Context, workspaceID, name string, private bool) (string, error) {
	return "chan-" + name, nil
}

func (f *fakeMessenger) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	f.reactions = append(f.reactions, emoji)
	return nil
}

type harness struct {
	engine     *Engine
	profiles   *fakeProfiles
	messages   *fakeMessages
	tickets    *fakeTickets
	sink       *fakeSink
	classifier *fakeClassifier
	generator  *fakeGenerator
	msgr       *fakeMessenger
	metrics    *observability.Metrics
	published  *[]events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	profiles := &fakeProfiles{profile: &domain.SubscriptionProfile{
		Tier:   domain.TierPro,
		Status: domain.StatusActive,
	}}
	messages := &fakeMessages{}
	tickets := &fakeTickets{}
	snk := &fakeSink{createID: "TCK-1"}
	classifier := &fakeClassifier{score: 8, reason: "payment outage"}
	generator := &fakeGenerator{
		fields: ai.TicketFields{
			Type:     "bug",
			Priority: "high",
			Summary:  "Checkout failing with 500",
			Location: "checkout",
			Solution: "Inspect payment gateway logs",
		},
		followUp: "Could you share the error code?",
	}
	msgr := &fakeMessenger{}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	capture := func(ctx context.Context, event events.Event) error {
		*published = append(*published, event)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketOpened, capture)
	dispatcher.Subscribe(events.EventTicketResolved, capture)
	dispatcher.Subscribe(events.EventAccessDenied, capture)

	logger := zap.NewNop()
	cfg := config.UrgencyConfig{Threshold: 5, MinMessageLength: 10, DedupWindowSec: 10}

	eng := New(cfg, "report-an-issue", Dependencies{
		Gate:        gate.NewGate(profiles, logger),
		Denials:     gate.NewDenialNotifier(nil, time.Hour, logger),
		MessageRepo: messages,
		TicketRepo:  tickets,
		Sink:        snk,
		Classifier:  classifier,
		Generator:   generator,
		Messenger:   msgr,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	return &harness{
		engine:     eng,
		profiles:   profiles,
		messages:   messages,
		tickets:    tickets,
		sink:       snk,
		classifier: classifier,
		generator:  generator,
		msgr:       msgr,
		metrics:    metrics,
		published:  published,
	}
}

func report(content string) messenger.Inbound {
	return messenger.Inbound{
		MessageID:   "discord-1",
		WorkspaceID: "ws-1",
		ChannelID:   "chan-report",
		ChannelName: "report-an-issue",
		UserID:      "user-1",
		Username:    "frustrated_dev",
		Content:     content,
	}
}

func directMessage(content string) messenger.Inbound {
	return messenger.Inbound{
		MessageID: "discord-2",
		ChannelID: "dm-chan",
		UserID:    "user-1",
		Username:  "frustrated_dev",
		Content:   content,
		Direct:    true,
	}
}

func TestUrgentReportOpensTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("The checkout page crashes every time I pay!"))

	require.Len(t, h.sink.created, 1)
	ticket := h.sink.created[0]
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "Checkout failing with 500", ticket.Title)
	assert.Equal(t, 8, ticket.UrgencyScore)
	assert.Equal(t, "ws-1", ticket.WorkspaceID)

	require.Len(t, h.msgr.directMsgs, 1)
	assert.Equal(t, "user-1", h.msgr.directMsgs[0].target)
	assert.Equal(t, "Could you share the error code?", h.msgr.directMsgs[0].text)

	assert.Equal(t, "TCK-1", h.messages.links["msg-1"])
	assert.True(t, h.engine.sessions.has("user-1"))
	assert.Len(t, h.msgr.reactions, 1)

	require.Len(t, *h.published, 1)
	event := (*h.published)[0]
	assert.Equal(t, events.EventTicketOpened, event.Type)
	payload := event.Payload.(events.TicketOpenedPayload)
	assert.Equal(t, "TCK-1", payload.TicketID)
	assert.Equal(t, 8, payload.UrgencyScore)
	assert.Equal(t, "payment outage", payload.Reason)

	assert.Equal(t, int64(1), h.metrics.Snapshot()[observability.MetricTicketsOpened])
}

func TestBelowThresholdIgnored(t *testing.T) {
	h := newHarness(t)
	h.classifier.score = 3

	h.engine.HandleChannelMessage(context.Background(), report("How do I change my avatar picture?"))

	assert.Empty(t, h.sink.created)
	assert.Empty(t, h.msgr.directMsgs)
	assert.False(t, h.engine.sessions.has("user-1"))
	// The message is still logged even when nothing escalates.
	assert.Len(t, h.messages.records, 1)
}

func TestShortMessageSkipsClassifier(t *testing.T) {
	h := newHarness(t)

	h.engine.HandleChannelMessage(context.Background(), report("help"))

	assert.Zero(t, h.classifier.calls)
	assert.Empty(t, h.sink.created)
}

func TestIrrelevantTrafficIgnored(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bot := report("Automated status update: all systems nominal")
	bot.FromBot = true
	h.engine.HandleChannelMessage(ctx, bot)

	offTopic := report("The checkout page crashes every time I pay!")
	offTopic.ChannelName = "general"
	h.engine.HandleChannelMessage(ctx, offTopic)

	assert.Zero(t, h.classifier.calls)
	assert.Empty(t, h.messages.records)
}

func TestReportChannelMatchIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)

	in := report("The checkout page crashes every time I pay!")
	in.ChannelName = "Report-An-Issue"
	h.engine.HandleChannelMessage(context.Background(), in)

	assert.Len(t, h.sink.created, 1)
}

func TestDeniedWorkspaceNotifiedOnce(t *testing.T) {
	h := newHarness(t)
	h.profiles.profile = &domain.SubscriptionProfile{Tier: domain.TierFree, Status: domain.StatusActive}
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("Everything is on fire, the API is down!"))
	h.engine.HandleChannelMessage(ctx, report("Still down, anyone there?!"))

	require.Len(t, h.msgr.channelMsgs, 1)
	assert.Equal(t, gate.ReasonFreeTier, h.msgr.channelMsgs[0].text)
	assert.Zero(t, h.classifier.calls)
	assert.Empty(t, h.messages.records)

	require.Len(t, *h.published, 2)
	first := (*h.published)[0].Payload.(events.AccessDeniedPayload)
	second := (*h.published)[1].Payload.(events.AccessDeniedPayload)
	assert.True(t, first.Notified)
	assert.False(t, second.Notified)

	assert.Equal(t, int64(2), h.metrics.Snapshot()[observability.MetricAccessDenied])
}

func TestActiveSessionSuppressesSecondReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("The checkout page crashes every time I pay!"))
	h.engine.HandleChannelMessage(ctx, report("Also the login page is completely broken!"))

	assert.Equal(t, 1, h.classifier.calls)
	assert.Len(t, h.sink.created, 1)
	// Both messages are still logged for the digest.
	assert.Len(t, h.messages.records, 2)
}

func TestBlockedDMDiscardsSession(t *testing.T) {
	h := newHarness(t)
	h.msgr.dmErr = messenger.ErrDirectMessagesBlocked
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("The checkout page crashes every time I pay!"))

	assert.Len(t, h.sink.created, 1)
	assert.False(t, h.engine.sessions.has("user-1"))
	require.Len(t, h.msgr.channelMsgs, 1)
	assert.Contains(t, h.msgr.channelMsgs[0].text, "<@user-1>")
	assert.Equal(t, int64(1), h.metrics.Snapshot()[observability.MetricSessionsDiscarded])
}

func TestFollowUpResolvesTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	original := "The checkout page crashes every time I pay!"
	followUp := "Error code 500, happens on Chrome after clicking Pay."

	h.engine.HandleChannelMessage(ctx, report(original))
	h.engine.HandleDirectMessage(ctx, directMessage(followUp))

	require.Len(t, h.sink.updates, 1)
	update := h.sink.updates[0]
	assert.Equal(t, "TCK-1", update.ticketID)
	assert.Equal(t, original+"\n\nFOLLOW-UP:\n"+followUp, update.description)
	assert.Equal(t, domain.TicketStatusCompleted, update.patch.Status)
	assert.Equal(t, followUp, update.patch.FollowUpDetails)

	assert.False(t, h.engine.sessions.has("user-1"))

	require.Len(t, *h.published, 2)
	resolved := (*h.published)[1].Payload.(events.TicketResolvedPayload)
	assert.Equal(t, "TCK-1", resolved.TicketID)
	assert.True(t, resolved.Tracked)

	// Confirmation goes back to the DM channel.
	require.NotEmpty(t, h.msgr.channelMsgs)
	last := h.msgr.channelMsgs[len(h.msgr.channelMsgs)-1]
	assert.Equal(t, "dm-chan", last.target)
	assert.Contains(t, last.text, "Priority")

	assert.Equal(t, int64(1), h.metrics.Snapshot()[observability.MetricTicketsResolved])
}

func TestFollowUpIsIdempotentPerSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("The checkout page crashes every time I pay!"))
	h.engine.HandleDirectMessage(ctx, directMessage("Error 500 on Chrome."))
	h.engine.HandleDirectMessage(ctx, directMessage("Oh and it also happens on Firefox."))

	// The second DM finds no session and no open ticket; it must not
	// produce a second update.
	assert.Len(t, h.sink.updates, 1)
}

func TestFollowUpRecoversFromOpenTicket(t *testing.T) {
	h := newHarness(t)
	reporterID := "user-1"
	h.tickets.open = &domain.Ticket{
		ID:              "TCK-9",
		ReporterID:      &reporterID,
		WorkspaceID:     "ws-1",
		OriginChannelID: "chan-report",
		Description:     "The dashboard graphs are all empty.",
		UrgencyScore:    7,
		Status:          domain.TicketStatusOpen,
	}

	h.engine.HandleDirectMessage(context.Background(), directMessage("Started after yesterday's deploy."))

	require.Len(t, h.sink.updates, 1)
	assert.Equal(t, "TCK-9", h.sink.updates[0].ticketID)
	assert.Contains(t, h.sink.updates[0].description, "The dashboard graphs are all empty.")
	assert.Equal(t, int64(1), h.metrics.Snapshot()[observability.MetricSessionsRecovered])
}

func TestDMWithoutSessionGetsGuidance(t *testing.T) {
	h := newHarness(t)

	h.engine.HandleDirectMessage(context.Background(), directMessage("Hi, my app is broken"))

	assert.Empty(t, h.sink.updates)
	require.Len(t, h.msgr.channelMsgs, 1)
	assert.Contains(t, h.msgr.channelMsgs[0].text, "report-an-issue")
}

func TestClassifierFailureAbortsSilently(t *testing.T) {
	h := newHarness(t)
	h.classifier.err = errors.New("model timeout")

	h.engine.HandleChannelMessage(context.Background(), report("The checkout page crashes every time I pay!"))

	assert.Empty(t, h.sink.created)
	assert.Empty(t, h.msgr.channelMsgs)
	assert.Empty(t, h.msgr.directMsgs)
	assert.Equal(t, int64(1), h.metrics.Snapshot()[observability.MetricClassifierErrors])
}

func TestSinkFailureDoesNotBlockConversation(t *testing.T) {
	h := newHarness(t)
	h.sink.createErr = errors.New("trello unreachable")
	ctx := context.Background()

	h.engine.HandleChannelMessage(ctx, report("The checkout page crashes every time I pay!"))

	// The follow-up DM still goes out even though nothing was tracked.
	require.Len(t, h.msgr.directMsgs, 1)
	assert.True(t, h.engine.sessions.has("user-1"))

	h.engine.HandleDirectMessage(ctx, directMessage("Error 500 on Chrome."))

	assert.Empty(t, h.sink.updates)
	resolved := (*h.published)[len(*h.published)-1].Payload.(events.TicketResolvedPayload)
	assert.False(t, resolved.Tracked)
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	assert.Equal(t, "short report", preview("  short report  ", 80))

	long := strings.Repeat("a", 100)
	assert.Equal(t, strings.Repeat("a", 77)+"...", preview(long, 80))

	// A multi-byte rune straddling the cut must be dropped whole, never
	// split into invalid UTF-8.
	accented := strings.Repeat("a", 76) + "é and the rest of the report"
	got := preview(accented, 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 76)+"...", got)

	emoji := strings.Repeat("🚨", 30)
	got = preview(emoji, 10)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 10)
}

func TestGeneratorFailureFallsBackToDefaults(t *testing.T) {
	h := newHarness(t)
	h.generator.fieldsErr = errors.New("bad json")
	content := strings.Repeat("The whole site is down! ", 10)

	h.engine.HandleChannelMessage(context.Background(), report(content))

	require.Len(t, h.sink.created, 1)
	ticket := h.sink.created[0]
	assert.NotEmpty(t, ticket.Title)
	assert.LessOrEqual(t, len(ticket.Title), 80)
}
