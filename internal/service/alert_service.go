package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/events"
	"github.com/project-pulse/pulse/internal/messenger"
)

// AlertService posts admin notifications for domain events.
type AlertService struct {
	dispatcher events.Dispatcher
	msgr       messenger.Messenger
	logger     *zap.Logger
	cfg        config.DiscordConfig
}

// NewAlertService creates the service.
func NewAlertService(dispatcher events.Dispatcher, msgr messenger.Messenger, logger *zap.Logger, cfg config.DiscordConfig) *AlertService {
	return &AlertService{
		dispatcher: dispatcher,
		msgr:       msgr,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AlertService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketOpened, a.handleTicketOpened)
	a.dispatcher.Subscribe(events.EventTicketResolved, a.handleTicketResolved)
}

// handleTicketOpened posts an urgent-issue alert in the admin channel. A
// delivery failure is logged and swallowed; the reporter's flow already
// completed and must not be disturbed.
func (a *AlertService) handleTicketOpened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOpenedPayload)
	if !ok {
		return nil
	}

	channelID, err := a.msgr.EnsureChannel(ctx, event.WorkspaceID, a.cfg.AdminChannel, true)
	if err != nil {
		a.logger.Warn("admin channel unavailable",
			zap.String("workspace_id", event.WorkspaceID),
			zap.Error(err))
		return err
	}

	alert := fmt.Sprintf(
		"🚨 **Urgent issue detected** (score %d/10)\n**Reporter:** %s\n**Reason:** %s\n**Message:** %s",
		payload.UrgencyScore, payload.Username, payload.Reason, payload.Content)
	if payload.TicketID != "" {
		alert += fmt.Sprintf("\n**Ticket:** %s", payload.TicketID)
	}

	if err := a.msgr.SendToChannel(ctx, channelID, alert); err != nil {
		a.logger.Warn("admin alert delivery failed",
			zap.String("workspace_id", event.WorkspaceID),
			zap.Error(err))
		return err
	}
	return nil
}

func (a *AlertService) handleTicketResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return nil
	}
	a.logger.Info("ticket resolved",
		zap.String("ticket_id", payload.TicketID),
		zap.String("workspace_id", event.WorkspaceID),
		zap.Bool("tracked", payload.Tracked))
	return nil
}
