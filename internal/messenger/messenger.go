package messenger

import (
	"context"
	"errors"
)

// ErrDirectMessagesBlocked signals that the recipient does not accept
// direct messages; callers fall back to a public reply.
var ErrDirectMessagesBlocked = errors.New("recipient blocks direct messages")

// Messenger abstracts chat-platform delivery primitives.
type Messenger interface {
	SendToChannel(ctx context.Context, channelID, text string) error
	// SendDirect delivers a DM, returning ErrDirectMessagesBlocked when the
	// recipient cannot be reached that way.
	SendDirect(ctx context.Context, userID, text string) error
	// EnsureChannel finds a text channel by name (case-insensitive) in the
	// workspace, creating it when absent. private restricts visibility to
	// the bot and workspace admins.
	EnsureChannel(ctx context.Context, workspaceID, name string, private bool) (string, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
}

// Inbound is a platform message normalized for the engine.
type Inbound struct {
	MessageID   string
	WorkspaceID string
	ChannelID   string
	ChannelName string
	UserID      string
	Username    string
	DisplayName string
	AvatarURL   string
	Content     string
	FromBot     bool
	Direct      bool
}

// Handler consumes normalized inbound messages. Implemented by the
// urgency engine; the gateway adapter routes events into it.
type Handler interface {
	HandleChannelMessage(ctx context.Context, in Inbound)
	HandleDirectMessage(ctx context.Context, in Inbound)
}
