package messenger

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/config"
)

const digestCommand = "!pulse"

// DigestRunner triggers an on-demand digest for one workspace.
type DigestRunner interface {
	RunForWorkspace(ctx context.Context, workspaceID string) error
}

// DiscordAdapter bridges the Discord gateway to the engine. It implements
// Messenger for outbound delivery and routes inbound events to a Handler.
type DiscordAdapter struct {
	session *discordgo.Session
	cfg     config.DiscordConfig
	logger  *zap.Logger
	handler Handler
	digest  DigestRunner
}

// NewDiscordAdapter builds the gateway session without opening it.
func NewDiscordAdapter(cfg config.DiscordConfig, logger *zap.Logger) (*DiscordAdapter, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &DiscordAdapter{
		session: session,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// SetHandler wires the inbound consumer. Must be called before Start.
func (a *DiscordAdapter) SetHandler(h Handler) { a.handler = h }

// SetDigestRunner enables the manual digest command.
func (a *DiscordAdapter) SetDigestRunner(d DigestRunner) { a.digest = d }

// Start registers gateway handlers and opens the connection.
func (a *DiscordAdapter) Start() error {
	a.session.AddHandler(a.onReady)
	a.session.AddHandler(a.onGuildCreate)
	a.session.AddHandler(a.onMessageCreate)
	return a.session.Open()
}

// Close shuts down the gateway connection.
func (a *DiscordAdapter) Close() error {
	return a.session.Close()
}

func (a *DiscordAdapter) onReady(session *discordgo.Session, event *discordgo.Ready) {
	a.logger.Info("discord ready",
		zap.String("user", session.State.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

// onGuildCreate fires for every guild at startup and whenever the bot is
// invited somewhere new; both paths get the report channel provisioned.
func (a *DiscordAdapter) onGuildCreate(session *discordgo.Session, event *discordgo.GuildCreate) {
	if event.Guild == nil || event.Guild.ID == "" {
		return
	}
	if _, err := a.EnsureChannel(context.Background(), event.Guild.ID, a.cfg.ReportChannel, false); err != nil {
		a.logger.Warn("report channel provisioning failed",
			zap.String("guild_id", event.Guild.ID),
			zap.Error(err))
	}
}

func (a *DiscordAdapter) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot || msg.Author.ID == session.State.User.ID {
		return
	}
	if a.handler == nil {
		return
	}

	in := Inbound{
		MessageID:   msg.ID,
		WorkspaceID: msg.GuildID,
		ChannelID:   msg.ChannelID,
		UserID:      msg.Author.ID,
		Username:    msg.Author.Username,
		DisplayName: msg.Author.GlobalName,
		AvatarURL:   msg.Author.AvatarURL(""),
		Content:     msg.Content,
		Direct:      msg.GuildID == "",
	}

	ctx := context.Background()
	if in.Direct {
		a.handler.HandleDirectMessage(ctx, in)
		return
	}

	in.ChannelName = a.channelName(msg.ChannelID)
	if a.digest != nil && strings.EqualFold(strings.TrimSpace(msg.Content), digestCommand) {
		if err := a.digest.RunForWorkspace(ctx, msg.GuildID); err != nil {
			a.logger.Warn("manual digest failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
		}
		return
	}
	a.handler.HandleChannelMessage(ctx, in)
}

func (a *DiscordAdapter) channelName(channelID string) string {
	channel, err := a.session.State.Channel(channelID)
	if err != nil || channel == nil {
		channel, err = a.session.Channel(channelID)
		if err != nil || channel == nil {
			return ""
		}
	}
	return channel.Name
}

// SendToChannel posts a message in the given channel.
func (a *DiscordAdapter) SendToChannel(ctx context.Context, channelID, text string) error {
	_, err := a.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

// SendDirect opens (or reuses) the DM channel with a user and posts there.
// A recipient with DMs closed surfaces as ErrDirectMessagesBlocked.
func (a *DiscordAdapter) SendDirect(ctx context.Context, userID, text string) error {
	channel, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapDMError(err)
	}
	if _, err := a.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return mapDMError(err)
	}
	return nil
}

// EnsureChannel finds a guild text channel by name, case-insensitively,
// creating it when absent. private hides the channel from @everyone.
func (a *DiscordAdapter) EnsureChannel(ctx context.Context, workspaceID, name string, private bool) (string, error) {
	channels, err := a.session.GuildChannels(workspaceID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, channel := range channels {
		if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if strings.EqualFold(channel.Name, name) {
			return channel.ID, nil
		}
	}

	data := discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildText,
	}
	if private {
		// Deny @everyone; guild admins bypass overwrites.
		data.PermissionOverwrites = []*discordgo.PermissionOverwrite{{
			ID:   workspaceID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		}}
	}
	created, err := a.session.GuildChannelCreateComplex(workspaceID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// AddReaction adds an emoji reaction to a message.
func (a *DiscordAdapter) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return a.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// ListWorkspaces returns the IDs of all guilds in the session state.
func (a *DiscordAdapter) ListWorkspaces() []string {
	a.session.State.RLock()
	defer a.session.State.RUnlock()
	ids := make([]string, 0, len(a.session.State.Guilds))
	for _, guild := range a.session.State.Guilds {
		if guild != nil && guild.ID != "" {
			ids = append(ids, guild.ID)
		}
	}
	return ids
}

func mapDMError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		return ErrDirectMessagesBlocked
	}
	return err
}
