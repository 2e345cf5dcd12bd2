package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/metrics"
)

var (
	ErrNoDefaultChannel = errors.New("no default channel configured")
	ErrChannelNotFound  = errors.New("channel not registered")
	ErrUnauthorized     = errors.New("not authorized")
	ErrNotPrivateChat   = errors.New("not a private chat")
	ErrNotGroupChat     = errors.New("not a group chat")
	ErrNotReply         = errors.New("message is not a reply")
	ErrTraceNotFound    = errors.New("no trace for replied message")
	ErrEmptyChannelName = errors.New("empty channel name")
)

// IsExpected reports whether err is one of the silent negative outcomes
// of a routing operation, as opposed to a transport or storage failure.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrNoDefaultChannel,
		ErrChannelNotFound,
		ErrUnauthorized,
		ErrNotPrivateChat,
		ErrNotGroupChat,
		ErrNotReply,
		ErrTraceNotFound,
		ErrEmptyChannelName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TraceMode selects how the channel-side message ID of a relayed copy is learned
type TraceMode string

const (
	// TraceModeReturned records the ID returned by the copy call
	TraceModeReturned TraceMode = "returned"
	// TraceModePredicted records messageID+1 before copying
	TraceModePredicted TraceMode = "predicted"
)

// RouterConfig holds the routing parameters
type RouterConfig struct {
	DefaultChannel int64 // 0 means unset
	AdminID        int64
	StartMessage   string
	ParseMode      string
	TraceMode      TraceMode
}

// RouterUsecase implements the relay decisions between private chats and channels
type RouterUsecase struct {
	settings  *domain.Settings
	transport repo.Transport
	config    RouterConfig
	logger    *slog.Logger
}

// NewRouterUsecase creates a new router usecase
func NewRouterUsecase(
	settings *domain.Settings,
	transport repo.Transport,
	config RouterConfig,
	logger *slog.Logger,
) *RouterUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TraceMode == "" {
		config.TraceMode = TraceModeReturned
	}
	return &RouterUsecase{
		settings:  settings,
		transport: transport,
		config:    config,
		logger:    logger.With("component", "router"),
	}
}

// Settings returns the settings the router operates on
func (uc *RouterUsecase) Settings() *domain.Settings {
	return uc.settings
}

// ResolveDestination returns the channel a user's messages are relayed to
func (uc *RouterUsecase) ResolveDestination(userID int64) (int64, error) {
	if id, ok := uc.settings.UserChannel(userID); ok {
		return id, nil
	}
	if uc.config.DefaultChannel == 0 {
		return 0, ErrNoDefaultChannel
	}
	return uc.config.DefaultChannel, nil
}

// OnStart resets the user to the default channel and sends the greeting
func (uc *RouterUsecase) OnStart(ctx context.Context, userID int64) error {
	metrics.CommandsTotal.WithLabelValues("start").Inc()

	if uc.config.DefaultChannel != 0 {
		uc.settings.SetUserChannel(userID, uc.config.DefaultChannel)
	} else {
		uc.settings.ClearUserChannel(userID)
		uc.logger.WarnContext(ctx, "default channel not set, user left unassigned", "user_id", userID)
	}

	if err := uc.transport.SendMessage(ctx, userID, uc.config.StartMessage, uc.config.ParseMode); err != nil {
		return fmt.Errorf("send greeting: %w", err)
	}
	return nil
}

// OnAddChannel registers the invoking chat under name. Only the admin may do
// this, and only from inside a group or channel.
func (uc *RouterUsecase) OnAddChannel(ctx context.Context, chatID, userID int64, name string) error {
	metrics.CommandsTotal.WithLabelValues("add").Inc()

	if !domain.IsGroupChat(chatID) {
		uc.logger.DebugContext(ctx, "add channel ignored outside group", "chat_id", chatID, "user_id", userID)
		return ErrNotGroupChat
	}
	if userID != uc.config.AdminID {
		uc.logger.DebugContext(ctx, "add channel ignored for non-admin", "chat_id", chatID, "user_id", userID)
		return ErrUnauthorized
	}
	if name == "" {
		uc.logger.DebugContext(ctx, "add channel ignored without name", "chat_id", chatID)
		return ErrEmptyChannelName
	}

	if err := uc.settings.AddChannel(name, chatID); err != nil {
		return fmt.Errorf("add channel: %w", err)
	}
	if domain.IsBuiltinCommand(name) {
		uc.logger.WarnContext(ctx, "channel name shadowed by built-in command", "name", name, "chat_id", chatID)
	}
	uc.logger.InfoContext(ctx, "channel added", "name", name, "chat_id", chatID)

	text := fmt.Sprintf("This chat (id: %d) has been added to settings as \"%s\".", chatID, name)
	if err := uc.transport.SendMessage(ctx, chatID, text, ""); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

// OnSetChannel points a user at the channel named by the command text
func (uc *RouterUsecase) OnSetChannel(ctx context.Context, chatID int64, text string) error {
	metrics.CommandsTotal.WithLabelValues("set_channel").Inc()

	if !domain.IsPrivateChat(chatID) {
		uc.logger.DebugContext(ctx, "set channel ignored outside private chat", "chat_id", chatID)
		return ErrNotPrivateChat
	}

	name := domain.ChannelNameFromCommand(text)
	channelID, ok := uc.settings.Channel(name)
	if !ok {
		uc.logger.DebugContext(ctx, "set channel for unknown name", "chat_id", chatID, "name", name)
		return fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}

	uc.settings.SetUserChannel(chatID, channelID)
	uc.logger.DebugContext(ctx, "user channel set", "user_id", chatID, "channel_id", channelID, "name", name)
	return nil
}

// OnSendYourID replies with the chat's own ID in private chats
func (uc *RouterUsecase) OnSendYourID(ctx context.Context, chatID int64) error {
	metrics.CommandsTotal.WithLabelValues("id").Inc()

	if !domain.IsPrivateChat(chatID) {
		return ErrNotPrivateChat
	}
	text := fmt.Sprintf("Your ID: `%d`.", chatID)
	if err := uc.transport.SendMessage(ctx, chatID, text, "Markdown"); err != nil {
		return fmt.Errorf("send id: %w", err)
	}
	return nil
}

// OnMessageExchange relays a private message into its channel, or a channel
// reply back to the private chat the replied message came from.
func (uc *RouterUsecase) OnMessageExchange(ctx context.Context, msg *domain.Message) error {
	switch domain.ChatTypeOf(msg.ChatID) {
	case domain.ChatTypePrivate:
		return uc.relayToChannel(ctx, msg)
	case domain.ChatTypeGroup:
		return uc.relayReply(ctx, msg)
	}
	return nil
}

func (uc *RouterUsecase) relayToChannel(ctx context.Context, msg *domain.Message) error {
	predicted := msg.MessageID + 1
	if uc.config.TraceMode == TraceModePredicted {
		uc.settings.Trace(predicted, msg.ChatID)
	}

	dest, err := uc.ResolveDestination(msg.ChatID)
	if err != nil {
		metrics.DroppedTotal.WithLabelValues("no_default_channel").Inc()
		uc.logger.WarnContext(ctx, "please set the default channel", "chat_id", msg.ChatID)
		return err
	}

	copyID, err := uc.transport.CopyMessage(ctx, dest, msg.ChatID, msg.MessageID)
	if err != nil {
		metrics.RelayedTotal.WithLabelValues("to_channel", "error").Inc()
		return fmt.Errorf("copy to channel %d: %w", dest, err)
	}
	metrics.RelayedTotal.WithLabelValues("to_channel", "ok").Inc()

	if uc.config.TraceMode == TraceModeReturned {
		if copyID == 0 {
			copyID = predicted
		}
		uc.settings.Trace(copyID, msg.ChatID)
	}

	uc.logger.DebugContext(ctx, "message relayed to channel",
		"from", msg.ChatID, "to", dest, "message_id", msg.MessageID, "copy_id", copyID)
	return nil
}

func (uc *RouterUsecase) relayReply(ctx context.Context, msg *domain.Message) error {
	if !msg.IsReply() {
		metrics.DroppedTotal.WithLabelValues("not_reply").Inc()
		uc.logger.DebugContext(ctx, "nobody replied", "chat_id", msg.ChatID, "message_id", msg.MessageID)
		return ErrNotReply
	}

	origin, ok := uc.settings.Origin(msg.ReplyToID)
	if !ok {
		metrics.DroppedTotal.WithLabelValues("trace_not_found").Inc()
		uc.logger.DebugContext(ctx, "reply to untraced message", "chat_id", msg.ChatID, "reply_to", msg.ReplyToID)
		return ErrTraceNotFound
	}

	if _, err := uc.transport.CopyMessage(ctx, origin, msg.ChatID, msg.MessageID); err != nil {
		metrics.RelayedTotal.WithLabelValues("to_private", "error").Inc()
		return fmt.Errorf("copy reply to %d: %w", origin, err)
	}
	metrics.RelayedTotal.WithLabelValues("to_private", "ok").Inc()

	uc.logger.DebugContext(ctx, "reply relayed to private chat",
		"from", msg.ChatID, "to", origin, "message_id", msg.MessageID, "reply_to", msg.ReplyToID)
	return nil
}
