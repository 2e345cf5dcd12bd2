package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Message types carried by Message.MsgType
const (
	MsgTypeText      = "text"
	MsgTypeAnimation = "animation"
	MsgTypeDocument  = "document"
	MsgTypeAudio     = "audio"
	MsgTypePhoto     = "photo"
	MsgTypeOther     = "other"
)

// Message represents a received Telegram message or channel post
type Message struct {
	UpdateID  int
	ChatID    int64
	ChatType  string // private, group, supergroup, channel
	SenderID  int64  // 0 when the sender is hidden (channel posts)
	MsgID     int
	ReplyToID int    // 0 when not a reply
	MsgType   string // text, animation, document, audio, photo, other
	Text      string // text or caption
}

// MessageHandler is the callback for received messages
type MessageHandler func(ctx context.Context, msg *Message)

// Client is the Telegram Bot API client
type Client struct {
	bot       *telego.Bot
	onMessage MessageHandler
	logger    *slog.Logger
	username  string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient creates a new Telegram client. No request is made until Start.
func NewClient(token string, debug bool, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telegram")

	bot, err := telego.NewBot(token, telego.WithLogger(&botLogger{
		logger: logger,
		debug:  debug,
		token:  token,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Client{
		bot:    bot,
		logger: logger,
	}, nil
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Username returns the bot username learned at Start
func (c *Client) Username() string {
	return c.username
}

// Start long-polls for updates and calls the handler for each message, one at
// a time. It blocks until Stop is called or ctx is done.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer close(done)

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()
	defer cancel()

	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	c.username = me.Username
	c.logger.Info("authorized", "username", me.Username, "bot_id", me.ID)

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message", "channel_post"},
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	for update := range updates {
		msg, ok := ConvertUpdate(update)
		if !ok || c.onMessage == nil {
			continue
		}
		c.onMessage(ctx, msg)
	}
	return nil
}

// Stop stops polling and waits for the in-flight update to finish
func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SendMessage sends a text message
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    tu.ID(chatID),
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// CopyMessage copies a message of any type and returns the ID of the copy
func (c *Client) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	copied, err := c.bot.CopyMessage(ctx, &telego.CopyMessageParams{
		ChatID:     tu.ID(toChatID),
		FromChatID: tu.ID(fromChatID),
		MessageID:  messageID,
	})
	if err != nil {
		return 0, fmt.Errorf("copy message %d from %d to %d: %w", messageID, fromChatID, toChatID, err)
	}
	if copied == nil {
		return 0, nil
	}
	return copied.MessageID, nil
}

// ConvertUpdate extracts the message or channel post carried by an update
func ConvertUpdate(update telego.Update) (*Message, bool) {
	m := update.Message
	if m == nil {
		m = update.ChannelPost
	}
	if m == nil {
		return nil, false
	}

	msg := &Message{
		UpdateID: update.UpdateID,
		ChatID:   m.Chat.ID,
		ChatType: m.Chat.Type,
		MsgID:    m.MessageID,
		MsgType:  messageType(m),
		Text:     m.Text,
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
	}
	if m.ReplyToMessage != nil {
		msg.ReplyToID = m.ReplyToMessage.MessageID
	}
	return msg, true
}

func messageType(m *telego.Message) string {
	switch {
	case m.Animation != nil:
		// animations also carry a document
		return MsgTypeAnimation
	case m.Document != nil:
		return MsgTypeDocument
	case m.Audio != nil:
		return MsgTypeAudio
	case len(m.Photo) > 0:
		return MsgTypePhoto
	case m.Text != "":
		return MsgTypeText
	default:
		return MsgTypeOther
	}
}

// botLogger routes telego logs through slog with the token masked
type botLogger struct {
	logger *slog.Logger
	debug  bool
	token  string
}

func (l *botLogger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.logger.Debug(l.mask(fmt.Sprintf(format, args...)))
}

func (l *botLogger) Errorf(format string, args ...any) {
	l.logger.Error(l.mask(fmt.Sprintf(format, args...)))
}

func (l *botLogger) mask(s string) string {
	if l.token == "" {
		return s
	}
	return strings.ReplaceAll(s, l.token, "BOT_TOKEN")
}
