package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/usecase"
	"github.com/DevRickLin/telegram-relay-bridge/internal/infra/telegram"
	"github.com/DevRickLin/telegram-relay-bridge/internal/metrics"
	"github.com/DevRickLin/telegram-relay-bridge/internal/platform/logging"
)

const seenTTL = 5 * time.Minute

// UpdateSource delivers incoming Telegram messages one at a time
type UpdateSource interface {
	OnMessage(handler telegram.MessageHandler)
	Start(ctx context.Context) error
	Stop()
	Username() string
}

// TelegramServer handles Telegram message processing
type TelegramServer struct {
	client UpdateSource
	router *usecase.RouterUsecase
	clock  clockwork.Clock
	logger *slog.Logger

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // chatID:msgID -> timestamp
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(
	client UpdateSource,
	router *usecase.RouterUsecase,
	clock clockwork.Clock,
	logger *slog.Logger,
) *TelegramServer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramServer{
		client:   client,
		router:   router,
		clock:    clock,
		logger:   logger.With("component", "server"),
		seenMsgs: make(map[string]time.Time),
	}
}

// Start registers the handler and blocks while polling for updates
func (s *TelegramServer) Start(ctx context.Context) error {
	s.client.OnMessage(s.handleMessage)
	return s.client.Start(ctx)
}

// Stop stops the server
func (s *TelegramServer) Stop() {
	s.client.Stop()
}

// handleMessage handles one Telegram message
func (s *TelegramServer) handleMessage(ctx context.Context, msg *telegram.Message) {
	ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())

	s.logger.DebugContext(ctx, "received message",
		"chat_id", msg.ChatID, "chat_type", msg.ChatType, "message_id", msg.MsgID,
		"type", msg.MsgType, "text", truncate(msg.Text, 50))

	// Message deduplication: check if already processed
	key := fmt.Sprintf("%d:%d", msg.ChatID, msg.MsgID)
	if s.isMessageSeen(key) {
		metrics.DroppedTotal.WithLabelValues("duplicate").Inc()
		s.logger.DebugContext(ctx, "duplicate message ignored", "key", key)
		return
	}
	s.markMessageSeen(key)

	err := s.dispatch(ctx, msg)
	if err == nil || usecase.IsExpected(err) {
		return
	}
	s.logger.ErrorContext(ctx, "handle message failed",
		"chat_id", msg.ChatID, "message_id", msg.MsgID, "error", err)
}

// dispatch routes built-in commands first, then channel-select commands, and
// relays everything else
func (s *TelegramServer) dispatch(ctx context.Context, msg *telegram.Message) error {
	if msg.MsgType == telegram.MsgTypeText {
		if cmd, ok := domain.ParseCommand(msg.Text); ok && s.addressedToUs(cmd) {
			switch cmd.Name {
			case domain.CommandStart:
				return s.router.OnStart(ctx, msg.ChatID)
			case domain.CommandAdd:
				return s.router.OnAddChannel(ctx, msg.ChatID, msg.SenderID, cmd.ArgText())
			case domain.CommandID:
				return s.router.OnSendYourID(ctx, msg.ChatID)
			}
			if _, ok := s.router.Settings().Channel(cmd.Name); ok {
				return s.router.OnSetChannel(ctx, msg.ChatID, msg.Text)
			}
		}
	}

	contentType := toContentType(msg.MsgType)
	if !contentType.IsRelayable() {
		metrics.DroppedTotal.WithLabelValues("unsupported_content").Inc()
		s.logger.DebugContext(ctx, "unsupported content ignored", "chat_id", msg.ChatID, "type", msg.MsgType)
		return nil
	}

	return s.router.OnMessageExchange(ctx, &domain.Message{
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		MessageID:   msg.MsgID,
		ReplyToID:   msg.ReplyToID,
		Text:        msg.Text,
		ContentType: contentType,
	})
}

// addressedToUs reports whether the command carries no @bot suffix or ours
func (s *TelegramServer) addressedToUs(cmd domain.Command) bool {
	if cmd.Bot == "" {
		return true
	}
	username := s.client.Username()
	return username == "" || strings.EqualFold(cmd.Bot, username)
}

func toContentType(msgType string) domain.ContentType {
	switch msgType {
	case telegram.MsgTypeText:
		return domain.ContentText
	case telegram.MsgTypeAnimation:
		return domain.ContentAnimation
	case telegram.MsgTypeDocument:
		return domain.ContentDocument
	case telegram.MsgTypeAudio:
		return domain.ContentAudio
	case telegram.MsgTypePhoto:
		return domain.ContentPhoto
	default:
		return domain.ContentOther
	}
}

// truncate keeps the first n runes of s
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// isMessageSeen checks if a message has been processed
func (s *TelegramServer) isMessageSeen(key string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	ts, exists := s.seenMsgs[key]
	return exists && s.clock.Since(ts) < seenTTL
}

// markMessageSeen marks a message as processed
func (s *TelegramServer) markMessageSeen(key string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	now := s.clock.Now()
	s.seenMsgs[key] = now

	// Clean up expired message records when marking new messages
	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
