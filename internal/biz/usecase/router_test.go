package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
)

// Mock implementations

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type copiedMessage struct {
	To        int64
	From      int64
	MessageID int
}

// mockTransport allocates copy IDs sequentially per destination chat,
// starting at the ID given in nextID (or messageID+1 if unset).
type mockTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	copies  []copiedMessage
	nextID  map[int64]int
	copyErr error
	sendErr error
}

func (m *mockTransport) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, ParseMode: parseMode})
	return nil
}

func (m *mockTransport) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return 0, m.copyErr
	}
	m.copies = append(m.copies, copiedMessage{To: toChatID, From: fromChatID, MessageID: messageID})

	if m.nextID == nil {
		return messageID + 1, nil
	}
	id := m.nextID[toChatID]
	m.nextID[toChatID] = id + 1
	return id, nil
}

// recordHandler keeps every log record for assertions
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) has(level slog.Level, msg string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Level == level && r.Message == msg {
			return true
		}
	}
	return false
}

const (
	adminID        = int64(1000)
	defaultChannel = int64(-500)
)

func newTestRouter(t *testing.T, mode TraceMode) (*RouterUsecase, *mockTransport, *recordHandler) {
	t.Helper()
	transport := &mockTransport{}
	logs := &recordHandler{}
	uc := NewRouterUsecase(domain.NewSettings(nil, 0), transport, RouterConfig{
		DefaultChannel: defaultChannel,
		AdminID:        adminID,
		StartMessage:   "hello",
		ParseMode:      "HTML",
		TraceMode:      mode,
	}, slog.New(logs))
	return uc, transport, logs
}

// Tests

func TestResolveDestination_DefaultForUnknownUser(t *testing.T) {
	uc, _, _ := newTestRouter(t, TraceModeReturned)

	for _, user := range []int64{1, 2, 99999} {
		dest, err := uc.ResolveDestination(user)
		require.NoError(t, err)
		assert.Equal(t, defaultChannel, dest)
	}
}

func TestResolveDestination_NoDefault(t *testing.T) {
	uc := NewRouterUsecase(domain.NewSettings(nil, 0), &mockTransport{}, RouterConfig{}, nil)

	_, err := uc.ResolveDestination(1)
	assert.ErrorIs(t, err, ErrNoDefaultChannel)

	uc.Settings().SetUserChannel(1, -7)
	dest, err := uc.ResolveDestination(1)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), dest)
}

func TestOnStart_ResetsToDefault(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	uc.Settings().SetUserChannel(42, -9)

	require.NoError(t, uc.OnStart(context.Background(), 42))

	dest, err := uc.ResolveDestination(42)
	require.NoError(t, err)
	assert.Equal(t, defaultChannel, dest)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, sentMessage{ChatID: 42, Text: "hello", ParseMode: "HTML"}, transport.sent[0])
}

func TestOnStart_Idempotent(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)

	require.NoError(t, uc.OnStart(context.Background(), 42))
	require.NoError(t, uc.OnStart(context.Background(), 42))

	id, ok := uc.Settings().UserChannel(42)
	require.True(t, ok)
	assert.Equal(t, defaultChannel, id)
	assert.Len(t, transport.sent, 2)
}

func TestOnStart_WithoutDefaultChannel(t *testing.T) {
	logs := &recordHandler{}
	transport := &mockTransport{}
	uc := NewRouterUsecase(domain.NewSettings(nil, 0), transport, RouterConfig{StartMessage: "hi"}, slog.New(logs))
	uc.Settings().SetUserChannel(42, -9)

	require.NoError(t, uc.OnStart(context.Background(), 42))

	_, ok := uc.Settings().UserChannel(42)
	assert.False(t, ok)
	assert.True(t, logs.has(slog.LevelWarn, "default channel not set, user left unassigned"))
	assert.Len(t, transport.sent, 1)
}

func TestOnStart_SendError(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	transport.sendErr = errors.New("network down")

	err := uc.OnStart(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, IsExpected(err))

	id, ok := uc.Settings().UserChannel(42)
	require.True(t, ok, "mapping is set before the greeting is sent")
	assert.Equal(t, defaultChannel, id)
}

func TestOnAddChannel_Admin(t *testing.T) {
	uc, transport, logs := newTestRouter(t, TraceModeReturned)

	require.NoError(t, uc.OnAddChannel(context.Background(), -100, adminID, "news"))

	id, ok := uc.Settings().Channel("news")
	require.True(t, ok)
	assert.Equal(t, int64(-100), id)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, int64(-100), transport.sent[0].ChatID)
	assert.Equal(t, `This chat (id: -100) has been added to settings as "news".`, transport.sent[0].Text)
	assert.True(t, logs.has(slog.LevelInfo, "channel added"))
}

func TestOnAddChannel_ConfirmationKeepsNameVerbatim(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)

	require.NoError(t, uc.OnAddChannel(context.Background(), -100, adminID, `a"b café`))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, `This chat (id: -100) has been added to settings as "a"b café".`, transport.sent[0].Text)
}

func TestOnSetChannel_IgnoresCase(t *testing.T) {
	uc, _, _ := newTestRouter(t, TraceModeReturned)
	require.NoError(t, uc.Settings().AddChannel("News", -42))

	require.NoError(t, uc.OnSetChannel(context.Background(), 7, "/NEWS"))

	dest, err := uc.ResolveDestination(7)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), dest)
}

func TestOnAddChannel_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		chatID  int64
		userID  int64
		channel string
		wantErr error
	}{
		{"private chat", 100, adminID, "news", ErrNotGroupChat},
		{"non-admin", -100, 7, "news", ErrUnauthorized},
		{"anonymous channel post", -100, 0, "news", ErrUnauthorized},
		{"empty name", -100, adminID, "", ErrEmptyChannelName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, transport, _ := newTestRouter(t, TraceModeReturned)
			require.NoError(t, uc.Settings().AddChannel("existing", -1))
			before := uc.Settings().Snapshot()

			err := uc.OnAddChannel(context.Background(), tt.chatID, tt.userID, tt.channel)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsExpected(err))

			assert.Equal(t, before.Channels, uc.Settings().Snapshot().Channels)
			assert.Empty(t, transport.sent)
		})
	}
}

func TestOnAddChannel_BuiltinNameWarns(t *testing.T) {
	uc, _, logs := newTestRouter(t, TraceModeReturned)

	require.NoError(t, uc.OnAddChannel(context.Background(), -100, adminID, "start"))

	_, ok := uc.Settings().Channel("start")
	assert.True(t, ok)
	assert.True(t, logs.has(slog.LevelWarn, "channel name shadowed by built-in command"))
}

func TestOnSetChannel(t *testing.T) {
	uc, _, _ := newTestRouter(t, TraceModeReturned)
	require.NoError(t, uc.Settings().AddChannel("news", -42))

	require.NoError(t, uc.OnSetChannel(context.Background(), 7, "/news"))

	dest, err := uc.ResolveDestination(7)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), dest)
}

func TestOnSetChannel_UnknownNameKeepsState(t *testing.T) {
	uc, _, logs := newTestRouter(t, TraceModeReturned)
	require.NoError(t, uc.Settings().AddChannel("news", -42))
	uc.Settings().SetUserChannel(7, -42)
	before := uc.Settings().Snapshot()

	err := uc.OnSetChannel(context.Background(), 7, "/sports")
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.True(t, IsExpected(err))

	assert.Equal(t, before, uc.Settings().Snapshot())
	assert.True(t, logs.has(slog.LevelDebug, "set channel for unknown name"))
}

func TestOnSetChannel_GroupIgnored(t *testing.T) {
	uc, _, _ := newTestRouter(t, TraceModeReturned)
	require.NoError(t, uc.Settings().AddChannel("news", -42))

	err := uc.OnSetChannel(context.Background(), -7, "/news")
	assert.ErrorIs(t, err, ErrNotPrivateChat)

	_, ok := uc.Settings().UserChannel(-7)
	assert.False(t, ok)
}

func TestOnSendYourID(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)

	require.NoError(t, uc.OnSendYourID(context.Background(), 321))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sentMessage{ChatID: 321, Text: "Your ID: `321`.", ParseMode: "Markdown"}, transport.sent[0])

	assert.ErrorIs(t, uc.OnSendYourID(context.Background(), -321), ErrNotPrivateChat)
	assert.Len(t, transport.sent, 1)
}

func TestOnMessageExchange_PrivateToChannel(t *testing.T) {
	for _, mode := range []TraceMode{TraceModeReturned, TraceModePredicted} {
		t.Run(string(mode), func(t *testing.T) {
			uc, transport, _ := newTestRouter(t, mode)

			msg := &domain.Message{ChatID: 7, MessageID: 10, ContentType: domain.ContentText}
			require.NoError(t, uc.OnMessageExchange(context.Background(), msg))

			require.Len(t, transport.copies, 1)
			assert.Equal(t, copiedMessage{To: defaultChannel, From: 7, MessageID: 10}, transport.copies[0])

			origin, ok := uc.Settings().Origin(11)
			require.True(t, ok)
			assert.Equal(t, int64(7), origin)
		})
	}
}

func TestOnMessageExchange_UsesUserChannel(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	uc.Settings().SetUserChannel(7, -42)

	require.NoError(t, uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: 7, MessageID: 3}))

	require.Len(t, transport.copies, 1)
	assert.Equal(t, int64(-42), transport.copies[0].To)
}

func TestOnMessageExchange_RoundTrip(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	ctx := context.Background()

	// private -> channel
	require.NoError(t, uc.OnMessageExchange(ctx, &domain.Message{ChatID: 7, MessageID: 20}))
	// reply in channel to the copy (id 21) -> private
	require.NoError(t, uc.OnMessageExchange(ctx, &domain.Message{ChatID: defaultChannel, MessageID: 22, ReplyToID: 21}))

	require.Len(t, transport.copies, 2)
	assert.Equal(t, copiedMessage{To: 7, From: defaultChannel, MessageID: 22}, transport.copies[1])
}

func TestOnMessageExchange_ReturnedIDBeatsPrediction(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	transport.nextID = map[int64]int{defaultChannel: 900}
	ctx := context.Background()

	require.NoError(t, uc.OnMessageExchange(ctx, &domain.Message{ChatID: 7, MessageID: 20}))
	require.NoError(t, uc.OnMessageExchange(ctx, &domain.Message{ChatID: 8, MessageID: 20}))

	origin, ok := uc.Settings().Origin(900)
	require.True(t, ok)
	assert.Equal(t, int64(7), origin)
	origin, ok = uc.Settings().Origin(901)
	require.True(t, ok)
	assert.Equal(t, int64(8), origin)

	_, ok = uc.Settings().Origin(21)
	assert.False(t, ok, "predicted id must not be traced when the copy id is known")
}

func TestOnMessageExchange_ReturnedZeroFallsBackToPrediction(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	transport.nextID = map[int64]int{defaultChannel: 0}
	// first copy returns 0, meaning the transport could not tell
	require.NoError(t, uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: 7, MessageID: 20}))

	origin, ok := uc.Settings().Origin(21)
	require.True(t, ok)
	assert.Equal(t, int64(7), origin)
}

func TestOnMessageExchange_NoDefaultChannel(t *testing.T) {
	for _, tt := range []struct {
		mode      TraceMode
		wantTrace bool
	}{
		{TraceModeReturned, false},
		{TraceModePredicted, true},
	} {
		t.Run(string(tt.mode), func(t *testing.T) {
			logs := &recordHandler{}
			transport := &mockTransport{}
			uc := NewRouterUsecase(domain.NewSettings(nil, 0), transport, RouterConfig{TraceMode: tt.mode}, slog.New(logs))

			err := uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: 7, MessageID: 1})
			assert.ErrorIs(t, err, ErrNoDefaultChannel)
			assert.True(t, IsExpected(err))
			assert.Empty(t, transport.copies)
			assert.True(t, logs.has(slog.LevelWarn, "please set the default channel"))

			_, ok := uc.Settings().Origin(2)
			assert.Equal(t, tt.wantTrace, ok)
		})
	}
}

func TestOnMessageExchange_CopyError(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)
	transport.copyErr = errors.New("forbidden")

	err := uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: 7, MessageID: 1})
	require.Error(t, err)
	assert.False(t, IsExpected(err))

	_, _, messages := uc.Settings().Counts()
	assert.Zero(t, messages)
}

func TestOnMessageExchange_GroupNotReply(t *testing.T) {
	uc, transport, logs := newTestRouter(t, TraceModeReturned)

	err := uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: -500, MessageID: 5})
	assert.ErrorIs(t, err, ErrNotReply)
	assert.Empty(t, transport.copies)
	assert.True(t, logs.has(slog.LevelDebug, "nobody replied"))
}

func TestOnMessageExchange_ReplyToUntraced(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)

	err := uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: -500, MessageID: 5, ReplyToID: 4})
	assert.ErrorIs(t, err, ErrTraceNotFound)
	assert.True(t, IsExpected(err))
	assert.Empty(t, transport.copies)
}

func TestOnMessageExchange_ZeroChat(t *testing.T) {
	uc, transport, _ := newTestRouter(t, TraceModeReturned)

	assert.NoError(t, uc.OnMessageExchange(context.Background(), &domain.Message{ChatID: 0, MessageID: 5}))
	assert.Empty(t, transport.copies)
}

func TestIsExpected(t *testing.T) {
	assert.True(t, IsExpected(ErrTraceNotFound))
	assert.False(t, IsExpected(errors.New("boom")))
	assert.False(t, IsExpected(nil))
}
