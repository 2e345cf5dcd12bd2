package data

import (
	"context"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/infra/telegram"
)

// telegramClient is the subset of the Telegram client used by the transport
type telegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)
}

var _ telegramClient = (*telegram.Client)(nil)

// telegramRepo implements the Telegram transport
type telegramRepo struct {
	client telegramClient
}

// NewTelegramRepo creates a new Telegram transport
func NewTelegramRepo(client *telegram.Client) repo.Transport {
	return &telegramRepo{client: client}
}

// SendMessage sends a text message
func (r *telegramRepo) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	return r.client.SendMessage(ctx, chatID, text, parseMode)
}

// CopyMessage copies a message between chats
func (r *telegramRepo) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	return r.client.CopyMessage(ctx, toChatID, fromChatID, messageID)
}
