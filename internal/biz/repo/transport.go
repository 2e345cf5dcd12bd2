package repo

import "context"

// Transport is the chat transport interface
// Responsible for delivering messages through the Telegram Bot API
type Transport interface {
	// SendMessage sends a text message
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error

	// CopyMessage copies messageID from fromChatID into toChatID and returns
	// the ID of the copy (0 if the transport cannot tell)
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)
}
