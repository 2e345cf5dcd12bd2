package domain

// ChatType represents the chat type, derived from the sign of the chat ID
type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
	ChatTypeUnknown ChatType = ""
)

// ChatTypeOf classifies a chat ID. Private chats are positive, groups and
// channels are negative.
func ChatTypeOf(chatID int64) ChatType {
	switch {
	case chatID > 0:
		return ChatTypePrivate
	case chatID < 0:
		return ChatTypeGroup
	default:
		return ChatTypeUnknown
	}
}

// IsPrivateChat reports whether chatID is a one-to-one chat with the bot
func IsPrivateChat(chatID int64) bool {
	return chatID > 0
}

// IsGroupChat reports whether chatID is a group or channel
func IsGroupChat(chatID int64) bool {
	return chatID < 0
}

// ContentType is the kind of payload carried by a message
type ContentType string

const (
	ContentText      ContentType = "text"
	ContentAnimation ContentType = "animation"
	ContentDocument  ContentType = "document"
	ContentAudio     ContentType = "audio"
	ContentPhoto     ContentType = "photo"
	ContentOther     ContentType = "other"
)

// IsRelayable reports whether messages of this type are copied between chats
func (c ContentType) IsRelayable() bool {
	switch c {
	case ContentText, ContentAnimation, ContentDocument, ContentAudio, ContentPhoto:
		return true
	}
	return false
}

// Message is an incoming message as seen by the router
type Message struct {
	ChatID      int64
	SenderID    int64 // 0 for anonymous channel posts
	MessageID   int
	ReplyToID   int // 0 when the message is not a reply
	Text        string
	ContentType ContentType
}

// IsReply checks if the message replies to another message
func (m *Message) IsReply() bool {
	return m.ReplyToID != 0
}
