package ports

import (
	"context"
)

// SendMessageParams holds the options for an outgoing chat message.
type SendMessageParams struct {
	ChatID              int64
	Text                string
	ParseMode           string // e.g., "MarkdownV2" or "HTML"; empty for plain text
	DisableNotification bool
}

// BotClientPort sends messages to a chat.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
