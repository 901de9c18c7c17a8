package telegram

import (
	"StickyBus/internal/core/ports"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// markdownV2Special lists the characters Telegram requires escaping in MarkdownV2.
const markdownV2Special = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 escapes text for use in a MarkdownV2 message.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Builder helps construct SendMessageParams.
type Builder struct {
	params ports.SendMessageParams
}

// NewBuilder creates a new message builder. Messages are plain text
// unless a parse mode is set.
func NewBuilder(chatID int64) *Builder {
	return &Builder{params: ports.SendMessageParams{ChatID: chatID}}
}

// WithText sets the message text.
func (b *Builder) WithText(text string) *Builder {
	b.params.Text = text
	return b
}

// WithMarkdown sets the text in MarkdownV2 mode. A bold title is escaped
// and placed above the escaped body.
func (b *Builder) WithMarkdown(title, body string) *Builder {
	b.params.ParseMode = tgbotapi.ModeMarkdownV2
	b.params.Text = "*" + EscapeMarkdownV2(title) + "*\n" + EscapeMarkdownV2(body)
	return b
}

// Silent delivers the message without a notification sound.
func (b *Builder) Silent(silent bool) *Builder {
	b.params.DisableNotification = silent
	return b
}

// Build returns the final SendMessageParams struct.
func (b *Builder) Build() ports.SendMessageParams {
	return b.params
}
