package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMessageLength = 4096

	// How far back from the length limit we look for a newline to split on.
	telegramSplitSearchRange = 200

	telegramChunkDelay = 100 * time.Millisecond

	// Reserved for the "(i/n)" continuation suffix so a full chunk plus
	// suffix still fits the limit.
	telegramSuffixReserve = 16
)

// TelegramAPI is the subset of the Telegram bot API used for sending.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes digests to a Telegram chat, splitting messages that exceed
// the API's length limit.
type Telegram struct {
	api    TelegramAPI
	chatID int64
	log    *slog.Logger
	sleep  func(time.Duration)
}

// NewTelegram creates a Telegram notifier. api may be nil when the bot token
// is not configured; Send then skips delivery.
func NewTelegram(api TelegramAPI, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		log:    log,
		sleep:  time.Sleep,
	}
}

// Name implements Notifier.
func (t *Telegram) Name() string { return "telegram" }

// Send delivers body to the configured chat. The subject is ignored; the body
// already carries the digest title.
func (t *Telegram) Send(ctx context.Context, _ string, body string) error {
	if t.api == nil || t.chatID == 0 {
		t.log.Info("telegram not configured, skipping push")
		return nil
	}

	chunks := SplitMessage(body, telegramMaxMessageLength-telegramSuffixReserve)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(chunks) > 1 {
			chunk = fmt.Sprintf("%s\n\n(%d/%d)", chunk, i+1, len(chunks))
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("send message part %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 {
			t.sleep(telegramChunkDelay)
		}
	}
	return nil
}

// SplitMessage cuts text into chunks no longer than maxLength, preferring to
// split at a newline near the limit so sentences stay intact.
func SplitMessage(text string, maxLength int) []string {
	var chunks []string
	remaining := text
	for len(remaining) > maxLength {
		splitIdx := maxLength

		searchStart := maxLength - telegramSplitSearchRange
		if searchStart < 0 {
			searchStart = 0
		}
		if idx := strings.LastIndexByte(remaining[searchStart:maxLength], '\n'); idx >= 0 {
			splitIdx = searchStart + idx + 1
		}

		// A forced cut must not land inside a multi-byte rune.
		for splitIdx > 0 && !utf8.RuneStart(remaining[splitIdx]) {
			splitIdx--
		}
		if splitIdx == 0 {
			splitIdx = maxLength
		}

		chunks = append(chunks, strings.TrimSpace(remaining[:splitIdx]))
		remaining = strings.TrimSpace(remaining[splitIdx:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}
