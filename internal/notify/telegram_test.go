package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockAPI struct {
	sent []string
	err  error
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.err != nil {
		return tgbotapi.Message{}, m.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func newTestTelegram(api TelegramAPI) *Telegram {
	t := NewTelegram(api, 100, testLogger())
	t.sleep = func(time.Duration) {}
	return t
}

func TestTelegramSendShortMessage(t *testing.T) {
	api := &mockAPI{}
	tg := newTestTelegram(api)

	if err := tg.Send(context.Background(), "", "hello digest"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0] != "hello digest" {
		t.Errorf("sent = %q", api.sent)
	}
}

func TestTelegramSendLongMessage(t *testing.T) {
	api := &mockAPI{}
	tg := newTestTelegram(api)

	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 60))
	}
	body := strings.Join(lines, "\n")

	if err := tg.Send(context.Background(), "", body); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.sent) < 2 {
		t.Fatalf("got %d messages, want a split", len(api.sent))
	}
	for i, msg := range api.sent {
		if len(msg) > telegramMaxMessageLength {
			t.Errorf("message %d is %d chars, over the limit", i, len(msg))
		}
		if i < len(api.sent)-1 && !strings.Contains(msg, "(1/") && !strings.Contains(msg, "/") {
			t.Errorf("message %d missing continuation marker", i)
		}
	}
}

func TestTelegramSendUnconfigured(t *testing.T) {
	tg := NewTelegram(nil, 0, testLogger())
	if err := tg.Send(context.Background(), "", "hello"); err != nil {
		t.Fatalf("unconfigured send should be a no-op, got %v", err)
	}
}

func TestTelegramSendError(t *testing.T) {
	tg := newTestTelegram(&mockAPI{err: errors.New("blocked by user")})
	if err := tg.Send(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		maxLength  int
		wantChunks int
	}{
		{name: "fits", text: "short", maxLength: 100, wantChunks: 1},
		{name: "empty", text: "", maxLength: 100, wantChunks: 0},
		{name: "exact limit", text: strings.Repeat("a", 100), maxLength: 100, wantChunks: 1},
		{name: "no newlines", text: strings.Repeat("a", 250), maxLength: 100, wantChunks: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitMessage(tt.text, tt.maxLength)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len(c) > tt.maxLength {
					t.Errorf("chunk %d is %d chars, over %d", i, len(c), tt.maxLength)
				}
			}
		})
	}
}

func TestSplitMessageKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("机器学习与深度学习模型", 50)
	chunks := SplitMessage(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want a split", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if len(c) > 100 {
			t.Errorf("chunk %d is %d bytes, over the limit", i, len(c))
		}
	}
	if joined := strings.Join(chunks, ""); joined != text {
		t.Errorf("chunks do not reassemble the original text")
	}
}

func TestSplitMessagePrefersNewline(t *testing.T) {
	text := strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 50)
	chunks := SplitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 90) {
		t.Errorf("first chunk = %q, want the part before the newline", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 50) {
		t.Errorf("second chunk = %q", chunks[1])
	}
}
