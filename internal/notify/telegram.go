package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
)

const telegramLimit = 4096

type telegramSender func(ctx context.Context, params *bot.SendMessageParams) error

// Telegram sends the briefing to one chat through the Bot API.
type Telegram struct {
	chatID any
	send   telegramSender
}

func NewTelegram(token, chatID string) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{
		chatID: parseChatID(chatID),
		send: func(ctx context.Context, params *bot.SendMessageParams) error {
			_, err := b.SendMessage(ctx, params)
			return err
		},
	}, nil
}

// parseChatID keeps @channel names as strings and numeric ids as int64.
func parseChatID(raw string) any {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return raw
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	chunks := split(strings.TrimRight(msg.Body, "\n"), telegramLimit, utf16Len)
	for i, chunk := range chunks {
		if err := t.send(ctx, &bot.SendMessageParams{ChatID: t.chatID, Text: chunk}); err != nil {
			return fmt.Errorf("part %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}
