package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord messages are capped at 2000 characters; the code fence takes 8.
const discordLimit = 2000 - len("```\n\n```")

type discordExecutor func(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) error

// Discord posts the briefing through an incoming webhook.
type Discord struct {
	webhookID string
	token     string
	execute   discordExecutor
}

// NewDiscord parses a webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func NewDiscord(webhookURL string) (*Discord, error) {
	id, token, err := parseDiscordWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{
		webhookID: id,
		token:     token,
		execute: func(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) error {
			_, err := session.WebhookExecute(webhookID, token, true, params, discordgo.WithContext(ctx))
			return err
		},
	}, nil
}

func parseDiscordWebhook(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("DISCORD_WEBHOOK_URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("DISCORD_WEBHOOK_URL: expected .../webhooks/{id}/{token}, got %q", u.Path)
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, msg Message) error {
	chunks := split(strings.TrimRight(msg.Body, "\n"), discordLimit, runeLen)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := &discordgo.WebhookParams{Content: "```\n" + chunk + "\n```"}
		if err := d.execute(ctx, d.webhookID, d.token, params); err != nil {
			return fmt.Errorf("part %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}
