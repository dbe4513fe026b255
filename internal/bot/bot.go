package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/prometheus/client_golang/prometheus"

	"tg-warden/internal/config"
)

// BotService represents the Telegram bot service
type BotService struct {
	Bot     *telego.Bot
	Handler *th.BotHandler
}

// Start starts the bot handler
func (b *BotService) Start() {
	b.Handler.Start()
}

// Stop stops the bot handler
func (b *BotService) Stop() {
	b.Handler.Stop()
}

// Initialize initializes the bot and webhook
func Initialize(ctx context.Context, cfg *config.Config, promReg *prometheus.Registry) (*BotService, *WebhookServer, error) {
	if cfg.Bot.Token == "" {
		return nil, nil, fmt.Errorf("bot token is required")
	}

	bot, err := telego.NewBot(cfg.Bot.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	botUser, err := bot.GetMe(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Printf("Authorized on account %s", botUser.Username)

	setCommands(ctx, bot)

	// Delete any existing webhook
	err = bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	// Set fixed secret token or generate one based on bot token
	secretToken := "secure_webhook_token_" + cfg.Bot.Token[len(cfg.Bot.Token)-6:]

	bh, server, err := SetupWebhook(ctx, bot, cfg.Bot.Webhook, secretToken, promReg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup webhook: %w", err)
	}

	return &BotService{
		Bot:     bot,
		Handler: bh,
	}, server, nil
}

// setCommands publishes the command menu.
func setCommands(ctx context.Context, bot *telego.Bot) {
	commands := []telego.BotCommand{
		{Command: "help", Description: "Show usage"},
		{Command: "warn", Description: "Warn a user"},
		{Command: "warns", Description: "Show a user's warnings"},
		{Command: "resetwarn", Description: "Reset a user's warnings"},
		{Command: "addwarn", Description: "Add a warn filter keyword"},
		{Command: "nowarn", Description: "Remove a warn filter keyword"},
		{Command: "warnlist", Description: "List the chat's warn filters"},
		{Command: "warnlimit", Description: "Set the warn limit"},
		{Command: "strongwarn", Description: "Toggle between kick and ban on limit"},
		{Command: "gbanstat", Description: "Toggle global ban enforcement"},
		{Command: "report", Description: "Report a message to the admins"},
		{Command: "reports", Description: "Toggle receiving reports"},
		{Command: "disable", Description: "Disable a command in this chat"},
		{Command: "enable", Description: "Re-enable a command"},
		{Command: "cmds", Description: "List disabled commands"},
		{Command: "listcmds", Description: "List disableable commands"},
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
	if err != nil {
		log.Printf("Warning: Failed to set bot commands: %v", err)
	}
}
