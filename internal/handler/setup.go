package handler

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-warden/internal/config"
	"tg-warden/internal/service"
)

var (
	// Global configuration
	globalConfig *config.Config
	modCfg       *config.ModerationConfig

	svc      *service.Services
	platform service.Platform
	registry *service.CommandRegistry
)

// Initialize initializes the handler with configuration and services
func Initialize(cfg *config.Config, services *service.Services, p service.Platform) {
	globalConfig = cfg
	modCfg = &cfg.Moderation
	svc = services
	platform = p
	registry = services.Disables.Registry()
}

// RegisterHandlers configures all bot message and update handlers.
// Commands are matched first; everything else falls through to the
// group message hook.
func RegisterHandlers(bh *th.BotHandler, bot *telego.Bot) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return dispatchCommand(ctx, bot, message)
	}, th.AnyCommand())

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return handleGroupMessage(ctx, bot, message)
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return handleMyChatMember(ctx, update)
	}, func(ctx context.Context, update telego.Update) bool {
		return update.MyChatMember != nil
	})

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		return handleCallback(ctx, bot, query)
	})
}

// dispatchCommand routes a command message to its handler. Disabled
// commands are silently dropped for non-admin senders.
func dispatchCommand(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if message.From == nil || message.From.IsBot {
		return nil
	}

	cmd, args := parseCommand(message.Text)
	if cmd == "" {
		return nil
	}

	if isGroup(message) {
		svc.Chats.TrackUser(message.From.ID, message.Chat.ID, message.From.Username)

		if registry.IsDisableable(cmd) {
			disabled, err := svc.Disables.IsDisabled(message.Chat.ID, cmd)
			if err == nil && disabled {
				admin, err := isUserAdmin(ctx.Context(), message.Chat.ID, message.From.ID)
				if err != nil || !admin {
					return nil
				}
			}
		}
	}

	switch cmd {
	case "start", "help":
		return handleHelp(ctx, bot, message)
	case "warn":
		return handleWarn(ctx, bot, message, args)
	case "resetwarn", "resetwarns":
		return handleResetWarn(ctx, bot, message, args)
	case "warns":
		return handleWarns(ctx, bot, message, args)
	case "addwarn":
		return handleAddWarn(ctx, bot, message, args)
	case "nowarn", "stopwarn":
		return handleNoWarn(ctx, bot, message, args)
	case "warnlist", "warnfilters":
		return handleWarnList(ctx, bot, message)
	case "warnlimit":
		return handleWarnLimit(ctx, bot, message, args)
	case "strongwarn":
		return handleStrongWarn(ctx, bot, message, args)
	case "gban":
		return handleGban(ctx, bot, message, args)
	case "ungban":
		return handleUngban(ctx, bot, message, args)
	case "gbanlist":
		return handleGbanList(ctx, bot, message)
	case "gbanstat":
		return handleGbanStat(ctx, bot, message, args)
	case "disable":
		return handleDisable(ctx, bot, message, args)
	case "enable":
		return handleEnable(ctx, bot, message, args)
	case "cmds":
		return handleCmds(ctx, bot, message)
	case "listcmds":
		return handleListCmds(ctx, bot, message)
	case "reports":
		return handleReports(ctx, bot, message, args)
	case "report":
		return handleReport(ctx, bot, message)
	case "broadcast":
		return handleBroadcast(ctx, bot, message, args)
	case "chats", "chatlist":
		return handleChats(ctx, bot, message)
	case "stats":
		return handleStats(ctx, bot, message)
	}
	return nil
}
