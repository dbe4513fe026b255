package handler

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	wbot "tg-warden/internal/bot"
	"tg-warden/internal/logger"
)

const helpText = `<b>Warden</b> keeps your groups clean.

<b>Warnings</b>
/warn &lt;reply|@user&gt; [reason] - warn a user
/warns [@user] - current warnings
/resetwarn &lt;reply|@user&gt; - reset a user's warnings
/warnlimit [num] - get or set the warn limit
/strongwarn &lt;on/off&gt; - ban instead of kick when the limit is hit

<b>Warn filters</b>
/addwarn "keyword" reply - warn whoever says the keyword
/nowarn &lt;keyword&gt; - remove a warn filter
/warnlist - active warn filters

<b>Reports</b>
/report &lt;reply&gt; - report a message to the admins
/reports &lt;on/off&gt; - toggle reports for this chat, or for you in PM

<b>Commands</b>
/disable &lt;cmd&gt; - disable a command in this chat
/enable &lt;cmd&gt; - re-enable it
/cmds - currently disabled commands
/listcmds - commands that can be disabled

<b>Global bans</b>
/gbanstat &lt;on/off&gt; - toggle global ban enforcement for this chat`

// handleHelp handles the /help command
func handleHelp(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	return reply(ctx, bot, message, helpText)
}

// handleDisable handles the /disable command
func handleDisable(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	cmd, _ := splitQuotes(args)
	if cmd == "" {
		return reply(ctx, bot, message, "What should I disable?")
	}

	disabled, err := svc.Disables.Disable(message.Chat.ID, cmd)
	if err != nil {
		logger.Errorf("disabling command %q in chat %d: %v", cmd, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if !disabled {
		return reply(ctx, bot, message, "That command can't be disabled.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Disabled the use of <code>%s</code>.", strings.TrimPrefix(cmd, "/")))
}

// handleEnable handles the /enable command
func handleEnable(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	cmd, _ := splitQuotes(args)
	if cmd == "" {
		return reply(ctx, bot, message, "What should I enable?")
	}

	enabled, err := svc.Disables.Enable(message.Chat.ID, cmd)
	if err != nil {
		logger.Errorf("enabling command %q in chat %d: %v", cmd, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if !enabled {
		return reply(ctx, bot, message, "Is that even disabled?")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Enabled the use of <code>%s</code>.", strings.TrimPrefix(cmd, "/")))
}

// handleCmds handles the /cmds command
func handleCmds(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !isGroup(message) {
		return reply(ctx, bot, message, "This command is meant for groups.")
	}

	disabled, err := svc.Disables.Disabled(message.Chat.ID)
	if err != nil {
		logger.Errorf("listing disabled commands in chat %d: %v", message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if len(disabled) == 0 {
		return reply(ctx, bot, message, "No commands are disabled!")
	}

	var b strings.Builder
	b.WriteString("The following commands are currently restricted:")
	for _, cmd := range disabled {
		fmt.Fprintf(&b, "\n - <code>%s</code>", cmd)
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleListCmds handles the /listcmds command
func handleListCmds(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	var b strings.Builder
	b.WriteString("The following commands can be toggled:")
	for _, cmd := range registry.List() {
		fmt.Fprintf(&b, "\n - <code>%s</code>", cmd)
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleReports handles the /reports command. In a private chat it
// toggles the sender's own report forwards; in a group it toggles the
// whole chat and requires admin.
func handleReports(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	setting := strings.ToLower(args)

	if message.Chat.Type == telego.ChatTypePrivate {
		switch setting {
		case "on", "yes":
			if err := svc.Reports.SetUserSetting(message.From.ID, true); err != nil {
				return reply(ctx, bot, message, "Something went wrong, try again later.")
			}
			return reply(ctx, bot, message, "Turned on reporting! You'll be notified whenever anyone reports something in groups you admin.")
		case "off", "no":
			if err := svc.Reports.SetUserSetting(message.From.ID, false); err != nil {
				return reply(ctx, bot, message, "Something went wrong, try again later.")
			}
			return reply(ctx, bot, message, "Turned off reporting! You won't get any reports.")
		default:
			enabled, err := svc.Reports.UserShouldReport(message.From.ID)
			if err != nil {
				return reply(ctx, bot, message, "Something went wrong, try again later.")
			}
			return reply(ctx, bot, message, fmt.Sprintf("Your current report preference is: <code>%v</code>", enabled))
		}
	}

	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	switch setting {
	case "on", "yes":
		if err := svc.Reports.SetChatSetting(message.Chat.ID, true); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "Turned on reporting! Admins who have turned on reports will be notified when /report is called.")
	case "off", "no":
		if err := svc.Reports.SetChatSetting(message.Chat.ID, false); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "Turned off reporting! No admins will be notified on /report.")
	default:
		enabled, err := svc.Reports.ChatShouldReport(message.Chat.ID)
		if err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, fmt.Sprintf("This chat's current report setting is: <code>%v</code>", enabled))
	}
}

// handleReport handles the /report command
func handleReport(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !isGroup(message) {
		return reply(ctx, bot, message, "This command is meant for groups.")
	}
	if message.ReplyToMessage == nil {
		return reply(ctx, bot, message, "Reply to a message to report it.")
	}

	// Admins can act on messages themselves, their reports are ignored.
	if admin, err := isUserAdmin(ctx.Context(), message.Chat.ID, message.From.ID); err == nil && admin {
		return nil
	}

	reporter := wbot.UserFromTelego(*message.From)
	notified, err := svc.Reports.ForwardReport(ctx.Context(), message.Chat.ID, message.Chat.Title,
		&reporter, message.ReplyToMessage.MessageID, message.MessageID)
	if err != nil {
		logger.Errorf("forwarding report in chat %d: %v", message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if notified == 0 {
		return reply(ctx, bot, message, "Reporting is turned off here, or no admins are listening.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("%s reported the message to the admins.", reporter.Mention()))
}

// handleBroadcast handles the /broadcast command
func handleBroadcast(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if !modCfg.IsSudo(message.From.ID) {
		return nil
	}
	if args == "" {
		return reply(ctx, bot, message, "Give me something to broadcast!")
	}

	failed, err := svc.Chats.Broadcast(ctx.Context(), args)
	if err != nil {
		logger.Errorf("broadcast failed: %v", err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Broadcast complete. %d groups failed to receive the message, probably due to being kicked.", failed))
}

// handleChats handles the /chats command
func handleChats(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !modCfg.IsSudo(message.From.ID) {
		return nil
	}

	chats, err := svc.Chats.AllChats()
	if err != nil {
		logger.Errorf("listing chats: %v", err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if len(chats) == 0 {
		return reply(ctx, bot, message, "No chats on record.")
	}

	var b strings.Builder
	b.WriteString("Chats I'm in:")
	for _, chat := range chats {
		fmt.Fprintf(&b, "\n - %s (<code>%d</code>)", chat.Title, chat.ChatID)
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleStats handles the /stats command
func handleStats(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !modCfg.IsSudo(message.From.ID) {
		return nil
	}

	summary, err := svc.Chats.StatsSummary()
	if err != nil {
		logger.Errorf("collecting stats: %v", err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	return reply(ctx, bot, message, "Current stats:\n"+summary)
}
