package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	wbot "tg-warden/internal/bot"
	"tg-warden/internal/logger"
	"tg-warden/internal/service"
)

// handleWarn handles the /warn command
func handleWarn(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	target, reason := extractUserAndText(ctx.Context(), message, args)
	if target == nil {
		return reply(ctx, bot, message, "I can't seem to find that user.")
	}

	result, err := svc.Warns.ApplyWarning(ctx.Context(), target, message.Chat.ID, reason)
	if err != nil {
		logger.Errorf("warn failed for user %d in chat %d: %v", target.ID, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}

	return respondWarnResult(ctx, bot, message, target, result)
}

// respondWarnResult posts the user-facing reply for a warn outcome.
// Shared between the /warn command and the keyword filter hook.
func respondWarnResult(ctx *th.Context, bot *telego.Bot, message telego.Message, target *service.ChatUser, result *service.WarnResult) error {
	if result.LogEvent != "" {
		logger.Infof("%s", result.LogEvent)
	}

	switch result.Outcome {
	case service.WarnNotWarnable:
		return reply(ctx, bot, message, "Sorry, I can't warn admins.")

	case service.Warned:
		text := fmt.Sprintf("%s has %d/%d warnings, watch out!",
			target.Mention(), result.NumWarns, result.Limit)
		if result.Reason != "" {
			text += fmt.Sprintf("\nReason: %s", result.Reason)
		}

		keyboard := telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{{{
				Text:         "Remove warn (admin only!)",
				CallbackData: fmt.Sprintf("rm_warn:%d", target.ID),
			}}},
		}
		_, err := bot.SendMessage(ctx.Context(), &telego.SendMessageParams{
			ChatID:          telego.ChatID{ID: message.Chat.ID},
			Text:            text,
			ParseMode:       "HTML",
			ReplyParameters: &telego.ReplyParameters{MessageID: message.MessageID},
			ReplyMarkup:     &keyboard,
		})
		return err

	case service.WarnPunished:
		verb := "banned"
		if result.Action == service.ActionKick {
			verb = "kicked"
		}
		return reply(ctx, bot, message, fmt.Sprintf("That's %d warnings, %s has been %s!",
			result.Limit, target.Mention(), verb))

	case service.WarnPunishFailed:
		return reply(ctx, bot, message, fmt.Sprintf("%s reached %d warnings, but I couldn't remove them. The warning still counts.",
			target.Mention(), result.Limit))
	}
	return nil
}

// handleResetWarn handles the /resetwarn command
func handleResetWarn(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	target, _ := extractUserAndText(ctx.Context(), message, args)
	if target == nil {
		return reply(ctx, bot, message, "I can't seem to find that user.")
	}

	if err := svc.Warns.ResetWarnings(target.ID, message.Chat.ID); err != nil {
		logger.Errorf("resetting warns for user %d in chat %d: %v", target.ID, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Warnings have been reset for %s!", target.Mention()))
}

// handleWarns handles the /warns command
func handleWarns(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if !isGroup(message) {
		return reply(ctx, bot, message, "This command is meant for groups.")
	}

	target, _ := extractUserAndText(ctx.Context(), message, args)
	if target == nil {
		user := wbot.UserFromTelego(*message.From)
		target = &user
	}

	num, limit, reasons, err := svc.Warns.GetWarnings(target.ID, message.Chat.ID)
	if err != nil {
		logger.Errorf("reading warns for user %d in chat %d: %v", target.ID, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}

	if num == 0 {
		return reply(ctx, bot, message, fmt.Sprintf("%s hasn't gotten any warnings!", target.Mention()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d/%d warnings", target.Mention(), num, limit)
	if len(reasons) > 0 {
		b.WriteString(", for the following reasons:")
		for _, reason := range reasons {
			fmt.Fprintf(&b, "\n - %s", reason)
		}
	} else {
		b.WriteString(", but no reasons recorded.")
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleAddWarn handles the /addwarn command
func handleAddWarn(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	keyword, replyText := splitQuotes(args)
	if keyword == "" || replyText == "" {
		return reply(ctx, bot, message, "Incorrect number of arguments, use: /addwarn \"keyword\" reply message")
	}

	if err := svc.Filters.AddFilter(message.Chat.ID, keyword, replyText); err != nil {
		logger.Errorf("adding warn filter %q in chat %d: %v", keyword, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Warn filter added for <code>%s</code>!", strings.ToLower(keyword)))
}

// handleNoWarn handles the /nowarn command
func handleNoWarn(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	keyword, _ := splitQuotes(args)
	if keyword == "" {
		return reply(ctx, bot, message, "Which warn filter should I remove?")
	}

	removed, err := svc.Filters.RemoveFilter(message.Chat.ID, strings.ToLower(keyword))
	if err != nil {
		logger.Errorf("removing warn filter %q in chat %d: %v", keyword, message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if !removed {
		return reply(ctx, bot, message, "That's not a current warn filter, run /warnlist for all active warn filters.")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Warn filter <code>%s</code> removed.", strings.ToLower(keyword)))
}

// handleWarnList handles the /warnlist command
func handleWarnList(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !isGroup(message) {
		return reply(ctx, bot, message, "This command is meant for groups.")
	}

	filters, err := svc.Filters.ChatFilters(message.Chat.ID)
	if err != nil {
		logger.Errorf("listing warn filters in chat %d: %v", message.Chat.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if len(filters) == 0 {
		return reply(ctx, bot, message, "There are no warn filters active here.")
	}

	var b strings.Builder
	b.WriteString("Current warn filters in this chat:")
	for _, f := range filters {
		fmt.Fprintf(&b, "\n - <code>%s</code>", f.Keyword)
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleWarnLimit handles the /warnlimit command
func handleWarnLimit(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	if args == "" {
		limit, _, err := svc.Warns.WarnSetting(message.Chat.ID)
		if err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, fmt.Sprintf("The current warn limit is %d.", limit))
	}

	limit, err := strconv.Atoi(args)
	if err != nil {
		return reply(ctx, bot, message, "Give me a number as the warn limit!")
	}

	if err := svc.Warns.SetWarnLimit(message.Chat.ID, limit); err != nil {
		return reply(ctx, bot, message, "The minimum warn limit is 3!")
	}
	return reply(ctx, bot, message, fmt.Sprintf("Updated the warn limit to %d.", limit))
}

// handleStrongWarn handles the /strongwarn command
func handleStrongWarn(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	switch strings.ToLower(args) {
	case "on", "yes":
		if err := svc.Warns.SetSoftWarn(message.Chat.ID, false); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "Too many warns will now result in a ban!")
	case "off", "no":
		if err := svc.Warns.SetSoftWarn(message.Chat.ID, true); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "Too many warns will now result in a kick! Users will be able to join again after.")
	case "":
		_, soft, err := svc.Warns.WarnSetting(message.Chat.ID)
		if err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		if soft {
			return reply(ctx, bot, message, "Warns are currently set to kick users when they exceed the limit.")
		}
		return reply(ctx, bot, message, "Warns are currently set to ban users when they exceed the limit.")
	default:
		return reply(ctx, bot, message, "I only understand on/yes or off/no!")
	}
}
