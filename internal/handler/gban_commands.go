package handler

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	wbot "tg-warden/internal/bot"
	"tg-warden/internal/logger"
	"tg-warden/internal/service"
)

func isOperator(userID int64) bool {
	return modCfg.IsSudo(userID) || modCfg.IsSupport(userID)
}

// handleGban handles the /gban command
func handleGban(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if !isOperator(message.From.ID) {
		return nil
	}

	target, reason := extractUserAndText(ctx.Context(), message, args)
	if target == nil {
		return reply(ctx, bot, message, "You don't seem to be referring to a user.")
	}

	if err := reply(ctx, bot, message, "Starting a global ban..."); err != nil {
		logger.Warningf("could not acknowledge gban request: %v", err)
	}

	operator := wbot.UserFromTelego(*message.From)
	result, err := svc.Gbans.GlobalBan(ctx.Context(), target, reason, &operator)
	if err != nil {
		logger.Errorf("gban of user %d failed: %v", target.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}

	switch result.Outcome {
	case service.GbanRefused:
		return reply(ctx, bot, message, result.Refusal)
	case service.GbanAborted:
		return reply(ctx, bot, message, fmt.Sprintf("Global ban aborted: %v. The ban has been rolled back.", result.AbortReason))
	default:
		return reply(ctx, bot, message, fmt.Sprintf("Done! %s has been globally banned across %d chats (%d skipped).",
			target.Mention(), result.ChatsTouched, result.ChatsSkipped))
	}
}

// handleUngban handles the /ungban command
func handleUngban(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if !isOperator(message.From.ID) {
		return nil
	}

	target, _ := extractUserAndText(ctx.Context(), message, args)
	if target == nil {
		return reply(ctx, bot, message, "You don't seem to be referring to a user.")
	}

	banned, err := svc.Gbans.IsUserGbanned(target.ID)
	if err != nil {
		logger.Errorf("checking gban registry for user %d: %v", target.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if !banned {
		return reply(ctx, bot, message, "This user is not gbanned!")
	}

	operator := wbot.UserFromTelego(*message.From)
	result, err := svc.Gbans.GlobalUnban(ctx.Context(), target, &operator)
	if err != nil {
		logger.Errorf("ungban of user %d failed: %v", target.ID, err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}

	if result.Outcome == service.GbanAborted {
		return reply(ctx, bot, message, fmt.Sprintf("Unban fan-out stopped early: %v. The user stays off the gban list.", result.AbortReason))
	}
	return reply(ctx, bot, message, fmt.Sprintf("%s has been lifted from the global ban list.", target.Mention()))
}

// handleGbanList handles the /gbanlist command
func handleGbanList(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !isOperator(message.From.ID) {
		return nil
	}

	records, err := svc.Gbans.GbanList()
	if err != nil {
		logger.Errorf("listing gbanned users: %v", err)
		return reply(ctx, bot, message, "Something went wrong, try again later.")
	}
	if len(records) == 0 {
		return reply(ctx, bot, message, "There aren't any gbanned users! You're kinder than I expected.")
	}

	var b strings.Builder
	b.WriteString("Here is the list of currently gbanned users:")
	for _, r := range records {
		reason := r.Reason
		if reason == "" {
			reason = "No reason given"
		}
		fmt.Fprintf(&b, "\n - %s (<code>%d</code>): %s", r.Name, r.UserID, reason)
	}
	return sendChunked(ctx.Context(), message.Chat.ID, b.String())
}

// handleGbanStat handles the /gbanstat command
func handleGbanStat(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	ok, err := requireGroupAdmin(ctx, bot, message)
	if !ok {
		return err
	}

	switch strings.ToLower(args) {
	case "on", "yes":
		if err := svc.Gbans.SetChatEnforcing(message.Chat.ID, true); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "I've enabled gbans in this group. This will help protect you from spammers and trolls.")
	case "off", "no":
		if err := svc.Gbans.SetChatEnforcing(message.Chat.ID, false); err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		return reply(ctx, bot, message, "I've disabled gbans in this group. Gbans won't affect your users anymore.")
	case "":
		enforcing, err := svc.Gbans.ChatEnforcesGbans(message.Chat.ID)
		if err != nil {
			return reply(ctx, bot, message, "Something went wrong, try again later.")
		}
		if enforcing {
			return reply(ctx, bot, message, "Gbans are currently enforced in this group.")
		}
		return reply(ctx, bot, message, "Gbans are currently not enforced in this group.")
	default:
		return reply(ctx, bot, message, "Give me some arguments to choose a setting! on/off, yes/no!")
	}
}
