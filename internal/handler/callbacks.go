package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-warden/internal/logger"
)

// handleCallback routes inline keyboard callbacks.
func handleCallback(ctx *th.Context, bot *telego.Bot, query telego.CallbackQuery) error {
	if strings.HasPrefix(query.Data, "rm_warn:") {
		return handleRemoveWarnCallback(ctx, bot, query)
	}
	return nil
}

// handleRemoveWarnCallback processes the "Remove warn" button under a
// warning message. Only chat admins may use it.
func handleRemoveWarnCallback(ctx *th.Context, bot *telego.Bot, query telego.CallbackQuery) error {
	userID, err := strconv.ParseInt(strings.TrimPrefix(query.Data, "rm_warn:"), 10, 64)
	if err != nil {
		logger.Warningf("malformed rm_warn callback data: %q", query.Data)
		return nil
	}

	if query.Message == nil {
		return nil
	}
	chatID := query.Message.GetChat().ID

	admin, err := isUserAdmin(ctx.Context(), chatID, query.From.ID)
	if err != nil || !admin {
		return bot.AnswerCallbackQuery(ctx.Context(), &telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            "Only admins can remove warns.",
			ShowAlert:       true,
		})
	}

	removed, err := svc.Warns.RemoveWarning(userID, chatID)
	if err != nil {
		logger.Errorf("removing warn for user %d in chat %d: %v", userID, chatID, err)
		return bot.AnswerCallbackQuery(ctx.Context(), &telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            "Something went wrong, try again later.",
			ShowAlert:       true,
		})
	}

	if removed {
		operator := query.From.FirstName
		if query.From.LastName != "" {
			operator += " " + query.From.LastName
		}
		_, _ = bot.EditMessageText(ctx.Context(), &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: chatID},
			MessageID: query.Message.GetMessageID(),
			Text:      fmt.Sprintf("Warn removed by %s.", operator),
		})
	}

	return bot.AnswerCallbackQuery(ctx.Context(), &telego.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	})
}
