package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	wbot "tg-warden/internal/bot"
	"tg-warden/internal/logger"
	"tg-warden/internal/service"
)

// maxMessageLength keeps chunked replies safely under the platform's
// 4096-character message limit.
const maxMessageLength = 4000

// parseCommand splits "/cmd@BotName arg arg" into the bare command
// name and its argument string. Returns "" when the text is not a
// command.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	parts := strings.SplitN(text, " ", 2)
	cmd := strings.TrimPrefix(parts[0], "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}

	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return strings.ToLower(cmd), args
}

// splitQuotes splits the argument string into a first token and the
// rest. A leading single or double quote groups multiple words into
// the first token; backslash escapes the quote character inside.
func splitQuotes(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	quote := text[0]
	if quote != '\'' && quote != '"' {
		parts := strings.SplitN(text, " ", 2)
		if len(parts) == 1 {
			return parts[0], ""
		}
		return parts[0], strings.TrimSpace(parts[1])
	}

	var key strings.Builder
	i := 1
	for ; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			i++
			key.WriteByte(text[i])
			continue
		}
		if c == quote {
			break
		}
		key.WriteByte(c)
	}

	if i >= len(text) {
		// Unterminated quote, fall back to a plain split.
		parts := strings.SplitN(text, " ", 2)
		if len(parts) == 1 {
			return parts[0], ""
		}
		return parts[0], strings.TrimSpace(parts[1])
	}

	return key.String(), strings.TrimSpace(text[i+1:])
}

// extractUserAndText resolves the target of a moderation command:
// either the author of the replied-to message, or the first argument
// as an @username or numeric user id. The remaining text is returned
// as the free-form reason.
func extractUserAndText(ctx context.Context, message telego.Message, args string) (*service.ChatUser, string) {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		user := wbot.UserFromTelego(*message.ReplyToMessage.From)
		return &user, args
	}

	first, rest := splitQuotes(args)
	if first == "" {
		return nil, ""
	}

	var userID int64
	if strings.HasPrefix(first, "@") {
		id, err := svc.Chats.ResolveUsername(first)
		if err != nil || id == 0 {
			return nil, ""
		}
		userID = id
	} else {
		id, err := strconv.ParseInt(first, 10, 64)
		if err != nil {
			return nil, ""
		}
		userID = id
	}

	user, err := platform.GetUser(ctx, userID)
	if err != nil {
		logger.Debugf("could not fetch profile of user %d: %v", userID, err)
		user = &service.ChatUser{ID: userID, Username: strings.TrimPrefix(first, "@")}
	}
	return user, rest
}

func isGroup(message telego.Message) bool {
	return message.Chat.Type == telego.ChatTypeGroup || message.Chat.Type == telego.ChatTypeSupergroup
}

// isUserAdmin checks if user is an admin in the chat
func isUserAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	return platform.IsChatAdmin(ctx, chatID, userID)
}

// reply answers a message in its chat, quoting it.
func reply(ctx *th.Context, bot *telego.Bot, message telego.Message, text string) error {
	_, err := bot.SendMessage(ctx.Context(), &telego.SendMessageParams{
		ChatID:          telego.ChatID{ID: message.Chat.ID},
		Text:            text,
		ParseMode:       "HTML",
		ReplyParameters: &telego.ReplyParameters{MessageID: message.MessageID},
	})
	return err
}

// sendChunked delivers a long text as multiple messages, splitting on
// line boundaries where possible.
func sendChunked(ctx context.Context, chatID int64, text string) error {
	for len(text) > maxMessageLength {
		cut := strings.LastIndex(text[:maxMessageLength], "\n")
		if cut <= 0 {
			cut = maxMessageLength
		}
		if err := platform.SendMessage(ctx, chatID, text[:cut]); err != nil {
			return err
		}
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return platform.SendMessage(ctx, chatID, text)
}

// requireGroupAdmin replies with an explanation and returns false when
// the command was not issued by an admin inside a group. Sudo users
// pass everywhere.
func requireGroupAdmin(ctx *th.Context, bot *telego.Bot, message telego.Message) (bool, error) {
	if !isGroup(message) {
		return false, reply(ctx, bot, message, "This command is meant for groups.")
	}
	if modCfg.IsSudo(message.From.ID) {
		return true, nil
	}

	admin, err := isUserAdmin(ctx.Context(), message.Chat.ID, message.From.ID)
	if err != nil {
		return false, err
	}
	if !admin {
		return false, reply(ctx, bot, message, "Only admins can do that.")
	}
	return true, nil
}
