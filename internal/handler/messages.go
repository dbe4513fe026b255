package handler

import (
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	wbot "tg-warden/internal/bot"
	"tg-warden/internal/logger"
	"tg-warden/internal/service"
)

// handleGroupMessage is the passive hook for every non-command group
// message: chat/user tracking, chat-id migration, gban enforcement,
// report triggers and keyword filter matching, in that order.
func handleGroupMessage(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	if !isGroup(message) || message.From == nil {
		return nil
	}

	if message.MigrateToChatID != 0 {
		if err := svc.Chats.MigrateChat(message.Chat.ID, message.MigrateToChatID); err != nil {
			logger.Errorf("chat migration %d -> %d failed: %v", message.Chat.ID, message.MigrateToChatID, err)
		}
		return nil
	}

	if err := svc.Chats.TrackChat(message.Chat.ID, message.Chat.Title, message.Chat.Username); err != nil {
		logger.Warningf("failed to track chat %d: %v", message.Chat.ID, err)
	}

	if message.From.IsBot {
		return nil
	}
	svc.Chats.TrackUser(message.From.ID, message.Chat.ID, message.From.Username)

	author := wbot.UserFromTelego(*message.From)
	surfaced := []*service.ChatUser{&author}
	for i := range message.NewChatMembers {
		member := wbot.UserFromTelego(message.NewChatMembers[i])
		surfaced = append(surfaced, &member)
	}
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		replied := wbot.UserFromTelego(*message.ReplyToMessage.From)
		surfaced = append(surfaced, &replied)
	}

	removed, err := svc.Gbans.EnforceOnEvent(ctx.Context(), message.Chat.ID, surfaced)
	if err != nil {
		logger.Warningf("gban enforcement in chat %d: %v", message.Chat.ID, err)
	}
	for _, id := range removed {
		if id == author.ID {
			// Author is gone, nothing left to match.
			return nil
		}
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}

	if strings.HasPrefix(strings.ToLower(text), "@admin") && message.ReplyToMessage != nil {
		_, err := svc.Reports.ForwardReport(ctx.Context(), message.Chat.ID, message.Chat.Title,
			&author, message.ReplyToMessage.MessageID, message.MessageID)
		if err != nil {
			logger.Warningf("forwarding @admin report in chat %d: %v", message.Chat.ID, err)
		}
		return nil
	}

	result, err := svc.Filters.MatchAndWarn(ctx.Context(), text, message.Chat.ID, &author)
	if err != nil {
		logger.Errorf("filter matching in chat %d: %v", message.Chat.ID, err)
		return nil
	}
	if result == nil || result.Outcome == service.WarnNotWarnable {
		return nil
	}
	return respondWarnResult(ctx, bot, message, &author, result)
}

// handleMyChatMember tracks the bot's own membership: joining a group
// registers it, getting removed forgets it.
func handleMyChatMember(ctx *th.Context, update telego.Update) error {
	member := update.MyChatMember
	chat := member.Chat
	if chat.Type != telego.ChatTypeGroup && chat.Type != telego.ChatTypeSupergroup {
		return nil
	}

	switch member.NewChatMember.MemberStatus() {
	case telego.MemberStatusLeft, telego.MemberStatusBanned:
		logger.Infof("removed from chat %d (%s)", chat.ID, chat.Title)
		return svc.Chats.ForgetChat(chat.ID)
	default:
		logger.Infof("joined chat %d (%s)", chat.ID, chat.Title)
		return svc.Chats.TrackChat(chat.ID, chat.Title, chat.Username)
	}
}
