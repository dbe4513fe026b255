package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"tg-warden/internal/service"
)

// TelegramPlatform implements service.Platform over telego.
type TelegramPlatform struct {
	bot *telego.Bot
}

// NewTelegramPlatform creates the platform adapter.
func NewTelegramPlatform(bot *telego.Bot) *TelegramPlatform {
	return &TelegramPlatform{bot: bot}
}

// classifyError maps the platform's well-known refusal descriptions
// onto the service sentinels so fan-outs can tell expected refusals
// from genuine faults.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "chat not found"):
		return fmt.Errorf("%w: %s", service.ErrChatNotFound, err)
	case strings.Contains(msg, "not enough rights"),
		strings.Contains(msg, "supergroup and channel chats only"):
		return fmt.Errorf("%w: %s", service.ErrNotEnoughRights, err)
	case strings.Contains(msg, "user is an administrator"),
		strings.Contains(msg, "can't remove chat owner"):
		return fmt.Errorf("%w: %s", service.ErrTargetIsAdmin, err)
	case strings.Contains(msg, "user_not_participant"),
		strings.Contains(msg, "not a participant"),
		strings.Contains(msg, "not in the chat"),
		strings.Contains(msg, "user not found"):
		return fmt.Errorf("%w: %s", service.ErrUserNotParticipant, err)
	default:
		return err
	}
}

func (p *TelegramPlatform) BotID() int64 {
	return p.bot.ID()
}

func (p *TelegramPlatform) BanChatMember(ctx context.Context, chatID, userID int64) error {
	err := p.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: userID,
	})
	return classifyError(err)
}

func (p *TelegramPlatform) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	err := p.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       telego.ChatID{ID: chatID},
		UserID:       userID,
		OnlyIfBanned: true,
	})
	return classifyError(err)
}

// KickChatMember removes a user but immediately lifts the ban so they
// can rejoin.
func (p *TelegramPlatform) KickChatMember(ctx context.Context, chatID, userID int64) error {
	if err := p.BanChatMember(ctx, chatID, userID); err != nil {
		return err
	}
	err := p.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: userID,
	})
	return classifyError(err)
}

func (p *TelegramPlatform) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := p.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: userID,
	})
	if err != nil {
		return false, classifyError(err)
	}
	status := member.MemberStatus()
	return status == telego.MemberStatusCreator || status == telego.MemberStatusAdministrator, nil
}

func (p *TelegramPlatform) ChatAdministrators(ctx context.Context, chatID int64) ([]service.ChatUser, error) {
	admins, err := p.bot.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{
		ChatID: telego.ChatID{ID: chatID},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	users := make([]service.ChatUser, 0, len(admins))
	for _, admin := range admins {
		users = append(users, UserFromTelego(admin.MemberUser()))
	}
	return users, nil
}

func (p *TelegramPlatform) CanRestrictMembers(ctx context.Context, chatID int64) (bool, error) {
	member, err := p.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: p.bot.ID(),
	})
	if err != nil {
		return false, classifyError(err)
	}

	switch m := member.(type) {
	case *telego.ChatMemberOwner:
		return true, nil
	case *telego.ChatMemberAdministrator:
		return m.CanRestrictMembers, nil
	default:
		return false, nil
	}
}

func (p *TelegramPlatform) IsMemberBanned(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := p.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: userID,
	})
	if err != nil {
		return false, classifyError(err)
	}
	return member.MemberStatus() == telego.MemberStatusBanned, nil
}

func (p *TelegramPlatform) GetUser(ctx context.Context, userID int64) (*service.ChatUser, error) {
	info, err := p.bot.GetChat(ctx, &telego.GetChatParams{
		ChatID: telego.ChatID{ID: userID},
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if info.Type != telego.ChatTypePrivate {
		return nil, fmt.Errorf("id %d is a chat, not a user", userID)
	}
	return &service.ChatUser{
		ID:        info.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Username:  info.Username,
	}, nil
}

func (p *TelegramPlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := p.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: "HTML",
	})
	return classifyError(err)
}

func (p *TelegramPlatform) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	_, err := p.bot.ForwardMessage(ctx, &telego.ForwardMessageParams{
		ChatID:     telego.ChatID{ID: toChatID},
		FromChatID: telego.ChatID{ID: fromChatID},
		MessageID:  messageID,
	})
	return classifyError(err)
}

// UserFromTelego converts a telego user to the platform-independent
// view.
func UserFromTelego(user telego.User) service.ChatUser {
	return service.ChatUser{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		IsBot:     user.IsBot,
	}
}
