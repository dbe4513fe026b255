package service

import (
	"context"
	"errors"
	"fmt"
)

// ChatUser is the platform-independent view of a user surfaced by an
// event or command target.
type ChatUser struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

// DisplayName returns the user's full name, falling back to the
// username or id when the name is empty.
func (u *ChatUser) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	if name == "" {
		name = fmt.Sprintf("user %d", u.ID)
	}
	return name
}

// Mention returns an HTML link to the user.
func (u *ChatUser) Mention() string {
	return fmt.Sprintf("<a href=\"tg://user?id=%d\">%s</a>", u.ID, u.DisplayName())
}

// Expected platform refusals. The chat platform declines these removal
// and restriction attempts in well-known ways; fan-outs swallow them
// and move on to the next chat.
var (
	ErrChatNotFound       = errors.New("chat not found")
	ErrNotEnoughRights    = errors.New("not enough rights to restrict chat member")
	ErrUserNotParticipant = errors.New("user is not a participant")
	ErrTargetIsAdmin      = errors.New("user is an administrator of the chat")
)

// IsExpectedRefusal reports whether a platform error is one of the
// enumerated refusals a fan-out tolerates. Per-chat call timeouts are
// treated as that chat's own failure, not as a coordinator fault.
func IsExpectedRefusal(err error) bool {
	return errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrNotEnoughRights) ||
		errors.Is(err, ErrUserNotParticipant) ||
		errors.Is(err, ErrTargetIsAdmin) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Platform is the boundary to the chat platform. The telego adapter in
// internal/bot implements it; tests substitute fakes.
type Platform interface {
	// BotID returns the bot's own account id.
	BotID() int64

	// BanChatMember permanently removes a user from a chat.
	BanChatMember(ctx context.Context, chatID, userID int64) error

	// UnbanChatMember lifts a ban, allowing the user to rejoin.
	UnbanChatMember(ctx context.Context, chatID, userID int64) error

	// KickChatMember removes a user but lets them rejoin.
	KickChatMember(ctx context.Context, chatID, userID int64) error

	// IsChatAdmin reports whether the user holds admin capability in
	// the chat.
	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)

	// ChatAdministrators lists the chat's administrators.
	ChatAdministrators(ctx context.Context, chatID int64) ([]ChatUser, error)

	// CanRestrictMembers reports whether the bot may remove members
	// from the chat.
	CanRestrictMembers(ctx context.Context, chatID int64) (bool, error)

	// IsMemberBanned reports whether the user is currently banned in
	// the chat.
	IsMemberBanned(ctx context.Context, chatID, userID int64) (bool, error)

	// GetUser resolves a user id to profile information.
	GetUser(ctx context.Context, userID int64) (*ChatUser, error)

	// SendMessage delivers a text message to a chat or user.
	SendMessage(ctx context.Context, chatID int64, text string) error

	// ForwardMessage forwards an existing message to another chat.
	ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}
