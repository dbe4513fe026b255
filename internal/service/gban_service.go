package service

import (
	"context"
	"fmt"
	"time"

	"tg-warden/internal/config"
	"tg-warden/internal/logger"
	"tg-warden/internal/models"
	"tg-warden/internal/storage"
)

// GbanOutcome classifies the result of a global ban or unban.
type GbanOutcome int

const (
	// GbanRefused means a guard clause declined the request; nothing
	// was written.
	GbanRefused GbanOutcome = iota
	// GbanCompleted means the registry was updated and the fan-out
	// finished (possibly with skipped or refused chats).
	GbanCompleted
	// GbanAborted means an unexpected platform fault stopped the
	// fan-out early. For a ban the registry entry was rolled back;
	// for an unban the deletion stands.
	GbanAborted
)

// GbanResult is the outcome of a global ban or unban request.
type GbanResult struct {
	Outcome      GbanOutcome
	Refusal      string
	ChatsTouched int
	ChatsSkipped int
	AbortReason  error
}

// GbanService propagates global-ban decisions across every chat the
// bot is a member of. The registry row is committed before any chat is
// touched, so it stays authoritative even when the fan-out partially
// fails.
type GbanService struct {
	gbans    *storage.GbanRepository
	chats    *storage.ChatRepository
	platform Platform
	cfg      *config.ModerationConfig
	metrics  *Metrics
}

// NewGbanService creates a new GbanService
func NewGbanService(gbans *storage.GbanRepository, chats *storage.ChatRepository, platform Platform, cfg *config.ModerationConfig, metrics *Metrics) *GbanService {
	return &GbanService{gbans: gbans, chats: chats, platform: platform, cfg: cfg, metrics: metrics}
}

func (s *GbanService) guardBan(target *ChatUser) string {
	switch {
	case s.cfg.IsSudo(target.ID):
		return "That user is a sudo user, I'm not touching them."
	case s.cfg.IsSupport(target.ID):
		return "That user is on the support list, no can do."
	case target.ID == s.platform.BotID():
		return "Banning myself? Nice try."
	}
	return ""
}

// callChat runs a single per-chat platform call under the configured
// timeout so one slow chat never hangs the whole fan-out.
func (s *GbanService) callChat(ctx context.Context, fn func(context.Context) error) error {
	timeout := s.cfg.ChatCallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

// GlobalBan bans a user in every enforcing chat. The registry entry is
// written first; expected per-chat refusals are swallowed; any other
// platform fault aborts the fan-out, rolls the registry entry back and
// informs the operators.
func (s *GbanService) GlobalBan(ctx context.Context, target *ChatUser, reason string, operator *ChatUser) (*GbanResult, error) {
	if refusal := s.guardBan(target); refusal != "" {
		return &GbanResult{Outcome: GbanRefused, Refusal: refusal}, nil
	}

	name := target.Username
	if name == "" {
		name = target.FirstName
	}
	if err := s.gbans.GbanUser(target.ID, name, reason); err != nil {
		return nil, fmt.Errorf("writing gban record for user %d: %w", target.ID, err)
	}

	if reason == "" {
		reason = "No reason given"
	}
	s.NotifyOperators(ctx, fmt.Sprintf("%s is gbanning %s because:\n%s",
		operator.Mention(), target.Mention(), reason))

	chats, err := s.chats.AllChats()
	if err != nil {
		return nil, fmt.Errorf("listing chats for gban fan-out: %w", err)
	}

	result := &GbanResult{}
	for _, chat := range chats {
		enforcing, err := s.gbans.ChatEnforcesGbans(chat.ChatID)
		if err != nil {
			return nil, fmt.Errorf("reading gban setting for chat %d: %w", chat.ChatID, err)
		}
		if !enforcing {
			result.ChatsSkipped++
			s.countFanout("skipped")
			continue
		}

		err = s.callChat(ctx, func(callCtx context.Context) error {
			return s.platform.BanChatMember(callCtx, chat.ChatID, target.ID)
		})
		if err != nil {
			if IsExpectedRefusal(err) {
				logger.Infof("gban: chat %d refused removal of user %d: %v", chat.ChatID, target.ID, err)
				s.countFanout("refused")
				continue
			}

			// Unexpected fault: undo the registry commit and stop.
			if rbErr := s.gbans.UngbanUser(target.ID); rbErr != nil {
				logger.Errorf("gban rollback failed for user %d: %v", target.ID, rbErr)
			}
			s.NotifyOperators(ctx, fmt.Sprintf("Could not gban due to: %v", err))
			s.countFanout("aborted")
			result.Outcome = GbanAborted
			result.AbortReason = err
			return result, nil
		}

		result.ChatsTouched++
		s.countFanout("banned")
		s.pause()
	}

	s.NotifyOperators(ctx, "gban complete!")
	result.Outcome = GbanCompleted
	return result, nil
}

// GlobalUnban lifts a global ban. The registry deletion is finalized
// first and is never rolled back; a late unexpected fault only aborts
// the remaining chats and is reported.
func (s *GbanService) GlobalUnban(ctx context.Context, target *ChatUser, operator *ChatUser) (*GbanResult, error) {
	if err := s.gbans.UngbanUser(target.ID); err != nil {
		return nil, fmt.Errorf("removing gban record for user %d: %w", target.ID, err)
	}

	s.NotifyOperators(ctx, fmt.Sprintf("%s has ungbanned %s",
		operator.Mention(), target.Mention()))

	chats, err := s.chats.AllChats()
	if err != nil {
		return nil, fmt.Errorf("listing chats for ungban fan-out: %w", err)
	}

	result := &GbanResult{}
	for _, chat := range chats {
		enforcing, err := s.gbans.ChatEnforcesGbans(chat.ChatID)
		if err != nil {
			return nil, fmt.Errorf("reading gban setting for chat %d: %w", chat.ChatID, err)
		}
		if !enforcing {
			result.ChatsSkipped++
			continue
		}

		err = s.callChat(ctx, func(callCtx context.Context) error {
			banned, err := s.platform.IsMemberBanned(callCtx, chat.ChatID, target.ID)
			if err != nil {
				return err
			}
			if !banned {
				return nil
			}
			return s.platform.UnbanChatMember(callCtx, chat.ChatID, target.ID)
		})
		if err != nil {
			if IsExpectedRefusal(err) {
				logger.Infof("ungban: chat %d refused unban of user %d: %v", chat.ChatID, target.ID, err)
				continue
			}

			s.NotifyOperators(ctx, fmt.Sprintf("Could not ungban due to: %v", err))
			result.Outcome = GbanAborted
			result.AbortReason = err
			return result, nil
		}

		result.ChatsTouched++
		s.pause()
	}

	s.NotifyOperators(ctx, "ungban complete!")
	result.Outcome = GbanCompleted
	return result, nil
}

// EnforceOnEvent removes globally banned users surfaced by a chat
// event. It is a no-op when the chat opted out or the bot cannot
// restrict members there. Chat admins are never removed. Returns the
// ids of removed users.
func (s *GbanService) EnforceOnEvent(ctx context.Context, chatID int64, users []*ChatUser) ([]int64, error) {
	if !s.cfg.EnforceGbans {
		return nil, nil
	}

	enforcing, err := s.gbans.ChatEnforcesGbans(chatID)
	if err != nil {
		return nil, err
	}
	if !enforcing {
		return nil, nil
	}

	canRestrict, err := s.platform.CanRestrictMembers(ctx, chatID)
	if err != nil || !canRestrict {
		return nil, err
	}

	var removed []int64
	for _, user := range users {
		if user == nil || user.ID == s.platform.BotID() {
			continue
		}

		banned, err := s.gbans.IsUserGbanned(user.ID)
		if err != nil {
			return removed, err
		}
		if !banned {
			continue
		}

		isAdmin, err := s.platform.IsChatAdmin(ctx, chatID, user.ID)
		if err != nil || isAdmin {
			continue
		}

		if err := s.platform.BanChatMember(ctx, chatID, user.ID); err != nil {
			logger.Warningf("gban enforcement failed for user %d in chat %d: %v", user.ID, chatID, err)
			continue
		}
		removed = append(removed, user.ID)
		if s.metrics != nil {
			s.metrics.GbanEnforcements.Inc()
		}

		if err := s.platform.SendMessage(ctx, chatID, fmt.Sprintf("%s is globally banned and has been removed.", user.Mention())); err != nil {
			logger.Warningf("failed to post gban enforcement notice in chat %d: %v", chatID, err)
		}
	}
	return removed, nil
}

// IsUserGbanned reports registry membership for a user.
func (s *GbanService) IsUserGbanned(userID int64) (bool, error) {
	return s.gbans.IsUserGbanned(userID)
}

// GetGbannedUser returns the registry entry, or nil when absent.
func (s *GbanService) GetGbannedUser(userID int64) (*models.GbanRecord, error) {
	return s.gbans.GetGbannedUser(userID)
}

// GbanList returns the full registry.
func (s *GbanService) GbanList() ([]models.GbanRecord, error) {
	return s.gbans.GbanList()
}

// ChatEnforcesGbans reports the chat's enforcement setting.
func (s *GbanService) ChatEnforcesGbans(chatID int64) (bool, error) {
	return s.gbans.ChatEnforcesGbans(chatID)
}

// SetChatEnforcing toggles gban enforcement for a chat.
func (s *GbanService) SetChatEnforcing(chatID int64, enforcing bool) error {
	return s.gbans.SetChatEnforcing(chatID, enforcing)
}

// NotifyOperators sends a message to every sudo and support user.
// Individual delivery failures are logged and skipped.
func (s *GbanService) NotifyOperators(ctx context.Context, text string) {
	for _, id := range s.cfg.OperatorIDs() {
		if err := s.platform.SendMessage(ctx, id, text); err != nil {
			logger.Warningf("failed to notify operator %d: %v", id, err)
		}
	}
}

func (s *GbanService) countFanout(result string) {
	if s.metrics != nil {
		s.metrics.GbanFanoutChats.WithLabelValues(result).Inc()
	}
}

func (s *GbanService) pause() {
	if s.cfg.FanoutDelay > 0 {
		time.Sleep(s.cfg.FanoutDelay)
	}
}
