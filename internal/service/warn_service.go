package service

import (
	"context"
	"fmt"

	"tg-warden/internal/logger"
	"tg-warden/internal/storage"
)

// WarnOutcome classifies the result of applying a warning.
type WarnOutcome int

const (
	// WarnNotWarnable means the target is immune (chat admin); no
	// counter was touched.
	WarnNotWarnable WarnOutcome = iota
	// Warned means the count went up but stayed under the limit.
	Warned
	// WarnPunished means the limit was reached, the punitive action
	// succeeded and the counter was reset.
	WarnPunished
	// WarnPunishFailed means the limit was reached but the platform
	// refused the punitive action. The warning still stands.
	WarnPunishFailed
)

// WarnAction is the punitive action taken when the limit is reached.
type WarnAction int

const (
	ActionNone WarnAction = iota
	ActionKick
	ActionBan
)

func (a WarnAction) String() string {
	switch a {
	case ActionKick:
		return "kicked"
	case ActionBan:
		return "banned"
	default:
		return "none"
	}
}

// WarnResult is the outcome of a single warning application.
type WarnResult struct {
	Outcome  WarnOutcome
	NumWarns int
	Limit    int
	Reason   string
	Action   WarnAction

	// LogEvent is the moderation-log line, distinct from any
	// user-facing reply. Empty when nothing log-worthy happened.
	LogEvent string
}

// WarnService applies warnings, evaluates the threshold policy and
// fires the configured punitive action.
type WarnService struct {
	warns    *storage.WarnRepository
	platform Platform
	metrics  *Metrics
}

// NewWarnService creates a new WarnService
func NewWarnService(warns *storage.WarnRepository, platform Platform, metrics *Metrics) *WarnService {
	return &WarnService{warns: warns, platform: platform, metrics: metrics}
}

// ApplyWarning warns a user in a chat. Admins are categorically
// immune. When the resulting count reaches the chat's limit, the
// configured action (kick or ban) fires; on success the counter
// resets, on platform refusal the warning stands and the outcome is
// WarnPunishFailed.
func (s *WarnService) ApplyWarning(ctx context.Context, target *ChatUser, chatID int64, reason string) (*WarnResult, error) {
	isAdmin, err := s.platform.IsChatAdmin(ctx, chatID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("checking admin status of user %d in chat %d: %w", target.ID, chatID, err)
	}
	if isAdmin {
		return &WarnResult{Outcome: WarnNotWarnable}, nil
	}

	setting, err := s.warns.GetWarnSetting(chatID)
	if err != nil {
		return nil, fmt.Errorf("loading warn setting for chat %d: %w", chatID, err)
	}

	record, err := s.warns.IncrementWarn(target.ID, chatID, reason)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.WarnsIssued.Inc()
	}

	result := &WarnResult{
		NumWarns: record.NumWarns,
		Limit:    setting.WarnLimit,
		Reason:   reason,
	}

	if record.NumWarns < setting.WarnLimit {
		result.Outcome = Warned
		result.LogEvent = fmt.Sprintf("%s was warned in chat %d (%d/%d)",
			target.DisplayName(), chatID, record.NumWarns, setting.WarnLimit)
		return result, nil
	}

	action := ActionBan
	actionErr := error(nil)
	if setting.SoftWarn {
		action = ActionKick
		actionErr = s.platform.KickChatMember(ctx, chatID, target.ID)
	} else {
		actionErr = s.platform.BanChatMember(ctx, chatID, target.ID)
	}
	result.Action = action

	if actionErr != nil {
		// The already-incremented warning stands; no rollback.
		logger.Warningf("punitive action failed for user %d in chat %d: %v", target.ID, chatID, actionErr)
		result.Outcome = WarnPunishFailed
		return result, nil
	}

	if err := s.warns.ResetWarns(target.ID, chatID); err != nil {
		return nil, fmt.Errorf("resetting warns after punishment for user %d in chat %d: %w", target.ID, chatID, err)
	}
	if s.metrics != nil {
		s.metrics.WarnPunishments.WithLabelValues(action.String()).Inc()
	}

	result.Outcome = WarnPunished
	result.NumWarns = 0
	result.LogEvent = fmt.Sprintf("%s was %s in chat %d due to too many warnings",
		target.DisplayName(), action, chatID)
	return result, nil
}

// RemoveWarning deletes one warning unit from a user. Returns false
// when there was nothing to remove. Safe under concurrent removal; the
// count never goes negative.
func (s *WarnService) RemoveWarning(userID, chatID int64) (bool, error) {
	return s.warns.RemoveWarn(userID, chatID)
}

// ResetWarnings clears all warnings for a user in a chat.
func (s *WarnService) ResetWarnings(userID, chatID int64) error {
	return s.warns.ResetWarns(userID, chatID)
}

// GetWarnings returns the current count, the limit and the recorded
// reasons for a user.
func (s *WarnService) GetWarnings(userID, chatID int64) (int, int, []string, error) {
	num, reasons, err := s.warns.GetWarns(userID, chatID)
	if err != nil {
		return 0, 0, nil, err
	}
	setting, err := s.warns.GetWarnSetting(chatID)
	if err != nil {
		return 0, 0, nil, err
	}
	return num, setting.WarnLimit, reasons, nil
}

// WarnSetting returns the chat's current limit and mode.
func (s *WarnService) WarnSetting(chatID int64) (limit int, softWarn bool, err error) {
	setting, err := s.warns.GetWarnSetting(chatID)
	if err != nil {
		return 0, false, err
	}
	return setting.WarnLimit, setting.SoftWarn, nil
}

// SetWarnLimit updates the chat's warn threshold.
func (s *WarnService) SetWarnLimit(chatID int64, limit int) error {
	return s.warns.SetWarnLimit(chatID, limit)
}

// SetSoftWarn selects kick-on-limit (true) or ban-on-limit (false).
func (s *WarnService) SetSoftWarn(chatID int64, soft bool) error {
	return s.warns.SetSoftWarn(chatID, soft)
}
