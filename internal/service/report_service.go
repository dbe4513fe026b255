package service

import (
	"context"
	"fmt"

	"tg-warden/internal/logger"
	"tg-warden/internal/storage"
)

// ReportService routes user reports to the chat's admins.
type ReportService struct {
	settings *storage.SettingsRepository
	platform Platform
	metrics  *Metrics
}

// NewReportService creates a new ReportService
func NewReportService(settings *storage.SettingsRepository, platform Platform, metrics *Metrics) *ReportService {
	return &ReportService{settings: settings, platform: platform, metrics: metrics}
}

// ChatShouldReport reports whether reporting is active in a chat.
func (s *ReportService) ChatShouldReport(chatID int64) (bool, error) {
	return s.settings.ChatShouldReport(chatID)
}

// SetChatSetting toggles reporting for a chat.
func (s *ReportService) SetChatSetting(chatID int64, enabled bool) error {
	return s.settings.SetChatReportSetting(chatID, enabled)
}

// UserShouldReport reports whether an admin opted into report
// forwards.
func (s *ReportService) UserShouldReport(userID int64) (bool, error) {
	return s.settings.UserShouldReport(userID)
}

// SetUserSetting toggles report forwards for a user.
func (s *ReportService) SetUserSetting(userID int64, enabled bool) error {
	return s.settings.SetUserReportSetting(userID, enabled)
}

// ForwardReport notifies every opted-in, non-bot admin of the chat and
// forwards the reported message to them. Reports from the chat's own
// admins are ignored. reasonMessageID, when non-zero, is the
// reporter's own message and is forwarded too. Per-admin delivery
// failures are swallowed. Returns the number of admins notified.
func (s *ReportService) ForwardReport(ctx context.Context, chatID int64, chatName string, reporter *ChatUser, reportedMessageID, reasonMessageID int) (int, error) {
	enabled, err := s.settings.ChatShouldReport(chatID)
	if err != nil {
		return 0, err
	}
	if !enabled {
		return 0, nil
	}

	isAdmin, err := s.platform.IsChatAdmin(ctx, chatID, reporter.ID)
	if err != nil {
		return 0, err
	}
	if isAdmin {
		return 0, nil
	}

	admins, err := s.platform.ChatAdministrators(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("listing admins of chat %d: %w", chatID, err)
	}

	notified := 0
	for _, admin := range admins {
		if admin.IsBot {
			continue
		}

		wants, err := s.settings.UserShouldReport(admin.ID)
		if err != nil {
			return notified, err
		}
		if !wants {
			continue
		}

		text := fmt.Sprintf("%s is calling for admins in %s!", reporter.DisplayName(), chatName)
		if err := s.platform.SendMessage(ctx, admin.ID, text); err != nil {
			logger.Infof("could not notify admin %d of report in chat %d: %v", admin.ID, chatID, err)
			continue
		}
		if err := s.platform.ForwardMessage(ctx, admin.ID, chatID, reportedMessageID); err != nil {
			logger.Infof("could not forward reported message to admin %d: %v", admin.ID, err)
		}
		if reasonMessageID != 0 {
			if err := s.platform.ForwardMessage(ctx, admin.ID, chatID, reasonMessageID); err != nil {
				logger.Infof("could not forward report reason to admin %d: %v", admin.ID, err)
			}
		}
		notified++
	}

	if s.metrics != nil && notified > 0 {
		s.metrics.ReportsForwarded.Inc()
	}
	return notified, nil
}
