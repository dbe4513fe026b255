package storage

import (
	"errors"
	"strings"

	"tg-warden/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository handles database operations for command disabling
// and report preferences.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// MigrateTable ensures the settings tables exist
func (r *SettingsRepository) MigrateTable() error {
	return r.db.AutoMigrate(
		&models.DisabledCommand{},
		&models.ChatReportSetting{},
		&models.UserReportSetting{},
	)
}

// DisableCommand marks a command as disabled in a chat.
func (r *SettingsRepository) DisableCommand(chatID int64, command string) error {
	row := models.DisabledCommand{ChatID: chatID, Command: strings.ToLower(command)}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "command"}},
		DoNothing: true,
	}).Create(&row).Error
}

// EnableCommand re-enables a command. Returns false when it was not
// disabled in the first place.
func (r *SettingsRepository) EnableCommand(chatID int64, command string) (bool, error) {
	result := r.db.Where("chat_id = ? AND command = ?", chatID, strings.ToLower(command)).
		Delete(&models.DisabledCommand{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsCommandDisabled reports whether a command is disabled in a chat.
func (r *SettingsRepository) IsCommandDisabled(chatID int64, command string) (bool, error) {
	var count int64
	err := r.db.Model(&models.DisabledCommand{}).
		Where("chat_id = ? AND command = ?", chatID, strings.ToLower(command)).
		Count(&count).Error
	return count > 0, err
}

// DisabledCommands returns all disabled commands in a chat.
func (r *SettingsRepository) DisabledCommands(chatID int64) ([]string, error) {
	var rows []models.DisabledCommand
	if err := r.db.Where("chat_id = ?", chatID).Order("command ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	commands := make([]string, 0, len(rows))
	for _, row := range rows {
		commands = append(commands, row.Command)
	}
	return commands, nil
}

// NumDisabled returns the total disabled-command rows across chats.
func (r *SettingsRepository) NumDisabled() (int64, error) {
	var count int64
	err := r.db.Model(&models.DisabledCommand{}).Count(&count).Error
	return count, err
}

// ChatShouldReport reports whether /report is active in a chat.
// Reporting defaults to on.
func (r *SettingsRepository) ChatShouldReport(chatID int64) (bool, error) {
	var setting models.ChatReportSetting
	result := r.db.Where("chat_id = ?", chatID).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, result.Error
	}
	return setting.Enabled, nil
}

// SetChatReportSetting toggles report routing for a chat.
func (r *SettingsRepository) SetChatReportSetting(chatID int64, enabled bool) error {
	setting := models.ChatReportSetting{ChatID: chatID, Enabled: enabled}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
	}).Create(&setting).Error
}

// UserShouldReport reports whether an admin wants report forwards.
func (r *SettingsRepository) UserShouldReport(userID int64) (bool, error) {
	var setting models.UserReportSetting
	result := r.db.Where("user_id = ?", userID).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, result.Error
	}
	return setting.Enabled, nil
}

// SetUserReportSetting toggles report forwards for a user.
func (r *SettingsRepository) SetUserReportSetting(userID int64, enabled bool) error {
	setting := models.UserReportSetting{UserID: userID, Enabled: enabled}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
	}).Create(&setting).Error
}

// MigrateChat rewrites chat-keyed settings rows.
func (r *SettingsRepository) MigrateChat(oldChatID, newChatID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DisabledCommand{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatReportSetting{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error
	})
}
