package storage

import (
	"errors"
	"time"

	"tg-warden/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GbanRepository handles database operations for the global-ban
// registry and per-chat enforcement settings.
type GbanRepository struct {
	db *gorm.DB
}

// NewGbanRepository creates a new GbanRepository
func NewGbanRepository(db *gorm.DB) *GbanRepository {
	return &GbanRepository{db: db}
}

// MigrateTable ensures the gban tables exist
func (r *GbanRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.GbanRecord{}, &models.ChatGbanSetting{})
}

// GbanUser inserts or overwrites the registry entry for a user. This
// is the durable commit point of a global ban.
func (r *GbanRepository) GbanUser(userID int64, name, reason string) error {
	record := models.GbanRecord{
		UserID:   userID,
		Name:     name,
		Reason:   reason,
		BannedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "reason", "banned_at"}),
	}).Create(&record).Error
}

// UngbanUser removes the registry entry for a user.
func (r *GbanRepository) UngbanUser(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.GbanRecord{}).Error
}

// IsUserGbanned reports whether a registry entry exists. Row existence,
// not any per-chat ban state, is authoritative.
func (r *GbanRepository) IsUserGbanned(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.GbanRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// GetGbannedUser returns the registry entry, or nil when absent.
func (r *GbanRepository) GetGbannedUser(userID int64) (*models.GbanRecord, error) {
	var record models.GbanRecord
	result := r.db.Where("user_id = ?", userID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}

// GbanList returns all registry entries, oldest ban first.
func (r *GbanRepository) GbanList() ([]models.GbanRecord, error) {
	var records []models.GbanRecord
	result := r.db.Order("banned_at ASC").Find(&records)
	return records, result.Error
}

// NumGbannedUsers returns the registry size.
func (r *GbanRepository) NumGbannedUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.GbanRecord{}).Count(&count).Error
	return count, err
}

// ChatEnforcesGbans reports whether a chat enforces global bans.
// Chats without a stored setting enforce by default.
func (r *GbanRepository) ChatEnforcesGbans(chatID int64) (bool, error) {
	var setting models.ChatGbanSetting
	result := r.db.Where("chat_id = ?", chatID).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, result.Error
	}
	return setting.Enforcing, nil
}

// SetChatEnforcing toggles gban enforcement for a chat.
func (r *GbanRepository) SetChatEnforcing(chatID int64, enforcing bool) error {
	setting := models.ChatGbanSetting{ChatID: chatID, Enforcing: enforcing}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enforcing"}),
	}).Create(&setting).Error
}

// MigrateChat rewrites the chat's gban setting row.
func (r *GbanRepository) MigrateChat(oldChatID, newChatID int64) error {
	return r.db.Model(&models.ChatGbanSetting{}).
		Where("chat_id = ?", oldChatID).
		Update("chat_id", newChatID).Error
}
