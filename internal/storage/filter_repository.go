package storage

import (
	"errors"
	"strings"

	"tg-warden/internal/models"

	"gorm.io/gorm"
)

// FilterRepository handles database operations for warn filters.
// Keywords are case-folded on the way in so lookups never depend on
// caller casing.
type FilterRepository struct {
	db *gorm.DB
}

// NewFilterRepository creates a new FilterRepository
func NewFilterRepository(db *gorm.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// MigrateTable ensures the WarnFilter table exists
func (r *FilterRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.WarnFilter{})
}

// AddFilter adds a keyword filter to a chat, replacing any existing
// filter with the same keyword.
func (r *FilterRepository) AddFilter(chatID int64, keyword, reply string) error {
	keyword = strings.ToLower(keyword)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? AND keyword = ?", chatID, keyword).
			Delete(&models.WarnFilter{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WarnFilter{
			ChatID:  chatID,
			Keyword: keyword,
			Reply:   reply,
		}).Error
	})
}

// RemoveFilter deletes a keyword filter. Returns false when no such
// filter existed.
func (r *FilterRepository) RemoveFilter(chatID int64, keyword string) (bool, error) {
	keyword = strings.ToLower(keyword)
	result := r.db.Where("chat_id = ? AND keyword = ?", chatID, keyword).
		Delete(&models.WarnFilter{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ChatFilters returns a chat's filters in insertion order.
func (r *FilterRepository) ChatFilters(chatID int64) ([]models.WarnFilter, error) {
	var filters []models.WarnFilter
	result := r.db.Where("chat_id = ?", chatID).Order("id ASC").Find(&filters)
	return filters, result.Error
}

// GetFilter returns a single filter, or nil when absent.
func (r *FilterRepository) GetFilter(chatID int64, keyword string) (*models.WarnFilter, error) {
	var filter models.WarnFilter
	result := r.db.Where("chat_id = ? AND keyword = ?", chatID, strings.ToLower(keyword)).First(&filter)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &filter, nil
}

// NumFilters returns the total filter count across all chats.
func (r *FilterRepository) NumFilters() (int64, error) {
	var count int64
	err := r.db.Model(&models.WarnFilter{}).Count(&count).Error
	return count, err
}

// NumFilterChats returns the number of chats with at least one filter.
func (r *FilterRepository) NumFilterChats() (int64, error) {
	var count int64
	err := r.db.Model(&models.WarnFilter{}).Distinct("chat_id").Count(&count).Error
	return count, err
}

// MigrateChat rewrites filter rows keyed on the old chat id.
func (r *FilterRepository) MigrateChat(oldChatID, newChatID int64) error {
	return r.db.Model(&models.WarnFilter{}).
		Where("chat_id = ?", oldChatID).
		Update("chat_id", newChatID).Error
}
