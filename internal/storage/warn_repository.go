package storage

import (
	"errors"
	"fmt"
	"sync"

	"tg-warden/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WarnRepository handles database operations for warn records and
// per-chat warn settings.
//
// Increment, remove and reset on a (user, chat) key must be
// linearizable: each mutation runs in a transaction, and a striped
// in-process mutex serializes writers on the same key so concurrent
// warnings never lose updates.
type WarnRepository struct {
	db    *gorm.DB
	locks [64]sync.Mutex

	defaultLimit    int
	defaultSoftWarn bool
}

// NewWarnRepository creates a new WarnRepository. The defaults apply
// when a chat has no stored warn setting yet.
func NewWarnRepository(db *gorm.DB, defaultLimit int, defaultSoftWarn bool) *WarnRepository {
	if defaultLimit < models.MinWarnLimit {
		defaultLimit = models.MinWarnLimit
	}
	return &WarnRepository{
		db:              db,
		defaultLimit:    defaultLimit,
		defaultSoftWarn: defaultSoftWarn,
	}
}

// MigrateTable ensures the warn tables exist
func (r *WarnRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.WarnRecord{}, &models.ChatWarnSetting{})
}

func (r *WarnRepository) keyLock(userID, chatID int64) *sync.Mutex {
	h := uint64(userID)*31 ^ uint64(chatID)
	return &r.locks[h%uint64(len(r.locks))]
}

// IncrementWarn atomically increments a user's warn count in a chat,
// appending the reason, and returns the resulting record.
func (r *WarnRepository) IncrementWarn(userID, chatID int64, reason string) (*models.WarnRecord, error) {
	mu := r.keyLock(userID, chatID)
	mu.Lock()
	defer mu.Unlock()

	var record models.WarnRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND chat_id = ?", userID, chatID).
			First(&record)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			record = models.WarnRecord{UserID: userID, ChatID: chatID}
		}

		record.NumWarns++
		record.AppendReason(reason)
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("incrementing warn for user %d in chat %d: %w", userID, chatID, err)
	}
	return &record, nil
}

// RemoveWarn deletes one warning unit. It returns false when the user
// has no warnings to remove; the count never goes negative.
func (r *WarnRepository) RemoveWarn(userID, chatID int64) (bool, error) {
	mu := r.keyLock(userID, chatID)
	mu.Lock()
	defer mu.Unlock()

	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var record models.WarnRecord
		result := tx.Where("user_id = ? AND chat_id = ?", userID, chatID).
			First(&record)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return result.Error
		}
		if record.NumWarns <= 0 {
			return nil
		}

		record.NumWarns--
		if len(record.Reasons) > 0 {
			record.Reasons = record.Reasons[:len(record.Reasons)-1]
		}
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("removing warn for user %d in chat %d: %w", userID, chatID, err)
	}
	return removed, nil
}

// ResetWarns zeroes the count and clears the reason history. The row
// persists at zero.
func (r *WarnRepository) ResetWarns(userID, chatID int64) error {
	mu := r.keyLock(userID, chatID)
	mu.Lock()
	defer mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var record models.WarnRecord
		result := tx.Where("user_id = ? AND chat_id = ?", userID, chatID).
			First(&record)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return result.Error
		}

		record.NumWarns = 0
		record.Reasons = nil
		return tx.Save(&record).Error
	})
	if err != nil {
		return fmt.Errorf("resetting warns for user %d in chat %d: %w", userID, chatID, err)
	}
	return nil
}

// GetWarns returns the current warn count and reasons for a user.
func (r *WarnRepository) GetWarns(userID, chatID int64) (int, []string, error) {
	var record models.WarnRecord
	result := r.db.Where("user_id = ? AND chat_id = ?", userID, chatID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil, nil
		}
		return 0, nil, result.Error
	}
	return record.NumWarns, record.Reasons, nil
}

// GetWarnSetting returns the chat's warn policy, creating it lazily
// with defaults on first access.
func (r *WarnRepository) GetWarnSetting(chatID int64) (*models.ChatWarnSetting, error) {
	var setting models.ChatWarnSetting
	result := r.db.Where("chat_id = ?", chatID).First(&setting)
	if result.Error == nil {
		return &setting, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	setting = models.ChatWarnSetting{
		ChatID:    chatID,
		WarnLimit: r.defaultLimit,
		SoftWarn:  r.defaultSoftWarn,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoNothing: true,
	}).Create(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetWarnLimit updates the chat's warn threshold. Limits below the
// minimum are rejected.
func (r *WarnRepository) SetWarnLimit(chatID int64, limit int) error {
	if limit < models.MinWarnLimit {
		return fmt.Errorf("warn limit must be at least %d", models.MinWarnLimit)
	}
	setting, err := r.GetWarnSetting(chatID)
	if err != nil {
		return err
	}
	setting.WarnLimit = limit
	return r.db.Save(setting).Error
}

// SetSoftWarn toggles kick-on-limit (true) vs ban-on-limit (false).
func (r *WarnRepository) SetSoftWarn(chatID int64, soft bool) error {
	setting, err := r.GetWarnSetting(chatID)
	if err != nil {
		return err
	}
	setting.SoftWarn = soft
	return r.db.Save(setting).Error
}

// NumWarns returns the total warn count across all chats.
func (r *WarnRepository) NumWarns() (int64, error) {
	var total int64
	err := r.db.Model(&models.WarnRecord{}).
		Select("COALESCE(SUM(num_warns), 0)").
		Scan(&total).Error
	return total, err
}

// NumWarnChats returns the number of chats with at least one warn.
func (r *WarnRepository) NumWarnChats() (int64, error) {
	var count int64
	err := r.db.Model(&models.WarnRecord{}).
		Where("num_warns > 0").
		Distinct("chat_id").
		Count(&count).Error
	return count, err
}

// MigrateChat rewrites all warn rows keyed on the old chat id.
func (r *WarnRepository) MigrateChat(oldChatID, newChatID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WarnRecord{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatWarnSetting{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error
	})
}
