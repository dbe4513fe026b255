package storage

import (
	"errors"

	"tg-warden/internal/logger"
	"tg-warden/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository handles database operations for known chats and user
// sightings.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// MigrateTable ensures the chat and sighting tables exist
func (r *ChatRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ChatInfo{}, &models.UserSighting{})
}

// UpsertChat records or refreshes a chat the bot is a member of.
func (r *ChatRepository) UpsertChat(info *models.ChatInfo) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "username", "updated_at"}),
	}).Create(info).Error
}

// DeleteChat removes a chat, used when the bot is kicked out.
func (r *ChatRepository) DeleteChat(chatID int64) error {
	return r.db.Where("chat_id = ?", chatID).Delete(&models.ChatInfo{}).Error
}

// AllChats returns every chat the bot knows about, for fan-outs.
func (r *ChatRepository) AllChats() ([]models.ChatInfo, error) {
	var chats []models.ChatInfo
	result := r.db.Order("chat_id ASC").Find(&chats)
	return chats, result.Error
}

// NumChats returns the number of known chats.
func (r *ChatRepository) NumChats() (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatInfo{}).Count(&count).Error
	return count, err
}

// UpsertSighting records that a user was seen in a chat, refreshing
// the stored username.
func (r *ChatRepository) UpsertSighting(userID, chatID int64, username string) error {
	sighting := models.UserSighting{UserID: userID, ChatID: chatID, Username: username}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(&sighting).Error
}

// UserIDByUsername resolves an @username to a user id from recorded
// sightings, preferring the most recently seen. Returns 0 when the
// username is unknown.
func (r *ChatRepository) UserIDByUsername(username string) (int64, error) {
	var sighting models.UserSighting
	result := r.db.Where("username = ?", username).
		Order("updated_at DESC").
		First(&sighting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return sighting.UserID, nil
}

// MigrateChat rewrites chat and sighting rows keyed on the old chat id.
func (r *ChatRepository) MigrateChat(oldChatID, newChatID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ChatInfo{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserSighting{}).
			Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error
	})
}

// InitializeChats loads all known chats into the in-memory cache.
func (r *ChatRepository) InitializeChats(manager *models.ChatInfoManager) error {
	chats, err := r.AllChats()
	if err != nil {
		return err
	}

	for i := range chats {
		manager.Add(&chats[i])
	}

	logger.Infof("Loaded %d chats from database into cache", len(chats))
	return nil
}
