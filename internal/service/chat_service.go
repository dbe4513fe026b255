package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tg-warden/internal/logger"
	"tg-warden/internal/models"
	"tg-warden/internal/storage"
)

const broadcastDelay = 100 * time.Millisecond

// ChatService tracks the chats the bot is a member of and the users
// seen in them, and owns cross-table operations keyed on chat ids.
type ChatService struct {
	chats    *storage.ChatRepository
	warns    *storage.WarnRepository
	filters  *storage.FilterRepository
	gbans    *storage.GbanRepository
	settings *storage.SettingsRepository
	cache    *models.ChatInfoManager
	platform Platform
}

// NewChatService creates a new ChatService
func NewChatService(chats *storage.ChatRepository, warns *storage.WarnRepository, filters *storage.FilterRepository, gbans *storage.GbanRepository, settings *storage.SettingsRepository, cache *models.ChatInfoManager, platform Platform) *ChatService {
	return &ChatService{
		chats:    chats,
		warns:    warns,
		filters:  filters,
		gbans:    gbans,
		settings: settings,
		cache:    cache,
		platform: platform,
	}
}

// WarmChatCache preloads the in-memory chat cache from the database.
func (s *ChatService) WarmChatCache() error {
	return s.chats.InitializeChats(s.cache)
}

// TrackChat records or refreshes a chat the bot is a member of.
func (s *ChatService) TrackChat(chatID int64, title, username string) error {
	info := &models.ChatInfo{ChatID: chatID, Title: title, Username: username}
	if err := s.chats.UpsertChat(info); err != nil {
		return err
	}
	s.cache.Add(info)
	return nil
}

// ForgetChat drops a chat, used when the bot is removed from it.
func (s *ChatService) ForgetChat(chatID int64) error {
	s.cache.Remove(chatID)
	return s.chats.DeleteChat(chatID)
}

// TrackUser records a user sighting so @username targets resolve.
func (s *ChatService) TrackUser(userID, chatID int64, username string) {
	if err := s.chats.UpsertSighting(userID, chatID, username); err != nil {
		logger.Warningf("failed to record sighting of user %d in chat %d: %v", userID, chatID, err)
	}
}

// ResolveUsername maps an @username to a user id from recorded
// sightings. Returns 0 when unknown.
func (s *ChatService) ResolveUsername(username string) (int64, error) {
	return s.chats.UserIDByUsername(strings.TrimPrefix(username, "@"))
}

// AllChats returns every known chat.
func (s *ChatService) AllChats() ([]models.ChatInfo, error) {
	return s.chats.AllChats()
}

// Broadcast sends a message to every known chat with a small delay
// between sends. Returns how many chats failed to receive it.
func (s *ChatService) Broadcast(ctx context.Context, text string) (failed int, err error) {
	chats, err := s.chats.AllChats()
	if err != nil {
		return 0, err
	}

	for _, chat := range chats {
		if err := s.platform.SendMessage(ctx, chat.ChatID, text); err != nil {
			failed++
			logger.Warningf("couldn't broadcast to chat %d (%s): %v", chat.ChatID, chat.Title, err)
		}
		time.Sleep(broadcastDelay)
	}
	return failed, nil
}

// MigrateChat rewrites every chat-keyed row from the old id to the new
// one when the platform upgrades a chat's identifier. Any failure is a
// hard failure of the whole operation.
func (s *ChatService) MigrateChat(oldChatID, newChatID int64) error {
	if err := s.warns.MigrateChat(oldChatID, newChatID); err != nil {
		return fmt.Errorf("migrating warn rows from chat %d to %d: %w", oldChatID, newChatID, err)
	}
	if err := s.filters.MigrateChat(oldChatID, newChatID); err != nil {
		return fmt.Errorf("migrating filter rows from chat %d to %d: %w", oldChatID, newChatID, err)
	}
	if err := s.gbans.MigrateChat(oldChatID, newChatID); err != nil {
		return fmt.Errorf("migrating gban setting from chat %d to %d: %w", oldChatID, newChatID, err)
	}
	if err := s.settings.MigrateChat(oldChatID, newChatID); err != nil {
		return fmt.Errorf("migrating settings from chat %d to %d: %w", oldChatID, newChatID, err)
	}
	if err := s.chats.MigrateChat(oldChatID, newChatID); err != nil {
		return fmt.Errorf("migrating chat row from %d to %d: %w", oldChatID, newChatID, err)
	}

	if info := s.cache.Get(oldChatID); info != nil {
		s.cache.Remove(oldChatID)
		info.ChatID = newChatID
		s.cache.Add(info)
	}

	logger.Infof("migrated chat %d to %d", oldChatID, newChatID)
	return nil
}

// StatsSummary returns the aggregate counters for the /stats command.
func (s *ChatService) StatsSummary() (string, error) {
	totalWarns, err := s.warns.NumWarns()
	if err != nil {
		return "", err
	}
	warnChats, err := s.warns.NumWarnChats()
	if err != nil {
		return "", err
	}
	numFilters, err := s.filters.NumFilters()
	if err != nil {
		return "", err
	}
	filterChats, err := s.filters.NumFilterChats()
	if err != nil {
		return "", err
	}
	numGbanned, err := s.gbans.NumGbannedUsers()
	if err != nil {
		return "", err
	}
	numChats, err := s.chats.NumChats()
	if err != nil {
		return "", err
	}
	numDisabled, err := s.settings.NumDisabled()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"%d overall warns, across %d chats.\n"+
			"%d warn filters, across %d chats.\n"+
			"%d gbanned users.\n"+
			"%d disabled commands.\n"+
			"%d chats total.",
		totalWarns, warnChats, numFilters, filterChats, numGbanned, numDisabled, numChats), nil
}
