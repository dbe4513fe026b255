package models

import (
	"fmt"
	"sync"
	"time"
)

// ChatInfo records a chat the bot is a member of. The gban fan-out
// iterates over these rows.
type ChatInfo struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ChatID   int64  `gorm:"not null;uniqueIndex"`
	Title    string `gorm:"size:255"`
	Username string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Link returns a t.me link for the chat, or empty if none can be built.
func (c *ChatInfo) Link() string {
	if c.Username != "" {
		return fmt.Sprintf("https://t.me/%s", c.Username)
	}
	// Telegram requires removing the -100 prefix from supergroup IDs for links
	id := c.ChatID
	if id < -1000000000000 {
		return fmt.Sprintf("https://t.me/c/%d", -id-1000000000000)
	}
	return ""
}

// ChatInfoManager is an in-memory cache of known chats, backed by the
// chat repository.
type ChatInfoManager struct {
	chats map[int64]*ChatInfo
	mu    sync.RWMutex
}

func NewChatInfoManager() *ChatInfoManager {
	return &ChatInfoManager{
		chats: make(map[int64]*ChatInfo),
	}
}

func (m *ChatInfoManager) Get(chatID int64) *ChatInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chats[chatID]
}

func (m *ChatInfoManager) Add(info *ChatInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[info.ChatID] = info
}

func (m *ChatInfoManager) Remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, chatID)
}
