package models

import "time"

// GbanRecord marks a user as globally banned. Existence of the row is
// the sole source of truth; per-chat ban state may lag behind it.
type GbanRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   int64  `gorm:"not null;uniqueIndex"`
	Name     string `gorm:"size:255"`
	Reason   string `gorm:"type:text"`
	BannedAt time.Time
}

// ChatGbanSetting controls whether global bans are enforced in a chat.
// Chats are opted in by default; a row only exists once an admin has
// toggled the setting.
type ChatGbanSetting struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	ChatID    int64 `gorm:"not null;uniqueIndex"`
	Enforcing bool  `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
