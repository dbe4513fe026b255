package models

import "time"

// UserSighting records that a user was seen in a chat, keeping the
// username fresh so @username command targets can be resolved.
type UserSighting struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   int64  `gorm:"not null;uniqueIndex:idx_sighting_user_chat"`
	ChatID   int64  `gorm:"not null;uniqueIndex:idx_sighting_user_chat"`
	Username string `gorm:"size:255;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
