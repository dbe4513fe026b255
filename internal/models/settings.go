package models

import "time"

// DisabledCommand marks a command as disabled within a chat.
type DisabledCommand struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	ChatID  int64  `gorm:"not null;uniqueIndex:idx_disabled_chat_command"`
	Command string `gorm:"size:191;not null;uniqueIndex:idx_disabled_chat_command"`

	CreatedAt time.Time
}

// ChatReportSetting controls whether /report and @admin are active in
// a chat. Reporting is on by default; a row exists only once toggled.
type ChatReportSetting struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	ChatID    int64 `gorm:"not null;uniqueIndex"`
	Enabled   bool  `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserReportSetting controls whether an admin receives report
// forwards in private chat.
type UserReportSetting struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex"`
	Enabled   bool  `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
