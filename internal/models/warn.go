package models

import "time"

// MaxWarnReasons caps the stored reason history per (user, chat).
const MaxWarnReasons = 100

// MinWarnLimit is the smallest configurable warn limit.
const MinWarnLimit = 3

// WarnRecord tracks accumulated warnings for a user within a chat.
// The row persists at zero after a reset; it is never deleted.
type WarnRecord struct {
	ID       uint     `gorm:"primaryKey;autoIncrement"`
	UserID   int64    `gorm:"not null;uniqueIndex:idx_warn_user_chat"`
	ChatID   int64    `gorm:"not null;uniqueIndex:idx_warn_user_chat"`
	NumWarns int      `gorm:"not null;default:0"`
	Reasons  []string `gorm:"serializer:json;type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendReason records a warning reason, dropping the oldest entries
// once the cap is reached. Empty reasons are not stored.
func (w *WarnRecord) AppendReason(reason string) {
	if reason == "" {
		return
	}
	w.Reasons = append(w.Reasons, reason)
	if len(w.Reasons) > MaxWarnReasons {
		w.Reasons = w.Reasons[len(w.Reasons)-MaxWarnReasons:]
	}
}

// ChatWarnSetting holds a chat's warn threshold policy.
// SoftWarn selects kick-on-limit instead of ban-on-limit.
type ChatWarnSetting struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	ChatID    int64 `gorm:"not null;uniqueIndex"`
	WarnLimit int   `gorm:"not null;default:3"`
	SoftWarn  bool  `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WarnFilter is a per-chat keyword that auto-issues a warning with a
// preset reason when matched in a message. Keywords are stored
// case-folded and are unique per chat.
type WarnFilter struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	ChatID  int64  `gorm:"not null;uniqueIndex:idx_filter_chat_keyword"`
	Keyword string `gorm:"size:191;not null;uniqueIndex:idx_filter_chat_keyword"`
	Reply   string `gorm:"type:text;not null"`

	CreatedAt time.Time
}
