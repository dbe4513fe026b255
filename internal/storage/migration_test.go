package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tg-warden/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "warden.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

// TestChatIDMigration seeds every chat-keyed table under one chat id
// and verifies that migrating to a new id moves all rows and leaves no
// residue behind.
func TestChatIDMigration(t *testing.T) {
	db := newTestDB(t)
	const oldID, newID = int64(-100), int64(-100200)

	warns := NewWarnRepository(db, 3, false)
	filters := NewFilterRepository(db)
	gbans := NewGbanRepository(db)
	chats := NewChatRepository(db)
	settings := NewSettingsRepository(db)

	for _, migrate := range []func() error{
		warns.MigrateTable, filters.MigrateTable, gbans.MigrateTable,
		chats.MigrateTable, settings.MigrateTable,
	} {
		require.NoError(t, migrate())
	}

	_, err := warns.IncrementWarn(42, oldID, "spam")
	require.NoError(t, err)
	require.NoError(t, warns.SetWarnLimit(oldID, 5))
	require.NoError(t, filters.AddFilter(oldID, "spam", "no spam"))
	require.NoError(t, gbans.SetChatEnforcing(oldID, false))
	require.NoError(t, chats.UpsertChat(&models.ChatInfo{ChatID: oldID, Title: "old"}))
	require.NoError(t, chats.UpsertSighting(42, oldID, "troll"))
	require.NoError(t, settings.DisableCommand(oldID, "warns"))
	require.NoError(t, settings.SetChatReportSetting(oldID, false))

	require.NoError(t, warns.MigrateChat(oldID, newID))
	require.NoError(t, filters.MigrateChat(oldID, newID))
	require.NoError(t, gbans.MigrateChat(oldID, newID))
	require.NoError(t, chats.MigrateChat(oldID, newID))
	require.NoError(t, settings.MigrateChat(oldID, newID))

	num, reasons, err := warns.GetWarns(42, newID)
	require.NoError(t, err)
	assert.Equal(t, 1, num)
	assert.Equal(t, []string{"spam"}, reasons)

	num, _, err = warns.GetWarns(42, oldID)
	require.NoError(t, err)
	assert.Equal(t, 0, num)

	setting, err := warns.GetWarnSetting(newID)
	require.NoError(t, err)
	assert.Equal(t, 5, setting.WarnLimit)

	rows, err := filters.ChatFilters(newID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "spam", rows[0].Keyword)
	rows, err = filters.ChatFilters(oldID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	enforcing, err := gbans.ChatEnforcesGbans(newID)
	require.NoError(t, err)
	assert.False(t, enforcing)

	all, err := chats.AllChats()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, newID, all[0].ChatID)

	userID, err := chats.UserIDByUsername("troll")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	disabled, err := settings.IsCommandDisabled(newID, "warns")
	require.NoError(t, err)
	assert.True(t, disabled)
	disabled, err = settings.IsCommandDisabled(oldID, "warns")
	require.NoError(t, err)
	assert.False(t, disabled)

	report, err := settings.ChatShouldReport(newID)
	require.NoError(t, err)
	assert.False(t, report)
}

func TestFilterOrderingAndReplacement(t *testing.T) {
	db := newTestDB(t)
	filters := NewFilterRepository(db)
	require.NoError(t, filters.MigrateTable())

	require.NoError(t, filters.AddFilter(-100, "alpha", "a"))
	require.NoError(t, filters.AddFilter(-100, "beta", "b"))
	require.NoError(t, filters.AddFilter(-100, "gamma", "c"))

	rows, err := filters.ChatFilters(-100)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0].Keyword)
	assert.Equal(t, "beta", rows[1].Keyword)
	assert.Equal(t, "gamma", rows[2].Keyword)

	// Re-adding replaces the row and moves it to the end.
	require.NoError(t, filters.AddFilter(-100, "alpha", "a2"))
	rows, err = filters.ChatFilters(-100)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "beta", rows[0].Keyword)
	assert.Equal(t, "alpha", rows[2].Keyword)
	assert.Equal(t, "a2", rows[2].Reply)
}

func TestDisableCommandIdempotent(t *testing.T) {
	db := newTestDB(t)
	settings := NewSettingsRepository(db)
	require.NoError(t, settings.MigrateTable())

	require.NoError(t, settings.DisableCommand(-100, "warns"))
	require.NoError(t, settings.DisableCommand(-100, "warns"))
	require.NoError(t, settings.DisableCommand(-200, "warns"))

	count, err := settings.NumDisabled()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGbanRegistryUpsert(t *testing.T) {
	db := newTestDB(t)
	gbans := NewGbanRepository(db)
	require.NoError(t, gbans.MigrateTable())

	require.NoError(t, gbans.GbanUser(42, "troll", "first"))
	require.NoError(t, gbans.GbanUser(42, "troll2", "updated"))

	record, err := gbans.GetGbannedUser(42)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "troll2", record.Name)
	assert.Equal(t, "updated", record.Reason)

	count, err := gbans.NumGbannedUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, gbans.UngbanUser(42))
	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.False(t, banned)

	missing, err := gbans.GetGbannedUser(42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
