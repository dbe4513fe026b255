package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
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

type call struct {
	chatID int64
	userID int64
}

type sentMessage struct {
	chatID int64
	text   string
}

// fakePlatform is an in-memory Platform for tests. Error injection is
// keyed per chat.
type fakePlatform struct {
	mu sync.Mutex

	botID   int64
	admins  map[int64]map[int64]bool
	banErr  map[int64]error
	kickErr map[int64]error
	sendErr map[int64]error

	// memberBanned controls IsMemberBanned; defaults to true so unban
	// fan-outs actually attempt the call.
	memberBanned func(chatID, userID int64) bool

	cannotRestrict map[int64]bool

	bans     []call
	unbans   []call
	kicks    []call
	messages []sentMessage
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		botID:          1000,
		admins:         make(map[int64]map[int64]bool),
		banErr:         make(map[int64]error),
		kickErr:        make(map[int64]error),
		sendErr:        make(map[int64]error),
		cannotRestrict: make(map[int64]bool),
	}
}

func (f *fakePlatform) makeAdmin(chatID, userID int64) {
	if f.admins[chatID] == nil {
		f.admins[chatID] = make(map[int64]bool)
	}
	f.admins[chatID][userID] = true
}

func (f *fakePlatform) BotID() int64 { return f.botID }

func (f *fakePlatform) BanChatMember(ctx context.Context, chatID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, call{chatID, userID})
	return f.banErr[chatID]
}

func (f *fakePlatform) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbans = append(f.unbans, call{chatID, userID})
	return f.banErr[chatID]
}

func (f *fakePlatform) KickChatMember(ctx context.Context, chatID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicks = append(f.kicks, call{chatID, userID})
	return f.kickErr[chatID]
}

func (f *fakePlatform) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[chatID][userID], nil
}

func (f *fakePlatform) ChatAdministrators(ctx context.Context, chatID int64) ([]ChatUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []ChatUser
	for id := range f.admins[chatID] {
		users = append(users, ChatUser{ID: id, FirstName: "Admin"})
	}
	return users, nil
}

func (f *fakePlatform) CanRestrictMembers(ctx context.Context, chatID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.cannotRestrict[chatID], nil
}

func (f *fakePlatform) IsMemberBanned(ctx context.Context, chatID, userID int64) (bool, error) {
	if f.memberBanned != nil {
		return f.memberBanned(chatID, userID), nil
	}
	return true, nil
}

func (f *fakePlatform) GetUser(ctx context.Context, userID int64) (*ChatUser, error) {
	return &ChatUser{ID: userID, FirstName: "User"}, nil
}

func (f *fakePlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID, text})
	return f.sendErr[chatID]
}

func (f *fakePlatform) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	return nil
}

func (f *fakePlatform) bansIn(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.bans {
		if c.chatID == chatID {
			n++
		}
	}
	return n
}
