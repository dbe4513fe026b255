package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-warden/internal/storage"
)

func newReportFixture(t *testing.T) (*ReportService, *storage.SettingsRepository, *fakePlatform) {
	t.Helper()
	db := newTestDB(t)
	settings := storage.NewSettingsRepository(db)
	require.NoError(t, settings.MigrateTable())
	fp := newFakePlatform()
	return NewReportService(settings, fp, nil), settings, fp
}

func (f *fakePlatform) messagesTo(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.chatID == chatID {
			n++
		}
	}
	return n
}

func TestForwardReportNotifiesOptedInAdmins(t *testing.T) {
	reports, _, fp := newReportFixture(t)
	fp.makeAdmin(-100, 10)
	fp.makeAdmin(-100, 11)

	notified, err := reports.ForwardReport(context.Background(), -100, "Test Chat", &ChatUser{ID: 42, FirstName: "Rep"}, 7, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.Equal(t, 1, fp.messagesTo(10))
	assert.Equal(t, 1, fp.messagesTo(11))
}

func TestForwardReportToleratesPerAdminSendFailure(t *testing.T) {
	reports, _, fp := newReportFixture(t)
	fp.makeAdmin(-100, 10)
	fp.makeAdmin(-100, 11)
	fp.sendErr[10] = errors.New("Forbidden: bot was blocked by the user")

	notified, err := reports.ForwardReport(context.Background(), -100, "Test Chat", &ChatUser{ID: 42}, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)

	// Both deliveries were attempted; only the failing one is skipped.
	assert.Equal(t, 1, fp.messagesTo(10))
	assert.Equal(t, 1, fp.messagesTo(11))
}

func TestForwardReportIgnoresAdminReporters(t *testing.T) {
	reports, _, fp := newReportFixture(t)
	fp.makeAdmin(-100, 10)
	fp.makeAdmin(-100, 11)

	notified, err := reports.ForwardReport(context.Background(), -100, "Test Chat", &ChatUser{ID: 10}, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, notified)
	assert.Empty(t, fp.messages)
}

func TestForwardReportRespectsChatSetting(t *testing.T) {
	reports, settings, fp := newReportFixture(t)
	fp.makeAdmin(-100, 10)
	require.NoError(t, settings.SetChatReportSetting(-100, false))

	notified, err := reports.ForwardReport(context.Background(), -100, "Test Chat", &ChatUser{ID: 42}, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, notified)
	assert.Empty(t, fp.messages)
}

func TestForwardReportSkipsOptedOutAdmins(t *testing.T) {
	reports, settings, fp := newReportFixture(t)
	fp.makeAdmin(-100, 10)
	fp.makeAdmin(-100, 11)
	require.NoError(t, settings.SetUserReportSetting(11, false))

	notified, err := reports.ForwardReport(context.Background(), -100, "Test Chat", &ChatUser{ID: 42}, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Equal(t, 1, fp.messagesTo(10))
	assert.Equal(t, 0, fp.messagesTo(11))
}
