package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-warden/internal/storage"
)

func newWarnFixture(t *testing.T, softWarn bool) (*WarnService, *storage.WarnRepository, *fakePlatform) {
	t.Helper()
	db := newTestDB(t)
	repo := storage.NewWarnRepository(db, 3, softWarn)
	require.NoError(t, repo.MigrateTable())
	fp := newFakePlatform()
	return NewWarnService(repo, fp, nil), repo, fp
}

func TestApplyWarningUnderLimit(t *testing.T) {
	warns, _, fp := newWarnFixture(t, false)
	target := &ChatUser{ID: 42, FirstName: "Eve"}

	for i := 1; i <= 2; i++ {
		result, err := warns.ApplyWarning(context.Background(), target, -100, "flooding")
		require.NoError(t, err)
		assert.Equal(t, Warned, result.Outcome)
		assert.Equal(t, i, result.NumWarns)
		assert.Equal(t, 3, result.Limit)
	}
	assert.Empty(t, fp.bans)
	assert.Empty(t, fp.kicks)
}

func TestApplyWarningReachesLimitAndResets(t *testing.T) {
	warns, _, fp := newWarnFixture(t, false)
	target := &ChatUser{ID: 42, FirstName: "Eve"}

	var result *WarnResult
	var err error
	for i := 0; i < 3; i++ {
		result, err = warns.ApplyWarning(context.Background(), target, -100, "spam")
		require.NoError(t, err)
	}

	assert.Equal(t, WarnPunished, result.Outcome)
	assert.Equal(t, ActionBan, result.Action)
	assert.Len(t, fp.bans, 1)
	assert.Equal(t, call{-100, 42}, fp.bans[0])

	// Exactly one punishment, and the counter is back at zero.
	num, _, reasons, err := warns.GetWarnings(42, -100)
	require.NoError(t, err)
	assert.Equal(t, 0, num)
	assert.Empty(t, reasons)
}

func TestApplyWarningSoftWarnKicks(t *testing.T) {
	warns, _, fp := newWarnFixture(t, true)
	target := &ChatUser{ID: 42}

	var result *WarnResult
	var err error
	for i := 0; i < 3; i++ {
		result, err = warns.ApplyWarning(context.Background(), target, -100, "")
		require.NoError(t, err)
	}

	assert.Equal(t, WarnPunished, result.Outcome)
	assert.Equal(t, ActionKick, result.Action)
	assert.Len(t, fp.kicks, 1)
	assert.Empty(t, fp.bans)
}

func TestApplyWarningAdminImmune(t *testing.T) {
	warns, _, fp := newWarnFixture(t, false)
	fp.makeAdmin(-100, 42)
	target := &ChatUser{ID: 42}

	result, err := warns.ApplyWarning(context.Background(), target, -100, "nope")
	require.NoError(t, err)
	assert.Equal(t, WarnNotWarnable, result.Outcome)

	num, _, _, err := warns.GetWarnings(42, -100)
	require.NoError(t, err)
	assert.Equal(t, 0, num)
}

func TestApplyWarningPunishFailureKeepsCount(t *testing.T) {
	warns, _, fp := newWarnFixture(t, false)
	fp.banErr[-100] = errors.New("have no rights to restrict/unrestrict chat member")
	target := &ChatUser{ID: 42}

	var result *WarnResult
	var err error
	for i := 0; i < 3; i++ {
		result, err = warns.ApplyWarning(context.Background(), target, -100, "spam")
		require.NoError(t, err)
	}

	assert.Equal(t, WarnPunishFailed, result.Outcome)

	// The failed punishment does not roll the warning back.
	num, _, _, err := warns.GetWarnings(42, -100)
	require.NoError(t, err)
	assert.Equal(t, 3, num)
}

func TestRemoveWarningNeverNegative(t *testing.T) {
	warns, _, _ := newWarnFixture(t, false)

	removed, err := warns.RemoveWarning(42, -100)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = warns.ApplyWarning(context.Background(), &ChatUser{ID: 42}, -100, "once")
	require.NoError(t, err)

	removed, err = warns.RemoveWarning(42, -100)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = warns.RemoveWarning(42, -100)
	require.NoError(t, err)
	assert.False(t, removed)

	num, _, _, err := warns.GetWarnings(42, -100)
	require.NoError(t, err)
	assert.Equal(t, 0, num)
}

func TestConcurrentWarnsLoseNoUpdates(t *testing.T) {
	warns, repo, _ := newWarnFixture(t, false)
	require.NoError(t, repo.SetWarnLimit(-100, 50))

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := warns.ApplyWarning(context.Background(), &ChatUser{ID: 42}, -100, "race")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	num, _, _, err := warns.GetWarnings(42, -100)
	require.NoError(t, err)
	assert.Equal(t, n, num)
}

func TestSetWarnLimitRejectsBelowMinimum(t *testing.T) {
	warns, _, _ := newWarnFixture(t, false)

	assert.Error(t, warns.SetWarnLimit(-100, 2))
	assert.Error(t, warns.SetWarnLimit(-100, 0))
	assert.NoError(t, warns.SetWarnLimit(-100, 3))

	limit, _, err := warns.WarnSetting(-100)
	require.NoError(t, err)
	assert.Equal(t, 3, limit)
}
