package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-warden/internal/config"
	"tg-warden/internal/models"
	"tg-warden/internal/storage"
)

func newGbanFixture(t *testing.T, chatIDs ...int64) (*GbanService, *storage.GbanRepository, *fakePlatform) {
	t.Helper()
	db := newTestDB(t)

	gbanRepo := storage.NewGbanRepository(db)
	require.NoError(t, gbanRepo.MigrateTable())
	chatRepo := storage.NewChatRepository(db)
	require.NoError(t, chatRepo.MigrateTable())

	for _, id := range chatIDs {
		require.NoError(t, chatRepo.UpsertChat(&models.ChatInfo{ChatID: id, Title: "chat"}))
	}

	fp := newFakePlatform()
	cfg := &config.ModerationConfig{
		EnforceGbans:    true,
		SudoUsers:       []int64{900},
		SupportUsers:    []int64{901},
		ChatCallTimeout: time.Second,
	}
	return NewGbanService(gbanRepo, chatRepo, fp, cfg, nil), gbanRepo, fp
}

func TestGlobalBanFanout(t *testing.T) {
	gbans, repo, fp := newGbanFixture(t, 101, 102, 103)
	require.NoError(t, repo.SetChatEnforcing(102, false))

	target := &ChatUser{ID: 42, FirstName: "Troll"}
	operator := &ChatUser{ID: 900, FirstName: "Op"}

	result, err := gbans.GlobalBan(context.Background(), target, "being awful", operator)
	require.NoError(t, err)
	assert.Equal(t, GbanCompleted, result.Outcome)
	assert.Equal(t, 2, result.ChatsTouched)
	assert.Equal(t, 1, result.ChatsSkipped)

	assert.Equal(t, 1, fp.bansIn(101))
	assert.Equal(t, 0, fp.bansIn(102))
	assert.Equal(t, 1, fp.bansIn(103))

	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.True(t, banned)

	record, err := gbans.GetGbannedUser(42)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "being awful", record.Reason)
}

func TestGlobalBanSwallowsExpectedRefusals(t *testing.T) {
	gbans, _, fp := newGbanFixture(t, 101, 102)
	fp.banErr[101] = ErrNotEnoughRights

	result, err := gbans.GlobalBan(context.Background(), &ChatUser{ID: 42}, "", &ChatUser{ID: 900})
	require.NoError(t, err)
	assert.Equal(t, GbanCompleted, result.Outcome)
	assert.Equal(t, 1, result.ChatsTouched)

	// Refusals leave the registry entry in place.
	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestGlobalBanAbortsAndRollsBackOnFault(t *testing.T) {
	gbans, _, fp := newGbanFixture(t, 101, 102, 103)
	fault := errors.New("internal server error")
	fp.banErr[102] = fault

	result, err := gbans.GlobalBan(context.Background(), &ChatUser{ID: 42}, "", &ChatUser{ID: 900})
	require.NoError(t, err)
	assert.Equal(t, GbanAborted, result.Outcome)
	assert.ErrorIs(t, result.AbortReason, fault)

	// The fan-out stopped at the faulting chat; later chats untouched.
	assert.Equal(t, 1, fp.bansIn(101))
	assert.Equal(t, 1, fp.bansIn(102))
	assert.Equal(t, 0, fp.bansIn(103))

	// The registry commit was rolled back.
	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestGlobalBanGuards(t *testing.T) {
	gbans, _, fp := newGbanFixture(t, 101)
	operator := &ChatUser{ID: 900}

	for _, target := range []*ChatUser{
		{ID: 900}, // sudo
		{ID: 901}, // support
		{ID: fp.botID},
	} {
		result, err := gbans.GlobalBan(context.Background(), target, "", operator)
		require.NoError(t, err)
		assert.Equal(t, GbanRefused, result.Outcome)
		assert.NotEmpty(t, result.Refusal)

		banned, err := gbans.IsUserGbanned(target.ID)
		require.NoError(t, err)
		assert.False(t, banned)
	}
	assert.Empty(t, fp.bans)
}

func TestGlobalUnbanKeepsDeletionOnFault(t *testing.T) {
	gbans, repo, fp := newGbanFixture(t, 101, 102)
	require.NoError(t, repo.GbanUser(42, "troll", "old reason"))
	fp.banErr[102] = errors.New("internal server error")

	result, err := gbans.GlobalUnban(context.Background(), &ChatUser{ID: 42}, &ChatUser{ID: 900})
	require.NoError(t, err)
	assert.Equal(t, GbanAborted, result.Outcome)

	// The registry deletion is finalized up front and never rolled back.
	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestGlobalUnbanRoundTrip(t *testing.T) {
	gbans, _, fp := newGbanFixture(t, 101)

	_, err := gbans.GlobalBan(context.Background(), &ChatUser{ID: 42}, "spam", &ChatUser{ID: 900})
	require.NoError(t, err)

	result, err := gbans.GlobalUnban(context.Background(), &ChatUser{ID: 42}, &ChatUser{ID: 900})
	require.NoError(t, err)
	assert.Equal(t, GbanCompleted, result.Outcome)
	assert.Equal(t, 1, result.ChatsTouched)
	assert.Len(t, fp.unbans, 1)

	banned, err := gbans.IsUserGbanned(42)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestEnforceOnEvent(t *testing.T) {
	gbans, repo, fp := newGbanFixture(t, 101)
	require.NoError(t, repo.GbanUser(42, "troll", ""))
	require.NoError(t, repo.GbanUser(43, "protected", ""))
	fp.makeAdmin(101, 43)

	removed, err := gbans.EnforceOnEvent(context.Background(), 101, []*ChatUser{
		{ID: 42},
		{ID: 43}, // gbanned but chat admin, never removed
		{ID: 44}, // not gbanned
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, removed)
	assert.Equal(t, 1, fp.bansIn(101))
}

func TestEnforceOnEventRespectsOptOut(t *testing.T) {
	gbans, repo, fp := newGbanFixture(t, 101)
	require.NoError(t, repo.GbanUser(42, "troll", ""))
	require.NoError(t, repo.SetChatEnforcing(101, false))

	removed, err := gbans.EnforceOnEvent(context.Background(), 101, []*ChatUser{{ID: 42}})
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Empty(t, fp.bans)
}

func TestEnforceOnEventNeedsRestrictRights(t *testing.T) {
	gbans, repo, fp := newGbanFixture(t, 101)
	require.NoError(t, repo.GbanUser(42, "troll", ""))
	fp.cannotRestrict[101] = true

	removed, err := gbans.EnforceOnEvent(context.Background(), 101, []*ChatUser{{ID: 42}})
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Empty(t, fp.bans)
}
