package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-warden/internal/storage"
)

func newFilterFixture(t *testing.T) (*FilterService, *fakePlatform) {
	t.Helper()
	db := newTestDB(t)

	warnRepo := storage.NewWarnRepository(db, 3, false)
	require.NoError(t, warnRepo.MigrateTable())
	filterRepo := storage.NewFilterRepository(db)
	require.NoError(t, filterRepo.MigrateTable())

	fp := newFakePlatform()
	warns := NewWarnService(warnRepo, fp, nil)
	filters, err := NewFilterService(filterRepo, warns)
	require.NoError(t, err)
	return filters, fp
}

func TestMatchWholeWordsCaseInsensitive(t *testing.T) {
	filters, _ := newFilterFixture(t)
	require.NoError(t, filters.AddFilter(-100, "spam", "no spamming"))

	author := &ChatUser{ID: 42}

	result, err := filters.MatchAndWarn(context.Background(), "this is spam!", -100, author)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, Warned, result.Outcome)
	assert.Equal(t, "no spamming", result.Reason)

	result, err = filters.MatchAndWarn(context.Background(), "SPAM right here", -100, author)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Substring inside a longer word is not a match.
	result, err = filters.MatchAndWarn(context.Background(), "what a spammer", -100, author)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = filters.MatchAndWarn(context.Background(), "", -100, author)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFirstRegisteredFilterWins(t *testing.T) {
	filters, _ := newFilterFixture(t)
	require.NoError(t, filters.AddFilter(-100, "alpha", "reason alpha"))
	require.NoError(t, filters.AddFilter(-100, "beta", "reason beta"))

	// Both keywords present; only the earliest filter fires, so the
	// author picks up exactly one warning.
	result, err := filters.MatchAndWarn(context.Background(), "beta then alpha", -100, &ChatUser{ID: 42})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "reason alpha", result.Reason)
	assert.Equal(t, 1, result.NumWarns)
}

func TestReAddingFilterMovesItLast(t *testing.T) {
	filters, _ := newFilterFixture(t)
	require.NoError(t, filters.AddFilter(-100, "alpha", "first"))
	require.NoError(t, filters.AddFilter(-100, "beta", "second"))
	require.NoError(t, filters.AddFilter(-100, "alpha", "replaced"))

	rows, err := filters.ChatFilters(-100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "beta", rows[0].Keyword)
	assert.Equal(t, "alpha", rows[1].Keyword)
	assert.Equal(t, "replaced", rows[1].Reply)

	result, err := filters.MatchAndWarn(context.Background(), "alpha and beta", -100, &ChatUser{ID: 42})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "second", result.Reason)
}

func TestFiltersAreScopedPerChat(t *testing.T) {
	filters, _ := newFilterFixture(t)
	require.NoError(t, filters.AddFilter(-100, "spam", "no spam"))

	result, err := filters.MatchAndWarn(context.Background(), "spam here", -200, &ChatUser{ID: 42})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRemoveFilter(t *testing.T) {
	filters, _ := newFilterFixture(t)
	require.NoError(t, filters.AddFilter(-100, "Spam", "no spam"))

	removed, err := filters.RemoveFilter(-100, "spam")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = filters.RemoveFilter(-100, "spam")
	require.NoError(t, err)
	assert.False(t, removed)

	result, err := filters.MatchAndWarn(context.Background(), "spam here", -100, &ChatUser{ID: 42})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAddFilterValidation(t *testing.T) {
	filters, _ := newFilterFixture(t)
	assert.Error(t, filters.AddFilter(-100, "", "reply"))
	assert.Error(t, filters.AddFilter(-100, "   ", "reply"))
	assert.Error(t, filters.AddFilter(-100, "kw", ""))
}
