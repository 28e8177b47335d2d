package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepo_EmptyOnFirstRun(t *testing.T) {
	repo := openTestRepo(t)

	subs, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSQLiteRepo_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	sub := domain.NewSubscriber("100500", "Europe/London")
	sub.Birthdays["Ana"] = domain.MonthDay{Month: time.March, Day: 15}
	sub.Birthdays["Leap"] = domain.MonthDay{Month: time.February, Day: 29}
	sub.Endpoints = append(sub.Endpoints, "tgram://token/1", "https://hook.example/x")
	r1, _ := domain.ParseRule("days_before", "1")
	r2, _ := domain.ParseRule("time_before", "1:18:00")
	sub.Reminders = append(sub.Reminders, r1, r2)

	require.NoError(t, repo.SaveSubscriber(ctx, sub))

	subs, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Contains(t, subs, "100500")

	got := subs["100500"]
	assert.Equal(t, sub.Timezone, got.Timezone)
	assert.Equal(t, sub.Birthdays, got.Birthdays)
	assert.Equal(t, sub.Endpoints, got.Endpoints)
	assert.Equal(t, sub.Reminders, got.Reminders)
}

func TestSQLiteRepo_SaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	sub := domain.NewSubscriber("7", "UTC")
	require.NoError(t, repo.SaveSubscriber(ctx, sub))

	sub.Timezone = "Asia/Tokyo"
	sub.Endpoints = append(sub.Endpoints, "tgram://token/7")
	require.NoError(t, repo.SaveSubscriber(ctx, sub))

	subs, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Asia/Tokyo", subs["7"].Timezone)
	assert.Equal(t, []string{"tgram://token/7"}, subs["7"].Endpoints)
}
