package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoluyanbIch/ExamBot/internal/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var _ service.Persistence = (*Store)(nil)

func TestUserUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, s.UpsertUser(ctx, service.UserProfile{
		UserID: 42, Username: "priya", FullName: "प्रिया", Gender: service.GenderFemale,
	}))
	p, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "प्रिया", p.FullName)
	assert.Equal(t, service.GenderFemale, p.Gender)

	require.NoError(t, s.UpsertUser(ctx, service.UserProfile{
		UserID: 42, Username: "priya", FullName: "प्रिया पाटील", Gender: service.GenderOther,
	}))
	p, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "प्रिया पाटील", p.FullName)
	assert.Equal(t, service.GenderOther, p.Gender)
}

func TestResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	records := []service.ResultRecord{
		{UserID: 1, Username: "a", Subject: "गणित", Score: 3, Total: 10, TakenAt: base},
		{UserID: 1, Username: "a", Subject: "गणित", Score: 7, Total: 10, TakenAt: base.Add(time.Hour)},
		{UserID: 1, Username: "a", Subject: "मराठी", Score: 1, Total: 1, TakenAt: base.Add(2 * time.Hour)},
		{UserID: 2, Username: "b", Subject: "गणित", Score: 9, Total: 10, TakenAt: base},
	}
	for _, r := range records {
		require.NoError(t, s.RecordResult(ctx, r))
	}

	list, err := s.ListResults(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "मराठी", list[0].Subject)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), list[0].TakenAt.Unix())

	best, err := s.BestResults(ctx)
	require.NoError(t, err)
	require.Len(t, best, 3)
	assert.Equal(t, "मराठी", best[0].Subject)
	assert.Equal(t, int64(2), best[1].UserID)
	assert.Equal(t, 7, best[2].Score)
}

func TestReminders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	id1, err := s.SaveReminder(ctx, service.Reminder{UserID: 1, ChatID: 11, Text: "उद्या अभ्यास", At: at})
	require.NoError(t, err)
	id2, err := s.SaveReminder(ctx, service.Reminder{UserID: 2, ChatID: 22, Text: "revise", At: at.Add(-time.Hour)})
	require.NoError(t, err)

	pending, err := s.PendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id2, pending[0].ID)
	assert.Equal(t, int64(11), pending[1].ChatID)
	assert.Equal(t, at.Unix(), pending[1].At.Unix())

	require.NoError(t, s.MarkReminderSent(ctx, id1))
	assert.ErrorIs(t, s.MarkReminderSent(ctx, id1), sql.ErrNoRows)

	pending, err = s.PendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
}
