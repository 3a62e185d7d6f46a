package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
)

func TestReminderTime(t *testing.T) {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		text string
		now  time.Time
		want time.Time
	}{
		{"tomorrow", "Tomorrow revise maths", at(15, 8, 0), at(16, 9, 0)},
		{"today before nine", "today mock test", at(15, 8, 0), at(15, 9, 0)},
		{"today after nine rolls over", "today mock test", at(15, 10, 0), at(16, 9, 0)},
		{"no keyword early", "study", at(15, 7, 30), at(15, 9, 0)},
		{"no keyword late", "study", at(15, 23, 30), at(16, 9, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReminderTime(tc.text, tc.now, "tomorrow", "today"))
		})
	}

	assert.Equal(t, at(16, 9, 0), ReminderTime("उद्या अभ्यास", at(15, 8, 0), "उद्या", "आज"))
}

type reminderHarness struct {
	reminders *Reminders
	clock     *scheduler.Manual
	chat      *fakeTransport
	db        *fakePersistence
}

func newReminderHarness(t *testing.T) *reminderHarness {
	t.Helper()
	h := &reminderHarness{
		clock: scheduler.NewManual(time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)),
		chat:  &fakeTransport{},
		db:    newFakePersistence(),
	}
	h.reminders = NewReminders(h.clock, h.chat, h.db, englishTranslator(t), h.clock.Now, zerolog.Nop())
	return h
}

func TestReminders_SetAndFire(t *testing.T) {
	h := newReminderHarness(t)
	u := User{ID: 3, ChatID: 30}

	r, err := h.reminders.Set(context.Background(), u, "tomorrow start studying")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "16-10-2026 09:00")
	assert.True(t, r.MainMenu)
	assert.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(24 * time.Hour)
	assert.Empty(t, h.chat.Sent())

	h.clock.Advance(time.Hour)
	sent := h.chat.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(30), sent[0].ChatID)
	assert.Equal(t, "⏰ Reminder:\n\ntomorrow start studying", sent[0].Msg.Text)

	pending, err := h.db.PendingReminders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReminders_SaveFailure(t *testing.T) {
	h := newReminderHarness(t)
	h.db.failWrites = true

	r, err := h.reminders.Set(context.Background(), User{ID: 3, ChatID: 30}, "today")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, r.Text, "technical problem")
	assert.Zero(t, h.clock.Pending())
}

func TestReminders_Restore(t *testing.T) {
	h := newReminderHarness(t)
	ctx := context.Background()
	now := h.clock.Now()

	_, err := h.db.SaveReminder(ctx, Reminder{UserID: 1, ChatID: 10, Text: "overdue", At: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = h.db.SaveReminder(ctx, Reminder{UserID: 2, ChatID: 20, Text: "later", At: now.Add(2 * time.Hour)})
	require.NoError(t, err)

	n, err := h.reminders.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	h.clock.Advance(0)
	sent := h.chat.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Msg.Text, "overdue")

	h.clock.Advance(2 * time.Hour)
	assert.Len(t, h.chat.Sent(), 2)
}

func TestReminders_SendFailureLeavesPending(t *testing.T) {
	h := newReminderHarness(t)
	ctx := context.Background()
	h.chat.sendErr = ErrMessageNotFound

	_, err := h.reminders.Set(ctx, User{ID: 3, ChatID: 30}, "today")
	require.NoError(t, err)
	h.clock.Advance(2 * time.Hour)

	pending, err := h.db.PendingReminders(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
