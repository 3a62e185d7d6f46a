package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
)

// ReminderHour: время по умолчанию, если в тексте его нет.
const ReminderHour = 9

// ReminderTime: грубое правило вместо разбора естественного языка:
// «завтра»: завтра, «сегодня», сегодня, иначе через час; затем время
// ставится на 09:00. Прошедшее время переносится на следующий день.
func ReminderTime(text string, now time.Time, tomorrow, today string) time.Time {
	var at time.Time
	lower := strings.ToLower(text)
	switch {
	case tomorrow != "" && strings.Contains(lower, strings.ToLower(tomorrow)):
		at = now.AddDate(0, 0, 1)
	case today != "" && strings.Contains(lower, strings.ToLower(today)):
		at = now
	default:
		at = now.Add(time.Hour)
	}

	at = time.Date(at.Year(), at.Month(), at.Day(), ReminderHour, 0, 0, 0, at.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Reminders сохраняет напоминания и ставит их разовыми задачами.
type Reminders struct {
	sched     scheduler.Scheduler
	transport Transport
	persist   Persistence
	tr        Translator
	now       func() time.Time
	log       zerolog.Logger
}

func NewReminders(sched scheduler.Scheduler, transport Transport, persist Persistence, tr Translator, now func() time.Time, log zerolog.Logger) *Reminders {
	if now == nil {
		now = time.Now
	}
	return &Reminders{
		sched:     sched,
		transport: transport,
		persist:   persist,
		tr:        tr,
		now:       now,
		log:       log.With().Str("component", "reminders").Logger(),
	}
}

// Set сохраняет напоминание и планирует его отправку.
func (r *Reminders) Set(ctx context.Context, u User, text string) (Reply, error) {
	at := ReminderTime(text, r.now(), r.tr.T("reminder.keyword_tomorrow"), r.tr.T("reminder.keyword_today"))
	rem := Reminder{UserID: u.ID, ChatID: u.ChatID, Text: text, At: at}

	id, err := r.persist.SaveReminder(ctx, rem)
	if err != nil {
		return Reply{
			Message: Message{Text: r.tr.T("error.generic"), MainMenu: true},
		}, fmt.Errorf("save reminder: %w: %w", ErrPersistence, err)
	}
	rem.ID = id
	r.schedule(rem)

	r.log.Info().Int64("user_id", u.ID).Int64("reminder_id", id).Time("at", at).Msg("Reminder set")

	return Reply{
		Message: Message{
			Text: r.tr.T("reminder.set", map[string]any{
				"Text": text,
				"When": at.Format("02-01-2006 15:04"),
			}),
			MainMenu: true,
		},
	}, nil
}

// Restore заново планирует неотправленные напоминания после перезапуска.
func (r *Reminders) Restore(ctx context.Context) (int, error) {
	pending, err := r.persist.PendingReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pending reminders: %w", err)
	}
	for _, rem := range pending {
		r.schedule(rem)
	}
	return len(pending), nil
}

func (r *Reminders) schedule(rem Reminder) scheduler.Handle {
	return r.sched.ScheduleOnce(rem.At.Sub(r.now()), func() { r.fire(rem) })
}

func (r *Reminders) fire(rem Reminder) {
	text := r.tr.T("reminder.fire", map[string]any{"Text": rem.Text})
	if _, err := r.transport.Send(rem.ChatID, Message{Text: text}); err != nil {
		r.log.Warn().Err(err).Int64("reminder_id", rem.ID).Msg("Failed to send reminder")
		return
	}
	if err := r.persist.MarkReminderSent(context.Background(), rem.ID); err != nil {
		r.log.Error().Err(err).Int64("reminder_id", rem.ID).Msg("Failed to mark reminder sent")
	}
}
