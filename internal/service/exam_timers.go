package service

import (
	"errors"
	"html"
	"time"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
)

// startTimers ставит тик обратного отсчёта и, если экзамен длиннее запаса,
// предупреждение. Конец времени: это тик, увидевший нулевой остаток.
func (e *ExamEngine) startTimers(sess *QuizSession) {
	userID, sessionID := sess.UserID, sess.ID

	e.replaceJobs(sess, JobTick, e.Scheduler.SchedulePeriodic(e.cfg.TickInterval, func() {
		e.tick(userID, sessionID)
	}))

	if at := e.cfg.Duration - e.cfg.WarningLead; at > 0 {
		e.replaceJobs(sess, JobWarning, e.Scheduler.ScheduleOnce(at, func() {
			e.warn(userID, sessionID)
		}))
	}
}

// replaceJobs снимает задачи того же вида и записывает новые.
func (e *ExamEngine) replaceJobs(sess *QuizSession, kind JobKind, hs ...scheduler.Handle) {
	for _, h := range sess.jobs[kind] {
		e.Scheduler.Cancel(h)
	}
	if len(hs) == 0 {
		delete(sess.jobs, kind)
		return
	}
	sess.jobs[kind] = hs
}

func (e *ExamEngine) cancelJobs(sess *QuizSession) {
	for kind, hs := range sess.jobs {
		for _, h := range hs {
			e.Scheduler.Cancel(h)
		}
		delete(sess.jobs, kind)
	}
}

func (e *ExamEngine) tick(userID int64, sessionID string) {
	st := e.Sessions.lock(userID)
	defer st.mu.Unlock()

	sess := st.current(sessionID)
	if sess == nil || sess.Status != StatusInExam {
		return
	}

	remaining := sess.Deadline.Sub(e.now())
	if remaining <= 0 {
		e.timeout(st, sess)
		return
	}
	if sess.TimerMessageID != 0 {
		e.edit(sess.ChatID, sess.TimerMessageID, Message{Text: e.timerText(remaining)})
	}
}

// timeout завершает экзамен по времени; текущий вопрос остаётся без ответа.
func (e *ExamEngine) timeout(st *userState, sess *QuizSession) {
	sess.Status = StatusFinished
	e.cancelJobs(sess)
	st.drop()

	e.log.Info().
		Int64("user_id", sess.UserID).
		Str("session_id", sess.ID).
		Int("answered", sess.CurrentQuestion).
		Int("total", sess.Total()).
		Msg("Exam time is over")

	text := e.Translator.T("exam.time_up", map[string]any{"Score": sess.Score, "Answered": sess.CurrentQuestion})
	if _, err := e.Transport.Send(sess.ChatID, Message{Text: text, MainMenu: true}); err != nil {
		e.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("Failed to send time-up message")
	}
}

// warn отправляет предупреждение и ставит серию правок «мигания».
// Шаги: отдельные задачи сессии, тик они не задерживают.
func (e *ExamEngine) warn(userID int64, sessionID string) {
	st := e.Sessions.lock(userID)
	defer st.mu.Unlock()

	sess := st.current(sessionID)
	if sess == nil || sess.Status != StatusInExam {
		return
	}
	delete(sess.jobs, JobWarning)

	text := html.EscapeString(e.Translator.T("exam.warning", map[string]any{
		"Minutes": int(e.cfg.WarningLead.Minutes()),
	}))
	msgID, err := e.Transport.Send(sess.ChatID, Message{Text: text, HTML: true})
	if err != nil {
		e.log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to send warning")
		return
	}

	hs := make([]scheduler.Handle, e.cfg.BlinkSteps)
	for i := range hs {
		step := i + 1
		msg := Message{Text: text, HTML: true}
		if step%2 == 1 {
			msg.Text = "<b>" + text + "</b>"
		}
		hs[i] = e.Scheduler.ScheduleOnce(e.cfg.BlinkInterval*time.Duration(step), func() {
			e.blink(userID, sessionID, msgID, hs, step, msg)
		})
	}
	e.replaceJobs(sess, JobBlink, hs...)
}

// blink: шаг step серии; hs заполняется в warn под тем же замком,
// поэтому читается только после его захвата.
func (e *ExamEngine) blink(userID int64, sessionID string, msgID int, hs []scheduler.Handle, step int, msg Message) {
	st := e.Sessions.lock(userID)
	defer st.mu.Unlock()

	sess := st.current(sessionID)
	if sess == nil || sess.Status != StatusInExam {
		return
	}
	sess.jobs[JobBlink] = without(sess.jobs[JobBlink], hs[step-1])
	if len(sess.jobs[JobBlink]) == 0 {
		delete(sess.jobs, JobBlink)
	}
	e.edit(sess.ChatID, msgID, msg)
}

// edit правит сообщение, проглатывая ошибки транспорта: отсчёт и мигание
// не должны обрывать экзамен.
func (e *ExamEngine) edit(chatID int64, msgID int, msg Message) {
	err := e.Transport.Edit(chatID, msgID, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrMessageNotFound):
		e.log.Debug().Int64("chat_id", chatID).Int("message_id", msgID).Msg("Message to edit is gone")
	default:
		e.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", msgID).Msg("Failed to edit message")
	}
}

func without(hs []scheduler.Handle, h scheduler.Handle) []scheduler.Handle {
	out := make([]scheduler.Handle, 0, len(hs))
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
