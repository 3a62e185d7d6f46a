package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
)

// Translator отдаёт локализованный текст по ID сообщения.
type Translator interface {
	T(id string, data ...map[string]any) string
}

type ExamConfig struct {
	Duration      time.Duration
	TickInterval  time.Duration
	WarningLead   time.Duration
	BlinkSteps    int
	BlinkInterval time.Duration
	Shuffle       bool
	// MaxQuestions ограничивает число вопросов в попытке, 0: все.
	MaxQuestions int
}

func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		Duration:      time.Hour,
		TickInterval:  10 * time.Second,
		WarningLead:   10 * time.Minute,
		BlinkSteps:    10,
		BlinkInterval: time.Second,
	}
}

type EngineDeps struct {
	Bank        *QuestionBank
	Sessions    *SessionStore
	Scheduler   scheduler.Scheduler
	Transport   Transport
	Persistence Persistence
	Leaderboard LeaderboardService
	Translator  Translator
}

type Option func(*ExamEngine)

func WithClock(now func() time.Time) Option {
	return func(e *ExamEngine) { e.now = now }
}

func WithRand(r *rand.Rand) Option {
	return func(e *ExamEngine) { e.rng = r }
}

// ExamEngine: автомат состояний экзамена. Все изменения сессии идут под
// замком пользователя из SessionStore, и события пользователя, и таймеры.
type ExamEngine struct {
	EngineDeps
	cfg ExamConfig
	log zerolog.Logger
	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewExamEngine(deps EngineDeps, cfg ExamConfig, log zerolog.Logger, opts ...Option) *ExamEngine {
	e := &ExamEngine{
		EngineDeps: deps,
		cfg:        cfg,
		log:        log.With().Str("component", "exam_engine").Logger(),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnSubjectMenu показывает выбор предмета.
func (e *ExamEngine) OnSubjectMenu(_ context.Context, u User) Reply {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	if st.session == nil {
		st.selecting = true
	}
	return e.subjectPrompt("subject.prompt", st)
}

// OnSubjectChosen запоминает предмет для следующего запуска экзамена.
func (e *ExamEngine) OnSubjectChosen(_ context.Context, u User, index int) (Reply, error) {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	subject, ok := e.Bank.Subject(index)
	if !ok || len(e.Bank.Questions(subject)) == 0 {
		if st.session == nil {
			st.selecting = true
		}
		return e.subjectPrompt("subject.unavailable", st), fmt.Errorf("subject %d: %w", index, ErrInvalidInput)
	}

	st.pendingSubject = subject
	st.selecting = false

	status := StatusNoSession
	if st.session != nil {
		status = st.session.Status
	}
	return Reply{
		Message: Message{
			Text: e.Translator.T("subject.chosen", map[string]any{
				"Subject": subject,
				"Button":  e.Translator.T("menu.start_exam"),
			}),
			MainMenu: true,
		},
		Status: status,
	}, nil
}

// OnExamStart начинает экзамен по выбранному предмету. Прежняя сессия
// пользователя, если есть, снимается вместе со всеми её задачами.
func (e *ExamEngine) OnExamStart(_ context.Context, u User) Reply {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	subject := st.pendingSubject
	if subject == "" {
		if st.session == nil {
			st.selecting = true
		}
		return e.subjectPrompt("subject.prompt_first", st)
	}

	questions := e.Bank.Questions(subject)
	if len(questions) == 0 {
		st.pendingSubject = ""
		if st.session == nil {
			st.selecting = true
		}
		e.log.Warn().Int64("user_id", u.ID).Str("subject", subject).Msg("Subject has no questions")
		return e.subjectPrompt("subject.unavailable", st)
	}

	if old := st.drop(); old != nil {
		e.cancelJobs(old)
		e.log.Info().Int64("user_id", u.ID).Str("session_id", old.ID).Msg("Session replaced")
	}

	now := e.now()
	sess := &QuizSession{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ChatID:    u.ChatID,
		Subject:   subject,
		Questions: e.pickQuestions(questions),
		StartedAt: now,
		Deadline:  now.Add(e.cfg.Duration),
		Status:    StatusInExam,
		jobs:      make(map[JobKind][]scheduler.Handle),
	}
	st.put(sess)

	msgID, err := e.Transport.Send(sess.ChatID, Message{Text: e.timerText(e.cfg.Duration)})
	if err != nil {
		e.log.Warn().Err(err).Int64("user_id", u.ID).Msg("Failed to send countdown message")
	} else {
		sess.TimerMessageID = msgID
	}
	e.startTimers(sess)

	e.log.Info().
		Int64("user_id", u.ID).
		Str("session_id", sess.ID).
		Str("subject", subject).
		Int("questions", len(sess.Questions)).
		Msg("Exam started")

	return e.questionReply(sess)
}

// OnAnswer принимает ответ на вопрос questionIndex. Ответы на уже пройденный
// вопрос и для завершённой сессии возвращают ErrStaleEvent без изменений.
func (e *ExamEngine) OnAnswer(ctx context.Context, u User, questionIndex, option int) (Reply, error) {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	sess := st.session
	if sess == nil || sess.Status != StatusInExam || sess.ConfirmingExit || sess.Done() ||
		questionIndex != sess.CurrentQuestion {
		return Reply{}, fmt.Errorf("answer for question %d: %w", questionIndex, ErrStaleEvent)
	}

	q := sess.Questions[sess.CurrentQuestion]
	out, err := ApplyAnswer(q, sess.Score, sess.Streak, option)
	if err != nil {
		r := e.questionReply(sess)
		r.Text = e.Translator.T("exam.invalid_option") + "\n\n" + r.Text
		return r, err
	}

	sess.Score = out.Score
	sess.Streak = out.Streak
	sess.CurrentQuestion++
	fb := e.feedback(out)

	if sess.Done() {
		r := e.finish(ctx, st, u)
		r.Feedback = fb
		return r, nil
	}

	r := e.questionReply(sess)
	r.Feedback = fb
	return r, nil
}

// OnExitRequest просит подтвердить выход; сессия не меняется.
func (e *ExamEngine) OnExitRequest(_ context.Context, u User) (Reply, error) {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	sess := st.session
	if sess == nil || sess.Status != StatusInExam {
		return Reply{}, fmt.Errorf("exit request: %w", ErrStaleEvent)
	}
	sess.ConfirmingExit = true

	return Reply{
		Message: Message{
			Text: e.Translator.T("exam.confirm_exit"),
			Inline: [][]Button{
				{{Text: e.Translator.T("exam.confirm_yes"), Data: CallbackConfirmExit}},
				{{Text: e.Translator.T("exam.confirm_no"), Data: CallbackCancelExit}},
			},
		},
		Status: StatusInExam,
	}, nil
}

func (e *ExamEngine) OnExitConfirm(_ context.Context, u User) (Reply, error) {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	sess := st.session
	if sess == nil || sess.Status != StatusInExam || !sess.ConfirmingExit {
		return Reply{}, fmt.Errorf("exit confirm: %w", ErrStaleEvent)
	}

	sess.Status = StatusExited
	e.cancelJobs(sess)
	st.drop()

	e.log.Info().Int64("user_id", u.ID).Str("session_id", sess.ID).Int("answered", sess.CurrentQuestion).Msg("Exam exited")

	return Reply{
		Message: Message{Text: e.Translator.T("exam.exited"), MainMenu: true},
		Status:  StatusExited,
	}, nil
}

// OnExitCancel возвращает к тому же вопросу.
func (e *ExamEngine) OnExitCancel(_ context.Context, u User) (Reply, error) {
	st := e.Sessions.lock(u.ID)
	defer st.mu.Unlock()

	sess := st.session
	if sess == nil || sess.Status != StatusInExam || !sess.ConfirmingExit {
		return Reply{}, fmt.Errorf("exit cancel: %w", ErrStaleEvent)
	}
	sess.ConfirmingExit = false
	return e.questionReply(sess), nil
}

// finish завершает сессию после последнего ответа. Вызывается под замком st.
func (e *ExamEngine) finish(ctx context.Context, st *userState, u User) Reply {
	sess := st.session
	sess.Status = StatusFinished
	e.cancelJobs(sess)
	st.drop()

	total := sess.Total()
	percentage := float64(sess.Score) / float64(total) * 100
	res := &ExamResult{
		Subject:    sess.Subject,
		Score:      sess.Score,
		Total:      total,
		Percentage: percentage,
		Position:   -1,
	}

	err := e.Persistence.RecordResult(ctx, ResultRecord{
		UserID:   u.ID,
		Username: displayName(u),
		Subject:  sess.Subject,
		Score:    sess.Score,
		Total:    total,
		TakenAt:  e.now(),
	})
	if err != nil {
		// Прогресс в памяти не откатываем, только сообщаем пользователю
		e.log.Error().Err(err).Int64("user_id", u.ID).Str("session_id", sess.ID).Msg("Failed to record result")
	} else {
		res.Saved = true
	}

	if e.Leaderboard != nil && e.Leaderboard.AddEntry(u.ID, u.Username, u.FirstName, sess.Subject, sess.Score, total) {
		res.Position, _ = e.Leaderboard.GetUserPosition(u.ID, sess.Subject)
	}

	e.log.Info().
		Int64("user_id", u.ID).
		Str("session_id", sess.ID).
		Int("score", sess.Score).
		Int("total", total).
		Msg("Exam finished")

	return Reply{
		Message: Message{Text: e.resultText(res), MainMenu: true},
		Result:  res,
		Status:  StatusFinished,
	}
}

func (e *ExamEngine) resultText(res *ExamResult) string {
	var b strings.Builder
	b.WriteString(e.Translator.T("result.summary", map[string]any{
		"Subject":    res.Subject,
		"Total":      res.Total,
		"Score":      res.Score,
		"Percentage": fmt.Sprintf("%.2f", res.Percentage),
	}))
	if res.Percentage < 50 {
		b.WriteString(e.Translator.T("result.low"))
	} else {
		b.WriteString(e.Translator.T("result.high"))
	}
	if res.Position > 0 {
		b.WriteString(e.Translator.T("result.record", map[string]any{"Position": res.Position}))
	}
	if !res.Saved {
		b.WriteString(e.Translator.T("result.not_saved"))
	}
	return b.String()
}

func (e *ExamEngine) feedback(out AnswerOutcome) *Feedback {
	fb := &Feedback{Correct: out.Correct, Celebration: out.Celebration, Streak: out.Streak}
	switch {
	case out.Celebration:
		line := e.Translator.T(fmt.Sprintf("exam.celebration_%d", e.intn(3)+1))
		fb.Text = e.Translator.T("exam.celebration", map[string]any{"Line": line})
	case out.Correct:
		fb.Text = e.Translator.T("exam.correct", map[string]any{"Party": strings.Repeat("🎉", min(out.Streak, 5))})
	default:
		fb.Text = e.Translator.T("exam.wrong", map[string]any{"Correct": out.CorrectOption})
	}
	return fb
}

func (e *ExamEngine) questionReply(sess *QuizSession) Reply {
	q := sess.Questions[sess.CurrentQuestion]
	return Reply{
		Message: Message{
			Text: e.Translator.T("exam.question", map[string]any{
				"Clock":  formatClock(sess.Deadline.Sub(e.now())),
				"Number": sess.CurrentQuestion + 1,
				"Total":  sess.Total(),
				"Text":   q.Question,
			}),
			Inline: questionKeyboard(q, sess.CurrentQuestion, e.Translator.T("exam.exit_button")),
		},
		Status: StatusInExam,
	}
}

func (e *ExamEngine) subjectPrompt(textID string, st *userState) Reply {
	status := StatusSelectingSubject
	if st.session != nil {
		status = st.session.Status
	}
	return Reply{
		Message: Message{
			Text:   e.Translator.T(textID),
			Inline: subjectKeyboard(e.Bank.Subjects(), e.Translator.T("menu.back")),
		},
		Status: status,
	}
}

func (e *ExamEngine) pickQuestions(questions []QuizQuestion) []QuizQuestion {
	if e.cfg.Shuffle {
		e.rngMu.Lock()
		defer e.rngMu.Unlock()
		return ShuffleQuestionsWithLimit(questions, e.cfg.MaxQuestions, e.rng)
	}
	if e.cfg.MaxQuestions > 0 && e.cfg.MaxQuestions < len(questions) {
		return questions[:e.cfg.MaxQuestions]
	}
	return questions
}

func (e *ExamEngine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

func (e *ExamEngine) timerText(remaining time.Duration) string {
	return e.Translator.T("exam.timer", map[string]any{"Clock": formatClock(remaining)})
}

// formatClock печатает остаток как ММ:СС.
func formatClock(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func displayName(u User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
