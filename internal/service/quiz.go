package service

import (
	"fmt"
	"time"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
)

type QuizQuestion struct {
	ID       int
	Question string
	Options  []string
	Correct  int
}

func (q QuizQuestion) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question %d: empty text", q.ID)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %d: need at least 2 options, got %d", q.ID, len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("question %d: correct answer %d out of range [0,%d)", q.ID, q.Correct, len(q.Options))
	}
	return nil
}

type Status int

const (
	StatusNoSession Status = iota
	StatusSelectingSubject
	StatusInExam
	StatusFinished
	StatusExited
)

func (s Status) String() string {
	switch s {
	case StatusNoSession:
		return "no_session"
	case StatusSelectingSubject:
		return "selecting_subject"
	case StatusInExam:
		return "in_exam"
	case StatusFinished:
		return "finished"
	case StatusExited:
		return "exited"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type JobKind string

const (
	JobTick    JobKind = "tick"
	JobWarning JobKind = "warning"
	JobBlink   JobKind = "blink"
)

// QuizSession: одна попытка сдачи экзамена. Меняется только под замком
// пользователя в SessionStore.
type QuizSession struct {
	ID              string
	UserID          int64
	ChatID          int64
	Subject         string
	Questions       []QuizQuestion
	CurrentQuestion int
	Score           int
	Streak          int
	StartedAt       time.Time
	Deadline        time.Time
	Status          Status
	// ConfirmingExit: ожидание подтверждения выхода, экзамен при этом идёт.
	ConfirmingExit bool
	TimerMessageID int

	jobs map[JobKind][]scheduler.Handle
}

// Done: все вопросы уже обработаны.
func (s *QuizSession) Done() bool {
	return s.CurrentQuestion >= len(s.Questions)
}

func (s *QuizSession) Total() int {
	return len(s.Questions)
}

// Snapshot: копия состояния без задач, безопасная для чтения вне замка.
type Snapshot struct {
	ID              string
	Subject         string
	CurrentQuestion int
	Total           int
	Score           int
	Streak          int
	Deadline        time.Time
	Status          Status
	ConfirmingExit  bool
	Jobs            map[JobKind]int
}

func (s *QuizSession) snapshot() Snapshot {
	jobs := make(map[JobKind]int, len(s.jobs))
	for k, hs := range s.jobs {
		if len(hs) > 0 {
			jobs[k] = len(hs)
		}
	}
	return Snapshot{
		ID:              s.ID,
		Subject:         s.Subject,
		CurrentQuestion: s.CurrentQuestion,
		Total:           len(s.Questions),
		Score:           s.Score,
		Streak:          s.Streak,
		Deadline:        s.Deadline,
		Status:          s.Status,
		ConfirmingExit:  s.ConfirmingExit,
		Jobs:            jobs,
	}
}

// User: отправитель события, как его видит транспорт.
type User struct {
	ID        int64
	ChatID    int64
	Username  string
	FirstName string
}
