package service

import (
	"context"
	"time"
)

type Button struct {
	Text string
	Data string
}

// Message: что и как показать пользователю. MainMenu заменяет клавиатуру
// чата на главное меню, RemoveKeyboard убирает её.
type Message struct {
	Text           string
	HTML           bool
	Inline         [][]Button
	MainMenu       bool
	RemoveKeyboard bool
}

// Transport: чат, в который движок пишет сам (таймеры, предупреждения,
// напоминания). Edit возвращает ErrMessageNotFound для удалённых сообщений.
type Transport interface {
	Send(chatID int64, msg Message) (int, error)
	Edit(chatID int64, messageID int, msg Message) error
}

// Feedback: оценка ответа для показа перед следующим вопросом.
type Feedback struct {
	Text        string
	Correct     bool
	Celebration bool
	Streak      int
}

// ExamResult: итог завершённого экзамена.
type ExamResult struct {
	Subject    string
	Score      int
	Total      int
	Percentage float64
	Saved      bool
	Position   int
}

// Reply: инструкция транспорту в ответ на событие пользователя.
type Reply struct {
	Message
	Feedback *Feedback
	Result   *ExamResult
	Status   Status
}

type UserProfile struct {
	UserID   int64
	Username string
	FullName string
	Gender   Gender
}

type ResultRecord struct {
	UserID   int64
	Username string
	Subject  string
	Score    int
	Total    int
	TakenAt  time.Time
}

type Reminder struct {
	ID     int64
	UserID int64
	ChatID int64
	Text   string
	At     time.Time
}

// Persistence: долговременное хранилище пользователей, результатов и напоминаний.
// GetUser возвращает nil без ошибки для незнакомого пользователя.
type Persistence interface {
	UpsertUser(ctx context.Context, p UserProfile) error
	GetUser(ctx context.Context, userID int64) (*UserProfile, error)
	RecordResult(ctx context.Context, r ResultRecord) error
	ListResults(ctx context.Context, userID int64) ([]ResultRecord, error)
	BestResults(ctx context.Context) ([]ResultRecord, error)
	SaveReminder(ctx context.Context, r Reminder) (int64, error)
	PendingReminders(ctx context.Context) ([]Reminder, error)
	MarkReminderSent(ctx context.Context, id int64) error
}
