package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PoluyanbIch/ExamBot/internal/service"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// одно соединение: SQLite пишет последовательно, а :memory: живёт в соединении
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL,
		gender TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL,
		score INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		exam_date INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_progress_user ON user_progress(user_id, subject);

	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		reminder_text TEXT NOT NULL,
		reminder_time INTEGER NOT NULL,
		sent_at INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertUser создаёт пользователя или обновляет имя и пол.
func (s *Store) UpsertUser(ctx context.Context, p service.UserProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, full_name, gender) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			gender = excluded.gender`,
		p.UserID, p.Username, p.FullName, string(p.Gender),
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", p.UserID, err)
	}
	return nil
}

// GetUser возвращает nil, nil для незнакомого пользователя.
func (s *Store) GetUser(ctx context.Context, userID int64) (*service.UserProfile, error) {
	var (
		p      service.UserProfile
		gender string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, full_name, gender FROM users WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Username, &p.FullName, &gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	p.Gender = service.Gender(gender)
	return &p, nil
}

func (s *Store) RecordResult(ctx context.Context, r service.ResultRecord) error {
	takenAt := r.TakenAt
	if takenAt.IsZero() {
		takenAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, username, subject, score, total_questions, exam_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Username, r.Subject, r.Score, r.Total, takenAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record result for user %d: %w", r.UserID, err)
	}
	return nil
}

// ListResults возвращает все попытки пользователя, новые первыми.
func (s *Store) ListResults(ctx context.Context, userID int64) ([]service.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, username, subject, score, total_questions, exam_date
		 FROM user_progress WHERE user_id = ? ORDER BY exam_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list results for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// BestResults: лучшая попытка каждого пользователя по каждому предмету.
func (s *Store) BestResults(ctx context.Context) ([]service.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, username, subject, score, total_questions, exam_date
		 FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY user_id, subject
				ORDER BY (score * 100 / total_questions) DESC, score DESC, exam_date ASC
			) AS rn
			FROM user_progress WHERE total_questions > 0
		 ) WHERE rn = 1
		 ORDER BY (score * 100 / total_questions) DESC, score DESC`)
	if err != nil {
		return nil, fmt.Errorf("best results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]service.ResultRecord, error) {
	var results []service.ResultRecord
	for rows.Next() {
		var (
			r       service.ResultRecord
			takenAt int64
		)
		if err := rows.Scan(&r.UserID, &r.Username, &r.Subject, &r.Score, &r.Total, &takenAt); err != nil {
			return nil, err
		}
		r.TakenAt = time.Unix(takenAt, 0)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) SaveReminder(ctx context.Context, r service.Reminder) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (user_id, chat_id, reminder_text, reminder_time) VALUES (?, ?, ?, ?)`,
		r.UserID, r.ChatID, r.Text, r.At.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("save reminder for user %d: %w", r.UserID, err)
	}
	return res.LastInsertId()
}

// PendingReminders: все неотправленные напоминания, включая просроченные.
func (s *Store) PendingReminders(ctx context.Context) ([]service.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, chat_id, reminder_text, reminder_time
		 FROM reminders WHERE sent_at IS NULL ORDER BY reminder_time, id`)
	if err != nil {
		return nil, fmt.Errorf("pending reminders: %w", err)
	}
	defer rows.Close()

	var reminders []service.Reminder
	for rows.Next() {
		var (
			r  service.Reminder
			at int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ChatID, &r.Text, &at); err != nil {
			return nil, err
		}
		r.At = time.Unix(at, 0)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *Store) MarkReminderSent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET sent_at = ? WHERE id = ? AND sent_at IS NULL`, s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mark reminder %d sent: %w", id, sql.ErrNoRows)
	}
	return nil
}
