package service

import (
	"sort"
	"sync"
	"time"
)

type LeaderboardEntry struct {
	UserID     int64
	Username   string
	FirstName  string
	Subject    string
	Score      int
	Total      int
	Percentage int
	Date       string
}

type LeaderboardService interface {
	// AddEntry возвращает true, если результат стал лучшим для пользователя по предмету.
	AddEntry(userID int64, username, firstName, subject string, score, total int) bool
	GetTop(limit int) []LeaderboardEntry
	GetUserPosition(userID int64, subject string) (int, *LeaderboardEntry)
}

// MemoryLeaderboardService держит лучшие результаты в памяти; при старте
// заполняется из хранилища через Seed.
type MemoryLeaderboardService struct {
	mu      sync.RWMutex
	entries []LeaderboardEntry
	now     func() time.Time
}

func NewMemoryLeaderboardService(now func() time.Time) *MemoryLeaderboardService {
	if now == nil {
		now = time.Now
	}
	return &MemoryLeaderboardService{
		entries: make([]LeaderboardEntry, 0),
		now:     now,
	}
}

// Seed загружает сохранённые результаты, оставляя лучший по каждой паре пользователь/предмет.
func (ms *MemoryLeaderboardService) Seed(records []ResultRecord) {
	for _, r := range records {
		ms.add(newEntry(r.UserID, r.Username, r.Username, r.Subject, r.Score, r.Total, r.TakenAt))
	}
}

func (ms *MemoryLeaderboardService) AddEntry(userID int64, username, firstName, subject string, score, total int) bool {
	if total <= 0 {
		return false
	}
	return ms.add(newEntry(userID, username, firstName, subject, score, total, ms.now()))
}

func newEntry(userID int64, username, firstName, subject string, score, total int, at time.Time) LeaderboardEntry {
	percentage := 0
	if total > 0 {
		percentage = (score * 100) / total
	}
	return LeaderboardEntry{
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		Subject:    subject,
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Date:       at.Format("02-01-2006 15:04"),
	}
}

func (ms *MemoryLeaderboardService) add(e LeaderboardEntry) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i, entry := range ms.entries {
		if entry.UserID == e.UserID && entry.Subject == e.Subject {
			// Обновляем если результат лучше
			if better(e, entry) {
				ms.entries[i] = e
				return true
			}
			return false
		}
	}

	ms.entries = append(ms.entries, e)
	return true
}

func better(a, b LeaderboardEntry) bool {
	if a.Percentage == b.Percentage {
		return a.Score > b.Score
	}
	return a.Percentage > b.Percentage
}

func (ms *MemoryLeaderboardService) GetTop(limit int) []LeaderboardEntry {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return topOf(ms.entries, limit)
}

func topOf(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	sorted := make([]LeaderboardEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return better(sorted[i], sorted[j])
	})

	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

// GetUserPosition: место пользователя среди результатов по предмету, -1 если нет.
func (ms *MemoryLeaderboardService) GetUserPosition(userID int64, subject string) (int, *LeaderboardEntry) {
	ms.mu.RLock()
	var bySubject []LeaderboardEntry
	for _, e := range ms.entries {
		if e.Subject == subject {
			bySubject = append(bySubject, e)
		}
	}
	ms.mu.RUnlock()

	for i, entry := range topOf(bySubject, 0) {
		if entry.UserID == userID {
			return i + 1, &entry
		}
	}
	return -1, nil
}
