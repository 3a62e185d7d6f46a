package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/PoluyanbIch/ExamBot/internal/i18n"
)

type sentMessage struct {
	ChatID int64
	ID     int
	Msg    Message
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Msg       Message
}

// fakeTransport записывает всё, что движок отправил в чат.
type fakeTransport struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editedMessage
	sendErr error
	editErr error
}

func (f *fakeTransport) Send(chatID int64, msg Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, ID: f.nextID, Msg: msg})
	return f.nextID, nil
}

func (f *fakeTransport) Edit(chatID int64, messageID int, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Msg: msg})
	return f.editErr
}

func (f *fakeTransport) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// EditsOf: правки одного сообщения по порядку.
func (f *fakeTransport) EditsOf(messageID int) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, e := range f.edits {
		if e.MessageID == messageID {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent) + len(f.edits)
}

var errDiskFull = errors.New("disk full")

type fakePersistence struct {
	mu         sync.Mutex
	users      map[int64]UserProfile
	results    []ResultRecord
	reminders  map[int64]Reminder
	sentIDs    map[int64]bool
	nextID     int64
	failWrites bool
	failReads  bool
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		users:     make(map[int64]UserProfile),
		reminders: make(map[int64]Reminder),
		sentIDs:   make(map[int64]bool),
	}
}

func (p *fakePersistence) UpsertUser(_ context.Context, u UserProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrites {
		return errDiskFull
	}
	p.users[u.UserID] = u
	return nil
}

func (p *fakePersistence) GetUser(_ context.Context, userID int64) (*UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (p *fakePersistence) RecordResult(_ context.Context, r ResultRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrites {
		return errDiskFull
	}
	p.results = append(p.results, r)
	return nil
}

func (p *fakePersistence) ListResults(_ context.Context, userID int64) ([]ResultRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failReads {
		return nil, errDiskFull
	}
	var out []ResultRecord
	for i := len(p.results) - 1; i >= 0; i-- {
		if p.results[i].UserID == userID {
			out = append(out, p.results[i])
		}
	}
	return out, nil
}

func (p *fakePersistence) BestResults(context.Context) ([]ResultRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ResultRecord(nil), p.results...), nil
}

func (p *fakePersistence) SaveReminder(_ context.Context, r Reminder) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrites {
		return 0, errDiskFull
	}
	p.nextID++
	r.ID = p.nextID
	p.reminders[r.ID] = r
	return r.ID, nil
}

func (p *fakePersistence) PendingReminders(context.Context) ([]Reminder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Reminder
	for id, r := range p.reminders {
		if !p.sentIDs[id] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *fakePersistence) MarkReminderSent(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.reminders[id]; !ok || p.sentIDs[id] {
		return sql.ErrNoRows
	}
	p.sentIDs[id] = true
	return nil
}

func (p *fakePersistence) Results() []ResultRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ResultRecord(nil), p.results...)
}

func englishTranslator(t *testing.T) Translator {
	t.Helper()
	tr, err := i18n.New("en", zerolog.Nop())
	require.NoError(t, err)
	return tr
}
