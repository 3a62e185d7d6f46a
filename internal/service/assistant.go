package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MenuAction: пункт главного меню.
type MenuAction string

const (
	ActionStartExam   MenuAction = "menu.start_exam"
	ActionSubjects    MenuAction = "menu.subjects"
	ActionThought     MenuAction = "menu.thought"
	ActionNews        MenuAction = "menu.news"
	ActionReminder    MenuAction = "menu.reminder"
	ActionTime        MenuAction = "menu.time"
	ActionLeaderboard MenuAction = "menu.leaderboard"
	ActionMyResults   MenuAction = "menu.my_results"
)

var mainMenuLayout = [][]MenuAction{
	{ActionStartExam, ActionSubjects},
	{ActionThought, ActionNews},
	{ActionReminder, ActionTime},
	{ActionLeaderboard, ActionMyResults},
}

type inputKind int

const (
	inputNone inputKind = iota
	inputName
	inputReminder
)

// Assistant ведёт всё, что вокруг экзамена: регистрацию, меню, напоминания.
type Assistant struct {
	persist     Persistence
	reminders   *Reminders
	leaderboard LeaderboardService
	tr          Translator
	now         func() time.Time
	log         zerolog.Logger

	mu       sync.Mutex
	awaiting map[int64]inputKind
}

func NewAssistant(persist Persistence, reminders *Reminders, leaderboard LeaderboardService, tr Translator, now func() time.Time, log zerolog.Logger) *Assistant {
	if now == nil {
		now = time.Now
	}
	return &Assistant{
		persist:     persist,
		reminders:   reminders,
		leaderboard: leaderboard,
		tr:          tr,
		now:         now,
		log:         log.With().Str("component", "assistant").Logger(),
		awaiting:    make(map[int64]inputKind),
	}
}

// MainMenuLabels: подписи кнопок главного меню по рядам.
func (a *Assistant) MainMenuLabels() [][]string {
	rows := make([][]string, 0, len(mainMenuLayout))
	for _, row := range mainMenuLayout {
		labels := make([]string, 0, len(row))
		for _, action := range row {
			labels = append(labels, a.tr.T(string(action)))
		}
		rows = append(rows, labels)
	}
	return rows
}

// ActionFor находит пункт меню по тексту кнопки.
func (a *Assistant) ActionFor(text string) (MenuAction, bool) {
	text = strings.TrimSpace(text)
	for _, row := range mainMenuLayout {
		for _, action := range row {
			if a.tr.T(string(action)) == text {
				return action, true
			}
		}
	}
	return "", false
}

// Start приветствует знакомого пользователя или спрашивает имя.
func (a *Assistant) Start(ctx context.Context, u User) (Reply, error) {
	profile, err := a.persist.GetUser(ctx, u.ID)
	if err != nil {
		return a.GenericError(), fmt.Errorf("get user %d: %w: %w", u.ID, ErrPersistence, err)
	}
	if profile == nil {
		a.expect(u.ID, inputName)
		return Reply{Message: Message{Text: a.tr.T("start.welcome"), RemoveKeyboard: true}}, nil
	}

	a.expect(u.ID, inputNone)
	return Reply{Message: Message{
		Text:     a.tr.T("start.welcome_back", map[string]any{"Name": profile.FullName}),
		MainMenu: true,
	}}, nil
}

// OnText обрабатывает свободный текст, если бот его ждёт. false: текст не ожидался.
func (a *Assistant) OnText(ctx context.Context, u User, text string) (Reply, bool, error) {
	switch a.take(u.ID) {
	case inputName:
		r, err := a.register(ctx, u, text)
		return r, true, err
	case inputReminder:
		r, err := a.reminders.Set(ctx, u, text)
		return r, true, err
	}
	return Reply{}, false, nil
}

func (a *Assistant) register(ctx context.Context, u User, name string) (Reply, error) {
	name = strings.TrimSpace(name)
	gender := DetectGender(name)

	err := a.persist.UpsertUser(ctx, UserProfile{
		UserID:   u.ID,
		Username: u.Username,
		FullName: name,
		Gender:   gender,
	})
	if err != nil {
		return a.GenericError(), fmt.Errorf("register user %d: %w: %w", u.ID, ErrPersistence, err)
	}

	a.log.Info().Int64("user_id", u.ID).Str("gender", string(gender)).Msg("User registered")
	return Reply{Message: Message{
		Text:     a.tr.T("start.greeting", map[string]any{"Name": name, "Badge": gender.Badge()}),
		MainMenu: true,
	}}, nil
}

func (a *Assistant) AskReminder(u User) Reply {
	a.expect(u.ID, inputReminder)
	return Reply{Message: Message{Text: a.tr.T("reminder.prompt"), RemoveKeyboard: true}}
}

// Cancel прерывает ожидание имени или напоминания.
func (a *Assistant) Cancel(u User) Reply {
	a.expect(u.ID, inputNone)
	return Reply{Message: Message{Text: a.tr.T("cancel.done"), MainMenu: true}}
}

func (a *Assistant) MainMenu() Reply {
	return Reply{Message: Message{Text: a.tr.T("menu.title"), MainMenu: true}}
}

func (a *Assistant) Unknown() Reply {
	return Reply{Message: Message{Text: a.tr.T("menu.unknown"), MainMenu: true}}
}

func (a *Assistant) GenericError() Reply {
	return Reply{Message: Message{Text: a.tr.T("error.generic"), MainMenu: true}}
}

func (a *Assistant) DailyThought() Reply {
	th := ThoughtOfDay(a.now())
	return Reply{Message: Message{Text: a.tr.T("thought.text", map[string]any{
		"Thought": th.Text,
		"Author":  th.Author,
	})}}
}

func (a *Assistant) News() Reply {
	now := a.now()
	return Reply{Message: Message{Text: a.tr.T("news.text", map[string]any{
		"Headline": HeadlineOfDay(now),
		"Date":     now.Format("02-01-2006"),
	})}}
}

func (a *Assistant) TimeAndDate() Reply {
	now := a.now()
	return Reply{Message: Message{Text: a.tr.T("clock.text", map[string]any{
		"Date":    now.Format("02-01-2006"),
		"Time":    now.Format("15:04:05"),
		"Weekday": a.tr.T(fmt.Sprintf("weekday.%d", int(now.Weekday()))),
	})}}
}

// Leaderboard показывает десять лучших результатов.
func (a *Assistant) Leaderboard() Reply {
	top := a.leaderboard.GetTop(10)
	if len(top) == 0 {
		return Reply{Message: Message{
			Text:   a.tr.T("leaderboard.empty"),
			Inline: [][]Button{{{Text: a.tr.T("menu.start_exam"), Data: CallbackStartExam}}},
		}}
	}

	var b strings.Builder
	b.WriteString(a.tr.T("leaderboard.title"))
	for i, entry := range top {
		name := entry.FirstName
		if entry.Username != "" {
			name = "@" + entry.Username
		}

		medal := "🔸"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}

		b.WriteString(a.tr.T("leaderboard.line", map[string]any{
			"Medal":      medal,
			"Rank":       i + 1,
			"Name":       name,
			"Subject":    entry.Subject,
			"Percentage": entry.Percentage,
			"Score":      entry.Score,
			"Total":      entry.Total,
		}))
	}
	return Reply{Message: Message{
		Text:   b.String(),
		Inline: [][]Button{{{Text: a.tr.T("menu.start_exam"), Data: CallbackStartExam}}},
	}}
}

// myResultsLimit: сколько последних попыток показывать.
const myResultsLimit = 10

// MyResults показывает последние попытки пользователя.
func (a *Assistant) MyResults(ctx context.Context, u User) (Reply, error) {
	results, err := a.persist.ListResults(ctx, u.ID)
	if err != nil {
		return a.GenericError(), fmt.Errorf("list results of %d: %w: %w", u.ID, ErrPersistence, err)
	}
	again := [][]Button{{{Text: a.tr.T("menu.start_exam"), Data: CallbackStartExam}}}
	if len(results) == 0 {
		return Reply{Message: Message{Text: a.tr.T("results.empty"), Inline: again}}, nil
	}
	if len(results) > myResultsLimit {
		results = results[:myResultsLimit]
	}

	var b strings.Builder
	b.WriteString(a.tr.T("results.title"))
	for _, r := range results {
		e := newEntry(r.UserID, r.Username, "", r.Subject, r.Score, r.Total, r.TakenAt)
		b.WriteString(a.tr.T("results.line", map[string]any{
			"Date":       e.Date,
			"Subject":    e.Subject,
			"Score":      e.Score,
			"Total":      e.Total,
			"Percentage": e.Percentage,
		}))
	}
	return Reply{Message: Message{Text: b.String(), Inline: again}}, nil
}

func (a *Assistant) expect(userID int64, kind inputKind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if kind == inputNone {
		delete(a.awaiting, userID)
		return
	}
	a.awaiting[userID] = kind
}

func (a *Assistant) take(userID int64) inputKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	kind := a.awaiting[userID]
	delete(a.awaiting, userID)
	return kind
}
