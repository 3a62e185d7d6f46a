package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/PoluyanbIch/ExamBot/internal/scheduler"
	"github.com/PoluyanbIch/ExamBot/internal/service"
)

type Deps struct {
	Bank        *service.QuestionBank
	Persistence service.Persistence
	Scheduler   scheduler.Scheduler
	Leaderboard service.LeaderboardService
	Translator  service.Translator
	Exam        service.ExamConfig
	// HTTPTimeout ограничивает каждый запрос к Bot API.
	HTTPTimeout time.Duration
}

// pollTimeout: время long polling в секундах.
const pollTimeout = 60

// newHTTPClient даёт клиент с таймаутом, который не короче long polling:
// иначе getUpdates обрывался бы на каждом пустом опросе.
func newHTTPClient(timeout time.Duration) *http.Client {
	if floor := (pollTimeout + 15) * time.Second; timeout < floor {
		timeout = floor
	}
	return &http.Client{Timeout: timeout}
}

type Bot struct {
	api       *tgbotapi.BotAPI
	engine    *service.ExamEngine
	assistant *service.Assistant
	reminders *service.Reminders
	log       zerolog.Logger
}

func NewBot(token string, debug bool, deps Deps, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, newHTTPClient(deps.HTTPTimeout))
	if err != nil {
		return nil, err
	}
	api.Debug = debug

	b := &Bot{
		api: api,
		log: log.With().Str("component", "telegram").Logger(),
	}
	b.engine = service.NewExamEngine(service.EngineDeps{
		Bank:        deps.Bank,
		Sessions:    service.NewSessionStore(),
		Scheduler:   deps.Scheduler,
		Transport:   b,
		Persistence: deps.Persistence,
		Leaderboard: deps.Leaderboard,
		Translator:  deps.Translator,
	}, deps.Exam, log)
	b.reminders = service.NewReminders(deps.Scheduler, b, deps.Persistence, deps.Translator, nil, log)
	b.assistant = service.NewAssistant(deps.Persistence, b.reminders, deps.Leaderboard, deps.Translator, nil, log)

	return b, nil
}

// Start читает обновления до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info().Str("account", b.api.Self.UserName).Msg("Authorised")

	if n, err := b.reminders.Restore(ctx); err != nil {
		b.log.Error().Err(err).Msg("Failed to restore reminders")
	} else if n > 0 {
		b.log.Info().Int("count", n).Msg("Reminders restored")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Int("active_exams", b.engine.Sessions.Active()).Msg("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("Update handler panicked")
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	user := userOf(m.From, m.Chat.ID)

	switch m.Command() {
	case "start":
		reply, err := b.assistant.Start(ctx, user)
		b.respondErr(user, 0, reply, err)
		return
	case "cancel":
		b.respond(user.ChatID, 0, b.assistant.Cancel(user))
		return
	case "exam", "quiz":
		b.respond(user.ChatID, 0, b.engine.OnExamStart(ctx, user))
		return
	case "subjects":
		b.respond(user.ChatID, 0, b.engine.OnSubjectMenu(ctx, user))
		return
	case "results":
		reply, err := b.assistant.MyResults(ctx, user)
		b.respondErr(user, 0, reply, err)
		return
	case "menu", "help", "info":
		b.respond(user.ChatID, 0, b.assistant.MainMenu())
		return
	}

	if reply, ok, err := b.assistant.OnText(ctx, user, m.Text); ok {
		b.respondErr(user, 0, reply, err)
		return
	}

	action, ok := b.assistant.ActionFor(m.Text)
	if !ok {
		b.respond(user.ChatID, 0, b.assistant.Unknown())
		return
	}
	switch action {
	case service.ActionStartExam:
		b.respond(user.ChatID, 0, b.engine.OnExamStart(ctx, user))
	case service.ActionSubjects:
		b.respond(user.ChatID, 0, b.engine.OnSubjectMenu(ctx, user))
	case service.ActionThought:
		b.respond(user.ChatID, 0, b.assistant.DailyThought())
	case service.ActionNews:
		b.respond(user.ChatID, 0, b.assistant.News())
	case service.ActionReminder:
		b.respond(user.ChatID, 0, b.assistant.AskReminder(user))
	case service.ActionTime:
		b.respond(user.ChatID, 0, b.assistant.TimeAndDate())
	case service.ActionLeaderboard:
		b.respond(user.ChatID, 0, b.assistant.Leaderboard())
	case service.ActionMyResults:
		reply, err := b.assistant.MyResults(ctx, user)
		b.respondErr(user, 0, reply, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	user := userOf(callback.From, callback.Message.Chat.ID)
	msgID := callback.Message.MessageID
	data := callback.Data

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("Error answering callback")
	}

	switch {
	case strings.HasPrefix(data, service.CallbackSubjectPrefix):
		index, ok := service.ParseSubjectData(data)
		if !ok {
			index = -1
		}
		reply, err := b.engine.OnSubjectChosen(ctx, user, index)
		b.respondErr(user, msgID, reply, err)
	case strings.HasPrefix(data, service.CallbackAnswerPrefix):
		question, option, ok := service.ParseAnswerData(data)
		if !ok {
			b.log.Debug().Str("data", data).Msg("Malformed answer callback")
			return
		}
		reply, err := b.engine.OnAnswer(ctx, user, question, option)
		b.respondErr(user, msgID, reply, err)
	case data == service.CallbackExit:
		reply, err := b.engine.OnExitRequest(ctx, user)
		b.respondErr(user, msgID, reply, err)
	case data == service.CallbackConfirmExit:
		reply, err := b.engine.OnExitConfirm(ctx, user)
		b.respondErr(user, msgID, reply, err)
	case data == service.CallbackCancelExit:
		reply, err := b.engine.OnExitCancel(ctx, user)
		b.respondErr(user, msgID, reply, err)
	case data == service.CallbackStartExam:
		b.respond(user.ChatID, 0, b.engine.OnExamStart(ctx, user))
	case data == service.CallbackMainMenu:
		b.respond(user.ChatID, 0, b.assistant.MainMenu())
	default:
		b.respond(user.ChatID, 0, b.assistant.Unknown())
	}
}

// respondErr отображает ответ с учётом ошибки: устаревшие события молча
// пропускаются, остальные логируются, а ответ (подсказка или общее
// сообщение об ошибке) всё равно показывается.
func (b *Bot) respondErr(user service.User, sourceMsgID int, reply service.Reply, err error) {
	switch {
	case err == nil:
	case errors.Is(err, service.ErrStaleEvent):
		b.log.Debug().Err(err).Int64("user_id", user.ID).Msg("Stale event ignored")
		return
	case errors.Is(err, service.ErrInvalidInput):
		b.log.Debug().Err(err).Int64("user_id", user.ID).Msg("Invalid input")
	default:
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("Handler error")
	}
	if reply.Text == "" {
		reply = b.assistant.GenericError()
	}
	b.respond(user.ChatID, sourceMsgID, reply)
}

// respond показывает ответ. Если событие пришло с кнопки сообщения
// sourceMsgID, оно правится на месте: оценка ответа заменяет вопрос, а
// клавиатуры без главного меню ставятся в то же сообщение.
func (b *Bot) respond(chatID int64, sourceMsgID int, reply service.Reply) {
	if reply.Feedback != nil {
		fb := service.Message{Text: reply.Feedback.Text}
		if sourceMsgID == 0 || b.Edit(chatID, sourceMsgID, fb) != nil {
			b.send(chatID, fb)
		}
		sourceMsgID = 0
	}

	if sourceMsgID != 0 && !reply.MainMenu && !reply.RemoveKeyboard {
		if err := b.Edit(chatID, sourceMsgID, reply.Message); err == nil {
			return
		}
	}
	b.send(chatID, reply.Message)
}

func (b *Bot) send(chatID int64, msg service.Message) {
	if _, err := b.Send(chatID, msg); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("Error sending message")
	}
}

func userOf(from *tgbotapi.User, chatID int64) service.User {
	return service.User{
		ID:        from.ID,
		ChatID:    chatID,
		Username:  from.UserName,
		FirstName: from.FirstName,
	}
}
