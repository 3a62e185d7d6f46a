package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PoluyanbIch/ExamBot/internal/service"
)

// Send и Edit делают Bot транспортом для движка экзамена и напоминаний.

func (b *Bot) Send(chatID int64, msg service.Message) (int, error) {
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	if markup := replyMarkup(msg, b.assistant.MainMenuLabels()); markup != nil {
		cfg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

func (b *Bot) Edit(chatID int64, messageID int, msg service.Message) error {
	if messageID == 0 {
		return service.ErrMessageNotFound
	}

	cfg := tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	if len(msg.Inline) > 0 {
		markup := inlineMarkup(msg.Inline)
		cfg.ReplyMarkup = &markup
	}

	_, err := b.api.Request(cfg)
	return editError(chatID, messageID, err)
}

// replyMarkup выбирает клавиатуру сообщения: inline-кнопки, главное меню
// или её удаление. nil: клавиатуру чата не трогать.
func replyMarkup(msg service.Message, menu [][]string) any {
	switch {
	case len(msg.Inline) > 0:
		return inlineMarkup(msg.Inline)
	case msg.MainMenu:
		return menuMarkup(menu)
	case msg.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}

func inlineMarkup(rows [][]service.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func menuMarkup(labels [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, row := range labels {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// editError приводит ответы Bot API к ошибкам транспорта. Неизменённый
// текст (тик с тем же остатком) ошибкой не считается.
func editError(chatID int64, messageID int, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		desc := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(desc, "message is not modified"):
			return nil
		case strings.Contains(desc, "message to edit not found"),
			strings.Contains(desc, "message can't be edited"):
			return fmt.Errorf("edit %d in chat %d: %w", messageID, chatID, service.ErrMessageNotFound)
		}
	}
	return fmt.Errorf("edit %d in chat %d: %w", messageID, chatID, err)
}
