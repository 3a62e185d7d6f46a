package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Данные callback-кнопок.
const (
	CallbackSubjectPrefix = "subject_"
	CallbackAnswerPrefix  = "answer_"
	CallbackMainMenu      = "main_menu"
	CallbackStartExam     = "start_exam"
	CallbackExit          = "exit_exam"
	CallbackConfirmExit   = "confirm_exit"
	CallbackCancelExit    = "cancel_exit"
)

var subjectIcons = []string{"📘", "📙", "📗", "📕", "📚", "📰"}

func answerData(question, option int) string {
	return fmt.Sprintf("%s%d_%d", CallbackAnswerPrefix, question, option)
}

// ParseAnswerData разбирает "answer_<вопрос>_<вариант>".
func ParseAnswerData(data string) (question, option int, ok bool) {
	parts := strings.Split(strings.TrimPrefix(data, CallbackAnswerPrefix), "_")
	if !strings.HasPrefix(data, CallbackAnswerPrefix) || len(parts) != 2 {
		return 0, 0, false
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	o, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return q, o, true
}

// ParseSubjectData разбирает "subject_<номер>". Номер, а не имя: callback
// ограничен 64 байтами, а имена предметов на деванагари длинные.
func ParseSubjectData(data string) (int, bool) {
	if !strings.HasPrefix(data, CallbackSubjectPrefix) {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimPrefix(data, CallbackSubjectPrefix))
	if err != nil {
		return 0, false
	}
	return i, true
}

func subjectKeyboard(subjects []string, back string) [][]Button {
	var rows [][]Button
	var row []Button
	for i, name := range subjects {
		icon := subjectIcons[i%len(subjectIcons)]
		row = append(row, Button{Text: icon + " " + name, Data: CallbackSubjectPrefix + strconv.Itoa(i)})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []Button{{Text: back, Data: CallbackMainMenu}})
}

func questionKeyboard(q QuizQuestion, index int, exit string) [][]Button {
	rows := make([][]Button, 0, len(q.Options)+1)
	for i, option := range q.Options {
		rows = append(rows, []Button{{
			Text: fmt.Sprintf("%d. %s", i+1, option),
			Data: answerData(index, i),
		}})
	}
	return append(rows, []Button{{Text: exit, Data: CallbackExit}})
}
