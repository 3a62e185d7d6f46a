package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// QuestionBank: неизменяемый набор вопросов по предметам в порядке файла.
type QuestionBank struct {
	subjects  []string
	questions map[string][]QuizQuestion
}

func NewQuestionBank(subjects []string, questions map[string][]QuizQuestion) *QuestionBank {
	b := &QuestionBank{questions: make(map[string][]QuizQuestion, len(questions))}
	for _, name := range subjects {
		qs, ok := questions[name]
		if !ok {
			continue
		}
		if _, dup := b.questions[name]; dup {
			continue
		}
		b.subjects = append(b.subjects, name)
		b.questions[name] = append([]QuizQuestion(nil), qs...)
	}
	return b
}

func (b *QuestionBank) Subjects() []string {
	return append([]string(nil), b.subjects...)
}

// Subject возвращает имя предмета по его номеру в меню.
func (b *QuestionBank) Subject(i int) (string, bool) {
	if i < 0 || i >= len(b.subjects) {
		return "", false
	}
	return b.subjects[i], true
}

// Questions отдаёт копию, чтобы сессия не зависела от банка.
func (b *QuestionBank) Questions(subject string) []QuizQuestion {
	qs := b.questions[subject]
	if len(qs) == 0 {
		return nil
	}
	return append([]QuizQuestion(nil), qs...)
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// ParseQuestionBank читает JSON вида {"предмет": [{"question", "options", "correct_answer"}]}
// с сохранением порядка предметов.
func ParseQuestionBank(r io.Reader) (*QuestionBank, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("bank must be a JSON object of subjects")
	}

	var subjects []string
	questions := make(map[string][]QuizQuestion)
	questionID := 1

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read subject: %w", err)
		}
		subject, _ := tok.(string)

		var raw []rawQuestion
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("subject %q: %w", subject, err)
		}

		qs := make([]QuizQuestion, 0, len(raw))
		for _, rq := range raw {
			q := QuizQuestion{
				ID:       questionID,
				Question: rq.Question,
				Options:  rq.Options,
				Correct:  rq.CorrectAnswer,
			}
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("subject %q: %w", subject, err)
			}
			qs = append(qs, q)
			questionID++
		}
		if _, dup := questions[subject]; !dup {
			subjects = append(subjects, subject)
		}
		questions[subject] = qs
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read bank end: %w", err)
	}
	if len(subjects) == 0 {
		return nil, errors.New("no subjects found in bank")
	}

	return NewQuestionBank(subjects, questions), nil
}

// LoadQuestionBank загружает вопросы из файла или возвращает встроенные при ошибке.
func LoadQuestionBank(filename string, log zerolog.Logger) *QuestionBank {
	f, err := os.Open(filename)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("Questions file unavailable, using default bank")
		return DefaultQuestionBank()
	}
	defer f.Close()

	bank, err := ParseQuestionBank(f)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("Failed to parse questions, using default bank")
		return DefaultQuestionBank()
	}

	log.Info().Str("file", filename).Int("subjects", len(bank.subjects)).Msg("Question bank loaded")
	return bank
}

// DefaultQuestionBank возвращает вопросы по умолчанию
func DefaultQuestionBank() *QuestionBank {
	subjects := []string{
		"मराठी",
		"सामान्य ज्ञान",
		"बुद्धिमत्ता चाचणी",
		"गणित",
		"इतिहास/भूगोल/संविधान",
		"चालू घडामोडी",
	}
	questions := map[string][]QuizQuestion{
		"मराठी": {{
			ID:       1,
			Question: "मराठी भाषेतील पहिले कवी कोण?",
			Options:  []string{"संत ज्ञानेश्वर", "संत एकनाथ", "संत तुकाराम", "संत नामदेव"},
			Correct:  0,
		}},
		"सामान्य ज्ञान": {{
			ID:       2,
			Question: "महाराष्ट्राची स्थापना कधी झाली?",
			Options:  []string{"१ मे १९६०", "१५ ऑगस्ट १९४७", "२६ जानेवारी १९५०", "१ नोव्हेंबर १९५६"},
			Correct:  0,
		}},
		"बुद्धिमत्ता चाचणी": {{
			ID:       3,
			Question: "जर A = 1, B = 2, तर Z = ?",
			Options:  []string{"24", "25", "26", "27"},
			Correct:  2,
		}},
		"गणित": {{
			ID:       4,
			Question: "२५ चे वर्गमूळ किती?",
			Options:  []string{"5", "6", "7", "8"},
			Correct:  0,
		}},
		"इतिहास/भूगोल/संविधान": {{
			ID:       5,
			Question: "भारताचे राष्ट्रीय चिन्ह कोठून घेण्यात आले आहे?",
			Options:  []string{"मुघल साम्राज्य", "अशोक स्तंभ", "महाबळेश्वर", "हस्तलिखित संविधान"},
			Correct:  1,
		}},
		"चालू घडामोडी": {{
			ID:       6,
			Question: "महाराष्ट्राचे सध्याचे मुख्यमंत्री कोण?",
			Options:  []string{"एकनाथ शिंदे", "देवेंद्र फडणवीस", "उद्धव ठाकरे", "अजित पवार"},
			Correct:  0,
		}},
	}
	return NewQuestionBank(subjects, questions)
}
