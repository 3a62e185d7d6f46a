package service

import "fmt"

// CelebrationEvery: каждая такая серия правильных ответов отмечается особо.
const CelebrationEvery = 10

type AnswerOutcome struct {
	Correct       bool
	Score         int
	Streak        int
	CorrectOption string
	Celebration   bool
}

// ApplyAnswer оценивает выбранный вариант, не трогая сессию.
func ApplyAnswer(q QuizQuestion, score, streak, chosen int) (AnswerOutcome, error) {
	if chosen < 0 || chosen >= len(q.Options) {
		return AnswerOutcome{}, fmt.Errorf("option %d of %d: %w", chosen, len(q.Options), ErrInvalidInput)
	}

	out := AnswerOutcome{
		Correct:       chosen == q.Correct,
		Score:         score,
		CorrectOption: q.Options[q.Correct],
	}
	if out.Correct {
		out.Score++
		out.Streak = streak + 1
		out.Celebration = out.Streak%CelebrationEvery == 0
	}
	return out, nil
}
