package service

import (
	"math/rand"
)

// ShuffleQuestions перемешивает вопросы в случайном порядке
func ShuffleQuestions(questions []QuizQuestion, r *rand.Rand) []QuizQuestion {
	// Создаем копию, чтобы не изменять банк
	shuffled := make([]QuizQuestion, len(questions))
	copy(shuffled, questions)

	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}

// ShuffleQuestionsWithLimit перемешивает вопросы и возвращает только limit штук
func ShuffleQuestionsWithLimit(questions []QuizQuestion, limit int, r *rand.Rand) []QuizQuestion {
	shuffled := ShuffleQuestions(questions, r)

	if limit <= 0 || limit > len(shuffled) {
		limit = len(shuffled)
	}

	return shuffled[:limit]
}
