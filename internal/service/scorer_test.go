package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestion() QuizQuestion {
	return QuizQuestion{ID: 1, Question: "2+2?", Options: []string{"4", "5", "6"}, Correct: 0}
}

func TestApplyAnswer_Correct(t *testing.T) {
	out, err := ApplyAnswer(sampleQuestion(), 3, 2, 0)
	require.NoError(t, err)

	assert.True(t, out.Correct)
	assert.Equal(t, 4, out.Score)
	assert.Equal(t, 3, out.Streak)
	assert.Equal(t, "4", out.CorrectOption)
	assert.False(t, out.Celebration)
}

func TestApplyAnswer_WrongResetsStreak(t *testing.T) {
	for _, chosen := range []int{1, 2} {
		out, err := ApplyAnswer(sampleQuestion(), 3, 7, chosen)
		require.NoError(t, err)

		assert.False(t, out.Correct)
		assert.Equal(t, 3, out.Score)
		assert.Equal(t, 0, out.Streak)
		assert.Equal(t, "4", out.CorrectOption)
	}
}

func TestApplyAnswer_OutOfRange(t *testing.T) {
	for _, chosen := range []int{-1, 3, 100} {
		out, err := ApplyAnswer(sampleQuestion(), 3, 2, chosen)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, AnswerOutcome{}, out)
	}
}

func TestApplyAnswer_CelebrationEveryTenth(t *testing.T) {
	score, streak := 0, 0
	var celebrated []int
	for i := 0; i < 25; i++ {
		out, err := ApplyAnswer(sampleQuestion(), score, streak, 0)
		require.NoError(t, err)
		score, streak = out.Score, out.Streak
		if out.Celebration {
			celebrated = append(celebrated, out.Streak)
		}
	}
	assert.Equal(t, []int{10, 20}, celebrated)

	out, err := ApplyAnswer(sampleQuestion(), score, streak, 1)
	require.NoError(t, err)
	assert.False(t, out.Celebration)
	assert.Equal(t, 0, out.Streak)
}
