package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankJSON = `{
  "गणित": [
    {"question": "२ + २ = ?", "options": ["३", "४", "५"], "correct_answer": 1},
    {"question": "५ × ५ = ?", "options": ["१०", "२५"], "correct_answer": 1}
  ],
  "मराठी": [],
  "इतिहास": [
    {"question": "शिवाजी महाराजांचा जन्म कोठे झाला?", "options": ["शिवनेरी", "रायगड"], "correct_answer": 0}
  ]
}`

func TestParseQuestionBank_KeepsFileOrder(t *testing.T) {
	bank, err := ParseQuestionBank(strings.NewReader(bankJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"गणित", "मराठी", "इतिहास"}, bank.Subjects())

	math := bank.Questions("गणित")
	require.Len(t, math, 2)
	assert.Equal(t, 1, math[0].ID)
	assert.Equal(t, 2, math[1].ID)
	assert.Equal(t, 1, math[1].Correct)

	history := bank.Questions("इतिहास")
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].ID)

	assert.Nil(t, bank.Questions("मराठी"))
	assert.Nil(t, bank.Questions("नाही"))

	name, ok := bank.Subject(2)
	assert.True(t, ok)
	assert.Equal(t, "इतिहास", name)
	_, ok = bank.Subject(3)
	assert.False(t, ok)
}

func TestParseQuestionBank_Rejects(t *testing.T) {
	cases := map[string]string{
		"not an object":  `[1, 2]`,
		"bad index":      `{"a": [{"question": "q", "options": ["x", "y"], "correct_answer": 2}]}`,
		"one option":     `{"a": [{"question": "q", "options": ["x"], "correct_answer": 0}]}`,
		"empty question": `{"a": [{"question": "", "options": ["x", "y"], "correct_answer": 0}]}`,
		"no subjects":    `{}`,
		"truncated":      `{"a": [`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestionBank(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestQuestionBank_QuestionsAreCopies(t *testing.T) {
	bank, err := ParseQuestionBank(strings.NewReader(bankJSON))
	require.NoError(t, err)

	qs := bank.Questions("गणित")
	qs[0].Question = "changed"
	assert.Equal(t, "२ + २ = ?", bank.Questions("गणित")[0].Question)
}

func TestLoadQuestionBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(bankJSON), 0o600))

	bank := LoadQuestionBank(path, zerolog.Nop())
	assert.Len(t, bank.Subjects(), 3)

	fallback := LoadQuestionBank(filepath.Join(t.TempDir(), "missing.json"), zerolog.Nop())
	assert.Equal(t, DefaultQuestionBank().Subjects(), fallback.Subjects())
	assert.Len(t, fallback.Subjects(), 6)

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o600))
	assert.Len(t, LoadQuestionBank(broken, zerolog.Nop()).Subjects(), 6)
}

func TestDefaultQuestionBankIsValid(t *testing.T) {
	bank := DefaultQuestionBank()
	for _, subject := range bank.Subjects() {
		for _, q := range bank.Questions(subject) {
			assert.NoError(t, q.Validate(), subject)
		}
	}
}
