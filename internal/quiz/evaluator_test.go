package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Question:           "Which vaccine is core for dogs?",
			Answers:            []string{"Rabies", "Lyme", "Bordetella", "Leptospirosis"},
			CorrectAnswerIndex: i % AnswerCount,
		}
	}
	return qs
}

func correctAnswers(qs []Question) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = q.CorrectAnswerIndex
	}
	return out
}

func TestEvaluateThreeOfFour(t *testing.T) {
	qs := sampleQuestions(4)
	answers := correctAnswers(qs)
	answers[3] = (answers[3] + 1) % AnswerCount

	res, err := Evaluate(answers, qs, 80)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, 75, res.Percentage)
	assert.False(t, res.Passed)
}

func TestEvaluateAllCorrect(t *testing.T) {
	qs := sampleQuestions(4)
	res, err := Evaluate(correctAnswers(qs), qs, 80)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Percentage)
	assert.True(t, res.Passed)
}

func TestEvaluateRefusesUnanswered(t *testing.T) {
	qs := sampleQuestions(3)
	answers := correctAnswers(qs)
	answers[1] = Unanswered

	_, err := Evaluate(answers, qs, 80)
	assert.ErrorIs(t, err, ErrUnanswered)
}

func TestEvaluateLengthMismatch(t *testing.T) {
	_, err := Evaluate([]int{0}, sampleQuestions(2), 50)
	assert.ErrorIs(t, err, ErrAnswerMismatch)
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{1, 8, 13},
		{2, 3, 67},
		{1, 3, 33},
		{5, 8, 63},
		{0, 5, 0},
		{7, 7, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percentage(c.correct, c.total), "%d/%d", c.correct, c.total)
	}
}

func TestPassIsInclusiveAtThreshold(t *testing.T) {
	qs := sampleQuestions(5)
	answers := correctAnswers(qs)
	answers[0] = (answers[0] + 1) % AnswerCount // 4/5 = 80

	res, err := Evaluate(answers, qs, 80)
	require.NoError(t, err)
	assert.Equal(t, 80, res.Percentage)
	assert.True(t, res.Passed)
}

func TestValidateQuestions(t *testing.T) {
	assert.NoError(t, ValidateQuestions(sampleQuestions(2)))
	assert.ErrorIs(t, ValidateQuestions(nil), ErrNoQuestions)

	bad := sampleQuestions(1)
	bad[0].Answers = bad[0].Answers[:3]
	assert.Error(t, ValidateQuestions(bad))

	bad = sampleQuestions(1)
	bad[0].CorrectAnswerIndex = 4
	assert.Error(t, ValidateQuestions(bad))

	bad = sampleQuestions(1)
	bad[0].Answers[2] = ""
	assert.Error(t, ValidateQuestions(bad))
}

func TestEvaluateRejectsOutOfRangeAnswer(t *testing.T) {
	qs := sampleQuestions(4)
	for _, bad := range []int{AnswerCount, 99, -2} {
		answers := correctAnswers(qs)
		answers[3] = bad
		_, err := Evaluate(answers, qs, 75)
		assert.ErrorIs(t, err, ErrAnswerOutOfRange, "answer %d", bad)
	}
}
