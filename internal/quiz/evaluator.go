// Package quiz scores multiple-choice quiz submissions.
package quiz

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Unanswered marks a question the learner has not answered yet.
const Unanswered = -1

// AnswerCount is the fixed number of choices per question.
const AnswerCount = 4

var (
	ErrUnanswered       = errors.New("answer all questions before submitting")
	ErrAnswerMismatch   = errors.New("answer count does not match question count")
	ErrNoQuestions      = errors.New("quiz has no questions")
	ErrAnswerOutOfRange = errors.New("answer index out of range")
)

// Question is one multiple-choice question with exactly four answers.
type Question struct {
	Question           string   `json:"question" validate:"required"`
	Answers            []string `json:"answers" validate:"len=4,dive,required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex" validate:"min=0,max=3"`
}

// Result is the outcome of scoring one submission.
type Result struct {
	Correct    int  `json:"correct"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

var validate = validator.New()

// ValidateQuestions checks the structural rules of a question set.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i := range questions {
		if err := validate.Struct(questions[i]); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Evaluate scores answers against questions. Every question must carry a
// selection; Evaluate refuses to score otherwise and returns ErrUnanswered.
// A selection outside the question's answers gives ErrAnswerOutOfRange.
func Evaluate(answers []int, questions []Question, passPercentage int) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrNoQuestions
	}
	if len(answers) != len(questions) {
		return Result{}, ErrAnswerMismatch
	}

	correct := 0
	for i, a := range answers {
		if a == Unanswered {
			return Result{}, ErrUnanswered
		}
		if a < 0 || a >= len(questions[i].Answers) {
			return Result{}, fmt.Errorf("question %d: %w", i+1, ErrAnswerOutOfRange)
		}
		if a == questions[i].CorrectAnswerIndex {
			correct++
		}
	}

	pct := Percentage(correct, len(questions))
	return Result{
		Correct:    correct,
		Total:      len(questions),
		Percentage: pct,
		Passed:     pct >= passPercentage,
	}, nil
}

// Percentage is round(100*correct/total) with halves rounded up.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
