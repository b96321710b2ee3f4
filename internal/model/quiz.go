package model

import (
	"vetlms_backend/internal/quiz"

	"gorm.io/datatypes"
)

// Quiz is the single canonical quiz definition of a course. A course has at
// most one active quiz; replacing the questions deactivates the old row so
// that attempts keep pointing at the questions they were scored against.
type Quiz struct {
	BaseModel
	CourseID  uint                               `gorm:"index;not null" json:"courseId"`
	Course    *Course                            `json:"-"`
	Title     string                             `gorm:"size:255" json:"title"`
	Questions datatypes.JSONSlice[quiz.Question] `json:"questions"`
	IsActive  bool                               `gorm:"index" json:"isActive"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionSet returns the questions as a plain slice.
func (q *Quiz) QuestionSet() []quiz.Question {
	return []quiz.Question(q.Questions)
}
