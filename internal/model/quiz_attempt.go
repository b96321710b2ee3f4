package model

import (
	"gorm.io/datatypes"
)

type QuizAttempt struct {
	BaseModel
	UserID           uint                     `gorm:"index;not null" json:"userId"`
	User             *User                    `json:"-"`
	CourseID         uint                     `gorm:"index;not null" json:"courseId"`
	Course           *Course                  `json:"-"`
	QuizID           *uint                    `gorm:"index" json:"quizId"`
	Quiz             *Quiz                    `json:"-"`
	SubmittedAnswers datatypes.JSONSlice[int] `json:"submittedAnswers"`
	Score            int                      `json:"score"`
	Percentage       int                      `json:"percentage"`
	Passed           bool                     `json:"passed"`
	AttemptNumber    int                      `json:"attemptNumber"`
	TimeTakenSeconds int                      `json:"timeTakenSeconds"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
