package trainingflow

import "time"

// Completion is emitted once when the learner signs.
type Completion struct {
	EnrollmentID    uint
	CourseID        uint
	QuizScore       int
	PassPercentage  int
	DurationMinutes int
	Answers         []int
	Signature       string
	ViewToken       string
	TimeTaken       time.Duration
}

// SubmitRequest is the body of POST /api/training-records.
type SubmitRequest struct {
	CourseID          uint   `json:"courseId"`
	EnrollmentID      uint   `json:"enrollmentId"`
	QuizScore         int    `json:"quizScore"`
	PassPercentage    int    `json:"passPercentage"`
	EmployeeSignature string `json:"employeeSignature"`
	DurationMinutes   int    `json:"durationMinutes"`
	QuizAttemptID     *uint  `json:"quizAttemptId,omitempty"`
	Answers           []int  `json:"answers"`
	TimeTakenSeconds  int    `json:"timeTakenSeconds"`
	ViewToken         string `json:"viewToken,omitempty"`
}

func (c *Completion) Request() SubmitRequest {
	return SubmitRequest{
		CourseID:          c.CourseID,
		EnrollmentID:      c.EnrollmentID,
		QuizScore:         c.QuizScore,
		PassPercentage:    c.PassPercentage,
		EmployeeSignature: c.Signature,
		DurationMinutes:   c.DurationMinutes,
		Answers:           c.Answers,
		TimeTakenSeconds:  int(c.TimeTaken.Seconds()),
		ViewToken:         c.ViewToken,
	}
}
