package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentAssigned   EnrollmentStatus = "assigned"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
)

// Enrollment is one learner's assignment of one course.
// CompletedDate is set and ProgressPercentage is 100 exactly when Status is completed.
type Enrollment struct {
	BaseModel
	UserID             uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	User               *User            `json:"-"`
	CourseID           uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Course             *Course          `json:"course,omitempty"`
	Status             EnrollmentStatus `gorm:"size:20;not null;index" json:"status"`
	ProgressPercentage int              `json:"progressPercentage"`
	Deadline           *time.Time       `json:"deadline,omitempty"`
	StartedDate        *time.Time       `json:"startedDate,omitempty"`
	CompletedDate      *time.Time       `json:"completedDate,omitempty"`
	// AttemptCount only grows; denial does not roll it back.
	AttemptCount int `json:"attemptCount"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
