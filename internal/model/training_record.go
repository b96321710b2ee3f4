package model

import "time"

type ApprovalStatus string

const (
	ApprovalPendingReview ApprovalStatus = "pending_review"
	ApprovalApproved      ApprovalStatus = "approved"
)

// TrainingRecord is the signed proof that a learner completed a course.
// An approved record always carries the supervisor id, signature and date.
type TrainingRecord struct {
	BaseModel
	OrganizationID uint          `gorm:"index;not null" json:"organizationId"`
	Organization   *Organization `json:"-"`
	LocationID     *uint         `gorm:"index" json:"locationId"`
	Location       *Location     `json:"-"`
	UserID         uint          `gorm:"index;not null" json:"userId"`
	User           *User         `gorm:"foreignKey:UserID" json:"employee,omitempty"`
	CourseID       uint          `gorm:"index;not null" json:"courseId"`
	Course         *Course       `json:"course,omitempty"`
	EnrollmentID   uint          `gorm:"uniqueIndex;not null" json:"enrollmentId"`
	Enrollment     *Enrollment   `json:"-"`
	QuizAttemptID  *uint         `gorm:"index" json:"quizAttemptId"`
	QuizAttempt    *QuizAttempt  `json:"quizAttempt,omitempty"`

	CompletionDate        time.Time `json:"completionDate"`
	QuizScore             int       `json:"quizScore"`
	EmployeeSignatureData string    `json:"employeeSignatureData"`
	EmployeeSignatureDate time.Time `json:"employeeSignatureDate"`
	EmployeeSignatureURL  string    `gorm:"size:1024" json:"employeeSignatureUrl,omitempty"`

	SupervisorID            *uint      `gorm:"index" json:"supervisorId"`
	Supervisor              *User      `gorm:"foreignKey:SupervisorID" json:"-"`
	SupervisorSignatureData *string    `json:"supervisorSignatureData"`
	SupervisorSignatureDate *time.Time `json:"supervisorSignatureDate"`
	SupervisorSignatureURL  string     `gorm:"size:1024" json:"supervisorSignatureUrl,omitempty"`

	ApprovalStatus ApprovalStatus `gorm:"size:20;not null;index" json:"approvalStatus"`
}

func (TrainingRecord) TableName() string {
	return "training_records"
}

// IsApproved reports whether the record carries a complete countersignature.
func (r *TrainingRecord) IsApproved() bool {
	return r.ApprovalStatus == ApprovalApproved &&
		r.SupervisorID != nil &&
		r.SupervisorSignatureData != nil &&
		r.SupervisorSignatureDate != nil
}
