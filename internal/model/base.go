package model

import (
	"time"
)

// BaseModel carries the identity and timestamps shared by every table.
// Rows are hard-deleted; there is no soft-delete column.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AllModels lists every table in dependency order for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&Location{},
		&User{},
		&Course{},
		&Quiz{},
		&Enrollment{},
		&QuizAttempt{},
		&TrainingRecord{},
	}
}
