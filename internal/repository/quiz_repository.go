package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

// FindActiveByCourse returns gorm.ErrRecordNotFound when the course has no quiz.
func (r *QuizRepository) FindActiveByCourse(courseID uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.Where("course_id = ? AND is_active = ?", courseID, true).
		Order("id desc").
		First(&q).Error
	return &q, err
}

// ReplaceActive deactivates the current quiz of the course and stores q as
// the active one.
func (r *QuizRepository) ReplaceActive(q *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Quiz{}).
			Where("course_id = ? AND is_active = ?", q.CourseID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		q.IsActive = true
		return tx.Create(q).Error
	})
}
