package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) WithTx(tx *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: tx}
}

func (r *QuizAttemptRepository) Create(a *model.QuizAttempt) error {
	return r.DB.Create(a).Error
}

func (r *QuizAttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.First(&a, id).Error
	return &a, err
}

// FindOwned loads an attempt only if it belongs to the user and course.
func (r *QuizAttemptRepository) FindOwned(id, userID, courseID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Where("id = ? AND user_id = ? AND course_id = ?", id, userID, courseID).First(&a).Error
	return &a, err
}

func (r *QuizAttemptRepository) Delete(id uint) (int64, error) {
	res := r.DB.Delete(&model.QuizAttempt{}, id)
	return res.RowsAffected, res.Error
}
