package repository

import (
	"time"
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) WithTx(tx *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: tx}
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) CreateBatch(es []model.Enrollment) error {
	if len(es) == 0 {
		return nil
	}
	return r.DB.Create(&es).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.First(&e, id).Error
	return &e, err
}

// FindOwned loads an enrollment only if it belongs to userID.
func (r *EnrollmentRepository) FindOwned(id, userID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	return &e, err
}

// LockOwned is FindOwned with SELECT ... FOR UPDATE.
func (r *EnrollmentRepository) LockOwned(id, userID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error
	return &e, err
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("deadline is null, deadline asc, id asc").
		Find(&es).Error
	return es, err
}

// EnrolledUserIDs returns the ids of users already enrolled in the course.
func (r *EnrollmentRepository) EnrolledUserIDs(courseID uint) (map[uint]bool, error) {
	var ids []uint
	if err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// MarkStarted moves an assigned enrollment to in_progress. Enrollments that
// are already further along are left untouched.
func (r *EnrollmentRepository) MarkStarted(id, userID uint, now time.Time) (int64, error) {
	res := r.DB.Model(&model.Enrollment{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.EnrollmentAssigned).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentInProgress,
			"started_date": now,
		})
	return res.RowsAffected, res.Error
}

// MarkCompleted flips the enrollment to completed and bumps the attempt
// counter. It returns the number of rows matched by id and owner.
func (r *EnrollmentRepository) MarkCompleted(id, userID uint, now time.Time) (int64, error) {
	res := r.DB.Model(&model.Enrollment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"status":              model.EnrollmentCompleted,
			"completed_date":      now,
			"progress_percentage": 100,
			"attempt_count":       gorm.Expr("attempt_count + 1"),
		})
	return res.RowsAffected, res.Error
}

// ResetToInProgress undoes a completion.
func (r *EnrollmentRepository) ResetToInProgress(id uint) (int64, error) {
	res := r.DB.Model(&model.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              model.EnrollmentInProgress,
			"completed_date":      nil,
			"progress_percentage": 0,
		})
	return res.RowsAffected, res.Error
}
