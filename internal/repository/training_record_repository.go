package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrainingRecordRepository struct {
	DB *gorm.DB
}

func NewTrainingRecordRepository(db *gorm.DB) *TrainingRecordRepository {
	return &TrainingRecordRepository{DB: db}
}

func (r *TrainingRecordRepository) WithTx(tx *gorm.DB) *TrainingRecordRepository {
	return &TrainingRecordRepository{DB: tx}
}

func (r *TrainingRecordRepository) Create(rec *model.TrainingRecord) error {
	return r.DB.Create(rec).Error
}

func (r *TrainingRecordRepository) FindByID(id uint) (*model.TrainingRecord, error) {
	var rec model.TrainingRecord
	err := r.DB.First(&rec, id).Error
	return &rec, err
}

// LockInScope loads a record visible under scope with SELECT ... FOR UPDATE.
func (r *TrainingRecordRepository) LockInScope(id uint, scope model.Scope) (*model.TrainingRecord, error) {
	var rec model.TrainingRecord
	err := scoped(r.DB.Clauses(clause.Locking{Strength: "UPDATE"}), "training_records", scope).
		First(&rec, "training_records.id = ?", id).Error
	return &rec, err
}

func (r *TrainingRecordRepository) SetQuizAttempt(id, attemptID uint) error {
	return r.DB.Model(&model.TrainingRecord{}).
		Where("id = ?", id).
		Update("quiz_attempt_id", attemptID).Error
}

// SetSignatureURL stores the archive location of a signature image.
// column is one of employee_signature_url or supervisor_signature_url.
func (r *TrainingRecordRepository) SetSignatureURL(id uint, column, url string) error {
	return r.DB.Model(&model.TrainingRecord{}).
		Where("id = ?", id).
		Update(column, url).Error
}

func (r *TrainingRecordRepository) Save(rec *model.TrainingRecord) error {
	return r.DB.Omit(clause.Associations).Save(rec).Error
}

func (r *TrainingRecordRepository) Delete(id uint) (int64, error) {
	res := r.DB.Delete(&model.TrainingRecord{}, id)
	return res.RowsAffected, res.Error
}

// ListPending returns records awaiting countersignature, oldest first.
func (r *TrainingRecordRepository) ListPending(scope model.Scope, page, limit int) ([]model.TrainingRecord, int64, error) {
	query := scoped(r.DB.Model(&model.TrainingRecord{}), "training_records", scope).
		Where("approval_status = ?", model.ApprovalPendingReview)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	var recs []model.TrainingRecord
	err := query.Preload("User").Preload("Course").Preload("QuizAttempt").
		Order("completion_date asc").
		Find(&recs).Error
	return recs, total, err
}

// ListByUser returns every record of a learner, newest first.
func (r *TrainingRecordRepository) ListByUser(userID uint) ([]model.TrainingRecord, error) {
	var recs []model.TrainingRecord
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("completion_date desc").
		Find(&recs).Error
	return recs, err
}
