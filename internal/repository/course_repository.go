package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

// FindInScope loads a course visible under scope. A course without a
// location belongs to the whole organization and is only visible to
// organization-wide scopes.
func (r *CourseRepository) FindInScope(id uint, scope model.Scope) (*model.Course, error) {
	var course model.Course
	err := scoped(r.DB, "courses", scope).First(&course, "courses.id = ?", id).Error
	return &course, err
}

// LockInScope is FindInScope with SELECT ... FOR UPDATE. Call it inside a transaction.
func (r *CourseRepository) LockInScope(id uint, scope model.Scope) (*model.Course, error) {
	var course model.Course
	err := scoped(r.DB.Clauses(clause.Locking{Strength: "UPDATE"}), "courses", scope).
		First(&course, "courses.id = ?", id).Error
	return &course, err
}

// ListInScope lists courses for administrators. A location scope also sees
// organization-wide courses.
func (r *CourseRepository) ListInScope(scope model.Scope, page, limit int) ([]model.Course, int64, error) {
	query := r.DB.Model(&model.Course{}).Where("organization_id = ?", scope.OrganizationID)
	if scope.LocationID != nil {
		query = query.Where("location_id = ? OR location_id IS NULL", *scope.LocationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("created_at desc").Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) Delete(id uint) (int64, error) {
	res := r.DB.Delete(&model.Course{}, id)
	return res.RowsAffected, res.Error
}
