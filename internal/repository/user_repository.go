package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

// FindActiveInScope returns active users of the organization, limited to the
// location when one is given.
func (r *UserRepository) FindActiveInScope(scope model.Scope) ([]model.User, error) {
	var users []model.User
	err := scoped(r.DB.Model(&model.User{}), "users", scope).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&users).Error
	return users, err
}
