package repository

import (
	"testing"
	"time"

	"vetlms_backend/internal/model"
	"vetlms_backend/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedEnrollment(t *testing.T, db *gorm.DB) (*model.User, *model.Enrollment) {
	t.Helper()
	org := model.Organization{Name: "Acme Vet"}
	require.NoError(t, db.Create(&org).Error)
	user := model.User{OrganizationID: org.ID, Name: "Kim", Email: "kim@example.com", PasswordHash: "x", Role: model.Employee, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	course := model.Course{OrganizationID: org.ID, Title: "Safety", ContentType: model.ContentText, PassPercentage: 80}
	require.NoError(t, db.Create(&course).Error)
	e := model.Enrollment{UserID: user.ID, CourseID: course.ID, Status: model.EnrollmentAssigned}
	require.NoError(t, db.Create(&e).Error)
	return &user, &e
}

func TestEnrollmentLifecycle(t *testing.T) {
	db := dbtest.New(t)
	user, e := seedEnrollment(t, db)
	repo := NewEnrollmentRepository(db)
	now := time.Now()

	n, err := repo.MarkStarted(e.ID, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// already in progress
	n, err = repo.MarkStarted(e.ID, user.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.MarkCompleted(e.ID, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPercentage)
	assert.Equal(t, 1, got.AttemptCount)
	assert.NotNil(t, got.CompletedDate)

	_, err = repo.ResetToInProgress(e.ID)
	require.NoError(t, err)
	got, err = repo.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentInProgress, got.Status)
	assert.Zero(t, got.ProgressPercentage)
	assert.Nil(t, got.CompletedDate)
	assert.Equal(t, 1, got.AttemptCount)
}

func TestMarkCompletedWrongOwner(t *testing.T) {
	db := dbtest.New(t)
	user, e := seedEnrollment(t, db)
	repo := NewEnrollmentRepository(db)

	n, err := repo.MarkCompleted(e.ID, user.ID+100, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
