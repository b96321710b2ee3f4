package repository

import (
	"context"
	"testing"

	"vetlms_backend/internal/model"
	"vetlms_backend/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeysSQLite(t *testing.T) {
	db := dbtest.New(t)
	repo := NewSchemaRepository(db)

	fks, err := repo.ForeignKeys(context.Background())
	require.NoError(t, err)

	has := func(table, column, ref string) bool {
		for _, fk := range fks {
			if fk.Table == table && fk.Column == column && fk.RefTable == ref && fk.RefColumn == "id" {
				return true
			}
		}
		return false
	}

	assert.True(t, has("enrollments", "course_id", "courses"))
	assert.True(t, has("quizzes", "course_id", "courses"))
	assert.True(t, has("quiz_attempts", "course_id", "courses"))
	assert.True(t, has("quiz_attempts", "quiz_id", "quizzes"))
	assert.True(t, has("training_records", "course_id", "courses"))
	assert.True(t, has("training_records", "enrollment_id", "enrollments"))
	assert.True(t, has("training_records", "quiz_attempt_id", "quiz_attempts"))
}

func TestDeleteWhereQuotesIdentifiers(t *testing.T) {
	db := dbtest.New(t)
	org := model.Organization{Name: "Acme Vet"}
	require.NoError(t, db.Create(&org).Error)
	require.NoError(t, db.Create(&model.Location{OrganizationID: org.ID, Name: "North"}).Error)
	require.NoError(t, db.Create(&model.Location{OrganizationID: org.ID, Name: "South"}).Error)

	repo := NewSchemaRepository(db)
	n, err := repo.DeleteWhere(context.Background(), "locations", "organization_id", org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int64
	db.Model(&model.Location{}).Count(&count)
	assert.Zero(t, count)
}
