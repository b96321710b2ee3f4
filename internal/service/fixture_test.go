package service

import (
	"fmt"
	"testing"
	"time"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/quiz"
	"vetlms_backend/internal/repository"
	"vetlms_backend/pkg/database/dbtest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db  *gorm.DB
	cfg *config.Config

	org      model.Organization
	otherOrg model.Organization
	north    model.Location
	south    model.Location

	employee   model.User
	supervisor model.User
	admin      model.User

	course     model.Course
	quiz       model.Quiz
	enrollment model.Enrollment

	storage    *StorageService
	viewing    *ViewingService
	training   *TrainingService
	approval   *ApprovalService
	courses    *CourseService
	assignment *AssignmentService
}

func testQuestions() []quiz.Question {
	qs := make([]quiz.Question, 4)
	for i := range qs {
		qs[i] = quiz.Question{
			Question:           fmt.Sprintf("Question %d", i+1),
			Answers:            []string{"A", "B", "C", "D"},
			CorrectAnswerIndex: i,
		}
	}
	return qs
}

func allCorrect() []int { return []int{0, 1, 2, 3} }

func threeOfFour() []int { return []int{0, 1, 2, 0} }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{db: db}
	f.cfg = &config.Config{
		JWT:      config.JWTConfig{Secret: "test-secret-test-secret-test-secret", ExpireTime: time.Hour},
		Storage:  config.StorageConfig{Type: "memory"},
		Training: config.TrainingConfig{MaxViewMinutes: 5, ViewTokenTTLMinutes: 60},
	}

	f.org = model.Organization{Name: "Happy Paws"}
	require.NoError(t, db.Create(&f.org).Error)
	f.otherOrg = model.Organization{Name: "Other Vets"}
	require.NoError(t, db.Create(&f.otherOrg).Error)
	f.north = model.Location{OrganizationID: f.org.ID, Name: "North Clinic"}
	require.NoError(t, db.Create(&f.north).Error)
	f.south = model.Location{OrganizationID: f.org.ID, Name: "South Clinic"}
	require.NoError(t, db.Create(&f.south).Error)

	f.employee = f.addUser(t, "tech@happypaws.test", model.Employee, &f.north.ID, "Nursing", "Vet Tech")
	f.supervisor = f.addUser(t, "lead@happypaws.test", model.Supervisor, &f.north.ID, "Nursing", "Lead Tech")
	f.admin = f.addUser(t, "admin@happypaws.test", model.OrgAdmin, nil, "Operations", "Director")

	f.course = model.Course{
		OrganizationID:  f.org.ID,
		LocationID:      &f.north.ID,
		Title:           "Controlled Substance Handling",
		ContentType:     model.ContentText,
		DurationMinutes: 10,
		PassPercentage:  80,
		IsPublished:     true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&f.course).Error)
	f.quiz = model.Quiz{CourseID: f.course.ID, Title: f.course.Title, Questions: testQuestions(), IsActive: true}
	require.NoError(t, db.Create(&f.quiz).Error)
	f.enrollment = model.Enrollment{UserID: f.employee.ID, CourseID: f.course.ID, Status: model.EnrollmentAssigned}
	require.NoError(t, db.Create(&f.enrollment).Error)

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	quizzes := repository.NewQuizRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	attempts := repository.NewQuizAttemptRepository(db)
	records := repository.NewTrainingRecordRepository(db)
	schema := repository.NewSchemaRepository(db)

	now := func() time.Time { return fixedNow }
	f.storage = NewStorageService(f.cfg)
	f.viewing = NewViewingService(enrollments, courses, nil, f.cfg)
	f.viewing.Now = now
	f.training = NewTrainingService(db, records, enrollments, attempts, quizzes, courses, f.viewing, f.storage)
	f.training.Now = now
	f.approval = NewApprovalService(db, records, enrollments, attempts, f.storage)
	f.approval.Now = now
	f.courses = NewCourseService(db, courses, quizzes, schema, NewMediaService())
	f.assignment = NewAssignmentService(db, courses, enrollments, users)
	f.assignment.Now = now
	return f
}

func (f *fixture) addUser(t *testing.T, email string, role model.UserRole, location *uint, department, position string) model.User {
	t.Helper()
	u := model.User{
		OrganizationID: f.org.ID,
		LocationID:     location,
		Name:           email,
		Email:          email,
		PasswordHash:   "x",
		Role:           role,
		Department:     department,
		Position:       position,
		IsActive:       true,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func actorOf(u model.User) model.Actor {
	return model.Actor{UserID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID, LocationID: u.LocationID}
}

func (f *fixture) completionRequest(answers []int) CompletionRequest {
	return CompletionRequest{
		CourseID:          f.course.ID,
		EnrollmentID:      f.enrollment.ID,
		QuizScore:         100,
		PassPercentage:    80,
		EmployeeSignature: "Jamie Rivera",
		DurationMinutes:   10,
		Answers:           answers,
		TimeTakenSeconds:  95,
	}
}

func (f *fixture) reloadEnrollment(t *testing.T) model.Enrollment {
	t.Helper()
	var e model.Enrollment
	require.NoError(t, f.db.First(&e, f.enrollment.ID).Error)
	return e
}

func (f *fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}
