package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/quiz"
	"vetlms_backend/internal/service"
	"vetlms_backend/pkg/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app        *App
	db         *gorm.DB
	course     model.Course
	enrollment model.Enrollment
}

const password = "s3cret-pass"

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "test"},
		JWT:      config.JWTConfig{Secret: "app-test-secret-app-test-secret-xx", ExpireTime: time.Hour},
		Storage:  config.StorageConfig{Type: "memory"},
		Training: config.TrainingConfig{MaxViewMinutes: 5},
	}

	hash, err := service.HashPassword(password)
	require.NoError(t, err)

	org := model.Organization{Name: "Happy Paws"}
	require.NoError(t, db.Create(&org).Error)
	loc := model.Location{OrganizationID: org.ID, Name: "North Clinic"}
	require.NoError(t, db.Create(&loc).Error)

	users := []model.User{
		{Email: "tech@happypaws.test", Role: model.Employee, LocationID: &loc.ID},
		{Email: "lead@happypaws.test", Role: model.Supervisor, LocationID: &loc.ID},
		{Email: "admin@happypaws.test", Role: model.OrgAdmin},
	}
	for i := range users {
		users[i].OrganizationID = org.ID
		users[i].Name = users[i].Email
		users[i].PasswordHash = hash
		users[i].IsActive = true
		require.NoError(t, db.Create(&users[i]).Error)
	}

	s := &testServer{db: db}
	s.course = model.Course{
		OrganizationID:  org.ID,
		LocationID:      &loc.ID,
		Title:           "Radiation Safety",
		ContentType:     model.ContentText,
		DurationMinutes: 3,
		PassPercentage:  50,
		IsPublished:     true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&s.course).Error)
	questions := []quiz.Question{
		{Question: "Q1", Answers: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 1},
		{Question: "Q2", Answers: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 0},
	}
	require.NoError(t, db.Create(&model.Quiz{CourseID: s.course.ID, Questions: questions, IsActive: true}).Error)
	s.enrollment = model.Enrollment{UserID: users[0].ID, CourseID: s.course.ID, Status: model.EnrollmentAssigned}
	require.NoError(t, db.Create(&s.enrollment).Error)

	s.app = Build(cfg, db, nil)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func TestCompletionAndApprovalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	employee := s.login(t, "tech@happypaws.test")
	lead := s.login(t, "lead@happypaws.test")

	completion := gin.H{
		"courseId":          s.course.ID,
		"enrollmentId":      s.enrollment.ID,
		"quizScore":         100,
		"passPercentage":    50,
		"employeeSignature": "Jamie Rivera",
		"durationMinutes":   3,
		"answers":           []int{1, 0},
		"timeTakenSeconds":  40,
	}

	code, _ := s.do(t, http.MethodPost, "/api/training-records", "", completion)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(t, http.MethodPost, "/api/training-records", employee, completion)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var record model.TrainingRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, model.ApprovalPendingReview, record.ApprovalStatus)

	code, _ = s.do(t, http.MethodPost, "/api/training-records", employee, completion)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodGet, "/api/supervisor/training-records/pending", employee, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/supervisor/training-records/pending", lead, nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	approvePath := fmt.Sprintf("/api/supervisor/training-records/%d/approve", record.ID)
	code, _ = s.do(t, http.MethodPost, approvePath, lead, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code, "missing supervisor signature")

	code, _ = s.do(t, http.MethodPost, approvePath, lead, gin.H{"supervisorSignature": "Dr. Alvarez"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/supervisor/training-records/%d/deny", record.ID), lead, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestCompletionValidationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	employee := s.login(t, "tech@happypaws.test")

	code, _ := s.do(t, http.MethodPost, "/api/training-records", employee, gin.H{
		"courseId":          s.course.ID,
		"enrollmentId":      s.enrollment.ID,
		"quizScore":         100,
		"employeeSignature": "",
		"durationMinutes":   3,
		"answers":           []int{1, 0},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/training-records", employee, gin.H{
		"courseId":          s.course.ID,
		"enrollmentId":      s.enrollment.ID,
		"quizScore":         140,
		"employeeSignature": "Jamie Rivera",
		"durationMinutes":   3,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(t, http.MethodPost, "/api/training-records", employee, gin.H{
		"courseId":          s.course.ID,
		"enrollmentId":      s.enrollment.ID,
		"quizScore":         0,
		"employeeSignature": "Jamie Rivera",
		"durationMinutes":   3,
		"answers":           []int{0, 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "failed quiz")

	var e model.Enrollment
	require.NoError(t, s.db.First(&e, s.enrollment.ID).Error)
	assert.Equal(t, model.EnrollmentAssigned, e.Status)
}

func TestDeleteCourseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	employee := s.login(t, "tech@happypaws.test")
	admin := s.login(t, "admin@happypaws.test")
	path := fmt.Sprintf("/api/admin/courses/%d", s.course.ID)

	code, _ := s.do(t, http.MethodDelete, path, employee, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var result service.CourseDeletion
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, s.course.ID, result.CourseID)

	var n int64
	s.db.Model(&model.Enrollment{}).Where("course_id = ?", s.course.ID).Count(&n)
	assert.Zero(t, n)

	code, _ = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodDelete, "/api/admin/courses/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"up"`)
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths["/api/training-records"], "post")
	assert.Contains(t, doc.Paths["/api/supervisor/training-records/{id}/deny"], "post")
	assert.Contains(t, doc.Paths["/api/admin/courses/{id}"], "delete")
}
