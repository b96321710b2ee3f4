package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/repository"
	"vetlms_backend/internal/util"
	"vetlms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AssignRequest struct {
	Deadline *time.Time `json:"deadline"`
}

type AssignResult struct {
	CourseID uint `json:"courseId"`
	Assigned int  `json:"assigned"`
	Skipped  int  `json:"skipped"`
}

type AssignmentService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository
	Now            func() time.Time
}

func NewAssignmentService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
) *AssignmentService {
	return &AssignmentService{
		DB:             db,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		Now:            time.Now,
	}
}

func matchesAny(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

// Targets reports whether the course's targeting rules select the user.
// Exception positions always win over the other rules.
func Targets(course *model.Course, user *model.User) bool {
	if !user.IsActive {
		return false
	}
	if matchesAny(course.ExceptionPositions, user.Position) {
		return false
	}
	if course.AssignToEntireCompany {
		return true
	}
	return matchesAny(course.AssignedDepartments, user.Department) ||
		matchesAny(course.AssignedPositions, user.Position)
}

// AssignCourse enrolls every targeted user that is not enrolled yet.
// A course bound to a location only reaches users of that location.
func (s *AssignmentService) AssignCourse(ctx context.Context, actor model.Actor, courseID uint, req AssignRequest) (*AssignResult, error) {
	if !actor.Role.CanManageCourses() {
		return nil, util.ErrPermissionDenied
	}

	result := &AssignResult{CourseID: courseID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.CourseRepo.WithTx(tx).LockInScope(courseID, actor.Scope())
		if err != nil {
			return notFoundAs(err, util.ErrCourseNotFound)
		}
		if !course.IsPublished || !course.IsActive {
			return util.NewValidationError("courseId", "only active, published courses can be assigned")
		}

		scope := actor.Scope()
		if course.LocationID != nil {
			scope = model.LocationScope(course.OrganizationID, *course.LocationID)
		}
		users, err := s.UserRepo.WithTx(tx).FindActiveInScope(scope)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		enrolled, err := s.EnrollmentRepo.WithTx(tx).EnrolledUserIDs(course.ID)
		if err != nil {
			return fmt.Errorf("load enrollments: %w", err)
		}

		var batch []model.Enrollment
		for i := range users {
			if !Targets(course, &users[i]) {
				continue
			}
			if enrolled[users[i].ID] {
				result.Skipped++
				continue
			}
			batch = append(batch, model.Enrollment{
				UserID:   users[i].ID,
				CourseID: course.ID,
				Status:   model.EnrollmentAssigned,
				Deadline: req.Deadline,
			})
		}
		if err := s.EnrollmentRepo.WithTx(tx).CreateBatch(batch); err != nil {
			return fmt.Errorf("create enrollments: %w", err)
		}
		result.Assigned = len(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Course assigned",
		zap.Uint("course_id", courseID),
		zap.Int("assigned", result.Assigned),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *AssignmentService) ListMine(actor model.Actor) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(actor.UserID)
}

// Start moves an assigned enrollment to in_progress. Starting an enrollment
// that is already underway returns it unchanged.
func (s *AssignmentService) Start(actor model.Actor, enrollmentID uint) (*model.Enrollment, error) {
	if _, err := s.EnrollmentRepo.MarkStarted(enrollmentID, actor.UserID, s.Now()); err != nil {
		return nil, err
	}
	e, err := s.EnrollmentRepo.FindOwned(enrollmentID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return e, nil
}
