package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/quiz"
	"vetlms_backend/internal/repository"
	"vetlms_backend/internal/util"
	"vetlms_backend/pkg/depgraph"
	"vetlms_backend/pkg/logger"
	"vetlms_backend/pkg/monitoring"
	"vetlms_backend/pkg/tracing"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	courseTable    = "courses"
	courseIDColumn = "id"
)

// CourseRequest creates or replaces a course. QuizQuestions, when not nil,
// replaces the active quiz of the course.
type CourseRequest struct {
	Title                 string          `json:"title" validate:"required,max=255"`
	Description           string          `json:"description"`
	ContentType           string          `json:"contentType" validate:"required,oneof=video pdf powerpoint text"`
	ContentURLEn          string          `json:"contentUrlEn" validate:"omitempty,max=1024"`
	ContentURLEs          string          `json:"contentUrlEs" validate:"omitempty,max=1024"`
	ContentURLFr          string          `json:"contentUrlFr" validate:"omitempty,max=1024"`
	DurationMinutes       int             `json:"durationMinutes" validate:"min=0"`
	PassPercentage        *int            `json:"passPercentage" validate:"omitempty,min=0,max=100"`
	IsMandatory           bool            `json:"isMandatory"`
	IsPublished           bool            `json:"isPublished"`
	IsActive              *bool           `json:"isActive"`
	LocationID            *uint           `json:"locationId"`
	AssignedDepartments   []string        `json:"assignedDepartments"`
	AssignedPositions     []string        `json:"assignedPositions"`
	AssignToEntireCompany bool            `json:"assignToEntireCompany"`
	ExceptionPositions    []string        `json:"exceptionPositions"`
	QuizQuestions         []quiz.Question `json:"quizQuestions"`
}

var courseValidator = validator.New()

// Validate checks field rules and the publish rule: a published video, PDF
// or slide course needs a content URL in every language.
func (r *CourseRequest) Validate() error {
	if err := courseValidator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return util.NewValidationError(fe.Field(), "failed on the '%s' rule", fe.Tag())
		}
		return util.NewValidationError("course", "%s", err.Error())
	}

	if r.IsPublished && model.ContentType(r.ContentType).RequiresLocalizedContent() {
		urls := []struct{ field, url string }{
			{"contentUrlEn", r.ContentURLEn},
			{"contentUrlEs", r.ContentURLEs},
			{"contentUrlFr", r.ContentURLFr},
		}
		for _, u := range urls {
			if strings.TrimSpace(u.url) == "" {
				return util.NewValidationError(u.field, "published %s courses need content in every language", r.ContentType)
			}
		}
	}

	if r.QuizQuestions != nil {
		if err := quiz.ValidateQuestions(r.QuizQuestions); err != nil {
			return util.NewValidationError("quizQuestions", "%s", err.Error())
		}
	}
	return nil
}

func (r *CourseRequest) apply(c *model.Course) {
	c.Title = strings.TrimSpace(r.Title)
	c.Description = r.Description
	c.ContentType = model.ContentType(r.ContentType)
	c.ContentURLEn = r.ContentURLEn
	c.ContentURLEs = r.ContentURLEs
	c.ContentURLFr = r.ContentURLFr
	c.DurationMinutes = r.DurationMinutes
	if r.PassPercentage != nil {
		c.PassPercentage = *r.PassPercentage
	} else if c.PassPercentage == 0 {
		c.PassPercentage = model.DefaultPassPercentage
	}
	c.IsMandatory = r.IsMandatory
	c.IsPublished = r.IsPublished
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	c.AssignedDepartments = r.AssignedDepartments
	c.AssignedPositions = r.AssignedPositions
	c.AssignToEntireCompany = r.AssignToEntireCompany
	c.ExceptionPositions = r.ExceptionPositions
}

// CourseDetail is a course with its active quiz.
type CourseDetail struct {
	model.Course
	Quiz *model.Quiz `json:"quiz,omitempty"`
}

// TableDeletion reports the rows removed from one dependent table.
type TableDeletion struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Rows   int64  `json:"rows"`
}

type CourseDeletion struct {
	CourseID     uint            `json:"courseId"`
	Title        string          `json:"title"`
	Dependencies []TableDeletion `json:"dependencies"`
}

type CourseService struct {
	DB         *gorm.DB
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
	SchemaRepo *repository.SchemaRepository
	Media      *MediaService
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	schemaRepo *repository.SchemaRepository,
	media *MediaService,
) *CourseService {
	return &CourseService{
		DB:         db,
		CourseRepo: courseRepo,
		QuizRepo:   quizRepo,
		SchemaRepo: schemaRepo,
		Media:      media,
	}
}

func notFoundAs(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func (s *CourseService) Create(ctx context.Context, actor model.Actor, req CourseRequest) (*CourseDetail, error) {
	if !actor.Role.CanManageCourses() {
		return nil, util.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	course := &model.Course{OrganizationID: actor.OrganizationID, IsActive: true}
	if actor.Role.OrganizationWide() {
		course.LocationID = req.LocationID
	} else {
		course.LocationID = actor.LocationID
	}
	req.apply(course)

	detail := &CourseDetail{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.CourseRepo.WithTx(tx).Create(course); err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		if req.QuizQuestions != nil {
			q := &model.Quiz{CourseID: course.ID, Title: course.Title, Questions: req.QuizQuestions}
			if err := s.QuizRepo.WithTx(tx).ReplaceActive(q); err != nil {
				return fmt.Errorf("create quiz: %w", err)
			}
			detail.Quiz = q
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail.Course = *course
	logger.Log.Info("Course created", zap.Uint("course_id", course.ID), zap.Uint("organization_id", course.OrganizationID))
	return detail, nil
}

func (s *CourseService) Update(ctx context.Context, actor model.Actor, id uint, req CourseRequest) (*CourseDetail, error) {
	if !actor.Role.CanManageCourses() {
		return nil, util.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	detail := &CourseDetail{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.CourseRepo.WithTx(tx).LockInScope(id, actor.Scope())
		if err != nil {
			return notFoundAs(err, util.ErrCourseNotFound)
		}
		req.apply(course)
		if actor.Role.OrganizationWide() {
			course.LocationID = req.LocationID
		}
		if err := s.CourseRepo.WithTx(tx).Update(course); err != nil {
			return fmt.Errorf("update course: %w", err)
		}

		if req.QuizQuestions != nil {
			q := &model.Quiz{CourseID: course.ID, Title: course.Title, Questions: req.QuizQuestions}
			if err := s.QuizRepo.WithTx(tx).ReplaceActive(q); err != nil {
				return fmt.Errorf("replace quiz: %w", err)
			}
			detail.Quiz = q
		} else if q, err := s.QuizRepo.WithTx(tx).FindActiveByCourse(course.ID); err == nil {
			detail.Quiz = q
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		detail.Course = *course
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Get returns a course of the actor's organization. Learners may read any
// course of their organization, because assignments can cross locations.
func (s *CourseService) Get(actor model.Actor, id uint) (*CourseDetail, error) {
	course, err := s.CourseRepo.FindInScope(id, model.OrganizationScope(actor.OrganizationID))
	if err != nil {
		return nil, notFoundAs(err, util.ErrCourseNotFound)
	}
	detail := &CourseDetail{Course: *course}
	q, err := s.QuizRepo.FindActiveByCourse(course.ID)
	switch {
	case err == nil:
		detail.Quiz = q
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return detail, nil
}

func (s *CourseService) List(actor model.Actor, page, limit int) ([]model.Course, int64, error) {
	if !actor.Role.CanManageCourses() {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.CourseRepo.ListInScope(actor.Scope(), page, limit)
}

// ProbeDuration sets DurationMinutes from the length of the English video.
func (s *CourseService) ProbeDuration(ctx context.Context, actor model.Actor, id uint) (*model.Course, error) {
	if !actor.Role.CanManageCourses() {
		return nil, util.ErrPermissionDenied
	}
	course, err := s.CourseRepo.FindInScope(id, actor.Scope())
	if err != nil {
		return nil, notFoundAs(err, util.ErrCourseNotFound)
	}
	if course.ContentType != model.ContentVideo || course.ContentURLEn == "" {
		return nil, util.ErrNoMediaURL
	}

	minutes, err := s.Media.DurationMinutes(course.ContentURLEn)
	if err != nil {
		return nil, err
	}
	course.DurationMinutes = minutes
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	logger.Log.Info("Course duration probed", zap.Uint("course_id", course.ID), zap.Int("minutes", minutes))
	return course, nil
}

type cascadeStep struct {
	Table   string
	Columns []string
}

// planCascade picks the tables holding a foreign key to target.refColumn
// and orders them so that a table is emptied before any table it references.
// cyclic is set when those tables reference each other in a loop and part
// of the order is the fallback order.
func planCascade(fks []repository.ForeignKey, target, refColumn string) (steps []cascadeStep, cyclic bool) {
	columns := make(map[string][]string)
	for _, fk := range fks {
		if fk.RefTable != target || fk.RefColumn != refColumn || fk.Table == target {
			continue
		}
		if !containsString(columns[fk.Table], fk.Column) {
			columns[fk.Table] = append(columns[fk.Table], fk.Column)
		}
	}

	tables := make([]string, 0, len(columns))
	for t := range columns {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	// A referencing table must be cleared before the table it points at.
	var edges []depgraph.Edge
	for _, fk := range fks {
		if _, ok := columns[fk.Table]; !ok {
			continue
		}
		if _, ok := columns[fk.RefTable]; !ok {
			continue
		}
		edges = append(edges, depgraph.Edge{From: fk.Table, To: fk.RefTable})
	}

	ordered := depgraph.Order(tables, edges)
	steps = make([]cascadeStep, 0, len(ordered))
	for _, t := range ordered {
		steps = append(steps, cascadeStep{Table: t, Columns: columns[t]})
	}
	return steps, depgraph.HasCycle(tables, edges)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Delete removes a course and every row that references it. The dependent
// tables are discovered from the live schema. Nothing is changed unless the
// whole cascade succeeds.
func (s *CourseService) Delete(ctx context.Context, actor model.Actor, id uint) (result *CourseDeletion, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "CourseService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("course.id", int64(id)))
	defer func() {
		monitoring.CourseDeletions.WithLabelValues(monitoring.Result(err)).Inc()
		if err != nil {
			span.RecordError(err)
		}
	}()

	if !actor.Role.CanManageCourses() {
		return nil, util.ErrPermissionDenied
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.CourseRepo.WithTx(tx).LockInScope(id, actor.Scope())
		if err != nil {
			return notFoundAs(err, util.ErrCourseNotFound)
		}

		schema := s.SchemaRepo.WithTx(tx)
		fks, err := schema.ForeignKeys(ctx)
		if err != nil {
			return err
		}

		steps, cyclic := planCascade(fks, courseTable, courseIDColumn)
		if cyclic {
			ordered := make([]string, 0, len(steps))
			for _, step := range steps {
				ordered = append(ordered, step.Table)
			}
			logger.Log.Warn("Dependent tables reference each other, deleting in fallback order",
				zap.Uint("course_id", course.ID),
				zap.Strings("tables", ordered))
		}

		result = &CourseDeletion{CourseID: course.ID, Title: course.Title}
		for _, step := range steps {
			for _, column := range step.Columns {
				n, err := schema.DeleteWhere(ctx, step.Table, column, course.ID)
				if err != nil {
					return fmt.Errorf("delete from %s: %w", step.Table, err)
				}
				result.Dependencies = append(result.Dependencies, TableDeletion{Table: step.Table, Column: column, Rows: n})
			}
		}

		n, err := s.CourseRepo.WithTx(tx).Delete(course.ID)
		if err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		if n == 0 {
			return util.ErrCourseNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(result.Dependencies))
	for _, d := range result.Dependencies {
		tables = append(tables, d.Table)
		monitoring.CourseDeletionRows.WithLabelValues(d.Table).Add(float64(d.Rows))
	}
	logger.Log.Info("Course deleted",
		zap.Uint("course_id", result.CourseID),
		zap.Strings("tables", tables),
		zap.Any("dependencies", result.Dependencies))
	return result, nil
}
