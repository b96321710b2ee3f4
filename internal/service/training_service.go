package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/quiz"
	"vetlms_backend/internal/repository"
	"vetlms_backend/internal/signature"
	"vetlms_backend/internal/util"
	"vetlms_backend/pkg/logger"
	"vetlms_backend/pkg/monitoring"
	"vetlms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionRequest is what the learner submits at the end of the training flow.
type CompletionRequest struct {
	CourseID          uint   `json:"courseId" binding:"required"`
	EnrollmentID      uint   `json:"enrollmentId" binding:"required"`
	QuizScore         int    `json:"quizScore"`
	PassPercentage    int    `json:"passPercentage"`
	EmployeeSignature string `json:"employeeSignature"`
	DurationMinutes   int    `json:"durationMinutes"`
	QuizAttemptID     *uint  `json:"quizAttemptId"`
	Answers           []int  `json:"answers"`
	TimeTakenSeconds  int    `json:"timeTakenSeconds"`
	ViewToken         string `json:"viewToken"`
}

// Validate rejects out-of-range input before anything is written.
func (r *CompletionRequest) Validate() error {
	if r.CourseID == 0 {
		return util.NewValidationError("courseId", "is required")
	}
	if r.EnrollmentID == 0 {
		return util.NewValidationError("enrollmentId", "is required")
	}
	if r.QuizScore < 0 || r.QuizScore > 100 {
		return util.NewValidationError("quizScore", "must be between 0 and 100, got %d", r.QuizScore)
	}
	if r.PassPercentage < 0 || r.PassPercentage > 100 {
		return util.NewValidationError("passPercentage", "must be between 0 and 100, got %d", r.PassPercentage)
	}
	if r.DurationMinutes <= 0 {
		return util.NewValidationError("durationMinutes", "must be greater than 0")
	}
	if r.TimeTakenSeconds < 0 {
		return util.NewValidationError("timeTakenSeconds", "must not be negative")
	}
	if err := signature.Validate(r.EmployeeSignature); err != nil {
		if errors.Is(err, signature.ErrEmpty) {
			return util.ErrSignatureRequired
		}
		return util.NewValidationError("employeeSignature", "%s", err.Error())
	}
	return nil
}

// TrainingService persists completions: the training record, the
// enrollment status and the quiz attempt are written in one transaction.
type TrainingService struct {
	DB             *gorm.DB
	RecordRepo     *repository.TrainingRecordRepository
	EnrollmentRepo *repository.EnrollmentRepository
	AttemptRepo    *repository.QuizAttemptRepository
	QuizRepo       *repository.QuizRepository
	CourseRepo     *repository.CourseRepository
	Viewing        *ViewingService
	Storage        *StorageService
	Now            func() time.Time
}

func NewTrainingService(
	db *gorm.DB,
	recordRepo *repository.TrainingRecordRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	attemptRepo *repository.QuizAttemptRepository,
	quizRepo *repository.QuizRepository,
	courseRepo *repository.CourseRepository,
	viewing *ViewingService,
	storage *StorageService,
) *TrainingService {
	return &TrainingService{
		DB:             db,
		RecordRepo:     recordRepo,
		EnrollmentRepo: enrollmentRepo,
		AttemptRepo:    attemptRepo,
		QuizRepo:       quizRepo,
		CourseRepo:     courseRepo,
		Viewing:        viewing,
		Storage:        storage,
		Now:            time.Now,
	}
}

// SubmitCompletion records that actor finished the course of an enrollment.
// Either every row is written or none is.
func (s *TrainingService) SubmitCompletion(ctx context.Context, actor model.Actor, req CompletionRequest) (rec *model.TrainingRecord, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "TrainingService.SubmitCompletion")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("enrollment.id", int64(req.EnrollmentID)),
		attribute.Int64("course.id", int64(req.CourseID)),
	)
	defer func() {
		monitoring.TrainingCompletions.WithLabelValues(monitoring.Result(err)).Inc()
		if err != nil {
			span.RecordError(err)
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	requireToken := s.Viewing != nil && s.Viewing.Training().RequireViewToken

	var attempt *model.QuizAttempt
	now := s.Now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments := s.EnrollmentRepo.WithTx(tx)

		enrollment, err := enrollments.LockOwned(req.EnrollmentID, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrEnrollmentNotFound
			}
			return fmt.Errorf("lock enrollment: %w", err)
		}
		if enrollment.CourseID != req.CourseID {
			return util.ErrEnrollmentNotFound
		}
		if enrollment.Status == model.EnrollmentCompleted {
			return util.ErrEnrollmentCompleted
		}
		if requireToken {
			if err := s.Viewing.VerifyToken(req.ViewToken, enrollment.ID, actor.UserID, enrollment.AttemptCount); err != nil {
				return err
			}
		}

		course, err := s.CourseRepo.WithTx(tx).FindByID(req.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrCourseNotFound
			}
			return fmt.Errorf("load course: %w", err)
		}
		if course.OrganizationID != actor.OrganizationID {
			return util.ErrCourseNotFound
		}

		passPercentage := course.PassPercentage
		if passPercentage <= 0 {
			passPercentage = req.PassPercentage
		}

		activeQuiz, err := s.QuizRepo.WithTx(tx).FindActiveByCourse(course.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load quiz: %w", err)
			}
			activeQuiz = nil
		}

		// Answers sent by the flow are re-scored here; the server's score wins.
		score := req.QuizScore
		if len(req.Answers) > 0 && activeQuiz != nil {
			result, err := quiz.Evaluate(req.Answers, activeQuiz.QuestionSet(), passPercentage)
			if err != nil {
				if errors.Is(err, quiz.ErrUnanswered) {
					return util.ErrUnansweredQuestions
				}
				return util.NewValidationError("answers", "%s", err.Error())
			}
			score = result.Percentage
		}
		if score < passPercentage {
			return util.ErrQuizNotPassed
		}

		if req.QuizAttemptID != nil {
			if _, err := s.AttemptRepo.WithTx(tx).FindOwned(*req.QuizAttemptID, actor.UserID, course.ID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.NewValidationError("quizAttemptId", "quiz attempt %d not found", *req.QuizAttemptID)
				}
				return fmt.Errorf("load quiz attempt: %w", err)
			}
		}

		rec = &model.TrainingRecord{
			OrganizationID:        actor.OrganizationID,
			LocationID:            actor.LocationID,
			UserID:                actor.UserID,
			CourseID:              course.ID,
			EnrollmentID:          enrollment.ID,
			QuizAttemptID:         req.QuizAttemptID,
			CompletionDate:        now,
			QuizScore:             score,
			EmployeeSignatureData: req.EmployeeSignature,
			EmployeeSignatureDate: now,
			ApprovalStatus:        model.ApprovalPendingReview,
		}
		if err := s.RecordRepo.WithTx(tx).Create(rec); err != nil {
			return fmt.Errorf("create training record: %w", err)
		}

		n, err := enrollments.MarkCompleted(enrollment.ID, actor.UserID, now)
		if err != nil {
			return fmt.Errorf("complete enrollment: %w", err)
		}
		if n == 0 {
			return util.ErrEnrollmentNotFound
		}

		if req.QuizAttemptID == nil {
			attempt = &model.QuizAttempt{
				UserID:           actor.UserID,
				CourseID:         course.ID,
				SubmittedAnswers: req.Answers,
				Score:            score,
				Percentage:       score,
				Passed:           score >= passPercentage,
				AttemptNumber:    enrollment.AttemptCount + 1,
				TimeTakenSeconds: req.TimeTakenSeconds,
			}
			if activeQuiz != nil {
				attempt.QuizID = &activeQuiz.ID
			}
			if err := s.AttemptRepo.WithTx(tx).Create(attempt); err != nil {
				return fmt.Errorf("create quiz attempt: %w", err)
			}
			if err := s.RecordRepo.WithTx(tx).SetQuizAttempt(rec.ID, attempt.ID); err != nil {
				return fmt.Errorf("link quiz attempt: %w", err)
			}
			rec.QuizAttemptID = &attempt.ID
			rec.QuizAttempt = attempt
		}
		return nil
	})
	if err != nil {
		logger.Log.Warn("Training completion rejected",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("enrollment_id", req.EnrollmentID),
			zap.Error(err))
		return nil, err
	}

	attemptNumber := 0
	if attempt != nil {
		attemptNumber = attempt.AttemptNumber
	}
	logger.Log.Info("Training completion submitted",
		zap.Uint("record_id", rec.ID),
		zap.Uint("enrollment_id", rec.EnrollmentID),
		zap.Int("quiz_score", rec.QuizScore),
		zap.Int("attempt_number", attemptNumber))

	if s.Viewing != nil {
		s.Viewing.Finish(ctx, rec.EnrollmentID)
	}
	s.archiveEmployeeSignature(ctx, rec)
	return rec, nil
}

// archiveEmployeeSignature copies a drawn signature to object storage. The
// record already holds the raw data, so failures are only logged.
func (s *TrainingService) archiveEmployeeSignature(ctx context.Context, rec *model.TrainingRecord) {
	url, err := s.Storage.ArchiveSignature(ctx, "employee", rec.ID, rec.EmployeeSignatureData)
	if err != nil {
		logger.Log.Warn("Failed to archive employee signature", zap.Uint("record_id", rec.ID), zap.Error(err))
		return
	}
	if url == "" {
		return
	}
	if err := s.RecordRepo.SetSignatureURL(rec.ID, "employee_signature_url", url); err != nil {
		logger.Log.Warn("Failed to store employee signature url", zap.Uint("record_id", rec.ID), zap.Error(err))
		return
	}
	rec.EmployeeSignatureURL = url
}

// MyRecords lists the caller's training records.
func (s *TrainingService) MyRecords(actor model.Actor) ([]model.TrainingRecord, error) {
	return s.RecordRepo.ListByUser(actor.UserID)
}
