package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"vetlms_backend/internal/model"
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

type ApproveRequest struct {
	SupervisorSignature string `json:"supervisorSignature"`
}

type DenyRequest struct {
	Reason string `json:"reason"`
}

// ApprovalService moves training records out of pending_review. Approval
// countersigns the record; denial undoes the completion entirely.
type ApprovalService struct {
	DB             *gorm.DB
	RecordRepo     *repository.TrainingRecordRepository
	EnrollmentRepo *repository.EnrollmentRepository
	AttemptRepo    *repository.QuizAttemptRepository
	Storage        *StorageService
	Now            func() time.Time
}

func NewApprovalService(
	db *gorm.DB,
	recordRepo *repository.TrainingRecordRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	attemptRepo *repository.QuizAttemptRepository,
	storage *StorageService,
) *ApprovalService {
	return &ApprovalService{
		DB:             db,
		RecordRepo:     recordRepo,
		EnrollmentRepo: enrollmentRepo,
		AttemptRepo:    attemptRepo,
		Storage:        storage,
		Now:            time.Now,
	}
}

func (s *ApprovalService) ListPending(actor model.Actor, page, limit int) ([]model.TrainingRecord, int64, error) {
	if !actor.Role.CanApprove() {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.RecordRepo.ListPending(actor.Scope(), page, limit)
}

// Approve countersigns a record visible under the actor's scope. Approving
// an approved record stamps it again with the new signature.
func (s *ApprovalService) Approve(ctx context.Context, actor model.Actor, recordID uint, req ApproveRequest) (rec *model.TrainingRecord, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "ApprovalService.Approve")
	defer span.End()
	span.SetAttributes(attribute.Int64("record.id", int64(recordID)))
	defer func() {
		if err == nil {
			monitoring.TrainingApprovals.WithLabelValues("approved").Inc()
		}
	}()

	if !actor.Role.CanApprove() {
		return nil, util.ErrPermissionDenied
	}
	sig := strings.TrimSpace(req.SupervisorSignature)
	if err := signature.Validate(sig); err != nil {
		if errors.Is(err, signature.ErrEmpty) {
			return nil, util.ErrSignatureRequired
		}
		return nil, util.NewValidationError("supervisorSignature", "%s", err.Error())
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records := s.RecordRepo.WithTx(tx)
		found, err := records.LockInScope(recordID, actor.Scope())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrRecordNotFound
			}
			return fmt.Errorf("lock training record: %w", err)
		}

		now := s.Now()
		supervisorID := actor.UserID
		found.SupervisorID = &supervisorID
		found.SupervisorSignatureData = &sig
		found.SupervisorSignatureDate = &now
		found.ApprovalStatus = model.ApprovalApproved
		if err := records.Save(found); err != nil {
			return fmt.Errorf("approve training record: %w", err)
		}
		rec = found
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Log.Info("Training record approved",
		zap.Uint("record_id", rec.ID),
		zap.Uint("supervisor_id", actor.UserID))

	url, err := s.Storage.ArchiveSignature(ctx, "supervisor", rec.ID, sig)
	if err != nil {
		logger.Log.Warn("Failed to archive supervisor signature", zap.Uint("record_id", rec.ID), zap.Error(err))
	} else if url != "" {
		if err := s.RecordRepo.SetSignatureURL(rec.ID, "supervisor_signature_url", url); err != nil {
			logger.Log.Warn("Failed to store supervisor signature url", zap.Uint("record_id", rec.ID), zap.Error(err))
		} else {
			rec.SupervisorSignatureURL = url
		}
	}
	return rec, nil
}

// Deny removes a pending record together with its quiz attempt and puts the
// enrollment back to in_progress, so the learner takes the quiz again.
// Approved records are never removed. The reason is logged, not stored.
func (s *ApprovalService) Deny(ctx context.Context, actor model.Actor, recordID uint, req DenyRequest) (err error) {
	ctx, span := tracing.Tracer.Start(ctx, "ApprovalService.Deny")
	defer span.End()
	span.SetAttributes(attribute.Int64("record.id", int64(recordID)))

	if !actor.Role.CanApprove() {
		return util.ErrPermissionDenied
	}

	var rec *model.TrainingRecord
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records := s.RecordRepo.WithTx(tx)
		found, err := records.LockInScope(recordID, actor.Scope())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrRecordNotFound
			}
			return fmt.Errorf("lock training record: %w", err)
		}
		if found.ApprovalStatus == model.ApprovalApproved {
			return util.ErrRecordAlreadyApproved
		}

		// The record references the attempt, so it goes first.
		if _, err := records.Delete(found.ID); err != nil {
			return fmt.Errorf("delete training record: %w", err)
		}
		if found.QuizAttemptID != nil {
			if _, err := s.AttemptRepo.WithTx(tx).Delete(*found.QuizAttemptID); err != nil {
				return fmt.Errorf("delete quiz attempt: %w", err)
			}
		}
		if _, err := s.EnrollmentRepo.WithTx(tx).ResetToInProgress(found.EnrollmentID); err != nil {
			return fmt.Errorf("reset enrollment: %w", err)
		}
		rec = found
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	monitoring.TrainingApprovals.WithLabelValues("denied").Inc()
	logger.Log.Info("Training record denied",
		zap.Uint("record_id", rec.ID),
		zap.Uint("enrollment_id", rec.EnrollmentID),
		zap.Uint("supervisor_id", actor.UserID),
		zap.String("reason", req.Reason))
	return nil
}
