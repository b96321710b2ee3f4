package service

import (
	"context"
	"testing"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) submit(t *testing.T) *model.TrainingRecord {
	t.Helper()
	rec, err := f.training.SubmitCompletion(context.Background(), actorOf(f.employee), f.completionRequest(allCorrect()))
	require.NoError(t, err)
	return rec
}

func TestDenyReversesCompletion(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)
	require.NotNil(t, rec.QuizAttemptID)
	attemptID := *rec.QuizAttemptID

	err := f.approval.Deny(context.Background(), actorOf(f.supervisor), rec.ID, DenyRequest{Reason: "signature does not match"})
	require.NoError(t, err)

	var n int64
	f.db.Model(&model.TrainingRecord{}).Where("id = ?", rec.ID).Count(&n)
	assert.Zero(t, n)
	f.db.Model(&model.QuizAttempt{}).Where("id = ?", attemptID).Count(&n)
	assert.Zero(t, n)

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentInProgress, e.Status)
	assert.Nil(t, e.CompletedDate)
	assert.Zero(t, e.ProgressPercentage)
}

func TestResubmissionAfterDenialNumbersAttempts(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t)
	require.NoError(t, f.approval.Deny(context.Background(), actorOf(f.supervisor), first.ID, DenyRequest{}))

	second := f.submit(t)
	require.NotNil(t, second.QuizAttempt)
	assert.Equal(t, 2, second.QuizAttempt.AttemptNumber)
	assert.Equal(t, 2, f.reloadEnrollment(t).AttemptCount)
}

func TestApproveStampsSupervisor(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)

	approved, err := f.approval.Approve(context.Background(), actorOf(f.supervisor), rec.ID, ApproveRequest{SupervisorSignature: "Dr. Alvarez"})
	require.NoError(t, err)
	assert.True(t, approved.IsApproved())

	var stored model.TrainingRecord
	require.NoError(t, f.db.First(&stored, rec.ID).Error)
	assert.Equal(t, model.ApprovalApproved, stored.ApprovalStatus)
	require.NotNil(t, stored.SupervisorID)
	assert.Equal(t, f.supervisor.ID, *stored.SupervisorID)
	require.NotNil(t, stored.SupervisorSignatureData)
	assert.Equal(t, "Dr. Alvarez", *stored.SupervisorSignatureData)
	assert.NotNil(t, stored.SupervisorSignatureDate)

	// approving again re-stamps without clearing anything
	again, err := f.approval.Approve(context.Background(), actorOf(f.admin), rec.ID, ApproveRequest{SupervisorSignature: "Pat Director"})
	require.NoError(t, err)
	assert.True(t, again.IsApproved())
	require.NoError(t, f.db.First(&stored, rec.ID).Error)
	assert.True(t, stored.IsApproved())
	assert.Equal(t, f.admin.ID, *stored.SupervisorID)
	assert.Equal(t, "Pat Director", *stored.SupervisorSignatureData)
}

func TestDenyApprovedRecordConflicts(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)
	_, err := f.approval.Approve(context.Background(), actorOf(f.supervisor), rec.ID, ApproveRequest{SupervisorSignature: "Dr. Alvarez"})
	require.NoError(t, err)

	err = f.approval.Deny(context.Background(), actorOf(f.supervisor), rec.ID, DenyRequest{})
	assert.ErrorIs(t, err, util.ErrRecordAlreadyApproved)
	assert.Equal(t, int64(1), f.count(t, "training_records"))
	assert.Equal(t, model.EnrollmentCompleted, f.reloadEnrollment(t).Status)
}

func TestApprovalIsLocationScoped(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)
	southLead := f.addUser(t, "south@happypaws.test", model.Supervisor, &f.south.ID, "Nursing", "Lead Tech")

	_, err := f.approval.Approve(context.Background(), actorOf(southLead), rec.ID, ApproveRequest{SupervisorSignature: "South Lead"})
	assert.ErrorIs(t, err, util.ErrRecordNotFound)

	err = f.approval.Deny(context.Background(), actorOf(southLead), rec.ID, DenyRequest{})
	assert.ErrorIs(t, err, util.ErrRecordNotFound)

	var stored model.TrainingRecord
	require.NoError(t, f.db.First(&stored, rec.ID).Error)
	assert.Equal(t, model.ApprovalPendingReview, stored.ApprovalStatus)
	assert.Nil(t, stored.SupervisorID)
	assert.Equal(t, model.EnrollmentCompleted, f.reloadEnrollment(t).Status)

	// organization admins see every location
	_, err = f.approval.Approve(context.Background(), actorOf(f.admin), rec.ID, ApproveRequest{SupervisorSignature: "Pat Director"})
	assert.NoError(t, err)
}

func TestDenyMissingRecordChangesNothing(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)

	err := f.approval.Deny(context.Background(), actorOf(f.supervisor), rec.ID+99, DenyRequest{})
	assert.ErrorIs(t, err, util.ErrRecordNotFound)
	assert.Equal(t, int64(1), f.count(t, "training_records"))
	assert.Equal(t, int64(1), f.count(t, "quiz_attempts"))

	require.NoError(t, f.approval.Deny(context.Background(), actorOf(f.supervisor), rec.ID, DenyRequest{}))
	err = f.approval.Deny(context.Background(), actorOf(f.supervisor), rec.ID, DenyRequest{})
	assert.ErrorIs(t, err, util.ErrRecordNotFound)
}

func TestApproveRequiresSignatureAndRole(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)

	_, err := f.approval.Approve(context.Background(), actorOf(f.supervisor), rec.ID, ApproveRequest{})
	assert.ErrorIs(t, err, util.ErrSignatureRequired)

	_, err = f.approval.Approve(context.Background(), actorOf(f.supervisor), rec.ID, ApproveRequest{SupervisorSignature: "ab"})
	assert.True(t, util.IsValidation(err))

	_, err = f.approval.Approve(context.Background(), actorOf(f.employee), rec.ID, ApproveRequest{SupervisorSignature: "Jamie Rivera"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	err = f.approval.Deny(context.Background(), actorOf(f.employee), rec.ID, DenyRequest{})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	var stored model.TrainingRecord
	require.NoError(t, f.db.First(&stored, rec.ID).Error)
	assert.Equal(t, model.ApprovalPendingReview, stored.ApprovalStatus)
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	rec := f.submit(t)

	recs, total, err := f.approval.ListPending(actorOf(f.supervisor), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	require.NotNil(t, recs[0].User)
	assert.Equal(t, f.employee.ID, recs[0].User.ID)

	_, err = f.approval.Approve(context.Background(), actorOf(f.supervisor), rec.ID, ApproveRequest{SupervisorSignature: "Dr. Alvarez"})
	require.NoError(t, err)
	_, total, err = f.approval.ListPending(actorOf(f.supervisor), 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}
