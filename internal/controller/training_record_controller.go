package controller

import (
	"vetlms_backend/internal/service"
	"vetlms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrainingRecordController struct {
	TrainingService *service.TrainingService
	ApprovalService *service.ApprovalService
}

func NewTrainingRecordController(trainingService *service.TrainingService, approvalService *service.ApprovalService) *TrainingRecordController {
	return &TrainingRecordController{
		TrainingService: trainingService,
		ApprovalService: approvalService,
	}
}

// Submit stores a completed training: record, enrollment and quiz attempt.
// @Summary Submit a training completion
// @Tags Training Records
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CompletionRequest true "Completion"
// @Success 201 {object} util.Response{data=model.TrainingRecord}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Enrollment already completed"
// @Failure 422 {object} util.Response
// @Router /api/training-records [post]
func (c *TrainingRecordController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.Unprocessable(ctx, err)
		return
	}

	record, err := c.TrainingService.SubmitCompletion(ctx.Request.Context(), claims.Actor(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, record)
}

// @Summary List my training records
// @Tags Training Records
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TrainingRecord}
// @Router /api/training-records [get]
func (c *TrainingRecordController) MyRecords(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	records, err := c.TrainingService.MyRecords(claims.Actor())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// @Summary List records pending review
// @Tags Approvals
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response
// @Router /api/supervisor/training-records/pending [get]
func (c *TrainingRecordController) ListPending(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var q PageQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q.normalize()

	records, total, err := c.ApprovalService.ListPending(claims.Actor(), q.Page, q.Limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: records, Total: total, Page: q.Page, Limit: q.Limit})
}

// @Summary Approve a training record
// @Tags Approvals
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Training record ID"
// @Param body body service.ApproveRequest true "Supervisor signature"
// @Success 200 {object} util.Response{data=model.TrainingRecord}
// @Failure 400 {object} util.Response "Signature missing"
// @Failure 404 {object} util.Response
// @Router /api/supervisor/training-records/{id}/approve [post]
func (c *TrainingRecordController) Approve(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.ApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.ApprovalService.Approve(ctx.Request.Context(), claims.Actor(), id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// Deny rejects a pending record and puts the enrollment back in progress.
// @Summary Deny a training record
// @Tags Approvals
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Training record ID"
// @Param body body service.DenyRequest false "Reason"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Already approved"
// @Router /api/supervisor/training-records/{id}/deny [post]
func (c *TrainingRecordController) Deny(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.DenyRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	if err := c.ApprovalService.Deny(ctx.Request.Context(), claims.Actor(), id, req); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"success": true})
}
