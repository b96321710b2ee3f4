package controller

import (
	"vetlms_backend/internal/service"
	"vetlms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AssignmentController serves the learner side of enrollments.
type AssignmentController struct {
	AssignmentService *service.AssignmentService
	ViewingService    *service.ViewingService
}

func NewAssignmentController(assignmentService *service.AssignmentService, viewingService *service.ViewingService) *AssignmentController {
	return &AssignmentController{
		AssignmentService: assignmentService,
		ViewingService:    viewingService,
	}
}

// @Summary List my assignments
// @Tags Assignments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Failure 401 {object} util.Response
// @Router /api/assignments [get]
func (c *AssignmentController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.AssignmentService.ListMine(claims.Actor())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// @Summary Start an assignment
// @Description Moves an assigned enrollment to in_progress.
// @Tags Assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assignments/{id}/start [post]
func (c *AssignmentController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	enrollment, err := c.AssignmentService.Start(claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// @Summary Start content viewing
// @Tags Assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=service.ViewingSession}
// @Failure 404 {object} util.Response
// @Router /api/assignments/{id}/viewing/start [post]
func (c *AssignmentController) StartViewing(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	session, err := c.ViewingService.StartViewing(ctx.Request.Context(), claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary Confirm content viewing
// @Description Returns a signed view token once the content was open long enough.
// @Tags Assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=service.ViewToken}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response "Viewing incomplete"
// @Router /api/assignments/{id}/viewing/confirm [post]
func (c *AssignmentController) ConfirmViewing(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	token, err := c.ViewingService.ConfirmViewing(ctx.Request.Context(), claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, token)
}
