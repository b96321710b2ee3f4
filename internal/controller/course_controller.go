package controller

import (
	"vetlms_backend/internal/service"
	"vetlms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService     *service.CourseService
	AssignmentService *service.AssignmentService
}

func NewCourseController(courseService *service.CourseService, assignmentService *service.AssignmentService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		AssignmentService: assignmentService,
	}
}

// PageQuery is the common page/limit query string.
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q *PageQuery) normalize() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

func pathID(ctx *gin.Context) (uint, bool) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid id")
	}
	return id, ok
}

// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CourseRequest true "Course"
// @Success 201 {object} util.Response{data=service.CourseDetail}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(ctx.Request.Context(), claims.Actor(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// @Summary Update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param body body service.CourseRequest true "Course"
// @Success 200 {object} util.Response{data=service.CourseDetail}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(ctx.Request.Context(), claims.Actor(), id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary Get a course with its quiz
// @Tags Courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=service.CourseDetail}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	course, err := c.CourseService.Get(claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary List courses
// @Tags Courses
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response
// @Router /api/admin/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var q PageQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q.normalize()

	courses, total, err := c.CourseService.List(claims.Actor(), q.Page, q.Limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: q.Page, Limit: q.Limit})
}

// Delete removes the course together with every row that references it.
// @Summary Delete a course
// @Description Deletes dependent rows in foreign-key order, then the course, in one transaction.
// @Tags Courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=service.CourseDeletion}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	result, err := c.CourseService.Delete(ctx.Request.Context(), claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Probe video duration
// @Tags Courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id}/probe-duration [post]
func (c *CourseController) ProbeDuration(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	course, err := c.CourseService.ProbeDuration(ctx.Request.Context(), claims.Actor(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courseId": course.ID, "durationMinutes": course.DurationMinutes})
}

// @Summary Assign a course
// @Description Enrolls every active user matched by the course targeting rules.
// @Tags Courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param body body service.AssignRequest false "Deadline"
// @Success 200 {object} util.Response{data=service.AssignResult}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/courses/{id}/assign [post]
func (c *CourseController) Assign(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.AssignRequest
	// an empty body assigns without a deadline
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	result, err := c.AssignmentService.AssignCourse(ctx.Request.Context(), claims.Actor(), id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
