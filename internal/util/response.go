package util

import (
	"errors"
	"net/http"
	"vetlms_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func Unprocessable(c *gin.Context, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Code:    http.StatusUnprocessableEntity,
			Message: ve.Message,
			Data:    ve,
		})
		return
	}
	Error(c, http.StatusUnprocessableEntity, err.Error())
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.FromGin(c).Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// RespondError maps service errors onto HTTP statuses.
func RespondError(c *gin.Context, err error) {
	switch {
	case IsValidation(err),
		errors.Is(err, ErrQuizNotPassed),
		errors.Is(err, ErrUnansweredQuestions),
		errors.Is(err, ErrInvalidViewToken),
		errors.Is(err, ErrViewingIncomplete),
		errors.Is(err, ErrViewingNotStarted):
		Unprocessable(c, err)
	case errors.Is(err, ErrSignatureRequired):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrEnrollmentNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRecordAlreadyApproved),
		errors.Is(err, ErrEnrollmentCompleted):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNoMediaURL):
		BadRequest(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
