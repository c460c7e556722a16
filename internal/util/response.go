package util

import (
	"errors"
	"net/http"

	"lms_backend/pkg/logger"
	"lms_backend/pkg/observability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    Kind        `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse wraps a page of a list endpoint.
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

func Error(c *gin.Context, code int, kind Kind, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Kind:    kind,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, KindUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, KindAuthorization, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, KindValidation, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, KindNotFound, "Resource not found")
}

func ServiceUnavailable(c *gin.Context) {
	Error(c, http.StatusServiceUnavailable, KindTransient, "Service temporarily unavailable")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, KindInternal, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	observability.CaptureErr(err)
	InternalServerError(c)
}

// HandleError writes the response matching the error's kind. Errors are
// surfaced as they are; nothing is retried here.
func HandleError(c *gin.Context, err error) {
	switch KindOf(err) {
	case KindAuthorization:
		Error(c, http.StatusForbidden, KindAuthorization, messageOf(err, "Forbidden"))
	case KindUnauthorized:
		Error(c, http.StatusUnauthorized, KindUnauthorized, messageOf(err, "Unauthorized"))
	case KindValidation:
		Error(c, http.StatusBadRequest, KindValidation, messageOf(err, "Invalid request"))
	case KindNotFound:
		Error(c, http.StatusNotFound, KindNotFound, messageOf(err, "Resource not found"))
	case KindConflict:
		Error(c, http.StatusConflict, KindConflict, messageOf(err, "Resource already exists"))
	case KindTransient:
		logger.Log.Warn("Transient store error", zap.String("path", c.FullPath()), zap.Error(err))
		ServiceUnavailable(c)
	default:
		LogInternalError(c, err)
	}
}

// messageOf exposes AppError messages and sentinel texts, and falls back for
// raw driver errors so their details stay in the logs.
func messageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Public()
	}
	for _, known := range []error{ErrInvalidCredentials, ErrPermissionDenied, ErrTokenRevoked, ErrStaleVersion} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return fallback
}
