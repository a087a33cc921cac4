package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, T(c, "error.internal_error"), err.Error())
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// HandleServiceError 将服务层错误映射为 HTTP 响应
// 并发冲突映射为 409,调用方重取数据后重试
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		Error(c, http.StatusNotFound, T(c, "error.not_found"), err.Error())
	case errors.Is(err, repository.ErrConcurrencyConflict):
		Error(c, http.StatusConflict, T(c, "error.conflict"), err.Error())
	case errors.Is(err, service.ErrInvalidState):
		Error(c, http.StatusConflict, T(c, "error.invalid_state"), err.Error())
	case errors.Is(err, service.ErrJustificationRequired),
		errors.Is(err, service.ErrSelfApproval),
		errors.Is(err, service.ErrUnknownSubstance),
		errors.Is(err, service.ErrMappingOutlivesLicence):
		Error(c, http.StatusBadRequest, T(c, "error.bad_request"), err.Error())
	default:
		Error(c, http.StatusInternalServerError, T(c, "error.internal_error"), err.Error())
	}
}
