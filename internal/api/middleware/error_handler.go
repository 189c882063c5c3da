// Package middleware provides HTTP middleware for fieldops.
//
// Import Path: fieldops.io/fieldops/internal/api/middleware
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "fieldops.io/fieldops/internal/pkg/errors"
)

// ErrorBody is the failure form of the response envelope. Err is the
// human-readable message; Code is the stable machine-readable code.
type ErrorBody struct {
	Err         string                 `json:"err"`
	Code        string                 `json:"code,omitempty"`
	FieldErrors []apperrors.FieldError `json:"field_errors,omitempty"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

// ErrorHandler is a Gin middleware that provides centralized error handling.
// It captures errors added via c.Error() and returns a consistent JSON response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := RequestLogger(c.Request.Context())

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			fields := []zap.Field{
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
			}
			if appErr.Kind == apperrors.KindInternal {
				log.Error("Request error", append(fields, zap.Error(appErr.Err))...)
			} else {
				log.Warn("Request error", fields...)
			}
			c.JSON(appErr.HTTPStatus, ErrorBody{
				Err:         appErr.Message,
				Code:        appErr.Code,
				FieldErrors: appErr.FieldErrors,
				Params:      appErr.Params,
			})
			return
		}

		// Fallback: generic 500 error
		log.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorBody{
			Err:  "an internal error occurred",
			Code: apperrors.CodeInternal,
		})
	}
}
