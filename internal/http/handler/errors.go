package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindRegistration:
		return http.StatusBadRequest
	case service.KindAuthentication, service.KindToken:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a service failure as {"detail": message}.
// Causes of internal errors are logged and never returned.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{Kind: service.KindInternal, Message: "Internal server error", Err: err}
	}

	status := statusFor(svcErr.Kind)
	message := svcErr.Message
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "Internal server error"
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}
