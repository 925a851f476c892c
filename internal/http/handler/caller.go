package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

// caller returns the authenticated actor or writes a 401.
func caller(c *gin.Context) (service.Actor, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, OrganizationID: claims.OrganizationID}, true
}
