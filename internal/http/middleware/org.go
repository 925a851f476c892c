package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/org"
)

const ginOrgContextKey = "orgContext"

// RequireFeature resolves the caller's organization and blocks the request
// unless its subscription unlocks feature. It must run after ValidateJWT.
func RequireFeature(resolver *org.Resolver, feature domain.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}

		orgCtx, err := resolver.Resolve(c.Request.Context(), claims.OrganizationID)
		if err != nil {
			if errors.Is(err, org.ErrOrganizationNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Organization not found"})
				return
			}
			zap.L().Error("resolve organization failed", zap.Int64("org_id", claims.OrganizationID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		c.Set(ginOrgContextKey, orgCtx)

		if !orgCtx.Allows(feature) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "This feature requires an active PRO subscription"})
			return
		}
		c.Next()
	}
}

// GetOrgContext returns the organization resolved for this request, if any.
func GetOrgContext(c *gin.Context) (*org.Context, bool) {
	value, ok := c.Get(ginOrgContextKey)
	if !ok {
		return nil, false
	}
	orgCtx, ok := value.(*org.Context)
	return orgCtx, ok
}
