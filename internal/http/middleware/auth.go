package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
)

const claimsKey = "accessClaims"

// InternalKeyHeader carries the shared secret of service-to-service calls.
const InternalKeyHeader = "X-Internal-Key"

// Auth validates the Authorization header and attaches claims.
type Auth struct {
	Tokens *jwt.Generator
}

// NewAuth creates the bearer token middleware.
func NewAuth(tokens *jwt.Generator) *Auth {
	return &Auth{Tokens: tokens}
}

// ValidateJWT ensures the request has a valid access token.
func (m *Auth) ValidateJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		unauthorized(c, "Not authenticated")
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		unauthorized(c, "Not authenticated")
		return
	}

	claims, err := m.Tokens.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			unauthorized(c, "Token has expired")
			return
		}
		unauthorized(c, "Could not validate credentials")
		return
	}
	if claims.Kind != jwt.KindAccess {
		unauthorized(c, "Invalid token type")
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}

// GetClaims exposes the validated access token claims to handlers.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}

// RequireRole rejects callers whose token does not carry role.
// It must run after ValidateJWT.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// InternalKey guards routes called by other backend services.
// An empty key disables the routes entirely.
func InternalKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}
		presented := c.GetHeader(InternalKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid internal API key"})
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
