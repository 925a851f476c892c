package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/org"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

var subject = jwt.Subject{UserID: 11, OrganizationID: 22, Role: domain.RoleUser}

func newGenerator(t *testing.T) *jwt.Generator {
	t.Helper()
	gen, err := jwt.NewGenerator([]byte("0123456789abcdef0123456789abcdef"), "hypertroq-test", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return gen
}

func serve(engine *gin.Engine, authorization string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func protectedEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		claims, ok := middleware.GetClaims(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func TestValidateJWT(t *testing.T) {
	gen := newGenerator(t)
	engine := protectedEngine(middleware.NewAuth(gen).ValidateJWT)

	access, err := gen.Issue(jwt.KindAccess, subject)
	require.NoError(t, err)
	refresh, err := gen.Issue(jwt.KindRefresh, subject)
	require.NoError(t, err)
	expired, err := gen.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).Issue(jwt.KindAccess, subject)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{name: "valid", header: "Bearer " + access, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + access, status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized, detail: "Not authenticated"},
		{name: "wrong scheme", header: "Basic " + access, status: http.StatusUnauthorized, detail: "Not authenticated"},
		{name: "garbage", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, detail: "Could not validate credentials"},
		{name: "refresh token", header: "Bearer " + refresh, status: http.StatusUnauthorized, detail: "Invalid token type"},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized, detail: "Token has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(engine, tt.header)
			require.Equal(t, tt.status, rec.Code)
			if tt.detail != "" {
				require.Contains(t, rec.Body.String(), tt.detail)
				require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	gen := newGenerator(t)
	auth := middleware.NewAuth(gen)
	engine := protectedEngine(auth.ValidateJWT, middleware.RequireRole(domain.RoleAdmin))

	user, err := gen.Issue(jwt.KindAccess, subject)
	require.NoError(t, err)
	admin, err := gen.Issue(jwt.KindAccess, jwt.Subject{UserID: 1, OrganizationID: 22, Role: domain.RoleAdmin})
	require.NoError(t, err)

	rec := serve(engine, "Bearer "+user)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Insufficient permissions")

	rec = serve(engine, "Bearer "+admin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	disabled := gin.New()
	disabled.GET("/protected", middleware.InternalKey(""), ok)
	require.Equal(t, http.StatusNotFound, serve(disabled, "", middleware.InternalKeyHeader, "anything").Code)

	guarded := gin.New()
	guarded.GET("/protected", middleware.InternalKey("s3cret"), ok)
	require.Equal(t, http.StatusUnauthorized, serve(guarded, "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(guarded, "", middleware.InternalKeyHeader, "s3cre").Code)
	require.Equal(t, http.StatusOK, serve(guarded, "", middleware.InternalKeyHeader, "s3cret").Code)
}

func TestRequireFeature(t *testing.T) {
	gen := newGenerator(t)
	store := repository.NewMemoryStore()
	ctx := context.Background()

	orgRow := domain.NewOrganization(subject.OrganizationID, "Iron Gym", time.Now())
	require.NoError(t, store.Accounts().CreateAccount(ctx, orgRow, domain.User{
		ID: subject.UserID, OrganizationID: orgRow.ID, Email: "coach@example.com", Role: domain.RoleAdmin, IsActive: true,
	}))

	engine := protectedEngine(
		middleware.NewAuth(gen).ValidateJWT,
		middleware.RequireFeature(org.NewResolver(store.Organizations()), domain.FeatureCustomExercises),
	)
	token, err := gen.Issue(jwt.KindAccess, subject)
	require.NoError(t, err)

	rec := serve(engine, "Bearer "+token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "This feature requires an active PRO subscription")

	orgRow.UpgradeToPro("cus_1", "sub_1")
	require.NoError(t, store.Organizations().Update(ctx, orgRow))
	require.Equal(t, http.StatusOK, serve(engine, "Bearer "+token).Code)

	stranger, err := gen.Issue(jwt.KindAccess, jwt.Subject{UserID: 99, OrganizationID: 404, Role: domain.RoleUser})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, serve(engine, "Bearer "+stranger).Code)
}
