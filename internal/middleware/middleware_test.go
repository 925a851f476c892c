package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/middleware"
)

func okEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.Any("/ping", handlers...)
	return engine
}

func request(engine *gin.Engine, method string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterThrottlesPerKey(t *testing.T) {
	limiter := middleware.NewRateLimiter(10, func(c *gin.Context) string {
		return c.GetHeader("X-Client")
	})
	engine := okEngine(limiter.Handler())

	require.Equal(t, http.StatusOK, request(engine, http.MethodGet, map[string]string{"X-Client": "a"}).Code)

	rec := request(engine, http.MethodGet, map[string]string{"X-Client": "a"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "7", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "Too many requests")

	require.Equal(t, http.StatusOK, request(engine, http.MethodGet, map[string]string{"X-Client": "b"}).Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := middleware.NewRateLimiter(0, nil)
	require.Nil(t, limiter)

	engine := okEngine(limiter.Handler())
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, request(engine, http.MethodGet, nil).Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := config.Config{
		FrontendURL:        "https://app.hypertroq.test",
		CORSAllowedOrigins: []string{"https://admin.hypertroq.test/"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Authorization"},
	}
	engine := okEngine(middleware.CORS(cfg))

	rec := request(engine, http.MethodGet, map[string]string{"Origin": "https://app.hypertroq.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://app.hypertroq.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))

	rec = request(engine, http.MethodGet, map[string]string{"Origin": "https://admin.hypertroq.test"})
	require.Equal(t, "https://admin.hypertroq.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = request(engine, http.MethodGet, map[string]string{"Origin": "https://evil.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = request(engine, http.MethodOptions, map[string]string{"Origin": "https://app.hypertroq.test"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSWildcard(t *testing.T) {
	engine := okEngine(middleware.CORS(config.Config{CORSAllowedOrigins: []string{"*"}}))

	rec := request(engine, http.MethodGet, map[string]string{"Origin": "https://anywhere.test"})
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
