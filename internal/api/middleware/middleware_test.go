package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, http.MethodGet, "/", nil)
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = serve(r, http.MethodGet, "/", http.Header{"X-Request-Id": {"abc"}})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRecoveryAndLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic?x=1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Panic recovered", entries[0].Message)
	assert.Equal(t, 500, entries[1].Data["status"])
	assert.Equal(t, "/panic?x=1", entries[1].Data["path"])
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://painel.example"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"X-Session-ID"},
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/", http.Header{"Origin": {"https://painel.example"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://painel.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/", http.Header{"Origin": {"https://other.example"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 1, BurstSize: 2, CleanupInterval: time.Minute})
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api", nil).Code)

	w := serve(r, http.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health/live", nil).Code)
	}

	assert.Equal(t, 1, rl.GetStats()["active_clients"])
	assert.Zero(t, rl.Cleanup(time.Now()))
	assert.Equal(t, 1, rl.Cleanup(time.Now().Add(3*time.Minute)))
}
