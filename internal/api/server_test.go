package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/config"
	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePNCP answers every page request with the same single notice
func fakePNCP(t *testing.T, hits *atomic.Int64) *httptest.Server {
	published := time.Now().AddDate(0, 0, -2).Format("2006-01-02T15:04:05")
	body, err := json.Marshal(map[string]interface{}{
		"data": []map[string]interface{}{{
			"orgaoEntidade":      map[string]interface{}{"cnpj": "12345678000199"},
			"anoCompra":          2026,
			"sequencialCompra":   4,
			"unidadeOrgao":       map[string]interface{}{"ufSigla": "SP", "municipioNome": "Campinas"},
			"objetoCompra":       "Credenciamento de médicos plantonistas para UPA",
			"dataPublicacaoPncp": published,
			"situacaoCompraNome": "Divulgada no PNCP",
		}},
		"totalPaginas":     1,
		"paginasRestantes": 0,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, upstream string) *Server {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("SNAPSHOT_PATH", filepath.Join(t.TempDir(), "cache.json"))
	t.Setenv("SNAPSHOT_USE_FOR_QUERIES", "false")
	t.Setenv("PNCP_BASE_URL", upstream)
	t.Setenv("PNCP_MODALITIES", "6,8")
	t.Setenv("PNCP_PAGE_DELAY", "0ms")
	t.Setenv("PNCP_MODALITY_DELAY", "0ms")
	t.Setenv("PNCP_REQUESTS_PER_SECOND", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	log, _ := logtest.NewNullLogger()
	container, err := services.NewContainer(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return NewServer(cfg, log, container)
}

func request(s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestServer_HealthAndMetrics(t *testing.T) {
	var hits atomic.Int64
	s := newTestServer(t, fakePNCP(t, &hits).URL)

	w := request(s, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = request(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics models.MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, "memory", metrics.Cache.Backend)
	assert.False(t, metrics.Snapshot.Available)
}

func TestServer_Opportunities(t *testing.T) {
	var hits atomic.Int64
	s := newTestServer(t, fakePNCP(t, &hits).URL)

	header := http.Header{"X-Session-Id": {"painel-1"}}
	w := request(s, http.MethodGet, "/api/v1/opportunities?uf=sp&days=30", "", header)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "painel-1", w.Header().Get("X-Session-ID"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var resp models.OpportunitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, "SP", resp.Result.UF)
	require.NotEmpty(t, resp.Result.Cities)
	assert.Equal(t, "Campinas", resp.Result.Cities[0].Municipality)
	assert.Equal(t, int64(2), hits.Load())

	w = request(s, http.MethodGet, "/api/v1/opportunities?uf=SP&days=30", "", header)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, int64(2), hits.Load())

	w = request(s, http.MethodGet, "/api/v1/opportunities?uf=XYZ", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Routes(t *testing.T) {
	var hits atomic.Int64
	s := newTestServer(t, fakePNCP(t, &hits).URL)

	w := request(s, http.MethodGet, "/api/v1/regions/sudeste/states", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SP"`)

	w = request(s, http.MethodPost, "/api/v1/score", `{"text":"Contratação de médico plantonista"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var score models.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &score))
	assert.True(t, score.Accepted)

	assert.Equal(t, http.StatusNotFound, request(s, http.MethodGet, "/api/v1/nothing", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, request(s, http.MethodPut, "/api/v1/score", "", nil).Code)
}

func TestServer_Maintenance(t *testing.T) {
	var hits atomic.Int64
	s := newTestServer(t, fakePNCP(t, &hits).URL)

	assert.Equal(t, http.StatusOK, request(s, http.MethodGet, "/api/v1/cache/stats", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(s, http.MethodDelete, "/api/v1/cache/clear", "", nil).Code)

	w := request(s, http.MethodGet, "/api/v1/snapshot", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.SnapshotInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.False(t, info.Available)
}
