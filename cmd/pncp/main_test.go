package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

// execute runs the root command in process and returns its stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), err
}

func fakeUpstream(t *testing.T) *httptest.Server {
	body, err := json.Marshal(map[string]interface{}{
		"data": []map[string]interface{}{{
			"cnpj": "12345678000199", "anoCompra": 2026, "sequencialCompra": 4,
			"uf": "SP", "municipioNome": "Campinas",
			"objetoCompra":       "Contratação de médico plantonista",
			"dataPublicacaoPncp": time.Now().AddDate(0, 0, -2).Format("2006-01-02T15:04:05"),
			"situacaoCompraNome": "Divulgada no PNCP",
		}},
		"totalPaginas": 1,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("PNCP_BASE_URL", srv.URL)
	t.Setenv("PNCP_MODALITIES", "6,8")
	t.Setenv("PNCP_PAGE_DELAY", "0ms")
	t.Setenv("PNCP_MODALITY_DELAY", "0ms")
	t.Setenv("SNAPSHOT_MODALITY_DELAY", "0ms")
	t.Setenv("PNCP_REQUESTS_PER_SECOND", "0")
	t.Setenv("LOG_LEVEL", "error")
	return srv
}

func TestScoreCommand(t *testing.T) {
	out, err := execute(t, "", "score", "Credenciamento", "de", "médicos", "plantonistas")
	require.NoError(t, err)

	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "credenciamento de medicos plantonistas", resp.Normalized)

	out, err = execute(t, "Aquisição de medicamentos\n\nContratação de médico\n", "score")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"accepted":false`)
}

func TestBuildCacheCommand(t *testing.T) {
	fakeUpstream(t)
	path := filepath.Join(t.TempDir(), "cache.json")

	out, err := execute(t, "", "build-cache", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 items written to "+path)

	snap, err := services.ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Campinas", snap.Items[0]["municipioNome"])
	assert.Equal(t, []string{"6", "8"}, snap.Modalities)
}

func TestQueryCommand(t *testing.T) {
	fakeUpstream(t)

	out, err := execute(t, "", "query", "--uf", "sp", "--days", "30")
	require.NoError(t, err)

	var res models.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "SP", res.UF)
	require.NotEmpty(t, res.Cities)
	assert.Equal(t, "Campinas", res.Cities[0].Municipality)

	_, err = execute(t, "", "query", "--uf", "XX", "--days", "30")
	assert.Error(t, err)
}
