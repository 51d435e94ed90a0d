package pncp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage_ContainerKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"data", `{"data":[{"a":1},{"a":2}]}`, 2},
		{"items", `{"items":[{"a":1}]}`, 1},
		{"results", `{"results":[{"a":1},{"a":2},{"a":3}]}`, 3},
		{"first match wins", `{"data":[{"a":1}],"items":[{"a":1},{"a":2}]}`, 1},
		{"top-level array", `[{"a":1},{"a":2}]`, 2},
		{"no container", `{"message":"ok"}`, 0},
		{"data not an array", `{"data":{"a":1},"items":[{"a":1}]}`, 1},
		{"non-object elements skipped", `{"data":[1,"x",{"a":1}]}`, 1},
		{"empty", "  \n", 0},
		{"scalar", `42`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decodePage([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, p.records, tt.want)
		})
	}
}

func TestDecodePage_KeepsLargeNumbersExact(t *testing.T) {
	p, err := decodePage([]byte(`{"data":[{"cnpj":12345678000199}]}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678000199"), p.records[0]["cnpj"])
}

func TestPage_Meta(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		total     int
		remaining int
		hasRemain bool
	}{
		{"meta object", `{"data":[],"meta":{"totalPaginas":7}}`, 7, 0, false},
		{"paginacao", `{"data":[],"paginacao":{"totalPages":"4"}}`, 4, 0, false},
		{"pagination snake", `{"data":[],"pagination":{"total_pages":2}}`, 2, 0, false},
		{"root level", `{"data":[],"totalPaginas":5,"paginasRestantes":3}`, 5, 3, true},
		{"consulta key", `{"data":[],"totalPaginasConsulta":9}`, 9, 0, false},
		{"zero total is unknown", `{"data":[],"totalPaginas":0,"paginasRestantes":0}`, 0, 0, true},
		{"garbage total", `{"data":[],"totalPaginas":"muitas"}`, 0, 0, false},
		{"array root", `[]`, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decodePage([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.total, p.totalPages())
			remaining, ok := p.remainingPages()
			assert.Equal(t, tt.hasRemain, ok)
			assert.Equal(t, tt.remaining, remaining)
		})
	}
}

func TestDecodePage_Malformed(t *testing.T) {
	_, err := decodePage([]byte(`{"data":[`))
	assert.Error(t, err)
}

func TestReducePageSize(t *testing.T) {
	q, ok := reducePageSize(map[string][]string{"tamanhoPagina": {"500"}})
	require.True(t, ok)
	assert.Equal(t, "100", q.Get("tamanhoPagina"))

	q, ok = reducePageSize(map[string][]string{"tamanhoPagina": {"100"}})
	require.True(t, ok)
	assert.Equal(t, "50", q.Get("tamanhoPagina"))

	_, ok = reducePageSize(map[string][]string{"tamanhoPagina": {"1"}})
	assert.False(t, ok)

	_, ok = reducePageSize(map[string][]string{"tamanhoPagina": {"abc"}})
	assert.False(t, ok)
}

func TestHTTPError_BodySnippetCountsRunes(t *testing.T) {
	body := make([]rune, 300)
	for i := range body {
		body[i] = 'ç'
	}
	assert.Len(t, []rune(snippet([]byte(string(body)))), 220)
}
