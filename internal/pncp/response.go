package pncp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

var (
	recordKeys     = []string{"data", "items", "results"}
	metaKeys       = []string{"meta", "paginacao", "pagination"}
	totalPagesKeys = []string{"totalPaginas", "totalPages", "total_pages", "totalPaginasConsulta"}
	remainingKeys  = []string{"paginasRestantes", "remainingPages"}
)

type page struct {
	records []models.Record
	meta    map[string]interface{}
}

// decodePage extracts records and pagination metadata from a response body.
// An empty body is an empty page.
func decodePage(body []byte) (*page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &page{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}

	switch v := root.(type) {
	case []interface{}:
		return &page{records: toRecords(v)}, nil
	case map[string]interface{}:
		p := &page{meta: v}
		for _, k := range recordKeys {
			if arr, ok := v[k].([]interface{}); ok {
				p.records = toRecords(arr)
				break
			}
		}
		for _, k := range metaKeys {
			if m, ok := v[k].(map[string]interface{}); ok {
				p.meta = m
				break
			}
		}
		return p, nil
	}
	return &page{}, nil
}

func toRecords(arr []interface{}) []models.Record {
	out := make([]models.Record, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, models.Record(m))
		}
	}
	return out
}

// totalPages returns the advertised page count, or 0 when unknown.
func (p *page) totalPages() int {
	for _, k := range totalPagesKeys {
		if n, ok := metaInt(p.meta, k); ok && n > 0 {
			return n
		}
	}
	return 0
}

// remainingPages returns the pages-remaining counter and whether it was present.
func (p *page) remainingPages() (int, bool) {
	for _, k := range remainingKeys {
		if n, ok := metaInt(p.meta, k); ok {
			return n, true
		}
	}
	return 0, false
}

func metaInt(meta map[string]interface{}, key string) (int, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return 0, false
	}
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
