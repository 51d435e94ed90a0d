package links

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

func TestBuild_NoticeFromParts(t *testing.T) {
	rec := models.Record{
		"cnpj":             "12345678000199",
		"anoCompra":        "2026",
		"sequencialCompra": "000004",
	}
	assert.Equal(t, "https://pncp.gov.br/app/editais/12345678000199/2026/4", Build(rec, models.DocumentNotice))
}

func TestBuild_NoticeFromNestedOrgAndNumbers(t *testing.T) {
	rec := models.Record{
		"orgaoEntidade":    map[string]interface{}{"cnpj": "12.345.678/0001-99"},
		"anoCompra":        json.Number("2026"),
		"sequencialCompra": json.Number("17"),
	}
	assert.Equal(t, "https://pncp.gov.br/app/editais/12345678000199/2026/17", Build(rec, ""))
}

func TestBuild_NumericTaxIDRestoresLeadingZero(t *testing.T) {
	rec := models.Record{
		"cnpj":         json.Number("1234567000199"),
		"anoCompra":    "2025",
		"numeroCompra": "0010",
	}
	assert.Equal(t, "https://pncp.gov.br/app/editais/01234567000199/2025/10", Build(rec, models.DocumentNotice))
}

func TestBuild_ControlNumberWins(t *testing.T) {
	rec := models.Record{
		"numeroControlePNCP": "11222333000181-1-000123/2025",
		"cnpj":               "12345678000199",
		"anoCompra":          "2026",
		"sequencialCompra":   "4",
	}
	assert.Equal(t, "https://pncp.gov.br/app/editais/11222333000181/2025/123", Build(rec, models.DocumentNotice))
}

func TestBuild_ControlNumberKinds(t *testing.T) {
	contract := models.Record{"numeroControlePNCP": "11222333000181-2-000045/2024"}
	assert.Equal(t, "https://pncp.gov.br/app/contratos/11222333000181/2024/45", Build(contract, models.DocumentContract))

	minutes := models.Record{"numeroControlePNCPAta": "11222333000181-1-000045/2024-000002"}
	assert.Equal(t, "https://pncp.gov.br/app/atas/11222333000181/2024/45/2", Build(minutes, models.DocumentMinutes))
}

func TestBuild_MinutesAndContractParts(t *testing.T) {
	minutes := models.Record{
		"cnpj":             "11222333000181",
		"anoCompra":        "2024",
		"sequencialCompra": "000045",
		"sequencialAta":    "0003",
	}
	assert.Equal(t, "https://pncp.gov.br/app/atas/11222333000181/2024/45/3", Build(minutes, models.DocumentMinutes))

	contract := models.Record{
		"orgaoEntidade":      map[string]interface{}{"cnpj": "11222333000181"},
		"anoContrato":        "2024",
		"sequencialContrato": "9",
	}
	assert.Equal(t, "https://pncp.gov.br/app/contratos/11222333000181/2024/9", Build(contract, models.DocumentContract))
}

func TestBuild_FallsBackToOriginLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"protocol relative", "//compras.example.gov.br/edital/1", "https://compras.example.gov.br/edital/1"},
		{"root relative", "/app/editais/x", "https://pncp.gov.br/app/editais/x"},
		{"schemeless", "www.prefeitura.sp.gov.br/licitacao", "https://www.prefeitura.sp.gov.br/licitacao"},
		{"absolute", "http://portal.example.com/a?b=1", "http://portal.example.com/a?b=1"},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := models.Record{
				"cnpj":              "123",
				"anoCompra":         "2026",
				"sequencialCompra":  "4",
				"linkSistemaOrigem": tt.link,
			}
			assert.Equal(t, tt.want, Build(rec, models.DocumentNotice))
		})
	}
}

func TestBuild_Unavailable(t *testing.T) {
	assert.Equal(t, "", Build(nil, models.DocumentNotice))
	assert.Equal(t, "", Build(models.Record{}, models.DocumentNotice))
	assert.Equal(t, "", Build(models.Record{"cnpj": "12345678000199", "anoCompra": "26", "sequencialCompra": "4"}, models.DocumentNotice))
}

func TestNormalizeSequential(t *testing.T) {
	assert.Equal(t, "4", NormalizeSequential("000004"))
	assert.Equal(t, "0", NormalizeSequential("0000"))
	assert.Equal(t, "A12", NormalizeSequential("00A12"))
	assert.Equal(t, "", NormalizeSequential(""))
}
