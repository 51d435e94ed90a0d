// Package regions holds the Brazilian macro-regions and their federative units.
package regions

import (
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/textnorm"
)

var all = []models.Region{
	{Name: "Centro-Oeste", States: []models.State{
		{Name: "Goiás", Sigla: "GO"},
		{Name: "Mato Grosso", Sigla: "MT"},
		{Name: "Mato Grosso do Sul", Sigla: "MS"},
		{Name: "Distrito Federal", Sigla: "DF"},
	}},
	{Name: "Sul", States: []models.State{
		{Name: "Paraná", Sigla: "PR"},
		{Name: "Santa Catarina", Sigla: "SC"},
		{Name: "Rio Grande do Sul", Sigla: "RS"},
	}},
	{Name: "Sudeste", States: []models.State{
		{Name: "São Paulo", Sigla: "SP"},
		{Name: "Minas Gerais", Sigla: "MG"},
		{Name: "Rio de Janeiro", Sigla: "RJ"},
		{Name: "Espírito Santo", Sigla: "ES"},
	}},
	{Name: "Nordeste", States: []models.State{
		{Name: "Bahia", Sigla: "BA"},
		{Name: "Pernambuco", Sigla: "PE"},
		{Name: "Ceará", Sigla: "CE"},
		{Name: "Maranhão", Sigla: "MA"},
		{Name: "Paraíba", Sigla: "PB"},
		{Name: "Rio Grande do Norte", Sigla: "RN"},
		{Name: "Alagoas", Sigla: "AL"},
		{Name: "Piauí", Sigla: "PI"},
		{Name: "Sergipe", Sigla: "SE"},
	}},
	{Name: "Norte", States: []models.State{
		{Name: "Amazonas", Sigla: "AM"},
		{Name: "Pará", Sigla: "PA"},
		{Name: "Acre", Sigla: "AC"},
		{Name: "Roraima", Sigla: "RR"},
		{Name: "Rondônia", Sigla: "RO"},
		{Name: "Amapá", Sigla: "AP"},
		{Name: "Tocantins", Sigla: "TO"},
	}},
}

// All returns every region in display order.
func All() []models.Region {
	out := make([]models.Region, len(all))
	for i, r := range all {
		out[i] = models.Region{Name: r.Name, States: append([]models.State(nil), r.States...)}
	}
	return out
}

// Find looks a region up by name, ignoring case and accents.
func Find(name string) (models.Region, bool) {
	key := textnorm.Normalize(strings.TrimSpace(name))
	for _, r := range All() {
		if textnorm.Normalize(r.Name) == key {
			return r, true
		}
	}
	return models.Region{}, false
}

// FindState looks a state up by sigla or name.
func FindState(query string) (models.State, string, bool) {
	key := textnorm.Normalize(strings.TrimSpace(query))
	if key == "" {
		return models.State{}, "", false
	}
	for _, r := range all {
		for _, s := range r.States {
			if strings.ToLower(s.Sigla) == key || textnorm.Normalize(s.Name) == key {
				return s, r.Name, true
			}
		}
	}
	return models.State{}, "", false
}

// IsUF reports whether code is a known federative unit sigla.
func IsUF(code string) bool {
	s, _, ok := FindState(code)
	return ok && strings.EqualFold(s.Sigla, strings.TrimSpace(code))
}
