// Package scoring classifies procurement object descriptions as medical hiring
// opportunities, as opposed to purchases of medical supplies.
package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bonus adds Points when any of Terms occurs in the normalized text.
// When Each is set every matching term adds Points.
type Bonus struct {
	Terms  []string `yaml:"terms"`
	Points int      `yaml:"points"`
	Each   bool     `yaml:"each,omitempty"`
}

// Penalty subtracts Points when Term occurs and none of Unless does.
type Penalty struct {
	Term   string   `yaml:"term"`
	Unless []string `yaml:"unless,omitempty"`
	Points int      `yaml:"points"`
}

// Weights holds the base signal weights and the acceptance threshold.
type Weights struct {
	Doctor    int `yaml:"doctor"`
	Hiring    int `yaml:"hiring"`
	Exclusion int `yaml:"exclusion"`
	Threshold int `yaml:"threshold"`
}

// Vocabulary is the tunable data behind the scorer. All terms are expected
// in normalized form (lowercase, no accents).
type Vocabulary struct {
	DoctorTerms    []string  `yaml:"doctor_terms"`
	HiringTerms    []string  `yaml:"hiring_terms"`
	ExclusionTerms []string  `yaml:"exclusion_terms"`
	Bonuses        []Bonus   `yaml:"bonuses"`
	Penalties      []Penalty `yaml:"penalties"`
	Weights        Weights   `yaml:"weights"`
}

// Specialties are the named medical specialties rewarded one point each.
var Specialties = []string{
	"pediatra", "psiquiatra", "anestesiologista", "ginecologista", "obstetra",
	"ortopedista", "cardiologista", "urologista", "dermatologista", "infectologista",
	"intensivista", "urgencista", "emergencista",
}

// DefaultVocabulary returns the built-in term lists and weights.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DoctorTerms: []string{
			"medico", "medica", "medicos", "medicas",
			"plantonista", "clinico geral", "clinico", "generalista",
			"pediatra", "psiquiatra", "anestesiologista", "ginecologista", "obstetra",
			"ortopedista", "cardiologista", "urologista", "dermatologista", "infectologista",
			"intensivista", "urgencista", "emergencista",
			"medicina do trabalho", "saude da familia", "psf", "esf",
		},
		HiringTerms: []string{
			"contratacao", "contratar", "contratacao de", "contratacao temporaria",
			"prestacao de servico", "prestacao de servicos", "servico medico", "servicos medicos",
			"mao de obra", "fornecimento de mao de obra", "terceirizacao", "cooperativa medica",
			"credenciamento", "chamamento publico",
			"processo seletivo", "selecao", "selecionamento",
			"vaga", "vagas", "plantao", "plantoes", "escala de plantao", "carga horaria",
		},
		ExclusionTerms: []string{
			"medicamento", "medicamentos", "remedio", "farmacia", "farmaceutico",
			"material medico", "materiais medicos", "material hospitalar", "insumo", "insumos",
			"equipamento", "equipamentos", "aparelho", "aparelhos", "pecas", "suprimentos",
			"kit", "luva", "seringa", "agulha", "cateter", "curativo", "gaze", "soro", "ampola",
			"epi", "mascara", "respirador", "oxigenio",
			"reagente", "laboratorio", "exame", "exames", "tomografia", "ultrassom", "raio x", "radiologia",
		},
		Bonuses: []Bonus{
			{Terms: []string{"prestacao de servicos", "prestacao de servico"}, Points: 2},
			{Terms: []string{"servicos medicos", "servico medico"}, Points: 2},
			{Terms: []string{"credenciamento"}, Points: 2},
			{Terms: []string{"chamamento publico"}, Points: 2},
			{Terms: []string{"plantao", "plantoes", "plantonista"}, Points: 2},
			{Terms: []string{"vaga", "vagas"}, Points: 1},
			{Terms: append([]string(nil), Specialties...), Points: 1, Each: true},
		},
		Penalties: []Penalty{
			{Term: "aquisicao", Unless: []string{"servic"}, Points: 4},
			{Term: "fornecimento", Unless: []string{"mao de obra", "servic"}, Points: 2},
		},
		Weights: Weights{
			Doctor:    3,
			Hiring:    3,
			Exclusion: 6,
			Threshold: 3,
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Sections absent from the file
// and zero weights keep their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary YAML: %w", err)
	}

	return override.mergeWithDefaults(DefaultVocabulary()), nil
}

func (v Vocabulary) mergeWithDefaults(defaults Vocabulary) Vocabulary {
	result := v

	if len(result.DoctorTerms) == 0 {
		result.DoctorTerms = defaults.DoctorTerms
	}
	if len(result.HiringTerms) == 0 {
		result.HiringTerms = defaults.HiringTerms
	}
	if len(result.ExclusionTerms) == 0 {
		result.ExclusionTerms = defaults.ExclusionTerms
	}
	if len(result.Bonuses) == 0 {
		result.Bonuses = defaults.Bonuses
	}
	if len(result.Penalties) == 0 {
		result.Penalties = defaults.Penalties
	}
	if result.Weights.Doctor == 0 {
		result.Weights.Doctor = defaults.Weights.Doctor
	}
	if result.Weights.Hiring == 0 {
		result.Weights.Hiring = defaults.Weights.Hiring
	}
	if result.Weights.Exclusion == 0 {
		result.Weights.Exclusion = defaults.Weights.Exclusion
	}
	if result.Weights.Threshold == 0 {
		result.Weights.Threshold = defaults.Weights.Threshold
	}

	return result
}
