// Package fields reads logical fields from PNCP records whose key names
// differ between the notices, minutes and contracts endpoints.
package fields

import (
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/textnorm"
)

// Field is a canonical field name.
type Field string

const (
	UF            Field = "uf"
	Municipality  Field = "municipality"
	Status        Field = "status"
	Object        Field = "object"
	Organization  Field = "organization"
	TaxID         Field = "taxID"
	Year          Field = "year"
	Number        Field = "number"
	Sequential    Field = "sequential"
	PublishedAt   Field = "publishedAt"
	OpeningAt     Field = "openingAt"
	ClosingAt     Field = "closingAt"
	Link          Field = "link"
	ControlNumber Field = "controlNumber"
	MinutesSeq    Field = "minutesSequential"
	ContractYear  Field = "contractYear"
	ContractSeq   Field = "contractSequential"
	Modality      Field = "modality"
)

// Nested looks up Keys inside one of Containers when no top-level key matched.
type Nested struct {
	Containers []string
	Keys       []string
}

// Spec lists the aliases of a field in priority order.
type Spec struct {
	Keys   []string
	Nested *Nested
}

var (
	orgContainers = []string{"orgaoEntidade", "orgao"}

	// the unit is more precise than the organization entity
	placeContainers = []string{"unidadeOrgao", "unidade", "orgaoEntidade", "orgao"}
)

// Aliases maps every canonical field to its source-specific keys.
var Aliases = map[Field]Spec{
	UF: {
		Keys:   []string{"uf", "siglaUf", "ufSigla"},
		Nested: &Nested{Containers: placeContainers, Keys: []string{"ufSigla", "uf", "siglaUf"}},
	},
	Municipality: {
		Keys:   []string{"municipioNome", "municipio", "nomeMunicipio"},
		Nested: &Nested{Containers: placeContainers, Keys: []string{"municipioNome", "municipio", "nomeMunicipio"}},
	},
	Status: {
		Keys: []string{
			"situacaoCompraNome", "situacaoCompra", "situacao", "status", "statusCompra",
			"faseCompra", "situacaoEdital", "situacaoContratacao", "descricaoSituacao",
		},
	},
	Object: {
		Keys: []string{"objetoCompra", "objeto", "descricaoObjeto", "objetoContratacao", "objetoAta", "objetoContrato"},
	},
	Organization: {
		Keys:   []string{"orgaoEntidadeRazaoSocial", "orgaoNome", "nomeRazaoSocial", "nomeOrgao"},
		Nested: &Nested{Containers: orgContainers, Keys: []string{"razaoSocial", "nome"}},
	},
	TaxID: {
		Keys:   []string{"cnpj", "numeroInscricaoCnpj", "cnpjOrgao", "orgaoEntidadeCnpj"},
		Nested: &Nested{Containers: orgContainers, Keys: []string{"cnpj"}},
	},
	Year:          {Keys: []string{"anoCompra", "ano"}},
	Number:        {Keys: []string{"numeroCompra", "numero"}},
	Sequential:    {Keys: []string{"sequencialCompra"}},
	PublishedAt:   {Keys: []string{"dataPublicacaoPncp", "dataPublicacao", "dataAssinatura", "dataInclusao"}},
	OpeningAt:     {Keys: []string{"dataAberturaProposta", "dataInicioRecebimentoProposta", "dataInicioRecebimento"}},
	ClosingAt:     {Keys: []string{"dataEncerramentoProposta", "dataFimRecebimentoProposta", "dataFimRecebimento"}},
	Link:          {Keys: []string{"linkSistemaOrigem", "link", "url"}},
	ControlNumber: {Keys: []string{"numeroControlePNCP", "numeroControlePNCPAta", "numeroControlePNCPCompra", "numeroControlePncpCompra"}},
	MinutesSeq:    {Keys: []string{"sequencialAta", "numeroAtaRegistroPreco"}},
	ContractYear:  {Keys: []string{"anoContrato", "ano"}},
	ContractSeq:   {Keys: []string{"sequencialContrato", "numeroContratoEmpenho"}},
	Modality:      {Keys: []string{"modalidadeId", "codigoModalidadeContratacao", "modalidadeNome"}},
}

// Resolve returns the first value among keys whose trimmed string form is
// non-empty, or nil.
func Resolve(rec models.Record, keys ...string) interface{} {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if strings.TrimSpace(textnorm.Stringify(v)) != "" {
			return v
		}
	}
	return nil
}

// String is Resolve with the result stringified and trimmed.
func String(rec models.Record, keys ...string) string {
	return strings.TrimSpace(textnorm.Stringify(Resolve(rec, keys...)))
}

// Value resolves a canonical field, trying nested containers last.
func Value(rec models.Record, f Field) interface{} {
	spec, ok := Aliases[f]
	if !ok || rec == nil {
		return nil
	}
	if v := Resolve(rec, spec.Keys...); v != nil {
		return v
	}
	if spec.Nested == nil {
		return nil
	}
	for _, c := range spec.Nested.Containers {
		sub, ok := asRecord(rec[c])
		if !ok {
			continue
		}
		if v := Resolve(sub, spec.Nested.Keys...); v != nil {
			return v
		}
	}
	return nil
}

// Get resolves a canonical field as a trimmed string.
func Get(rec models.Record, f Field) string {
	return strings.TrimSpace(textnorm.Stringify(Value(rec, f)))
}

func asRecord(v interface{}) (models.Record, bool) {
	switch m := v.(type) {
	case models.Record:
		return m, true
	case map[string]interface{}:
		return models.Record(m), true
	}
	return nil, false
}
