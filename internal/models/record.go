package models

import "time"

// Record is a raw procurement record as returned by one of the PNCP
// endpoints. Field names differ per source, so values are read through the
// fields package rather than directly.
type Record map[string]interface{}

// DocumentType identifies which upstream source produced a record.
type DocumentType string

const (
	// DocumentNotice is an open solicitation (edital).
	DocumentNotice DocumentType = "notice"
	// DocumentMinutes is a price-registration record (ata).
	DocumentMinutes DocumentType = "minutes"
	// DocumentContract is a signed agreement (contrato).
	DocumentContract DocumentType = "contract"
)

// Opportunity is an accepted record with everything a client needs to render it.
type Opportunity struct {
	DocumentType   DocumentType `json:"document_type" example:"notice"`
	RelevanceScore int          `json:"relevance_score" example:"8"`
	UF             string       `json:"uf" example:"SP"`
	Municipality   string       `json:"municipality" example:"Campinas"`
	Organization   string       `json:"organization" example:"MUNICIPIO DE CAMPINAS"`
	TaxID          string       `json:"tax_id,omitempty" example:"12.345.678/0001-99"`
	Object         string       `json:"object" example:"Contratação de médico plantonista"`
	PublishedAt    *time.Time   `json:"published_at,omitempty"`
	Status         string       `json:"status,omitempty" example:"Divulgada no PNCP"`
	Open           bool         `json:"open" example:"true"`
	Link           string       `json:"link,omitempty" example:"https://pncp.gov.br/app/editais/12345678000199/2026/4"`
	Modality       string       `json:"modality,omitempty" example:"6"`
	Record         Record       `json:"record,omitempty" swaggertype:"object"`
}

// CityGroup holds the opportunities of one municipality in fetch order.
type CityGroup struct {
	Municipality  string        `json:"municipality" example:"Campinas"`
	Count         int           `json:"count" example:"3"`
	Opportunities []Opportunity `json:"opportunities"`
}

// QueryResult is the grouped outcome of one aggregated query.
type QueryResult struct {
	UF          string      `json:"uf" example:"SP"`
	DateFrom    string      `json:"date_from" example:"20260916"`
	DateTo      string      `json:"date_to" example:"20261016"`
	Total       int         `json:"total" example:"12"`
	Fetched     int         `json:"fetched" example:"940"`
	Truncated   bool        `json:"truncated" example:"false"`
	FromCache   bool        `json:"from_cache" example:"false"`
	Source      string      `json:"source" example:"live"`
	Cities      []CityGroup `json:"cities"`
	CompletedAt time.Time   `json:"completed_at"`
}
