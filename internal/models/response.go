package models

import (
	"time"
)

// OpportunitiesResponse is returned by the opportunities endpoint
type OpportunitiesResponse struct {
	SessionID  string       `json:"session_id" example:"3f2b1c9e-6d1a-4f3e-9a51-0f5c2d7b8e11"`
	Generation uint64       `json:"generation" example:"4"`
	Superseded bool         `json:"superseded" example:"false"`
	Result     *QueryResult `json:"result,omitempty"`
	DurationMs int64        `json:"duration_ms" example:"2500"`
}

// ScoreRequest represents a relevance scoring request
type ScoreRequest struct {
	Text string `json:"text" binding:"required" validate:"required" example:"Credenciamento de médicos plantonistas"`
}

// ScoreResponse represents the relevance of a single description
type ScoreResponse struct {
	Text       string `json:"text" example:"Credenciamento de médicos plantonistas"`
	Normalized string `json:"normalized" example:"credenciamento de medicos plantonistas"`
	Accepted   bool   `json:"accepted" example:"true"`
	Score      int    `json:"score" example:"9"`
	Doctor     bool   `json:"doctor_signal" example:"true"`
	Hiring     bool   `json:"hiring_signal" example:"true"`
	Excluded   bool   `json:"exclusion_signal" example:"false"`
}

// Region represents a group of federative units
type Region struct {
	Name   string  `json:"name" example:"Sudeste"`
	States []State `json:"states"`
}

// State represents a federative unit
type State struct {
	Name  string `json:"name" example:"São Paulo"`
	Sigla string `json:"sigla" example:"SP"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Upstream timeout"`
	Message   string    `json:"message" example:"PNCP did not answer within 20s"`
	Code      string    `json:"code,omitempty" example:"UPSTREAM_TIMEOUT"`
	Timestamp time.Time `json:"timestamp" example:"2026-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/opportunities"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2026-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status    string      `json:"status" example:"healthy"`
	LastCheck time.Time   `json:"last_check" example:"2026-01-15T10:30:00Z"`
	Details   interface{} `json:"details,omitempty" swaggertype:"object"`
	Error     string      `json:"error,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Queries   QueryMetrics    `json:"queries"`
	Upstream  UpstreamMetrics `json:"upstream"`
	Cache     CacheMetrics    `json:"cache"`
	Snapshot  SnapshotInfo    `json:"snapshot"`
	Timestamp time.Time       `json:"timestamp" example:"2026-01-15T10:30:00Z"`
}

// QueryMetrics counts aggregated queries by outcome
type QueryMetrics struct {
	Total        int64   `json:"total" example:"120"`
	Completed    int64   `json:"completed" example:"100"`
	Superseded   int64   `json:"superseded" example:"12"`
	Failed       int64   `json:"failed" example:"8"`
	Cancelled    int64   `json:"cancelled" example:"2"`
	FromSnapshot int64   `json:"from_snapshot" example:"40"`
	AvgMs        float64 `json:"avg_ms" example:"3200.5"`
}

// UpstreamMetrics counts PNCP page requests
type UpstreamMetrics struct {
	Pages    int64 `json:"pages" example:"940"`
	Records  int64 `json:"records" example:"47000"`
	Retries  int64 `json:"retries" example:"3"`
	Timeouts int64 `json:"timeouts" example:"1"`
	Errors   int64 `json:"errors" example:"2"`
}

// CacheMetrics represents cache usage
type CacheMetrics struct {
	Hits    int64   `json:"hits" example:"40"`
	Misses  int64   `json:"misses" example:"80"`
	HitRate float64 `json:"hit_rate" example:"33.3"`
	Backend string  `json:"backend" example:"redis"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field" example:"uf"`
	Message string `json:"message" example:"uf must be a two-letter state code"`
	Value   string `json:"value" example:"XX"`
}
