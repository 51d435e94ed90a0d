package services

import (
	"context"
	"time"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
)

// Fetcher runs one paginated upstream query
type Fetcher interface {
	FetchAllPages(ctx context.Context, endpoint string, params models.QueryParams, opts pncp.Options) (*pncp.Result, error)
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with the default TTL
	Set(ctx context.Context, key string, value string) error

	// GetJSON decodes a cached JSON value
	GetJSON(ctx context.Context, key string, dst interface{}) error

	// SetJSON stores a value as JSON
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Metrics returns hit and miss counters
	Metrics() models.CacheMetrics

	// Health returns service health status
	Health() map[string]interface{}
}

// SnapshotProvider exposes the current cache snapshot, nil when none is loaded
type SnapshotProvider interface {
	Current() *models.Snapshot
}

// OpportunityServiceInterface defines the session-aware query entry point
type OpportunityServiceInterface interface {
	// Search runs a query for the session, superseding its previous one
	Search(ctx context.Context, sessionID string, req QueryRequest) (*models.OpportunitiesResponse, error)

	// Cancel aborts the session's in-flight query
	Cancel(sessionID string) bool

	// Health returns service health status
	Health() map[string]interface{}
}

// SnapshotServiceInterface defines the snapshot lifecycle
type SnapshotServiceInterface interface {
	SnapshotProvider

	// Rebuild fetches a fresh snapshot and persists it
	Rebuild(ctx context.Context) (*models.Snapshot, error)

	// RebuildInBackground starts a rebuild bounded by timeout
	RebuildInBackground(timeout time.Duration) error

	// Info summarises the current snapshot
	Info() models.SnapshotInfo

	// Health returns service health status
	Health() map[string]interface{}
}
