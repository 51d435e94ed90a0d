package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
)

// Querier runs one aggregated query
type Querier interface {
	Query(ctx context.Context, req QueryRequest) (*models.QueryResult, error)
}

// OpportunityService runs queries inside client sessions and caches results
type OpportunityService struct {
	querier  Querier
	sessions *SessionManager
	cache    CacheServiceInterface
	cacheTTL time.Duration
	metrics  *Metrics
	logger   *logrus.Entry
}

// NewOpportunityService creates the service. cache may be nil.
func NewOpportunityService(querier Querier, sessions *SessionManager, cache CacheServiceInterface, cacheTTL time.Duration, metrics *Metrics, logger *logrus.Logger) *OpportunityService {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &OpportunityService{
		querier:  querier,
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger.WithField("component", "opportunities"),
	}
}

// Search runs req for the session. A run replaced by a newer one reports
// Superseded instead of an error. A run whose own ctx ended returns the
// cancellation error.
func (s *OpportunityService) Search(ctx context.Context, sessionID string, req QueryRequest) (*models.OpportunitiesResponse, error) {
	start := time.Now()
	session := s.sessions.Get(sessionID)

	res, gen, err := session.Run(ctx, func(ctx context.Context) (*models.QueryResult, error) {
		key := cacheKey(req)
		if cached, ok := s.cached(ctx, key); ok {
			return cached, nil
		}

		res, err := s.querier.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, res)
		return res, nil
	})

	resp := &models.OpportunitiesResponse{
		SessionID:  sessionID,
		Generation: gen,
		DurationMs: time.Since(start).Milliseconds(),
	}

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "generation": gen, "uf": req.UF})
	switch {
	case err == nil:
		resp.Result = res
		s.metrics.Record(OutcomeCompleted, time.Since(start), res.Source == "snapshot")
		return resp, nil
	case errors.Is(err, ErrSuperseded) || (pncp.IsCancelled(err) && session.Generation() != gen):
		log.Debug("Query superseded")
		resp.Superseded = true
		s.metrics.Record(OutcomeSuperseded, time.Since(start), false)
		return resp, nil
	case pncp.IsCancelled(err):
		log.Debug("Query cancelled by the caller")
		s.metrics.Record(OutcomeCancelled, time.Since(start), false)
		return nil, err
	default:
		var invalid *InvalidRequestError
		if !errors.As(err, &invalid) {
			s.metrics.Record(OutcomeFailed, time.Since(start), false)
		}
		return nil, err
	}
}

// Cancel aborts the in-flight query of a session
func (s *OpportunityService) Cancel(sessionID string) bool {
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return false
	}
	return session.Cancel()
}

// Metrics returns the query counters
func (s *OpportunityService) Metrics() models.QueryMetrics {
	return s.metrics.Snapshot()
}

// Health returns service health status
func (s *OpportunityService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Count(),
		"queries":  s.metrics.Snapshot(),
	}
}

func (s *OpportunityService) cached(ctx context.Context, key string) (*models.QueryResult, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	var res models.QueryResult
	if err := s.cache.GetJSON(ctx, key, &res); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).Warn("Ignoring unreadable cached query")
		}
		return nil, false
	}
	res.FromCache = true
	return &res, true
}

func (s *OpportunityService) store(ctx context.Context, key string, res *models.QueryResult) {
	if s.cache == nil || s.cacheTTL <= 0 || res.Source == "snapshot" {
		return
	}
	if err := s.cache.SetJSON(ctx, key, res, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache query result")
	}
}

// cacheKey changes daily since the query window ends today.
func cacheKey(req QueryRequest) string {
	return fmt.Sprintf("query:%s:%s:%d:open=%t:secondary=%t:raw=%t:snap=%t",
		strings.ToUpper(strings.TrimSpace(req.UF)), time.Now().Format("20060102"), req.Days,
		req.OpenOnly, req.IncludeSecondary, req.IncludeRaw, !req.SkipSnapshot)
}
