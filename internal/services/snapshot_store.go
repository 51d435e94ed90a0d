package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

const snapshotCacheKey = "snapshot:current"

// ReadSnapshotFile loads a snapshot document from disk
func ReadSnapshotFile(path string) (*models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	return models.DecodeSnapshot(f)
}

// WriteSnapshotFile writes snap to path atomically
func WriteSnapshotFile(path string, snap *models.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}
	return nil
}

// SnapshotStore holds the current snapshot, persisted to a file and
// mirrored to the cache so other replicas can pick it up.
type SnapshotStore struct {
	path   string
	cache  CacheServiceInterface
	logger *logrus.Entry

	mu      sync.RWMutex
	current *models.Snapshot
}

// NewSnapshotStore creates a store. cache may be nil.
func NewSnapshotStore(path string, cache CacheServiceInterface, logger *logrus.Logger) *SnapshotStore {
	return &SnapshotStore{
		path:   path,
		cache:  cache,
		logger: logger.WithField("component", "snapshot_store"),
	}
}

// Load reads the snapshot file, falling back to the cache mirror. A missing
// or malformed snapshot leaves the store empty so queries go live.
func (s *SnapshotStore) Load(ctx context.Context) error {
	snap, err := ReadSnapshotFile(s.path)
	if err != nil {
		s.logger.WithError(err).Warn("Snapshot file unavailable")
		snap = s.fromCache(ctx)
	}
	if snap == nil {
		return err
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"generated_at": snap.GeneratedAt,
		"items":        len(snap.Items),
	}).Info("Snapshot loaded")
	return nil
}

func (s *SnapshotStore) fromCache(ctx context.Context) *models.Snapshot {
	if s.cache == nil {
		return nil
	}
	var snap models.Snapshot
	if err := s.cache.GetJSON(ctx, snapshotCacheKey, &snap); err != nil || snap.GeneratedAt.IsZero() {
		return nil
	}
	return &snap
}

// Save persists snap and makes it current
func (s *SnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := WriteSnapshotFile(s.path, snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, snapshotCacheKey, snap, 0); err != nil {
			s.logger.WithError(err).Warn("Failed to mirror snapshot to cache")
		}
	}
	return nil
}

// Current returns the loaded snapshot or nil
func (s *SnapshotStore) Current() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SnapshotService rebuilds and serves the cache snapshot
type SnapshotService struct {
	builder *SnapshotBuilder
	store   *SnapshotStore
	maxAge  time.Duration
	logger  *logrus.Entry

	rebuilding sync.Mutex
	inProgress atomic.Bool
	lastError  error
	lastBuild  time.Time
	stateMu    sync.RWMutex
}

// NewSnapshotService creates the service
func NewSnapshotService(builder *SnapshotBuilder, store *SnapshotStore, maxAge time.Duration, logger *logrus.Logger) *SnapshotService {
	return &SnapshotService{
		builder: builder,
		store:   store,
		maxAge:  maxAge,
		logger:  logger.WithField("component", "snapshot"),
	}
}

// Current returns the loaded snapshot or nil
func (s *SnapshotService) Current() *models.Snapshot {
	return s.store.Current()
}

// Rebuild builds and stores a fresh snapshot. A build that collected nothing
// but errors keeps the previous snapshot.
func (s *SnapshotService) Rebuild(ctx context.Context) (*models.Snapshot, error) {
	if !s.rebuilding.TryLock() {
		return nil, ErrRebuildInProgress
	}
	defer s.rebuilding.Unlock()
	return s.rebuild(ctx)
}

// RebuildInBackground starts a rebuild bounded by timeout and returns at
// once. It fails with ErrRebuildInProgress when one is already running.
func (s *SnapshotService) RebuildInBackground(timeout time.Duration) error {
	if !s.rebuilding.TryLock() {
		return ErrRebuildInProgress
	}
	go func() {
		defer s.rebuilding.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, _ = s.rebuild(ctx)
	}()
	return nil
}

func (s *SnapshotService) rebuild(ctx context.Context) (*models.Snapshot, error) {
	buildID := uuid.New().String()
	log := s.logger.WithField("build_id", buildID)
	log.Info("Snapshot rebuild started")

	s.inProgress.Store(true)
	defer s.inProgress.Store(false)

	start := time.Now()
	snap, err := s.builder.Build(ctx, func(p BuildProgress) {
		log.WithFields(logrus.Fields{
			"modality": p.Modality,
			"found":    p.Found,
			"total":    p.Total,
			"errors":   p.Errors,
		}).Debug("Snapshot build progress")
	})
	if err == nil && len(snap.Items) == 0 && len(snap.Errors) > 0 {
		err = fmt.Errorf("snapshot build collected no items: %s", snap.Errors[0])
	}
	if err == nil {
		err = s.store.Save(ctx, snap)
	}

	s.stateMu.Lock()
	s.lastBuild = time.Now()
	s.lastError = err
	s.stateMu.Unlock()

	if err != nil {
		log.WithError(err).Error("Snapshot rebuild failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"items":    len(snap.Items),
		"errors":   len(snap.Errors),
		"duration": time.Since(start).String(),
	}).Info("Snapshot rebuilt")
	return snap, nil
}

// Rebuilding reports whether a rebuild is running
func (s *SnapshotService) Rebuilding() bool {
	return s.inProgress.Load()
}

// Info summarises the current snapshot
func (s *SnapshotService) Info() models.SnapshotInfo {
	return s.store.Current().Info(s.maxAge, time.Now())
}

// Health returns service health status
func (s *SnapshotService) Health() map[string]interface{} {
	info := s.Info()
	status := "healthy"
	switch {
	case !info.Available:
		status = "degraded"
	case info.Stale:
		status = "stale"
	}

	health := map[string]interface{}{
		"status":     status,
		"available":  info.Available,
		"items":      info.Items,
		"rebuilding": s.Rebuilding(),
	}

	s.stateMu.RLock()
	if !s.lastBuild.IsZero() {
		health["last_build"] = s.lastBuild
	}
	if s.lastError != nil {
		health["last_error"] = s.lastError.Error()
	}
	s.stateMu.RUnlock()

	return health
}
