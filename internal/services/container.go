package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/config"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/scoring"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	Client             *pncp.Client
	Scorer             *scoring.Scorer
	Aggregator         *Aggregator
	Sessions           *SessionManager
	CacheService       *CacheService
	SnapshotService    *SnapshotService
	OpportunityService *OpportunityService
	Metrics            *Metrics
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	// Initialize Redis client
	if err := container.initRedis(); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize services
	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis initializes Redis client
func (c *Container) initRedis() error {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, using in-memory cache")
		return nil
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout+time.Second)
	defer cancel()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with in-memory cache")
		_ = c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}

	return nil
}

// initServices initializes all services
func (c *Container) initServices() error {
	cfg := c.config

	scorer, err := ScorerFrom(cfg)
	if err != nil {
		return err
	}
	c.Scorer = scorer
	c.Client = ClientFrom(cfg, c.logger)

	c.CacheService = NewCacheService(c.redisClient, cfg.Query.CacheTTL, c.logger)

	store := NewSnapshotStore(cfg.Snapshot.Path, c.CacheService, c.logger)
	if err := store.Load(context.Background()); err != nil {
		c.logger.WithError(err).Info("Starting without snapshot, queries will go live")
	}
	builder := NewSnapshotBuilder(c.Client, c.Scorer, SnapshotBuildConfigFrom(cfg), c.logger)
	c.SnapshotService = NewSnapshotService(builder, store, cfg.Snapshot.MaxAge, c.logger)

	c.Aggregator = NewAggregator(c.Client, c.Scorer, c.SnapshotService, AggregatorConfigFrom(cfg), c.logger)

	c.Sessions = NewSessionManager(cfg.Query.SessionTTL)
	c.Metrics = &Metrics{}
	c.OpportunityService = NewOpportunityService(c.Aggregator, c.Sessions, c.CacheService, cfg.Query.CacheTTL, c.Metrics, c.logger)

	return nil
}

// ScorerFrom builds the scorer, with the vocabulary file when one is configured
func ScorerFrom(cfg *config.Config) (*scoring.Scorer, error) {
	if cfg.Scoring.VocabularyFile == "" {
		return scoring.NewDefaultScorer(), nil
	}
	vocab, err := scoring.LoadVocabulary(cfg.Scoring.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring vocabulary: %w", err)
	}
	return scoring.NewScorer(vocab), nil
}

// ClientFrom builds the PNCP client
func ClientFrom(cfg *config.Config, logger *logrus.Logger) *pncp.Client {
	return pncp.NewClient(pncp.Config{
		BaseURL:           cfg.PNCP.BaseURL,
		UserAgent:         cfg.PNCP.UserAgent,
		RetryBackoff:      cfg.PNCP.RetryBackoff,
		RequestsPerSecond: cfg.PNCP.RequestsPerSecond,
		Burst:             cfg.PNCP.Burst,
	}, logger)
}

// AggregatorConfigFrom maps configuration onto the aggregator
func AggregatorConfigFrom(cfg *config.Config) AggregatorConfig {
	return AggregatorConfig{
		Modalities:    cfg.PNCP.Modalities,
		PageSize:      cfg.PNCP.PageSize,
		ModalityDelay: cfg.PNCP.ModalityDelay,
		Fetch: pncp.Options{
			Timeout:   cfg.PNCP.RequestTimeout,
			PageDelay: cfg.PNCP.PageDelay,
			MaxPages:  cfg.PNCP.MaxPages,
			MaxItems:  cfg.PNCP.MaxItems,
		},
		IncludeSecondary: cfg.PNCP.IncludeSecondary,
		DefaultRangeDays: cfg.Query.DefaultRangeDays,
		MaxRangeDays:     cfg.Query.MaxRangeDays,
		UseSnapshot:      cfg.Snapshot.UseForQueries,
		SnapshotMaxAge:   cfg.Snapshot.MaxAge,
	}
}

// SnapshotBuildConfigFrom maps configuration onto the snapshot builder
func SnapshotBuildConfigFrom(cfg *config.Config) SnapshotBuildConfig {
	return SnapshotBuildConfig{
		Modalities: cfg.PNCP.Modalities,
		RangeDays:  cfg.Snapshot.RangeDays,
		PageSize:   cfg.Snapshot.PageSize,
		Fetch: pncp.Options{
			Timeout:   cfg.Snapshot.RequestTimeout,
			PageDelay: cfg.PNCP.PageDelay,
			MaxPages:  cfg.Snapshot.MaxPages,
		},
		MaxItemsPerModality: cfg.Snapshot.MaxItemsPerModality,
		MaxItemsTotal:       cfg.Snapshot.MaxItemsTotal,
		MaxErrors:           cfg.Snapshot.MaxErrors,
		ModalityDelay:       cfg.Snapshot.ModalityDelay,
	}
}

// StartBackground starts cache and session cleanup until ctx is done
func (c *Container) StartBackground(ctx context.Context) {
	c.CacheService.StartCleanupRoutine(ctx, 5*time.Minute)
	c.Sessions.StartCleanupRoutine(ctx, time.Minute)
}

// Close closes all service connections
func (c *Container) Close() error {
	var errors []error

	// Close Redis connection
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Return combined errors if any
	if len(errors) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errors)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	// Check Redis health
	if c.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.SnapshotService != nil {
		health["snapshot"] = c.SnapshotService.Health()
	}

	if c.OpportunityService != nil {
		health["opportunities"] = c.OpportunityService.Health()
	}

	if c.Client != nil {
		health["pncp"] = map[string]interface{}{
			"status": "healthy",
			"stats":  c.Client.Stats(),
		}
	}

	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
