package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/config"
)

func TestNewContainer_WithoutRedis(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("SNAPSHOT_PATH", filepath.Join(t.TempDir(), "cache.json"))
	t.Setenv("PNCP_MODALITIES", "6,8")

	cfg, err := config.Load()
	require.NoError(t, err)

	c, err := NewContainer(cfg, nullLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.GetRedisClient())
	assert.Equal(t, "memory", c.CacheService.Backend())
	assert.Nil(t, c.SnapshotService.Current())
	assert.NotNil(t, c.OpportunityService)

	health := c.Health()
	assert.Equal(t, map[string]interface{}{"status": "disabled"}, health["redis"])
	assert.Contains(t, health, "snapshot")
	assert.Contains(t, health, "pncp")

	agg := AggregatorConfigFrom(cfg)
	assert.Equal(t, []string{"6", "8"}, agg.Modalities)
	assert.Equal(t, cfg.Snapshot.UseForQueries, agg.UseSnapshot)

	build := SnapshotBuildConfigFrom(cfg)
	assert.Equal(t, cfg.Snapshot.PageSize, build.PageSize)
	assert.Equal(t, cfg.Snapshot.RequestTimeout, build.Fetch.Timeout)
}
