package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/scoring"
)

func notice(cnpj, number, uf, city string, publishedDaysAgo int) models.Record {
	return models.Record{
		"cnpj": cnpj, "anoCompra": 2026, "numeroCompra": number, "sequencialCompra": number,
		"uf": uf, "municipioNome": city,
		"objetoCompra":       "Contratação de médico plantonista",
		"dataPublicacaoPncp": daysAgo(publishedDaysAgo),
		"situacaoCompraNome": "Divulgada no PNCP",
	}
}

func newTestBuilder(f Fetcher, cfg SnapshotBuildConfig) *SnapshotBuilder {
	if cfg.Modalities == nil {
		cfg.Modalities = []string{"6", "8"}
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 2
	}
	if cfg.MaxErrors == 0 {
		cfg.MaxErrors = 30
	}
	b := NewSnapshotBuilder(f, scoring.NewDefaultScorer(), cfg, nullLogger())
	b.now = func() time.Time { return fixedNow }
	return b
}

func builderFixture() *fakeFetcher {
	closed := notice("22222222000122", "2", "SP", "Santos", 1)
	closed["situacaoCompraNome"] = "Encerrada"
	supply := notice("33333333000133", "3", "SP", "Santos", 1)
	supply["objetoCompra"] = "Aquisição de medicamentos"

	f := newFakeFetcher()
	f.add(pncp.EndpointProposals, "6",
		[]models.Record{notice("11111111000111", "1", "SP", "Campinas", 3), closed, supply},
		[]models.Record{notice("11111111000111", "1", "SP", "Campinas", 3), notice("44444444000144", "4", "SP", "Sorocaba", 40), notice("55555555000155", "5", "RJ", "Niterói", 5)},
	)
	f.add(pncp.EndpointProposals, "8",
		[]models.Record{notice("11111111000111", "1", "SP", "Campinas", 3), notice("66666666000166", "6", "BA", "Salvador", 2)},
	)
	return f
}

func TestSnapshotBuilder_FiltersAndDeduplicates(t *testing.T) {
	f := builderFixture()
	b := newTestBuilder(f, SnapshotBuildConfig{RangeDays: 30})

	var progress []BuildProgress
	snap, err := b.Build(context.Background(), func(p BuildProgress) { progress = append(progress, p) })
	require.NoError(t, err)

	require.Len(t, snap.Items, 3)
	assert.Equal(t, "Campinas", snap.Items[0]["municipioNome"])
	assert.Equal(t, "Niterói", snap.Items[1]["municipioNome"])
	assert.Equal(t, "Salvador", snap.Items[2]["municipioNome"])

	first := snap.Items[0]
	assert.Equal(t, "edital", first["tipoDocumento"])
	assert.Equal(t, "6", first["modalidadeId"])
	assert.Equal(t, "8", snap.Items[2]["modalidadeId"])
	assert.Equal(t, "11111111000111", first["cnpj"])
	assert.Equal(t, "2026", first["anoCompra"])
	assert.NotContains(t, first, "orgaoEntidade")
	assert.Greater(t, first["relevanceScore"], 0)

	assert.Equal(t, 30, snap.RangeDays)
	assert.Equal(t, []string{"6", "8"}, snap.Modalities)
	assert.Equal(t, models.SnapshotSource, snap.Source)
	assert.Equal(t, fixedNow.UTC(), snap.GeneratedAt)
	assert.Empty(t, snap.Errors)

	assert.Equal(t, []BuildProgress{
		{Modality: "6", Found: 2, Total: 2},
		{Modality: "8", Found: 2, Total: 3},
	}, progress)

	require.Len(t, f.calls, 2)
	for _, c := range f.calls {
		assert.Equal(t, pncp.EndpointProposals, c.endpoint)
		assert.Equal(t, "20261016", c.params.DateTo)
		assert.Empty(t, c.params.DateFrom)
		assert.Empty(t, c.params.Values().Get("uf"))
		assert.Equal(t, 2, c.params.PageSize)
	}
}

func TestSnapshotBuilder_Caps(t *testing.T) {
	t.Run("per modality", func(t *testing.T) {
		b := newTestBuilder(builderFixture(), SnapshotBuildConfig{MaxItemsPerModality: 1})
		snap, err := b.Build(context.Background(), nil)
		require.NoError(t, err)
		// modality 8 stops at its first record, a duplicate of modality 6's
		require.Len(t, snap.Items, 1)
		assert.Equal(t, "Campinas", snap.Items[0]["municipioNome"])
	})

	t.Run("total", func(t *testing.T) {
		f := builderFixture()
		b := newTestBuilder(f, SnapshotBuildConfig{MaxItemsTotal: 2})
		snap, err := b.Build(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, snap.Items, 2)
		assert.Equal(t, 1, f.callCount())
	})
}

func TestSnapshotBuilder_NumericTaxID(t *testing.T) {
	numeric := notice("", "1", "SP", "Campinas", 1)
	numeric["cnpj"] = json.Number("1234567000199")
	masked := notice("98.765.432/0001-10", "2", "SP", "Santos", 1)

	f := newFakeFetcher()
	f.add(pncp.EndpointProposals, "6", []models.Record{numeric, masked})
	b := newTestBuilder(f, SnapshotBuildConfig{Modalities: []string{"6"}})

	snap, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "01234567000199", snap.Items[0]["cnpj"])
	assert.Equal(t, "98765432000110", snap.Items[1]["cnpj"])
}

func TestSnapshotBuilder_RecordsErrorsAndContinues(t *testing.T) {
	f := builderFixture()
	f.fail(pncp.EndpointProposals, "6", &pncp.HTTPError{URL: "u", Status: 500})
	f.fail(pncp.EndpointProposals, "8", &pncp.HTTPError{URL: "u", Status: 503})
	b := newTestBuilder(f, SnapshotBuildConfig{MaxErrors: 1})

	snap, err := b.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, snap.Items, 3)
	assert.Equal(t, []string{"modalidade 6 página 3: HTTP 500"}, snap.Errors)
}

func TestSnapshotBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBuilder(builderFixture(), SnapshotBuildConfig{})
	snap, err := b.Build(ctx, nil)
	assert.Nil(t, snap)
	assert.True(t, pncp.IsCancelled(err))
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		GeneratedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		RangeDays:   30,
		Modalities:  []string{"6", "8"},
		Source:      models.SnapshotSource,
		Items:       []models.Record{notice("11111111000111", "1", "SP", "Campinas", 3)},
		Errors:      []string{},
	}
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cache.json")

	store := NewSnapshotStore(path, nil, nullLogger())
	require.NoError(t, store.Save(context.Background(), sampleSnapshot()))

	reloaded := NewSnapshotStore(path, nil, nullLogger())
	require.NoError(t, reloaded.Load(context.Background()))

	snap := reloaded.Current()
	require.NotNil(t, snap)
	assert.True(t, snap.GeneratedAt.Equal(sampleSnapshot().GeneratedAt))
	assert.Equal(t, []string{"6", "8"}, snap.Modalities)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "11111111000111", snap.Items[0]["cnpj"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSnapshotStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewSnapshotStore(path, nil, nullLogger())
	assert.Error(t, store.Load(context.Background()))
	assert.Nil(t, store.Current())
}

func TestSnapshotStore_FallsBackToCacheMirror(t *testing.T) {
	cache := NewCacheService(nil, time.Minute, nullLogger())
	dir := t.TempDir()

	writer := NewSnapshotStore(filepath.Join(dir, "a.json"), cache, nullLogger())
	require.NoError(t, writer.Save(context.Background(), sampleSnapshot()))

	reader := NewSnapshotStore(filepath.Join(dir, "missing.json"), cache, nullLogger())
	require.NoError(t, reader.Load(context.Background()))
	require.NotNil(t, reader.Current())
	assert.Len(t, reader.Current().Items, 1)
}

func TestSnapshotService_Rebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewSnapshotStore(path, nil, nullLogger())
	svc := NewSnapshotService(newTestBuilder(builderFixture(), SnapshotBuildConfig{}), store, 36*time.Hour, nullLogger())

	assert.False(t, svc.Info().Available)
	assert.Equal(t, "degraded", svc.Health()["status"])

	snap, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 3)
	assert.Same(t, snap, svc.Current())
	assert.FileExists(t, path)

	info := svc.Info()
	assert.True(t, info.Available)
	assert.Equal(t, 3, info.Items)
}

func TestSnapshotService_FailedRebuildKeepsPrevious(t *testing.T) {
	f := newFakeFetcher()
	f.fail(pncp.EndpointProposals, "6", &pncp.HTTPError{URL: "u", Status: 500})
	f.fail(pncp.EndpointProposals, "8", &pncp.HTTPError{URL: "u", Status: 500})

	store := NewSnapshotStore(filepath.Join(t.TempDir(), "cache.json"), nil, nullLogger())
	previous := sampleSnapshot()
	require.NoError(t, store.Save(context.Background(), previous))

	svc := NewSnapshotService(newTestBuilder(f, SnapshotBuildConfig{}), store, 0, nullLogger())
	_, err := svc.Rebuild(context.Background())
	require.Error(t, err)

	assert.Same(t, previous, svc.Current())
	assert.Contains(t, svc.Health()["last_error"], "HTTP 500")
}

func TestSnapshotService_RejectsConcurrentRebuild(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := builderFixture()
	f.before = func(ctx context.Context, call fetchCall) error {
		if call.params.Modality == "6" {
			close(started)
			<-release
		}
		return nil
	}

	store := NewSnapshotStore(filepath.Join(t.TempDir(), "cache.json"), nil, nullLogger())
	svc := NewSnapshotService(newTestBuilder(f, SnapshotBuildConfig{}), store, 0, nullLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Rebuild(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(release)
	assert.NoError(t, <-done)
}

func TestSnapshotService_RebuildInBackground(t *testing.T) {
	release := make(chan struct{})
	f := builderFixture()
	f.before = func(ctx context.Context, call fetchCall) error {
		<-release
		return nil
	}

	path := filepath.Join(t.TempDir(), "cache.json")
	svc := NewSnapshotService(newTestBuilder(f, SnapshotBuildConfig{}), NewSnapshotStore(path, nil, nullLogger()), 0, nullLogger())

	require.NoError(t, svc.RebuildInBackground(time.Minute))
	assert.ErrorIs(t, svc.RebuildInBackground(time.Minute), ErrRebuildInProgress)

	close(release)
	assert.Eventually(t, func() bool {
		return svc.Current() != nil && !svc.Rebuilding()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, svc.Current().Items, 3)
}
