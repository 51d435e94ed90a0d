package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/fields"
	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/scoring"
	"github.com/nexconsult/pncp-vagas/internal/utils"
)

// SnapshotBuildConfig bounds a snapshot build
type SnapshotBuildConfig struct {
	Modalities          []string
	RangeDays           int
	PageSize            int
	Fetch               pncp.Options
	MaxItemsPerModality int
	MaxItemsTotal       int
	MaxErrors           int
	ModalityDelay       time.Duration
}

// BuildProgress is reported after each modality
type BuildProgress struct {
	Modality string `json:"modality"`
	Found    int    `json:"found"`
	Total    int    `json:"total"`
	Errors   int    `json:"errors"`
}

// SnapshotBuilder collects open medical-hiring notices nationwide from the
// open proposals endpoint.
type SnapshotBuilder struct {
	fetcher Fetcher
	scorer  *scoring.Scorer
	cfg     SnapshotBuildConfig
	logger  *logrus.Entry
	now     func() time.Time
}

// NewSnapshotBuilder creates a builder
func NewSnapshotBuilder(fetcher Fetcher, scorer *scoring.Scorer, cfg SnapshotBuildConfig, logger *logrus.Logger) *SnapshotBuilder {
	if len(cfg.Modalities) == 0 {
		cfg.Modalities = pncp.DefaultModalities
	}
	if cfg.RangeDays <= 0 {
		cfg.RangeDays = 30
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.MaxItemsPerModality <= 0 {
		cfg.MaxItemsPerModality = 6000
	}
	if cfg.MaxItemsTotal <= 0 {
		cfg.MaxItemsTotal = 12000
	}
	if cfg.Fetch.MaxPages <= 0 {
		cfg.Fetch.MaxPages = pncp.DefaultMaxPages
	}
	// Raw records are filtered per page, so only the page ceiling applies.
	cfg.Fetch.MaxItems = cfg.Fetch.MaxPages * cfg.PageSize

	return &SnapshotBuilder{
		fetcher: fetcher,
		scorer:  scorer,
		cfg:     cfg,
		logger:  logger.WithField("component", "snapshot_builder"),
		now:     time.Now,
	}
}

// Build runs every modality in turn. Upstream failures are recorded in the
// snapshot's Errors and the build moves on; only cancellation aborts it.
func (b *SnapshotBuilder) Build(ctx context.Context, progress func(BuildProgress)) (*models.Snapshot, error) {
	now := b.now()
	cutoff := now.AddDate(0, 0, -b.cfg.RangeDays)
	_, today := pncp.DateRange(now, b.cfg.RangeDays)

	snap := &models.Snapshot{
		RangeDays:  b.cfg.RangeDays,
		Modalities: append([]string(nil), b.cfg.Modalities...),
		Source:     models.SnapshotSource,
		Items:      []models.Record{},
		Errors:     []string{},
	}
	seen := make(map[string]struct{})

	for i, modality := range b.cfg.Modalities {
		if i > 0 {
			if err := pncp.Sleep(ctx, b.cfg.ModalityDelay); err != nil {
				return nil, err
			}
		}

		items, err := b.fetchModality(ctx, modality, today, cutoff, snap)
		if err != nil {
			return nil, err
		}

		for _, it := range items {
			key := dedupKey(it)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			snap.Items = append(snap.Items, it)
			if len(snap.Items) >= b.cfg.MaxItemsTotal {
				break
			}
		}

		b.logger.WithFields(logrus.Fields{"modality": modality, "found": len(items), "total": len(snap.Items)}).Info("Modality collected")
		if progress != nil {
			progress(BuildProgress{Modality: modality, Found: len(items), Total: len(snap.Items), Errors: len(snap.Errors)})
		}
		if len(snap.Items) >= b.cfg.MaxItemsTotal {
			break
		}
	}

	snap.GeneratedAt = b.now().UTC()
	return snap, nil
}

func (b *SnapshotBuilder) fetchModality(ctx context.Context, modality, today string, cutoff time.Time, snap *models.Snapshot) ([]models.Record, error) {
	var out []models.Record
	seen := make(map[string]struct{})
	lastPage := 0

	opts := b.cfg.Fetch
	opts.OnPage = func(page int, records []models.Record) bool {
		lastPage = page
		for _, rec := range records {
			item, ok := b.accept(rec, modality, cutoff)
			if !ok {
				continue
			}
			key := dedupKey(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
			if len(out) >= b.cfg.MaxItemsPerModality {
				return false
			}
		}
		return true
	}

	params := models.QueryParams{DateTo: today, Modality: modality, PageSize: b.cfg.PageSize}
	if _, err := b.fetcher.FetchAllPages(ctx, pncp.EndpointProposals, params, opts); err != nil {
		if pncp.IsCancelled(err) {
			return nil, err
		}
		msg := fmt.Sprintf("modalidade %s página %d: %v", modality, lastPage+1, err)
		b.logger.WithError(err).WithField("modality", modality).Warn("Snapshot modality failed, moving on")
		if len(snap.Errors) < b.cfg.MaxErrors {
			snap.Errors = append(snap.Errors, msg)
		}
	}
	return out, nil
}

// accept filters one raw record and returns its minimized form.
func (b *SnapshotBuilder) accept(rec models.Record, modality string, cutoff time.Time) (models.Record, bool) {
	object := fields.Get(rec, fields.Object)
	if object == "" {
		return nil, false
	}
	scored := b.scorer.Score(object)
	if !scored.Accepted || !fields.IsOpen(rec) {
		return nil, false
	}
	if published, ok := fields.Date(rec, fields.PublishedAt); ok && published.Before(cutoff) {
		return nil, false
	}
	return minimize(rec, scored.Score, object, modality), true
}

// minimize keeps the fields needed to render a notice and rebuild its link.
func minimize(rec models.Record, score int, object, modality string) models.Record {
	return models.Record{
		"tipoDocumento":            "edital",
		"relevanceScore":           score,
		"modalidadeId":             modality,
		"uf":                       strings.ToUpper(fields.Get(rec, fields.UF)),
		"municipioNome":            fields.Get(rec, fields.Municipality),
		"cnpj":                     taxID(rec),
		"anoCompra":                fields.Get(rec, fields.Year),
		"numeroCompra":             fields.Get(rec, fields.Number),
		"sequencialCompra":         fields.Get(rec, fields.Sequential),
		"numeroControlePNCP":       fields.Get(rec, fields.ControlNumber),
		"orgaoEntidadeRazaoSocial": fields.Get(rec, fields.Organization),
		"objetoCompra":             object,
		"dataPublicacaoPncp":       fields.Get(rec, fields.PublishedAt),
		"dataAberturaProposta":     fields.Get(rec, fields.OpeningAt),
		"dataEncerramentoProposta": fields.Get(rec, fields.ClosingAt),
		"situacaoCompraNome":       fields.Get(rec, fields.Status),
		"linkSistemaOrigem":        fields.Get(rec, fields.Link),
	}
}

// taxID restores the 14-digit CNPJ when PNCP sent it as a number
func taxID(rec models.Record) string {
	raw := fields.Get(rec, fields.TaxID)
	if cnpj := utils.NormalizeCNPJ(raw); cnpj != "" {
		return cnpj
	}
	return raw
}

func dedupKey(item models.Record) string {
	return strings.Join([]string{
		fields.String(item, "cnpj"),
		fields.String(item, "anoCompra"),
		fields.String(item, "numeroCompra"),
		fields.String(item, "uf"),
		fields.String(item, "municipioNome"),
		fields.String(item, "objetoCompra"),
	}, "|")
}
