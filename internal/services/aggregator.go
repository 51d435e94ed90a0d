package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/fields"
	"github.com/nexconsult/pncp-vagas/internal/links"
	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/regions"
	"github.com/nexconsult/pncp-vagas/internal/scoring"
	"github.com/nexconsult/pncp-vagas/internal/textnorm"
	"github.com/nexconsult/pncp-vagas/internal/utils"
)

// UnknownMunicipality groups records without a resolvable municipality.
const UnknownMunicipality = "Município não informado"

// AggregatorConfig bounds an aggregated query
type AggregatorConfig struct {
	Modalities       []string
	PageSize         int
	ModalityDelay    time.Duration
	Fetch            pncp.Options
	IncludeSecondary bool
	DefaultRangeDays int
	MaxRangeDays     int
	UseSnapshot      bool
	SnapshotMaxAge   time.Duration
}

// QueryRequest describes one state-level query
type QueryRequest struct {
	UF               string
	Days             int
	OpenOnly         bool
	IncludeSecondary bool
	IncludeRaw       bool
	SkipSnapshot     bool
	OnProgress       func(pncp.Progress)
}

// Aggregator runs the notices query once per modality, optionally followed
// by the minutes and contracts sources, and groups what the scorer accepts.
type Aggregator struct {
	fetcher   Fetcher
	scorer    *scoring.Scorer
	snapshots SnapshotProvider
	cfg       AggregatorConfig
	logger    *logrus.Entry
	now       func() time.Time
}

// NewAggregator creates an aggregator. snapshots may be nil.
func NewAggregator(fetcher Fetcher, scorer *scoring.Scorer, snapshots SnapshotProvider, cfg AggregatorConfig, logger *logrus.Logger) *Aggregator {
	if len(cfg.Modalities) == 0 {
		cfg.Modalities = pncp.DefaultModalities
	}
	if cfg.DefaultRangeDays <= 0 {
		cfg.DefaultRangeDays = 30
	}
	if cfg.MaxRangeDays < cfg.DefaultRangeDays {
		cfg.MaxRangeDays = cfg.DefaultRangeDays
	}
	return &Aggregator{
		fetcher:   fetcher,
		scorer:    scorer,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger.WithField("component", "aggregator"),
		now:       time.Now,
	}
}

type source struct {
	endpoint string
	docType  models.DocumentType
	modality string
	uf       string
}

// Query fetches, filters and groups opportunities for one state. It stops at
// the first upstream failure; cancellation of ctx returns pncp.ErrCancelled.
func (a *Aggregator) Query(ctx context.Context, req QueryRequest) (*models.QueryResult, error) {
	uf, days, err := a.normalize(req)
	if err != nil {
		return nil, err
	}
	secondary := req.IncludeSecondary || a.cfg.IncludeSecondary

	now := a.now()
	from, to := pncp.DateRange(now, days)
	log := a.logger.WithFields(logrus.Fields{"uf": uf, "from": from, "to": to, "secondary": secondary})

	if !req.SkipSnapshot && !secondary {
		if res, ok := a.fromSnapshot(uf, days, now, req); ok {
			res.DateFrom, res.DateTo = from, to
			log.WithField("total", res.Total).Info("Query answered from snapshot")
			return res, nil
		}
	}

	sources := make([]source, 0, len(a.cfg.Modalities)+2)
	for _, m := range a.cfg.Modalities {
		sources = append(sources, source{endpoint: pncp.EndpointNotices, docType: models.DocumentNotice, modality: m, uf: uf})
	}
	if secondary {
		sources = append(sources,
			source{endpoint: pncp.EndpointMinutes, docType: models.DocumentMinutes},
			source{endpoint: pncp.EndpointContracts, docType: models.DocumentContract},
		)
	}

	opts := a.cfg.Fetch
	opts.OnProgress = req.OnProgress

	result := &models.QueryResult{UF: uf, DateFrom: from, DateTo: to, Source: "live"}
	var accepted []models.Opportunity

	for i, src := range sources {
		if i > 0 {
			if err := pncp.Sleep(ctx, a.cfg.ModalityDelay); err != nil {
				return nil, err
			}
		}

		params := models.QueryParams{
			DateFrom: from,
			DateTo:   to,
			Modality: src.modality,
			PageSize: a.cfg.PageSize,
			Extra:    map[string]string{"uf": src.uf},
		}

		res, err := a.fetcher.FetchAllPages(ctx, src.endpoint, params, opts)
		if err != nil {
			if !pncp.IsCancelled(err) {
				log.WithError(err).WithFields(logrus.Fields{"endpoint": src.endpoint, "modality": src.modality}).Error("Upstream query failed")
			}
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, pncp.Cancelled(ctx)
		}

		result.Fetched += len(res.Records)
		result.Truncated = result.Truncated || res.Truncated

		// Secondary sources are not filtered by state upstream.
		strict := src.uf == ""
		for _, rec := range res.Records {
			op, ok := a.classify(rec, src.docType, uf, strict, req)
			if !ok {
				continue
			}
			if op.Modality == "" {
				op.Modality = src.modality
			}
			accepted = append(accepted, op)
		}

		log.WithFields(logrus.Fields{
			"endpoint": src.endpoint,
			"modality": src.modality,
			"records":  len(res.Records),
			"accepted": len(accepted),
		}).Debug("Source fetched")
	}

	result.Cities = GroupByMunicipality(accepted)
	result.Total = len(accepted)
	result.CompletedAt = a.now()

	log.WithFields(logrus.Fields{"fetched": result.Fetched, "total": result.Total, "truncated": result.Truncated}).Info("Query completed")
	return result, nil
}

func (a *Aggregator) normalize(req QueryRequest) (string, int, error) {
	uf := strings.ToUpper(strings.TrimSpace(req.UF))
	if !regions.IsUF(uf) {
		return "", 0, &InvalidRequestError{Field: "uf", Value: req.UF, Message: "must be a two-letter state code"}
	}

	days := req.Days
	if days == 0 {
		days = a.cfg.DefaultRangeDays
	}
	if days < 1 || days > a.cfg.MaxRangeDays {
		return "", 0, &InvalidRequestError{
			Field:   "days",
			Value:   strconv.Itoa(req.Days),
			Message: "must be between 1 and " + strconv.Itoa(a.cfg.MaxRangeDays),
		}
	}
	return uf, days, nil
}

// fromSnapshot answers from the snapshot when it is loaded, fresh, covers
// the requested window and was built from every configured modality.
func (a *Aggregator) fromSnapshot(uf string, days int, now time.Time, req QueryRequest) (*models.QueryResult, bool) {
	if !a.cfg.UseSnapshot || a.snapshots == nil {
		return nil, false
	}
	snap := a.snapshots.Current()
	if snap == nil || snap.RangeDays < days {
		return nil, false
	}
	if a.cfg.SnapshotMaxAge > 0 && now.Sub(snap.GeneratedAt) > a.cfg.SnapshotMaxAge {
		return nil, false
	}
	if !covers(snap.Modalities, a.cfg.Modalities) {
		return nil, false
	}

	cutoff := now.AddDate(0, 0, -days)
	var accepted []models.Opportunity
	for _, rec := range snap.Items {
		if published, ok := fields.Date(rec, fields.PublishedAt); ok && published.Before(cutoff) {
			continue
		}
		if op, ok := a.classify(rec, models.DocumentNotice, uf, true, req); ok {
			accepted = append(accepted, op)
		}
	}

	return &models.QueryResult{
		UF:          uf,
		Total:       len(accepted),
		Fetched:     len(snap.Items),
		FromCache:   true,
		Source:      "snapshot",
		Cities:      GroupByMunicipality(accepted),
		CompletedAt: now,
	}, true
}

// classify applies the post-fetch filters. With strictUF a record must
// resolve to the requested state; otherwise an unresolved state passes.
func (a *Aggregator) classify(rec models.Record, docType models.DocumentType, uf string, strictUF bool, req QueryRequest) (models.Opportunity, bool) {
	recUF := strings.ToUpper(fields.Get(rec, fields.UF))
	if recUF != "" && recUF != uf {
		return models.Opportunity{}, false
	}
	if recUF == "" && strictUF {
		return models.Opportunity{}, false
	}

	object := fields.Get(rec, fields.Object)
	if object == "" {
		return models.Opportunity{}, false
	}
	scored := a.scorer.Score(object)
	if !scored.Accepted {
		return models.Opportunity{}, false
	}

	status := fields.Get(rec, fields.Status)
	open := fields.IsOpenStatus(status)
	if req.OpenOnly && !open {
		return models.Opportunity{}, false
	}

	op := models.Opportunity{
		DocumentType:   docType,
		RelevanceScore: scored.Score,
		UF:             uf,
		Municipality:   fields.Get(rec, fields.Municipality),
		Organization:   fields.Get(rec, fields.Organization),
		TaxID:          utils.FormatCNPJ(fields.Get(rec, fields.TaxID)),
		Object:         object,
		Status:         status,
		Open:           open,
		Link:           links.Build(rec, docType),
		Modality:       fields.Get(rec, fields.Modality),
	}
	if op.Municipality == "" {
		op.Municipality = UnknownMunicipality
	}
	if published, ok := fields.Date(rec, fields.PublishedAt); ok {
		op.PublishedAt = &published
	}
	if req.IncludeRaw {
		op.Record = rec
	}
	return op, true
}

// GroupByMunicipality groups opportunities keeping their order inside each
// group and sorts the groups with Portuguese collation.
func GroupByMunicipality(ops []models.Opportunity) []models.CityGroup {
	index := make(map[string]int)
	groups := make([]models.CityGroup, 0)
	for _, op := range ops {
		i, ok := index[op.Municipality]
		if !ok {
			i = len(groups)
			index[op.Municipality] = i
			groups = append(groups, models.CityGroup{Municipality: op.Municipality})
		}
		groups[i].Opportunities = append(groups[i].Opportunities, op)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return textnorm.Compare(groups[i].Municipality, groups[j].Municipality) < 0
	})
	return groups
}

func covers(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, m := range have {
		set[m] = struct{}{}
	}
	for _, m := range want {
		if _, ok := set[m]; !ok {
			return false
		}
	}
	return true
}
