package pncp

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultPageDelay = 120 * time.Millisecond
	DefaultMaxPages  = 80
	DefaultMaxItems  = 15000
)

// Progress is reported after every page.
type Progress struct {
	Endpoint   string
	Page       int
	TotalPages int
	Records    int
}

// Options bounds one FetchAllPages call. Zero Timeout, MaxPages and MaxItems
// take the defaults; a zero PageDelay disables the delay.
type Options struct {
	Timeout    time.Duration
	PageDelay  time.Duration
	MaxPages   int
	MaxItems   int
	OnProgress func(Progress)
	// OnPage sees every page as it arrives. Returning false stops the
	// iteration without marking the result truncated.
	OnPage func(page int, records []models.Record) bool
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		PageDelay: DefaultPageDelay,
		MaxPages:  DefaultMaxPages,
		MaxItems:  DefaultMaxItems,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	return o
}

// Result is the accumulated outcome of one paginated query.
type Result struct {
	Records []models.Record
	// TotalPages is the advertised page count, 0 when unknown.
	TotalPages int
	// Truncated is set when MaxItems or MaxPages stopped the iteration
	// while more pages were expected.
	Truncated bool
	Pages     int
	PageSize  int
}

// FetchAllPages requests pages of endpoint starting at params.Page (default
// 1) until the data runs out or a ceiling is hit. On error the records
// gathered so far are returned alongside it.
func (c *Client) FetchAllPages(ctx context.Context, endpoint string, params models.QueryParams, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	pageNum := params.Page
	if pageNum < 1 {
		pageNum = 1
	}
	q := params.Values()
	pageSize := params.PageSize

	log := c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"modality": params.Modality,
		"uf":       params.Extra["uf"],
	})

	res := &Result{}
	inferred := false
	for {
		if ctx.Err() != nil {
			return res, Cancelled(ctx)
		}

		q.Set("pagina", strconv.Itoa(pageNum))
		p, used, err := c.getPage(ctx, endpoint, q, opts.Timeout)
		if err != nil {
			if !IsCancelled(err) {
				log.WithError(err).WithField("page", pageNum).Warn("PNCP page request failed")
			}
			return res, err
		}
		if ctx.Err() != nil {
			return res, Cancelled(ctx)
		}

		// A reduced or removed page size sticks for the following pages.
		q = used
		if size, err := strconv.Atoi(q.Get("tamanhoPagina")); err == nil {
			pageSize = size
		} else if !inferred {
			pageSize = len(p.records)
			inferred = true
		}

		res.Pages++
		res.PageSize = pageSize
		if tp := p.totalPages(); tp > 0 {
			res.TotalPages = tp
		}

		stopped := opts.OnPage != nil && !opts.OnPage(pageNum, p.records)

		res.Records = append(res.Records, p.records...)
		if len(res.Records) > opts.MaxItems {
			res.Records = res.Records[:opts.MaxItems]
			res.Truncated = true
		}

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Endpoint: endpoint, Page: pageNum, TotalPages: res.TotalPages, Records: len(res.Records)})
		}
		log.WithFields(logrus.Fields{"page": pageNum, "records": len(p.records), "total": len(res.Records)}).Debug("PNCP page fetched")

		if res.Truncated || stopped {
			break
		}

		more := hasMore(p, pageNum, res.TotalPages, pageSize)
		if !more {
			break
		}
		if len(res.Records) >= opts.MaxItems || res.Pages >= opts.MaxPages {
			res.Truncated = true
			log.WithFields(logrus.Fields{"pages": res.Pages, "records": len(res.Records)}).Info("PNCP query truncated at safety ceiling")
			break
		}

		pageNum++
		if err := Sleep(ctx, opts.PageDelay); err != nil {
			return res, err
		}
	}

	return res, nil
}

// hasMore prefers the advertised total page count, then the pages-remaining
// counter, then assumes more pages when this one came back full.
func hasMore(p *page, pageNum, totalPages, pageSize int) bool {
	if totalPages > 0 {
		return pageNum < totalPages
	}
	if remaining, ok := p.remainingPages(); ok {
		return remaining > 0
	}
	n := len(p.records)
	return n > 0 && n >= pageSize
}

// DateRange returns the YYYYMMDD bounds of the window ending at now.
func DateRange(now time.Time, days int) (from, to string) {
	return now.AddDate(0, 0, -days).Format("20060102"), now.Format("20060102")
}
