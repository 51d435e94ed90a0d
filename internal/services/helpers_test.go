package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
)

type fetchCall struct {
	endpoint string
	params   models.QueryParams
}

// fakeFetcher serves canned pages keyed by endpoint and modality.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string][][]models.Record
	errs   map[string]error
	calls  []fetchCall
	before func(ctx context.Context, call fetchCall) error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string][][]models.Record{}, errs: map[string]error{}}
}

func fakeKey(endpoint, modality string) string {
	return endpoint + "#" + modality
}

func (f *fakeFetcher) add(endpoint, modality string, pages ...[]models.Record) {
	f.pages[fakeKey(endpoint, modality)] = pages
}

func (f *fakeFetcher) fail(endpoint, modality string, err error) {
	f.errs[fakeKey(endpoint, modality)] = err
}

func (f *fakeFetcher) FetchAllPages(ctx context.Context, endpoint string, params models.QueryParams, opts pncp.Options) (*pncp.Result, error) {
	call := fetchCall{endpoint: endpoint, params: params.Clone()}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	pages := f.pages[fakeKey(endpoint, params.Modality)]
	err := f.errs[fakeKey(endpoint, params.Modality)]
	f.mu.Unlock()

	if f.before != nil {
		if err := f.before(ctx, call); err != nil {
			return &pncp.Result{}, err
		}
	}

	res := &pncp.Result{}
	for i, recs := range pages {
		if ctx.Err() != nil {
			return res, pncp.Cancelled(ctx)
		}
		res.Pages++
		stop := opts.OnPage != nil && !opts.OnPage(i+1, recs)
		res.Records = append(res.Records, recs...)
		if stop {
			break
		}
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticSnapshot struct {
	snap *models.Snapshot
}

func (s staticSnapshot) Current() *models.Snapshot { return s.snap }

func nullLogger() *logrus.Logger {
	log, _ := logtest.NewNullLogger()
	return log
}
