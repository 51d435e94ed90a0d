// Package pncp talks to the public PNCP consultation API.
package pncp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

const (
	// DefaultBaseURL is the public consultation API root.
	DefaultBaseURL = "https://pncp.gov.br/api/consulta/v1"

	EndpointNotices   = "/contratacoes/publicacao"
	EndpointMinutes   = "/atas"
	EndpointContracts = "/contratos"
	EndpointProposals = "/contratacoes/proposta"

	defaultUserAgent    = "pncp-vagas/1.0"
	defaultRetryBackoff = 900 * time.Millisecond
	maxResponseBytes    = 64 << 20
)

// DefaultModalities are the procurement modality codes queried on every run.
var DefaultModalities = []string{"6", "8", "2", "3", "7"}

// Config configures a Client.
type Config struct {
	BaseURL           string
	UserAgent         string
	RetryBackoff      time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches pages from the PNCP API. All sessions share its limiter.
type Client struct {
	baseURL      string
	userAgent    string
	retryBackoff time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *logrus.Entry

	pages    atomic.Int64
	records  atomic.Int64
	retries  atomic.Int64
	timeouts atomic.Int64
	failures atomic.Int64
}

// NewClient builds an API client.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Client{
		baseURL:      strings.TrimRight(base, "/"),
		userAgent:    ua,
		retryBackoff: backoff,
		// Per-request timeouts come from the request context.
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.WithField("component", "pncp"),
	}
}

// URL resolves an endpoint path against the base URL. Absolute URLs are
// returned unchanged.
func (c *Client) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// Stats returns the upstream counters since the client was created.
func (c *Client) Stats() models.UpstreamMetrics {
	return models.UpstreamMetrics{
		Pages:    c.pages.Load(),
		Records:  c.records.Load(),
		Retries:  c.retries.Load(),
		Timeouts: c.timeouts.Load(),
		Errors:   c.failures.Load(),
	}
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// get performs one GET bounded by timeout. Cancellation of ctx is reported
// as ErrCancelled, expiry of the per-request timeout as *TimeoutError.
func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, Cancelled(ctx)
		}
		return nil, &RequestError{URL: rawURL, Cause: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, rawURL, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.classify(ctx, reqCtx, rawURL, timeout, err)
	}

	return &response{status: resp.StatusCode, body: body}, nil
}

func (c *Client) classify(ctx, reqCtx context.Context, rawURL string, timeout time.Duration, err error) error {
	if ctx.Err() != nil {
		return Cancelled(ctx)
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		c.timeouts.Add(1)
		return &TimeoutError{URL: rawURL, Timeout: timeout}
	}
	return &RequestError{URL: rawURL, Cause: err}
}

// getPage fetches and decodes one page, applying the page-size fallback and
// the 429/5xx retry. It returns the query that finally succeeded.
func (c *Client) getPage(ctx context.Context, endpoint string, q url.Values, timeout time.Duration) (*page, url.Values, error) {
	resp, err := c.get(ctx, c.URL(endpoint)+"?"+q.Encode(), timeout)
	if err != nil {
		return nil, q, err
	}
	if resp.ok() {
		return c.decode(endpoint, resp, q)
	}

	log := c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "status": resp.status, "page": q.Get("pagina")})

	switch {
	case resp.status == http.StatusBadRequest && q.Has("tamanhoPagina"):
		if reduced, ok := reducePageSize(q); ok {
			log.WithField("page_size", reduced.Get("tamanhoPagina")).Warn("PNCP rejected page size, retrying with a smaller one")
			c.retries.Add(1)
			resp, err = c.get(ctx, c.URL(endpoint)+"?"+reduced.Encode(), timeout)
			if err != nil {
				return nil, q, err
			}
			if resp.ok() {
				return c.decode(endpoint, resp, reduced)
			}
		}

		without := cloneValues(q)
		without.Del("tamanhoPagina")
		log.Warn("PNCP rejected page size, retrying without it")
		c.retries.Add(1)
		resp, err = c.get(ctx, c.URL(endpoint)+"?"+without.Encode(), timeout)
		if err != nil {
			return nil, q, err
		}
		if resp.ok() {
			return c.decode(endpoint, resp, without)
		}

	case resp.status == http.StatusTooManyRequests || resp.status >= 500 && resp.status <= 599:
		log.WithField("backoff", c.retryBackoff).Warn("PNCP request failed, retrying once")
		c.retries.Add(1)
		if err := Sleep(ctx, c.retryBackoff); err != nil {
			return nil, q, err
		}
		resp, err = c.get(ctx, c.URL(endpoint)+"?"+q.Encode(), timeout)
		if err != nil {
			return nil, q, err
		}
		if resp.ok() {
			return c.decode(endpoint, resp, q)
		}
	}

	c.failures.Add(1)
	return nil, q, &HTTPError{URL: c.URL(endpoint), Status: resp.status, Body: snippet(resp.body)}
}

func (c *Client) decode(endpoint string, resp *response, q url.Values) (*page, url.Values, error) {
	p, err := decodePage(resp.body)
	if err != nil {
		c.failures.Add(1)
		return nil, q, &ParseError{URL: c.URL(endpoint), Status: resp.status, Body: snippet(resp.body), Cause: err}
	}
	c.pages.Add(1)
	c.records.Add(int64(len(p.records)))
	return p, q, nil
}

// reducePageSize caps the page size at 100, or halves it when already at or
// below the cap.
func reducePageSize(q url.Values) (url.Values, bool) {
	size, err := strconv.Atoi(q.Get("tamanhoPagina"))
	if err != nil || size <= 1 {
		return nil, false
	}
	next := size / 2
	if size > maxFallbackPageSize {
		next = maxFallbackPageSize
	}
	reduced := cloneValues(q)
	reduced.Set("tamanhoPagina", strconv.Itoa(next))
	return reduced, true
}

const maxFallbackPageSize = 100

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return Cancelled(ctx)
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Cancelled(ctx)
	case <-t.C:
		return nil
	}
}
