package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"resty.dev/v3"

	"stocksync/internal/ratelimit"
)

// validPrefixes covers the main boards, the SME/ChiNext boards and STAR;
// everything else on the spot tables (B shares, funds, bonds) is dropped.
var validPrefixes = []string{
	"000", "001", "002", "003", "300", "301",
	"600", "601", "603", "605", "688",
}

// fallbackSymbols keeps a run alive when both the endpoint and the cache
// are unavailable.
var fallbackSymbols = []string{
	"600519&貴州茅台",
	"000001&平安銀行",
	"300750&寧德時代",
}

// EastMoney market filters: Shanghai main board + STAR, Shenzhen main
// board + ChiNext.
const (
	shMarkets = "m:1+t:2,m:1+t:23"
	szMarkets = "m:0+t:6,m:0+t:80"
)

const (
	defaultRetryCount       = 2
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 5 * time.Second
)

// Options configures the listing client.
type Options struct {
	// BaseURL of the spot-table endpoint.
	BaseURL string

	// CachePath is the on-disk location of the same-day symbol list cache.
	CachePath string

	// Threshold is the minimum count for a fetched list to be considered
	// complete. Default: 4500 (the A-share universe is comfortably above it).
	Threshold int

	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// Client acquires the symbol list, preferring a same-day on-disk cache over
// the network and degrading to stale caches and a built-in fallback.
type Client struct {
	client *resty.Client
	opts   Options
	log    *logrus.Logger

	now func() time.Time
}

// New creates a listing client.
func New(opts Options) *Client {
	if opts.Threshold <= 0 {
		opts.Threshold = 4500
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition)

	return &Client{
		client: client,
		opts:   opts,
		log:    opts.Logger,
		now:    time.Now,
	}
}

// retryCondition retries network errors, server errors and throttling.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r.StatusCode() >= 500 || r.StatusCode() == 429
}

// spotResponse mirrors the clist payload: f12 is the bare code, f14 the
// display name.
type spotResponse struct {
	Data *struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// Symbols returns the identifier list for this run. Resolution order:
// same-day cache, live fetch (cached on success), stale cache, built-in
// fallback. It never fails outright; worst case the run covers only the
// fallback symbols.
func (c *Client) Symbols(ctx context.Context) []string {
	if items, ok := c.cachedToday(); ok {
		c.log.WithField("count", len(items)).Info("using same-day symbol list cache")
		return items
	}

	items, err := c.fetchAll(ctx)
	if err == nil && len(items) >= c.opts.Threshold {
		c.log.WithField("count", len(items)).Info("fetched symbol list")
		if werr := c.writeCache(items); werr != nil {
			c.log.WithError(werr).Warn("could not write symbol list cache")
		}
		return items
	}
	if err != nil {
		c.log.WithError(err).Warn("symbol list fetch failed")
	} else {
		c.log.WithField("count", len(items)).Warn("fetched symbol list implausibly small, discarding")
	}

	// A stale cache still beats the built-in fallback.
	if items, rerr := c.readCache(); rerr == nil && len(items) > 0 {
		c.log.WithField("count", len(items)).Warn("falling back to stale symbol list cache")
		return items
	}

	c.log.Warn("no symbol list available, using built-in fallback")
	return fallbackSymbols
}

func (c *Client) fetchAll(ctx context.Context) ([]string, error) {
	var out []string
	for _, fs := range []string{shMarkets, szMarkets} {
		batch, err := c.fetchMarket(ctx, fs)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) fetchMarket(ctx context.Context, fs string) ([]string, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIListing); err != nil {
		return nil, err
	}

	var result spotResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"pn":     "1",
			"pz":     "10000",
			"np":     "1",
			"fltt":   "2",
			"fields": "f12,f14",
			"fs":     fs,
		}).
		SetResult(&result).
		Get("/api/qt/clist/get")

	if err != nil {
		return nil, fmt.Errorf("fetch symbol list: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("symbol list endpoint returned status %d", resp.StatusCode())
	}
	if result.Data == nil {
		return nil, fmt.Errorf("symbol list response missing data")
	}

	out := make([]string, 0, len(result.Data.Diff))
	for _, row := range result.Data.Diff {
		code := zeroPad(row.Code)
		if !hasValidPrefix(code) {
			continue
		}
		out = append(out, code+"&"+row.Name)
	}
	return out, nil
}

// cachedToday returns the cached list if the cache file was written today
// and holds a plausible number of entries.
func (c *Client) cachedToday() ([]string, bool) {
	info, err := os.Stat(c.opts.CachePath)
	if err != nil {
		return nil, false
	}

	ny, nm, nd := c.now().Date()
	my, mm, md := info.ModTime().Date()
	if ny != my || nm != mm || nd != md {
		return nil, false
	}

	items, err := c.readCache()
	if err != nil || len(items) < c.opts.Threshold {
		return nil, false
	}
	return items, true
}

func (c *Client) readCache() ([]string, error) {
	data, err := os.ReadFile(c.opts.CachePath)
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode symbol list cache: %w", err)
	}
	return items, nil
}

func (c *Client) writeCache(items []string) error {
	if err := os.MkdirAll(filepath.Dir(c.opts.CachePath), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return os.WriteFile(c.opts.CachePath, data, 0o644)
}

func zeroPad(code string) string {
	for len(code) < 6 {
		code = "0" + code
	}
	return code
}

func hasValidPrefix(code string) bool {
	for _, p := range validPrefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}
