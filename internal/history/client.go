package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"stocksync/internal/ratelimit"
	"stocksync/internal/symbol"
)

// Bar is one daily price bar. Date is a timezone-naive calendar date:
// the provider timestamp is interpreted as UTC and the offset stripped.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// chartResponse mirrors the provider's v8 chart payload. Quote arrays use
// pointers because the provider emits null for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches daily history bars from the chart API. It performs no
// retrying of its own: the downloader's retry policy owns that, one layer up.
type Client struct {
	client  *resty.Client
	window  string
	timeout time.Duration
}

// NewClient creates a chart API client. window is the history range
// requested per fetch (e.g. "2y"); timeout bounds each individual request.
func NewClient(baseURL, window string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		// The endpoint rejects the default Go user agent
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) stocksync/1.0")

	return &Client{
		client:  client,
		window:  window,
		timeout: timeout,
	}
}

// Fetch retrieves daily bars for sym. A well-formed response with no rows
// returns (nil, nil); the caller distinguishes that soft signal from a
// *RemoteError, which covers timeouts, bad statuses and malformed payloads.
func (c *Client) Fetch(ctx context.Context, sym symbol.Symbol) ([]Bar, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIChart); err != nil {
		return nil, NewNetworkError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result chartResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("ticker", sym.QueryKey()).
		SetQueryParams(map[string]string{
			"range":          c.window,
			"interval":       "1d",
			"includePrePost": "false",
		}).
		SetResult(&result).
		Get("/v8/finance/chart/{ticker}")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, ClassifyHTTPError(resp.StatusCode())
	}

	if result.Chart.Error != nil {
		return nil, NewMalformedError(fmt.Sprintf("provider error %s: %s",
			result.Chart.Error.Code, result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 {
		return nil, NewMalformedError("no result in chart response")
	}

	res := result.Chart.Result[0]
	if len(res.Timestamp) == 0 {
		// Well-formed but empty: the instrument has no bars in the window
		return nil, nil
	}

	if len(res.Indicators.Quote) == 0 {
		return nil, NewMalformedError("no quote data in chart response")
	}

	q := res.Indicators.Quote[0]
	n := len(res.Timestamp)
	if len(q.Open) != n || len(q.High) != n || len(q.Low) != n ||
		len(q.Close) != n || len(q.Volume) != n {
		return nil, NewMalformedError("misaligned quote arrays in chart response")
	}

	bars := make([]Bar, 0, n)
	for i, ts := range res.Timestamp {
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil ||
			q.Close[i] == nil || q.Volume[i] == nil {
			// Halted or partial session, skip the row
			continue
		}
		bars = append(bars, Bar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   *q.Open[i],
			High:   *q.High[i],
			Low:    *q.Low[i],
			Close:  *q.Close[i],
			Volume: *q.Volume[i],
		})
	}

	return bars, nil
}
