package testutil

import (
	"context"
	"time"

	"stocksync/internal/history"
	"stocksync/internal/symbol"
)

// MockHistoryClient is a mock implementation of the downloader's
// HistoryClient interface for testing
type MockHistoryClient struct {
	FetchFunc func(ctx context.Context, sym symbol.Symbol) ([]history.Bar, error)
}

// Fetch implements the HistoryClient interface
func (m *MockHistoryClient) Fetch(ctx context.Context, sym symbol.Symbol) ([]history.Bar, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, sym)
	}
	return nil, nil
}

// Bars builds n consecutive daily bars starting 2024-01-01, enough to
// exceed any reasonable minimum-size threshold when written.
func Bars(n int) []history.Bar {
	bars := make([]history.Bar, n)
	for i := range bars {
		bars[i] = history.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   100,
			High:   105,
			Low:    95,
			Close:  102.5,
			Volume: 100000,
		}
	}
	return bars
}
