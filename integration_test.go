package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"stocksync/internal/downloader"
	"stocksync/internal/history"
	"stocksync/internal/listing"
	"stocksync/internal/report"
	"stocksync/internal/store"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// chartJSON builds a minimal valid chart payload with enough rows to clear
// the minimum-artifact-size check.
func chartJSON(rows int) string {
	base := time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC).Unix()
	ts := make([]string, rows)
	vals := make([]string, rows)
	for i := 0; i < rows; i++ {
		ts[i] = fmt.Sprintf("%d", base+int64(i)*86400)
		vals[i] = fmt.Sprintf("%.2f", 100.0+float64(i))
	}
	t, v := strings.Join(ts, ","), strings.Join(vals, ",")
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		t, v, v, v, v, v)
}

// TestIntegration_FullRun drives listing, download and reporting against
// mock HTTP servers end to end.
func TestIntegration_FullRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// Mock listing endpoint: one Shanghai and one Shenzhen symbol
	listingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"total":2,"diff":[{"f12":"600519","f14":"Kweichow Moutai"},{"f12":"1","f14":"Ping An Bank"}]}}`)
	}))
	defer listingServer.Close()

	// Mock chart endpoint, counting requests per ticker
	var chartHits atomic.Int64
	chartServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chartHits.Add(1)
		if !strings.HasSuffix(r.URL.Path, ".SS") && !strings.HasSuffix(r.URL.Path, ".SZ") {
			t.Errorf("chart path %q missing exchange suffix", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chartJSON(60))
	}))
	defer chartServer.Close()

	// Mock Resend endpoint capturing the report
	var mailBody struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}
	var mails atomic.Int64
	resendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mails.Add(1)
		if err := json.NewDecoder(r.Body).Decode(&mailBody); err != nil {
			t.Errorf("decode mail body: %v", err)
		}
		w.Write([]byte(`{"id":"test"}`))
	}))
	defer resendServer.Close()

	workDir := t.TempDir()
	dataDir := filepath.Join(workDir, "dayK")
	ctx := context.Background()

	// Symbol list
	listClient := listing.New(listing.Options{
		BaseURL:   listingServer.URL,
		CachePath: filepath.Join(workDir, "list_cache.json"),
		Threshold: 2,
		Logger:    quietLogger(),
	})
	items := listClient.Symbols(ctx)
	if len(items) != 4 { // 2 rows per market query
		t.Fatalf("len(items) = %d, want 4", len(items))
	}

	// Downloader run over the two distinct symbols
	st := store.New(dataDir, time.Hour, 100)
	client := history.NewClient(chartServer.URL, "2y", 5*time.Second)
	dl := downloader.New(client, st, downloader.Options{
		Concurrency: 2,
		MaxRetries:  3,
		Logger:      quietLogger(),
	})

	run := []string{"600519&Kweichow Moutai", "000001&Ping An Bank"}
	stats := dl.Run(ctx, run)

	if stats.Total != 2 || stats.Success != 2 || stats.Fail != 0 {
		t.Fatalf("stats = %+v, want {Total:2 Success:2 Fail:0}", stats)
	}
	for _, name := range []string{"600519_Kweichow Moutai.csv", "000001_Ping An Bank.csv"} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// Second run hits the freshness fast path: no further chart requests
	before := chartHits.Load()
	stats2 := dl.Run(ctx, run)
	if chartHits.Load() != before {
		t.Errorf("second run made %d chart requests, want 0", chartHits.Load()-before)
	}
	if stats2.ByStatus[downloader.StatusExists] != 2 {
		t.Errorf("second run exists count = %d, want 2", stats2.ByStatus[downloader.StatusExists])
	}

	// Report delivery
	mailer := report.NewMailer("re_test", resendServer.URL, "sync@example.com", []string{"dev@example.com"})
	now := time.Now()
	if err := mailer.Send(ctx, report.Subject("CN A-Share", now), report.Render("CN A-Share", stats, now)); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if mails.Load() != 1 {
		t.Fatalf("resend requests = %d, want 1", mails.Load())
	}
	if !strings.Contains(mailBody.HTML, "Data set complete") {
		t.Errorf("report HTML missing health label, got %q", mailBody.HTML)
	}
	if !strings.Contains(mailBody.Subject, "CN A-Share") {
		t.Errorf("subject = %q", mailBody.Subject)
	}
}
