package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stocksync/internal/config"
	"stocksync/internal/downloader"
	"stocksync/internal/history"
	"stocksync/internal/listing"
	"stocksync/internal/progress"
	"stocksync/internal/report"
	"stocksync/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received interrupt signal, shutting down")
		cancel()
	}()

	// Acquire the symbol list (same-day cache, live fetch, fallbacks)
	listClient := listing.New(listing.Options{
		BaseURL:   cfg.ListingBaseURL,
		CachePath: cfg.ListCachePath,
		Threshold: cfg.ListingThreshold,
		Logger:    logger,
	})
	items := listClient.Symbols(ctx)
	logger.WithField("count", len(items)).Info("symbol list ready")

	// Wire the downloader core
	st := store.New(cfg.DataDir, cfg.DataExpiry(), cfg.MinArtifactBytes)
	client := history.NewClient(cfg.ChartBaseURL, cfg.HistoryRange, cfg.FetchTimeout())
	reporter := progress.NewReporter(progress.Options{Total: len(items)})

	dl := downloader.New(client, st, downloader.Options{
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		Progress:    reporter,
		Logger:      logger,
	})

	start := time.Now()
	reporter.Start()
	stats := dl.Run(ctx, items)
	reporter.Stop()

	logger.WithFields(logrus.Fields{
		"total":    stats.Total,
		"success":  stats.Success,
		"fail":     stats.Fail,
		"duration": time.Since(start).Round(time.Second).String(),
	}).Info("run complete")

	// Email the run report; delivery problems are logged, never fatal
	if !cfg.ReportEnabled() {
		logger.Warn("report email disabled (RESEND_API_KEY or REPORT_TO unset)")
		return
	}

	now := time.Now()
	mailer := report.NewMailer(cfg.ResendAPIKey, cfg.ResendBaseURL, cfg.ReportFrom, cfg.Recipients())
	html := report.Render(cfg.MarketName, stats, now)
	if err := mailer.Send(ctx, report.Subject(cfg.MarketName, now), html); err != nil {
		logger.WithError(err).Error("report email failed")
		return
	}
	logger.Info("report email sent")
}

// newLogger builds the process logger. Bad level strings fall back to info
// rather than aborting a batch run over a typo.
func newLogger(level string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
