package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"stocksync/internal/history"
	"stocksync/internal/symbol"
)

// Spreadsheet tools only detect UTF-8 in CSV files via a BOM, and the
// artifact names and contents carry CJK text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// Store persists per-symbol history artifacts under a single directory and
// answers freshness checks from filesystem metadata alone.
type Store struct {
	dir      string
	expiry   time.Duration
	minBytes int64
}

// New creates a Store rooted at dir. An artifact counts as fresh while it
// is younger than expiry and larger than minBytes.
func New(dir string, expiry time.Duration, minBytes int64) *Store {
	return &Store{
		dir:      dir,
		expiry:   expiry,
		minBytes: minBytes,
	}
}

// Path returns the artifact location for sym.
func (s *Store) Path(sym symbol.Symbol) string {
	return filepath.Join(s.dir, sym.ArtifactName())
}

// IsFresh reports whether the artifact for sym exists, is younger than the
// expiry threshold, and is large enough to be a plausible history table.
// Undersized files are treated as corrupt regardless of age. The check
// never touches the network or the file contents.
func (s *Store) IsFresh(sym symbol.Symbol) bool {
	info, err := os.Stat(s.Path(sym))
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) >= s.expiry {
		return false
	}
	return info.Size() > s.minBytes
}

// Write replaces the artifact for sym with bars. The table is staged in a
// temp file in the same directory and renamed into place, so a failed
// write never leaves a partial file at the final path.
func (s *Store) Write(sym symbol.Symbol, bars []history.Bar) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".stocksync-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}

	if err := writeTable(tmp, bars); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact for %s: %w", sym.Code, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(sym)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace artifact for %s: %w", sym.Code, err)
	}

	return nil
}

// writeTable writes the BOM, the lower-cased header and one row per bar.
func writeTable(f *os.File, bars []history.Bar) error {
	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Date.Format("2006-01-02"),
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
			formatPrice(b.Volume),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
