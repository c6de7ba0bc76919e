package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stocksync/internal/history"
	"stocksync/internal/symbol"
)

func testBars(n int) []history.Bar {
	bars := make([]history.Bar, n)
	for i := range bars {
		bars[i] = history.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   100.5,
			High:   102,
			Low:    99.25,
			Close:  101,
			Volume: 12345,
		}
	}
	return bars
}

func TestIsFresh(t *testing.T) {
	sym := symbol.Symbol{Code: "600519", Name: "Kweichow Moutai"}

	tests := []struct {
		name  string
		setup func(t *testing.T, s *Store)
		want  bool
	}{
		{
			name:  "missing artifact",
			setup: func(t *testing.T, s *Store) {},
			want:  false,
		},
		{
			name: "fresh and large enough",
			setup: func(t *testing.T, s *Store) {
				if err := s.Write(sym, testBars(20)); err != nil {
					t.Fatalf("Write() failed: %v", err)
				}
			},
			want: true,
		},
		{
			name: "stale artifact",
			setup: func(t *testing.T, s *Store) {
				if err := s.Write(sym, testBars(20)); err != nil {
					t.Fatalf("Write() failed: %v", err)
				}
				old := time.Now().Add(-2 * time.Hour)
				if err := os.Chtimes(s.Path(sym), old, old); err != nil {
					t.Fatalf("Chtimes() failed: %v", err)
				}
			},
			want: false,
		},
		{
			name: "undersized artifact",
			setup: func(t *testing.T, s *Store) {
				// A header-only file is below the corruption threshold
				if err := s.Write(sym, nil); err != nil {
					t.Fatalf("Write() failed: %v", err)
				}
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(t.TempDir(), time.Hour, 100)
			tt.setup(t, s)
			if got := s.IsFresh(sym); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrite_Contents(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, 100)
	sym := symbol.Symbol{Code: "600519", Name: "貴州茅台"}

	if err := s.Write(sym, testBars(2)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	wantPath := filepath.Join(dir, "600519_貴州茅台.csv")
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("artifact not found at %s: %v", wantPath, err)
	}

	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("artifact is missing the UTF-8 BOM")
	}

	body := string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 3 {
		t.Fatalf("artifact has %d lines, want 3 (header + 2 rows)", len(lines))
	}
	if lines[0] != "date,open,high,low,close,volume" {
		t.Errorf("header = %q, want lower-cased column names", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-01-01,") {
		t.Errorf("first row = %q, want a normalized date prefix", lines[1])
	}
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, 10)
	sym := symbol.Symbol{Code: "000001", Name: "Ping An Bank"}

	if err := s.Write(sym, testBars(5)); err != nil {
		t.Fatalf("first Write() failed: %v", err)
	}
	if err := s.Write(sym, testBars(2)); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	data, err := os.ReadFile(s.Path(sym))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("artifact has %d lines after overwrite, want 3 (full replace)", len(lines))
	}
}

func TestWrite_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, 10)
	sym := symbol.Symbol{Code: "600519", Name: "Kweichow Moutai"}

	// A non-empty directory at the artifact path makes the final rename fail
	if err := os.MkdirAll(filepath.Join(s.Path(sym), "blocker"), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}

	if err := s.Write(sym, testBars(3)); err == nil {
		t.Fatal("Write() succeeded, want an error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".stocksync-") {
			t.Errorf("failed write left temp file behind: %s", e.Name())
		}
	}

	info, err := os.Stat(s.Path(sym))
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("failed write replaced the final path with a file")
	}
}

func TestWrite_NoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, 10)
	sym := symbol.Symbol{Code: "300750", Name: "CATL"}

	if err := s.Write(sym, testBars(3)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".stocksync-") {
			t.Errorf("stray temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want exactly the artifact", len(entries))
	}
}
