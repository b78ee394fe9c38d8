package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propfinder/models"
)

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	lat := -34.6
	listings := []models.RawListing{
		{
			Source:    "zonaprop",
			PortalID:  "p1",
			URL:       "https://example.com/p1",
			Title:     "Depto con \"comillas\", y comas",
			Price:     88000,
			Currency:  "USD",
			Lat:       &lat,
			ScrapedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Source:    "argenprop",
			PortalID:  "p2",
			URL:       "https://example.com/p2",
			Currency:  "ARS",
			ScrapedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	if err := w.WriteRaw(listings); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "source" || len(rows[0]) != 16 {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != listings[0].Title {
		t.Errorf("title should round-trip quoting, got %q", rows[1][3])
	}
	if rows[1][13] != "-34.600000" {
		t.Errorf("lat: got %q, want -34.600000", rows[1][13])
	}
	if rows[2][13] != "" {
		t.Errorf("missing lat should be empty, got %q", rows[2][13])
	}
}

func TestCSVWriterTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	if err := os.WriteFile(path, []byte("stale content\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "stale content\n" {
		t.Error("existing file should be truncated to the fresh header")
	}
}
