package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/museum-events/internal/venue"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeff Name ,Date,\nTalk A,2025-07-10,www.moma.org/a\nShort row\nLong,2025-07-11,x,extra\n"

	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0]["Name"] != "Talk A" {
		t.Errorf("BOM and spaces should be stripped from header, got row %v", rows[0])
	}
	if rows[0][""] != "www.moma.org/a" {
		t.Errorf("unnamed column = %q, want www.moma.org/a", rows[0][""])
	}
	if rows[1]["Name"] != "Short row" || rows[1]["Date"] != "" {
		t.Errorf("short row = %v", rows[1])
	}
	if rows[2]["_3"] != "extra" {
		t.Errorf("extra column = %q, want extra", rows[2]["_3"])
	}
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestCSVAdapter_Fixture(t *testing.T) {
	a := NewCSVAdapter(filepath.Join("testdata", "MoMA_events.csv"))

	rows, err := a.FetchRawRecords(context.Background())
	if err != nil {
		t.Fatalf("FetchRawRecords() error = %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0]["More Info:"] != "www.moma.org/calendar/events/1" {
		t.Errorf("More Info: = %q", rows[0]["More Info:"])
	}
	if rows[1]["Short Description"] != "A screening, with discussion" {
		t.Errorf("quoted field = %q", rows[1]["Short Description"])
	}
	if rows[1][""] != "https://www.moma.org/calendar/film/2" {
		t.Errorf("unnamed column = %q", rows[1][""])
	}
	if !rows[2].IsBlank() {
		t.Errorf("expected row 3 to be blank, got %v", rows[2])
	}
}

func TestCSVAdapter_Errors(t *testing.T) {
	if _, err := NewCSVAdapter().FetchRawRecords(context.Background()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("error = %v, want ErrNoFiles", err)
	}

	missing := NewCSVAdapter(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := missing.FetchRawRecords(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDiscoverCSV(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"MoMA_events.csv", "The_Met_events.csv", "met_extra.csv", "random.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Name\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	reg, err := venue.NewRegistry(venue.Defaults())
	if err != nil {
		t.Fatal(err)
	}

	byVenue, unmatched, err := DiscoverCSV(dir, reg)
	if err != nil {
		t.Fatalf("DiscoverCSV() error = %v", err)
	}

	if len(byVenue["moma"]) != 1 {
		t.Errorf("moma files = %v, want 1", byVenue["moma"])
	}
	if len(byVenue["met"]) != 2 {
		t.Errorf("met files = %v, want 2", byVenue["met"])
	}
	if len(unmatched) != 1 || filepath.Base(unmatched[0]) != "random.csv" {
		t.Errorf("unmatched = %v, want [random.csv]", unmatched)
	}
}
