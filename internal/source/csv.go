package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

// ErrNoFiles is returned by a CSV adapter with nothing to read
var ErrNoFiles = errors.New("no csv files")

const utf8BOM = "\ufeff"

// CSVAdapter reads records from one or more CSV exports
type CSVAdapter struct {
	Paths []string
}

// NewCSVAdapter creates a CSVAdapter over the given files
func NewCSVAdapter(paths ...string) *CSVAdapter {
	return &CSVAdapter{Paths: paths}
}

// Name returns the strategy name
func (a *CSVAdapter) Name() string {
	return "csv"
}

// FetchRawRecords reads every file in order
func (a *CSVAdapter) FetchRawRecords(ctx context.Context) ([]extract.RawRecord, error) {
	if len(a.Paths) == 0 {
		return nil, ErrNoFiles
	}

	records := make([]extract.RawRecord, 0)
	for _, path := range a.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
	}
	return records, nil
}

func readCSVFile(path string) ([]extract.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close() // nolint:errcheck

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// ReadCSV parses a CSV document with a header row. A UTF-8 byte order mark is
// tolerated, header names are trimmed, and rows may be shorter or longer than
// the header. Values beyond the header are keyed "_<column index>".
func ReadCSV(r io.Reader) ([]extract.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return []extract.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], utf8BOM))
	}

	records := make([]extract.RawRecord, 0)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		row := make(extract.RawRecord, len(header))
		for i, value := range fields {
			key := fmt.Sprintf("_%d", i)
			if i < len(header) {
				key = header[i]
			}
			// Repeated headers keep the first non-empty value
			if existing, ok := row[key]; ok && strings.TrimSpace(existing) != "" {
				continue
			}
			row[key] = value
		}
		records = append(records, row)
	}

	return records, nil
}

// DiscoverCSV finds *.csv files in dir and assigns each to the first venue
// whose filename keywords match. Files matching no venue are returned
// separately.
func DiscoverCSV(dir string, reg *venue.Registry) (map[string][]string, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, nil, fmt.Errorf("listing csv files: %w", err)
	}
	sort.Strings(matches)

	byVenue := make(map[string][]string)
	unmatched := make([]string, 0)
	for _, path := range matches {
		v, ok := reg.MatchFilename(filepath.Base(path))
		if !ok {
			unmatched = append(unmatched, path)
			continue
		}
		byVenue[v.ID] = append(byVenue[v.ID], path)
	}

	return byVenue, unmatched, nil
}
