package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/pipeline"
	"github.com/pfrederiksen/museum-events/internal/publish"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// AggregateResult is what the aggregate command reports
type AggregateResult struct {
	CheckedAt   time.Time                 `json:"checked_at"`
	RunID       string                    `json:"run_id"`
	FeedPath    string                    `json:"feed_path"`
	TotalEvents int                       `json:"total_events"`
	NewEvents   []*event.Event            `json:"new_events"`
	EventCount  int                       `json:"event_count"`
	ByVenue     map[string][]*event.Event `json:"by_venue,omitempty"`
	Sources     []pipeline.SourceReport   `json:"sources"`
	Failed      []pipeline.SourceReport   `json:"failed"`
	Upload      *publish.UploadResult     `json:"upload,omitempty"`
}

// ListResult is what the list command reports
type ListResult struct {
	Filter     string         `json:"filter"`
	Events     []*event.Event `json:"events"`
	EventCount int            `json:"event_count"`
}

// WriteAggregate writes the aggregate result in the specified format
func WriteAggregate(w io.Writer, result *AggregateResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeAggregateText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteList writes the list result in the specified format
func WriteList(w io.Writer, result *ListResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		if result.EventCount == 0 {
			fmt.Fprintln(w, "No events found.")
			return nil
		}
		writeEventTable(w, result.Events)
		fmt.Fprintf(w, "\nTotal: %d events (%s)\n", result.EventCount, result.Filter)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeAggregateText(w io.Writer, result *AggregateResult, verbose bool) error {
	fmt.Fprintf(w, "Wrote %d events to %s\n", result.TotalEvents, result.FeedPath)

	fmt.Fprintln(w, "\nSources:")
	rows := [][]string{{"VENUE", "STRATEGY", "RECORDS", "EVENTS", "STATUS"}}
	for _, s := range result.Sources {
		status := "ok"
		if s.Failure != "" {
			status = string(s.Failure)
		} else if s.Events == 0 {
			status = "no events"
		}
		strategy := s.Strategy
		if strategy == "" {
			strategy = "-"
		}
		rows = append(rows, []string{s.VenueID, strategy, fmt.Sprint(s.Records), fmt.Sprint(s.Events), status})
	}
	writeTable(w, rows)

	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "\nSources without events (%d):\n", len(result.Failed))
		for _, s := range result.Failed {
			reason := string(s.Failure)
			if reason == "" {
				reason = "no events"
			}
			if s.Error != "" {
				reason += ": " + s.Error
			}
			fmt.Fprintf(w, "  %s  %s\n", s.VenueID, reason)
		}
	}

	if verbose {
		for _, s := range result.Sources {
			for reason, n := range s.Skipped {
				fmt.Fprintf(w, "  %s skipped %d (%s)\n", s.VenueID, n, reason)
			}
		}
	}

	if result.Upload != nil {
		fmt.Fprintf(w, "\nPublished %d bytes to %s\n", result.Upload.Size, result.Upload.PublicURL)
	}

	if result.EventCount == 0 {
		fmt.Fprintln(w, "\nNo new events found.")
		return nil
	}

	fmt.Fprintf(w, "\nNew events (%d):\n", result.EventCount)
	writeEventTable(w, result.NewEvents)
	return nil
}

func writeEventTable(w io.Writer, events []*event.Event) {
	rows := [][]string{{"DATE", "TIME", "VENUE", "TYPE", "TITLE"}}
	for _, evt := range events {
		rows = append(rows, []string{
			evt.Date,
			evt.Time,
			evt.VenueName,
			evt.Type,
			runewidth.Truncate(evt.Title, 60, "..."),
		})
	}
	writeTable(w, rows)
}

// writeTable left-aligns columns by display width so wide characters line up
func writeTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if width := runewidth.StringWidth(row[i]); width > widths[i] {
				widths[i] = width
			}
		}
	}

	for _, row := range rows {
		var sb strings.Builder
		for i := 0; i < len(widths); i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i == len(widths)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}
