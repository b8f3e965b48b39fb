// Package filter narrows a feed down to the events a reader cares about.
//
// Criteria combine with AND; within a list criterion any entry may match:
//   - Date range (from/to dates, inclusive)
//   - Venues (venue id, case-insensitive)
//   - Types (event type, case-insensitive)
//   - Keywords (substring of title or description, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Venues = []string{"moma"}
//	f.WeekendsOnly = true
//	upcoming := f.Apply(feed.Events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/museum-events/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Venue id filtering (case-insensitive exact match)
	Venues []string `json:"venues,omitempty"`

	// Event type filtering (case-insensitive exact match)
	Types []string `json:"types,omitempty"`

	// Keyword filtering over title and description
	Keywords []string `json:"keywords,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Venues:   []string{},
		Types:    []string{},
		Keywords: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Venues) == 0 &&
		len(f.Types) == 0 &&
		len(f.Keywords) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if an event matches all active filter criteria.
// Date criteria only apply to events whose date parses.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if date := evt.ParsedDate(); !date.IsZero() {
		if f.DateFrom != nil && date.Before(truncateDay(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
		if f.WeekendsOnly {
			weekday := date.Weekday()
			if weekday != time.Saturday && weekday != time.Sunday {
				return false
			}
		}
	}

	if len(f.Venues) > 0 && !anyEqualFold(f.Venues, evt.VenueID) {
		return false
	}

	if len(f.Types) > 0 && !anyEqualFold(f.Types, evt.Type) {
		return false
	}

	if len(f.Keywords) > 0 {
		haystack := strings.ToLower(evt.Title + " " + evt.Description)
		matched := false
		for _, kw := range f.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the events that match. An empty filter returns events
// unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Event, 0)
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jul 1, 2025 | To: Jul 31, 2025 | Venues: moma | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}

	if len(f.Types) > 0 {
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(f.Types, ", ")))
	}

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

func anyEqualFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
