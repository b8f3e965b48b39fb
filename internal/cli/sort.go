package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/museum-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByVenue SortOrder = "venue"
	SortByTitle SortOrder = "title"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByVenue, SortByTitle:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'date', 'venue' or 'title')", s)
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByVenue:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].VenueID != events[j].VenueID {
				return events[i].VenueID < events[j].VenueID
			}
			// If venues are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate reports whether i comes before j. Events with a valid date
// come first; ties break on venue then title.
func compareByDate(i, j *event.Event) bool {
	dateI := i.ParsedDate()
	dateJ := j.ParsedDate()

	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
	} else if !dateI.IsZero() {
		return true
	} else if !dateJ.IsZero() {
		return false
	}

	if i.VenueID != j.VenueID {
		return i.VenueID < j.VenueID
	}
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
