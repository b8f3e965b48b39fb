package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/museum-events/internal/event"
)

// Cutoff modes accepted by ResolveCutoff besides a fixed YYYY-MM-DD date
const (
	CutoffMonth = "month"
	CutoffToday = "today"
	CutoffNone  = "none"
)

// Aggregator merges event lists into a feed
type Aggregator struct {
	// Cutoff is the earliest ISO date kept. Empty keeps every date.
	Cutoff string
	// PlaceholderDate always passes the cutoff
	PlaceholderDate string
	Now             func() time.Time
}

// Aggregate concatenates the lists in order, drops duplicates (first wins),
// drops events before the cutoff, and sorts the rest by date.
// A nil or empty list stands for a source that produced nothing.
func (a *Aggregator) Aggregate(ctx *Context, lists [][]*event.Event) *event.Feed {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	events := make([]*event.Event, 0)
	for _, list := range lists {
		for _, e := range list {
			if e == nil || !ctx.accept(e) {
				continue
			}
			if !a.keep(e) {
				ctx.stats.BeforeCutoff++
				continue
			}
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})

	return &event.Feed{
		LastUpdated: now().UTC().Truncate(time.Second),
		Events:      events,
		Metadata: event.FeedMetadata{
			TotalEvents:    len(events),
			MuseumsScraped: venuesOf(events),
		},
	}
}

func (a *Aggregator) keep(e *event.Event) bool {
	if a.PlaceholderDate != "" && e.Date == a.PlaceholderDate {
		return true
	}
	return a.Cutoff == "" || e.Date >= a.Cutoff
}

func venuesOf(events []*event.Event) []string {
	seen := make(map[string]bool)
	venues := make([]string, 0)
	for _, e := range events {
		if !seen[e.VenueID] {
			seen[e.VenueID] = true
			venues = append(venues, e.VenueID)
		}
	}
	sort.Strings(venues)
	return venues
}

// ResolveCutoff turns a cutoff setting into an ISO date.
// "month" is the first day of the current month, "today" is the current
// date, "none" or "" disables the cutoff, anything else must be YYYY-MM-DD.
func ResolveCutoff(setting string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", CutoffNone:
		return "", nil
	case CutoffMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(event.DateLayout), nil
	case CutoffToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(event.DateLayout), nil
	}

	t, err := time.Parse(event.DateLayout, strings.TrimSpace(setting))
	if err != nil {
		return "", fmt.Errorf("invalid cutoff %q: %w", setting, err)
	}
	return t.Format(event.DateLayout), nil
}
