package event

import "sort"

// DiffResult contains the events that are new relative to a previous feed
type DiffResult struct {
	NewEvents []*Event
	ByVenue   map[string][]*Event // new events grouped by venue id
}

// Diff compares current events against a previously published feed and
// returns the events whose stable key the previous feed does not contain.
// A nil previous feed makes every current event new.
func Diff(previous *Feed, current []*Event) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Event, 0),
		ByVenue:   make(map[string][]*Event),
	}

	known := make(map[string]bool)
	if previous != nil {
		for _, evt := range previous.Events {
			known[evt.StableKey()] = true
		}
	}

	for _, evt := range current {
		if known[evt.StableKey()] {
			continue
		}
		result.NewEvents = append(result.NewEvents, evt)
		result.ByVenue[evt.VenueID] = append(result.ByVenue[evt.VenueID], evt)
	}

	// Sort new events for consistent output
	sort.SliceStable(result.NewEvents, func(i, j int) bool {
		a, b := result.NewEvents[i], result.NewEvents[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.VenueID != b.VenueID {
			return a.VenueID < b.VenueID
		}
		return a.Title < b.Title
	})

	for venueID := range result.ByVenue {
		group := result.ByVenue[venueID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date < group[j].Date
		})
	}

	return result
}

// Venues returns the venue ids that have new events, sorted
func (r *DiffResult) Venues() []string {
	venues := make([]string, 0, len(r.ByVenue))
	for v := range r.ByVenue {
		venues = append(venues, v)
	}
	sort.Strings(venues)
	return venues
}
