package event

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/pfrederiksen/museum-events/internal/venue"
)

// IDScheme selects how event ids are derived
type IDScheme string

const (
	// IDSchemeSequence produces <venue>-<sequence>-<YYYYMMDD>
	IDSchemeSequence IDScheme = "sequence"
	// IDSchemeHash produces <venue>-<first 12 hex chars of sha1(title|date|venue)>
	IDSchemeHash IDScheme = "hash"
)

// TimePolicy selects the time shown when a record has none
type TimePolicy string

const (
	TimePolicyPlaceholder TimePolicy = "placeholder"
	TimePolicyByType      TimePolicy = "by_type"
)

// BuildOptions controls Build
type BuildOptions struct {
	IDScheme   IDScheme
	TimePolicy TimePolicy
}

// Build assembles a normalized Event from extracted fields and the venue profile.
// sequence is the per-venue counter value reserved for this record.
func Build(p *Partial, v venue.Profile, sequence int, opts BuildOptions) *Event {
	title := strings.TrimSpace(p.Title)
	description := strings.TrimSpace(p.Description)

	eventType := strings.TrimSpace(p.Type)
	if eventType == "" {
		eventType = Classify(title, description)
	}

	eventTime := strings.TrimSpace(p.Time)
	if eventTime == "" || eventTime == PlaceholderTime {
		eventTime = PlaceholderTime
		if opts.TimePolicy == TimePolicyByType {
			eventTime = DefaultTime(eventType)
		}
	}

	location := strings.TrimSpace(p.Location)
	if location == "" || v.IsSelfReference(location) {
		location = v.DefaultLocation
	}

	url := strings.TrimSpace(p.URL)
	if url == "" {
		url = v.BaseURL
	}

	return &Event{
		ID:          generateID(v.ID, title, p.Date, sequence, opts.IDScheme),
		VenueID:     v.ID,
		VenueName:   v.DisplayName,
		Title:       title,
		Type:        eventType,
		Date:        p.Date,
		Time:        eventTime,
		Description: description,
		Location:    location,
		URL:         url,
	}
}

func generateID(venueID, title, date string, sequence int, scheme IDScheme) string {
	if scheme == IDSchemeHash {
		sum := sha1.Sum([]byte(title + "|" + date + "|" + venueID))
		return fmt.Sprintf("%s-%x", venueID, sum[:6])
	}
	return fmt.Sprintf("%s-%d-%s", venueID, sequence, CompactDate(date))
}
