package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical calendar date format of the feed
	DateLayout = "2006-01-02"

	// PlaceholderTime is shown when no usable time is available
	PlaceholderTime = "See website for time"

	// DefaultType is used when a source gives no type and classification finds none
	DefaultType = "Special Event"
)

// Event is a single normalized museum event as published in the feed
type Event struct {
	ID          string `json:"id"`
	VenueID     string `json:"museum"`
	VenueName   string `json:"museumName"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location"`
	URL         string `json:"url"`
}

// Partial holds the fields extracted from one raw record before an id is assigned
type Partial struct {
	Title           string
	Date            string
	DatePlaceholder bool
	Time            string
	Type            string
	Description     string
	Location        string
	URL             string
}

// Feed is the JSON document consumed by the website
type Feed struct {
	LastUpdated time.Time    `json:"last_updated"`
	Events      []*Event     `json:"events"`
	Metadata    FeedMetadata `json:"metadata"`
}

// FeedMetadata summarizes a feed
type FeedMetadata struct {
	TotalEvents    int      `json:"total_events"`
	MuseumsScraped []string `json:"museums_scraped"`
}

// ParsedDate returns the event date as a time.Time in UTC.
// Returns the zero time if the date is not a valid ISO date.
func (e *Event) ParsedDate() time.Time {
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StableKey identifies the same event across runs, independent of the
// run-specific sequence number in ID
func (e *Event) StableKey() string {
	return GenerateStableKey(e.VenueID, e.Title, e.Date)
}

// GenerateStableKey hashes venue, normalized title, and date
func GenerateStableKey(venueID, title, date string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))

	h := sha1.New()
	h.Write([]byte(venueID + "|" + normalized + "|" + date))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// CompactDate turns 2025-07-15 into 20250715
func CompactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}
