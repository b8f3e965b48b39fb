// Package aggregate merges per-source event lists into a single feed.
package aggregate

import (
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/logger"
)

// signatureTitleRunes is how much of the title takes part in deduplication
const signatureTitleRunes = 50

// Signature identifies duplicate listings of one event across sources
type Signature struct {
	VenueID     string
	Date        string
	TitlePrefix string
}

// SignatureOf computes the dedup signature of an event
func SignatureOf(e *event.Event) Signature {
	title := strings.TrimSpace(e.Title)
	if utf8.RuneCountInString(title) > signatureTitleRunes {
		title = string([]rune(title)[:signatureTitleRunes])
	}
	return Signature{VenueID: e.VenueID, Date: e.Date, TitlePrefix: title}
}

// String formats the signature as venue|date|title
func (s Signature) String() string {
	return s.VenueID + "|" + s.Date + "|" + s.TitlePrefix
}

// Stats counts what aggregation removed
type Stats struct {
	Duplicates   int
	DuplicateIDs int
	BeforeCutoff int
}

// Context carries the state of one aggregation run: per-venue sequence
// counters and the set of signatures and ids already accepted.
// A Context is not safe for concurrent use.
type Context struct {
	sequences map[string]int
	seen      map[Signature]bool
	ids       map[string]bool
	stats     Stats
}

// NewContext creates an empty aggregation context
func NewContext() *Context {
	return &Context{
		sequences: make(map[string]int),
		seen:      make(map[Signature]bool),
		ids:       make(map[string]bool),
	}
}

// NextSequence reserves the next sequence number for a venue, starting at 1
func (c *Context) NextSequence(venueID string) int {
	c.sequences[venueID]++
	return c.sequences[venueID]
}

// accept records the event and reports whether it is the first with its
// signature and id
func (c *Context) accept(e *event.Event) bool {
	sig := SignatureOf(e)
	if c.seen[sig] {
		c.stats.Duplicates++
		logger.Debug("Dropped duplicate event", logger.Fields{
			"id":        e.ID,
			"signature": sig.String(),
		})
		return false
	}
	if c.ids[e.ID] {
		c.stats.DuplicateIDs++
		return false
	}
	c.seen[sig] = true
	c.ids[e.ID] = true
	return true
}

// Stats returns the counts collected so far
func (c *Context) Stats() Stats {
	return c.stats
}
