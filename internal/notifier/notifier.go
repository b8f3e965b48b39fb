package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/extract"
)

// MaxPostLength is the character limit of a post
const MaxPostLength = 280

// Notifier defines the interface for posting event notifications
type Notifier interface {
	// Notify posts notifications for the given events
	Notify(events []*event.Event) error
}

// formatPost formats an event as a post of at most MaxPostLength characters.
// The title is shortened first so the date and link survive.
func formatPost(evt *event.Event) string {
	venue := evt.VenueName
	if venue == "" {
		venue = evt.VenueID
	}

	var head strings.Builder
	fmt.Fprintf(&head, "🎨 New at %s!\n\n", venue)

	var tail strings.Builder
	if when := formatWhen(evt); when != "" {
		fmt.Fprintf(&tail, "\n📅 %s", when)
	}
	if evt.Type != "" {
		fmt.Fprintf(&tail, "\n🏷️ %s", evt.Type)
	}
	if evt.URL != "" {
		fmt.Fprintf(&tail, "\n\n🔗 %s", evt.URL)
	}
	fmt.Fprintf(&tail, "\n\n#NYCMuseums #%s", hashtag(evt.VenueID))

	budget := MaxPostLength - utf8.RuneCountInString(head.String()) - utf8.RuneCountInString(tail.String())
	title := evt.Title
	if budget < 4 {
		budget = 4
	}
	title = extract.Truncate(title, budget, true)

	post := head.String() + title + tail.String()
	if utf8.RuneCountInString(post) > MaxPostLength {
		post = extract.Truncate(post, MaxPostLength, false)
	}
	return post
}

func formatWhen(evt *event.Event) string {
	d := evt.ParsedDate()
	if d.IsZero() {
		return ""
	}
	when := d.Format("Mon, Jan 2, 2006")
	if evt.Time != "" && evt.Time != event.PlaceholderTime {
		when += " · " + evt.Time
	}
	return when
}

func hashtag(venueID string) string {
	var b strings.Builder
	for _, r := range venueID {
		if r == '-' || r == '_' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Museum"
	}
	return b.String()
}
