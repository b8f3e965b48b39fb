package notifier

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API

	"github.com/pfrederiksen/museum-events/internal/event"
)

func TestFormatPost(t *testing.T) {
	tests := []struct {
		name     string
		event    *event.Event
		contains []string
		excludes []string
	}{
		{
			name: "complete event",
			event: &event.Event{
				ID:        "moma-1-20250710",
				VenueID:   "moma",
				VenueName: "MoMA",
				Title:     "Talk A",
				Type:      "Lecture",
				Date:      "2025-07-10",
				Time:      "6:00 PM - 8:00 PM",
				URL:       "https://www.moma.org/calendar/events/1",
			},
			contains: []string{
				"🎨 New at MoMA!",
				"Talk A",
				"📅 Thu, Jul 10, 2025 · 6:00 PM - 8:00 PM",
				"🏷️ Lecture",
				"🔗 https://www.moma.org/calendar/events/1",
				"#NYCMuseums #moma",
			},
		},
		{
			name: "placeholder time is omitted",
			event: &event.Event{
				VenueID:   "met",
				VenueName: "The Met",
				Title:     "Gala",
				Date:      "2025-08-01",
				Time:      event.PlaceholderTime,
			},
			contains: []string{"📅 Fri, Aug 1, 2025", "#met"},
			excludes: []string{event.PlaceholderTime, "🔗"},
		},
		{
			name: "venue name falls back to id",
			event: &event.Event{
				VenueID: "asia",
				Title:   "Lantern Walk",
				Date:    "not a date",
			},
			contains: []string{"New at asia!"},
			excludes: []string{"📅"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatPost(tt.event)

			if n := utf8.RuneCountInString(got); n > MaxPostLength {
				t.Errorf("formatPost() length = %d, want <= %d", n, MaxPostLength)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatPost() missing %q in post:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("formatPost() should not contain %q:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestFormatPost_LongTitle(t *testing.T) {
	evt := &event.Event{
		VenueID:   "explorers",
		VenueName: "Explorers Club",
		Title:     strings.Repeat("An extraordinarily long expedition lecture title ", 10),
		Date:      "2025-09-03",
		URL:       "https://explorers.org/events/expedition",
	}

	got := formatPost(evt)
	if n := utf8.RuneCountInString(got); n > MaxPostLength {
		t.Errorf("formatPost() length = %d, want <= %d", n, MaxPostLength)
	}
	if !strings.Contains(got, "...") {
		t.Errorf("expected truncated title:\n%s", got)
	}
	if !strings.Contains(got, "https://explorers.org/events/expedition") {
		t.Errorf("link should survive truncation:\n%s", got)
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	events := []*event.Event{
		{ID: "1", VenueID: "moma", VenueName: "MoMA", Title: "Film Night", Date: "2025-07-12"},
		{ID: "2", VenueID: "met", VenueName: "The Met", Title: "Gallery Talk", Date: "2025-07-13"},
	}

	if err := n.Notify(events); err != nil {
		t.Fatalf("DryRunNotifier.Notify() error = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"--- Post 1/2 ---", "--- Post 2/2 ---", "Film Night", "Gallery Talk", "(Length: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

type fakeStatuses struct {
	posts []string
	err   error
}

func (f *fakeStatuses) Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.posts = append(f.posts, status)
	return &twitter.Tweet{Text: status}, nil, nil
}

func TestTwitterNotifier_Notify(t *testing.T) {
	fake := &fakeStatuses{}
	var pauses []time.Duration
	n := &TwitterNotifier{
		statuses: fake,
		pause:    DefaultPause,
		sleep:    func(d time.Duration) { pauses = append(pauses, d) },
	}

	events := []*event.Event{
		{ID: "1", VenueID: "moma", Title: "A", Date: "2025-07-12"},
		{ID: "2", VenueID: "moma", Title: "B", Date: "2025-07-13"},
		{ID: "3", VenueID: "moma", Title: "C", Date: "2025-07-14"},
	}

	if err := n.Notify(events); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(fake.posts) != 3 {
		t.Errorf("posted %d statuses, want 3", len(fake.posts))
	}
	if len(pauses) != 2 {
		t.Errorf("paused %d times, want 2", len(pauses))
	}
}

func TestTwitterNotifier_NotifyError(t *testing.T) {
	wantErr := errors.New("rate limited")
	n := &TwitterNotifier{statuses: &fakeStatuses{err: wantErr}, sleep: func(time.Duration) {}}

	err := n.Notify([]*event.Event{{ID: "moma-1-20250710", Title: "A"}})
	if !errors.Is(err, wantErr) {
		t.Errorf("Notify() error = %v, want %v", err, wantErr)
	}
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "")
	t.Setenv("TWITTER_API_SECRET", "")
	t.Setenv("TWITTER_ACCESS_TOKEN", "")
	t.Setenv("TWITTER_ACCESS_SECRET", "")

	if _, err := NewTwitterNotifier(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewTwitterNotifier() error = %v, want ErrMissingCredentials", err)
	}
}
