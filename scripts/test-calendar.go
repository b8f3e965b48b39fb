//go:build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/museum-events/internal/calendar"
	"github.com/pfrederiksen/museum-events/internal/event"
)

func main() {
	// A timed event and an all-day event
	events := []*event.Event{
		{
			ID:          "moma-1-20260315",
			VenueID:     "moma",
			VenueName:   "Museum of Modern Art",
			Title:       "Gallery Talk: Abstract Expressionism, Then and Now",
			Type:        "talk",
			Date:        "2026-03-15",
			Time:        "2:00 PM - 3:30 PM",
			Description: "A curator-led walk through the fourth-floor galleries.",
			Location:    "11 West 53rd Street",
			URL:         "https://www.moma.org/calendar",
		},
		{
			ID:        "met-1-20260320",
			VenueID:   "met",
			VenueName: "The Metropolitan Museum of Art",
			Title:     "Spring Exhibition Opening",
			Type:      "exhibition",
			Date:      "2026-03-20",
			Location:  "1000 Fifth Avenue",
			URL:       "https://www.metmuseum.org/events",
		},
	}

	icsContent := calendar.GenerateICS(events, time.Now())

	// Write to file (owner read/write only)
	filename := "test-museum-events.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
