package event

import "strings"

type typeKeywords struct {
	eventType string
	keywords  []string
}

// Multi-word types come first so "artist talk" is not swallowed by Lecture.
var classification = []typeKeywords{
	{"Artist Talk", []string{"artist talk", "artist lecture"}},
	{"Gallery Talk", []string{"gallery talk", "curator talk"}},
	{"Panel Discussion", []string{"panel", "discussion", "conversation"}},
	{"Exhibition", []string{"exhibition", "exhibit", "display", "showcase", "collection"}},
	{"Workshop", []string{"workshop", "hands-on", "craft"}},
	{"Lecture", []string{"lecture", "talk", "presentation", "speaker"}},
	{"Performance", []string{"performance", "concert", "dance", "music", "theater"}},
	{"Film", []string{"film", "screening", "movie", "cinema"}},
	{"Family Program", []string{"family", "kids", "children", "youth"}},
	{"Tour", []string{"tour", "guided", "walk"}},
	{"Symposium", []string{"symposium", "conference", "colloquium"}},
	{"Opening", []string{"opening", "reception", "preview"}},
}

var defaultTimes = map[string]string{
	"Exhibition":       "10:00 AM - 5:00 PM",
	"Workshop":         "2:00 PM - 4:00 PM",
	"Lecture":          "6:00 PM - 7:30 PM",
	"Performance":      "7:00 PM - 9:00 PM",
	"Film":             "7:00 PM - 9:00 PM",
	"Family Program":   "11:00 AM - 1:00 PM",
	"Tour":             "2:00 PM - 3:00 PM",
	"Symposium":        "9:00 AM - 5:00 PM",
	"Opening":          "6:00 PM - 8:00 PM",
	"Panel Discussion": "6:00 PM - 7:30 PM",
	"Artist Talk":      "6:00 PM - 7:30 PM",
	"Gallery Talk":     "3:00 PM - 4:00 PM",
	DefaultType:        "6:00 PM - 8:00 PM",
}

// Classify guesses an event type from its title and description.
// Returns DefaultType when no keyword matches.
func Classify(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, c := range classification {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.eventType
			}
		}
	}
	return DefaultType
}

// DefaultTime returns the typical time slot for an event type
func DefaultTime(eventType string) string {
	if t, ok := defaultTimes[eventType]; ok {
		return t
	}
	return defaultTimes[DefaultType]
}

// Types lists the known event types in classification order, plus DefaultType
func Types() []string {
	types := make([]string, 0, len(classification)+1)
	for _, c := range classification {
		types = append(types, c.eventType)
	}
	return append(types, DefaultType)
}
