package extract

import (
	"sort"
	"strings"
)

// RawRecord is one row or item from a source, keyed by column or field name.
// The unnamed column of a CSV file uses the empty key.
type RawRecord map[string]string

// Candidate keys per field, in priority order. Dotted keys come from
// flattened JSON items.
var (
	TitleKeys = []string{
		"Name", "Title", "Event Name", "Event Title", "Event",
		"name", "title", "title.rendered", "summary",
	}

	DateKeys = []string{
		"Date", "Event Date", "Start Date", "Start",
		"date", "start_date", "event_date", "startDate",
	}

	TimeKeys = []string{
		"Time", "Event Time", "Hours", "time", "start_time",
	}

	DescriptionKeys = []string{
		"Short Description", "Description", "Summary",
		"description", "excerpt.rendered", "content.rendered",
	}

	LocationKeys = []string{
		"Location", "Venue", "location", "location.name", "venue.venue", "venue",
	}

	TypeKeys = []string{
		"Event Type", "Type", "Category", "event_type", "category",
	}

	URLKeys = []string{
		"More Info:", "",
		"More Info", "more info", "MoreInfo",
		"URL", "url", "Url",
		"Link", "link", "LINK",
		"Website", "website", "WEBSITE",
		"Event URL", "event_url", "EventURL",
		"Event Link", "event_link", "EventLink",
		"Registration", "registration", "Register",
		"Info Link", "info_link", "InfoLink",
		"Details", "More Details", "Learn More",
	}
)

// FirstNonEmpty returns the trimmed value of the first key in keys that holds
// a non-blank value. Exact key matches are tried first, then a
// case-insensitive match on trimmed header names.
func FirstNonEmpty(row RawRecord, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}

	folded := make(map[string]string, len(row))
	for _, k := range sortedKeys(row) {
		fk := strings.ToLower(strings.TrimSpace(k))
		if strings.TrimSpace(folded[fk]) == "" {
			folded[fk] = row[k]
		}
	}
	for _, k := range keys {
		if v := strings.TrimSpace(folded[strings.ToLower(k)]); v != "" {
			return v
		}
	}

	return ""
}

// IsBlank reports whether every value in the record is blank
func (r RawRecord) IsBlank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sortedKeys(row RawRecord) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
