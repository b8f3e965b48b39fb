package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoPrefixRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	numericRe   = regexp.MustCompile(`^(\d{1,4})([/.\-])(\d{1,2})([/.\-])(\d{1,4})$`)
	weekdayRe   = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[a-z]*\.?,?\s+`)
	ordinalRe   = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)\b`)
	monthDotRe  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.`)
	septRe      = regexp.MustCompile(`(?i)\bsept\b`)

	monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

	// Month D[, YYYY] anywhere in the text
	findMonthDayRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	// D Month YY[YY] anywhere in the text
	findDayMonthRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `\.?,?\s+(\d{4}|\d{2})\b`)
	// numeric date anywhere in the text
	findNumericRe = regexp.MustCompile(`\b(\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\b`)

	// year later in the text, as in "July 12-14, 2025"
	laterYearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	// two-digit year closing the text, as in "July 10, 25"
	closingShortYearRe = regexp.MustCompile(`,\s*(\d{2})$`)
	// day number directly before a month name
	leadingDayRe = regexp.MustCompile(`\b\d{1,2}\s*$`)
)

// monthNameLayouts are tried in order after the ISO check
var monthNameLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// yearlessLayouts take the processing year
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// NormalizeDate converts a free-form date string to YYYY-MM-DD.
// A missing year is taken from the current date.
func NormalizeDate(raw string) (string, bool) {
	return NormalizeDateAt(raw, time.Now())
}

// NormalizeDateAt is NormalizeDate with an explicit processing time.
// Returns ("", false) when no date can be recovered.
func NormalizeDateAt(raw string, now time.Time) (string, bool) {
	s := cleanDate(raw)
	if s == "" {
		return "", false
	}

	if t, ok := parseExact(s, now); ok {
		return t.Format(DateLayout), true
	}

	if t, ok := parseEmbedded(s, now); ok {
		return t.Format(DateLayout), true
	}

	return "", false
}

// cleanDate collapses whitespace and strips weekday prefixes and ordinal suffixes
func cleanDate(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.Trim(s, "\"'")
	s = weekdayRe.ReplaceAllString(s, "")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = monthDotRe.ReplaceAllString(s, "$1")
	s = septRe.ReplaceAllString(s, "Sep")
	return strings.TrimSpace(s)
}

func parseExact(s string, now time.Time) (time.Time, bool) {
	// ISO date or ISO timestamp prefix
	if m := isoPrefixRe.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	for _, layout := range monthNameLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if t, ok := parseNumeric(s); ok {
		return t, true
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return makeDate(now.Year(), int(t.Month()), t.Day())
		}
	}

	return time.Time{}, false
}

// parseNumeric handles YYYY/MM/DD and M/D/Y style dates with '/', '-' or '.'.
// Month-first is preferred; day-first is used only when month-first is impossible.
func parseNumeric(s string) (time.Time, bool) {
	m := numericRe.FindStringSubmatch(s)
	if m == nil || m[2] != m[4] {
		return time.Time{}, false
	}

	a, b, c := m[1], m[3], m[5]

	if len(a) == 4 {
		if len(c) > 2 {
			return time.Time{}, false
		}
		return makeDate(atoi(a), atoi(b), atoi(c))
	}
	if len(a) > 2 {
		return time.Time{}, false
	}

	var year int
	switch len(c) {
	case 4:
		year = atoi(c)
	case 2:
		year = 2000 + atoi(c)
	default:
		return time.Time{}, false
	}

	if t, ok := makeDate(year, atoi(a), atoi(b)); ok {
		return t, true
	}
	return makeDate(year, atoi(b), atoi(a))
}

// parseEmbedded searches for a date inside surrounding text.
// An explicit year always beats the processing year.
func parseEmbedded(s string, now time.Time) (time.Time, bool) {
	for _, idx := range findMonthDayRe.FindAllStringSubmatchIndex(s, -1) {
		var year int
		switch {
		case idx[6] >= 0:
			year = atoi(s[idx[6]:idx[7]])
		case leadingDayRe.MatchString(s[:idx[0]]):
			// "10 Jul 25": the number after the month is a year
			continue
		default:
			year = yearAfter(s[idx[1]:], now)
		}
		if t, ok := monthDayDate(s, idx, year); ok {
			return t, true
		}
	}

	for _, idx := range findDayMonthRe.FindAllStringSubmatchIndex(s, -1) {
		month, ok := monthNames[strings.ToLower(s[idx[4]:idx[5]])]
		if !ok {
			continue
		}
		yearText := s[idx[6]:idx[7]]
		year := atoi(yearText)
		if len(yearText) == 2 {
			// "5 May 12:00" carries a clock, not a year
			if idx[1] < len(s) && (s[idx[1]] == ':' || s[idx[1]] == '.') {
				continue
			}
			year += 2000
		}
		if t, ok := makeDate(year, int(month), atoi(s[idx[2]:idx[3]])); ok {
			return t, true
		}
	}

	for _, m := range findNumericRe.FindAllStringSubmatch(s, -1) {
		if t, ok := parseNumeric(m[1]); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// monthDayDate builds the date for a findMonthDayRe match index
func monthDayDate(s string, idx []int, year int) (time.Time, bool) {
	month, ok := monthNames[strings.ToLower(s[idx[2]:idx[3]])]
	if !ok {
		return time.Time{}, false
	}
	return makeDate(year, int(month), atoi(s[idx[4]:idx[5]]))
}

// yearAfter finds the year of a yearless month-day from the text that follows it.
// The processing year is used only when the text has none.
func yearAfter(rest string, now time.Time) int {
	if m := laterYearRe.FindStringSubmatch(rest); m != nil {
		return atoi(m[1])
	}
	if m := closingShortYearRe.FindStringSubmatch(rest); m != nil {
		return 2000 + atoi(m[1])
	}
	return now.Year()
}

// makeDate builds a UTC date, rejecting values time.Date would normalize
func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// IsUpcoming checks if the event falls on or after the day of now.
// Returns true if the date cannot be parsed.
func (e *Event) IsUpcoming(now time.Time) bool {
	d := e.ParsedDate()
	if d.IsZero() {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(today)
}

// IsWithinDays checks if an upcoming event is within N days from now.
// Returns true if days <= 0 (feature disabled) or the date is unparseable.
func (e *Event) IsWithinDays(days int, now time.Time) bool {
	if days <= 0 {
		return true
	}
	d := e.ParsedDate()
	if d.IsZero() {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(today) && d.Before(today.AddDate(0, 0, days+1))
}
