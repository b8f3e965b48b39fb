package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthPattern = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRe  = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRe = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*` + monthPattern + `\s+(\d{1,2})$`)
	wholeMonthRe = regexp.MustCompile(`(?i)^` + monthPattern + `$`)

	// ErrInvalidRange is returned for input that matches no supported format
	ErrInvalidRange = errors.New("invalid date range format. Use 'Mar 1-15', 'March 1 - April 15', or 'March'")
)

var months = map[string]time.Month{
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

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "Mar 1-15" or "March 1-15" - Same month, different days
//   - "March 1 - April 15" - Different months
//   - "March" - Entire month
//
// The year is inferred from now: a month earlier than now's month is taken to
// be next year, and a cross-month range whose end month precedes its start
// month ends next year. Start is at 00:00:00 UTC, end at 23:59:59 UTC.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := sameMonthRe.FindStringSubmatch(input); m != nil {
		month := months[strings.ToLower(m[1])]
		year := yearForMonth(month, now)

		from, err := dayOf(year, month, m[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := dayOf(year, month, m[3])
		if err != nil {
			return nil, nil, err
		}
		return order(from, endOfDay(to))
	}

	if m := crossMonthRe.FindStringSubmatch(input); m != nil {
		month1 := months[strings.ToLower(m[1])]
		month2 := months[strings.ToLower(m[3])]

		year1 := yearForMonth(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}

		from, err := dayOf(year1, month1, m[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := dayOf(year2, month2, m[4])
		if err != nil {
			return nil, nil, err
		}
		return order(from, endOfDay(to))
	}

	if m := wholeMonthRe.FindStringSubmatch(input); m != nil {
		month := months[strings.ToLower(m[1])]
		year := yearForMonth(month, now)

		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Day 0 of the next month is the last day of this one
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	return nil, nil, ErrInvalidRange
}

func dayOf(year int, month time.Month, day string) (time.Time, error) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %s", day)
	}
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	if d < 1 || t.Month() != month {
		return time.Time{}, fmt.Errorf("invalid day: %s %s", month, day)
	}
	return t, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

func order(from, to time.Time) (*time.Time, *time.Time, error) {
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

// yearForMonth returns now's year, or the next year if month has passed
func yearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}
