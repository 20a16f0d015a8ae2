// Package dates canonicalizes the date and time strings callers send when
// asking for availability or booking a slot. Input arrives in whatever shape
// the upstream chat or form surface produced, so parsing is a fixed-priority
// table of candidate forms rather than a single layout.
package dates

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidDateFormat is returned when no accepted date form matches.
	ErrInvalidDateFormat = errors.New("dates: unrecognized date format")

	// ErrInvalidTimeFormat is returned when no accepted time form matches.
	ErrInvalidTimeFormat = errors.New("dates: unrecognized time format")

	// ErrPastDate is returned when the resolved date is before today.
	ErrPastDate = errors.New("dates: date is in the past")
)

const (
	// DateLayout is the canonical storage form for calendar dates.
	DateLayout = "2006-01-02"

	// TimeLayout is the canonical storage form for times of day.
	TimeLayout = "3:04 PM"
)

// dateRule is one candidate date form. Rules are tried in declaration order;
// the first rule that matches wins. rolled reports that the rule itself moved
// the date forward (bare month/day defaulting), which exempts the result from
// the past-date check.
type dateRule struct {
	name  string
	parse func(s string, today time.Time) (parsed time.Time, rolled bool, ok bool)
}

var dateRules = []dateRule{
	{"iso", parseLayoutDate("2006-01-02")},
	{"day-month-year", parseLayoutDate("02-01-2006")},
	{"month-name", parseLayoutDate("Jan 2, 2006")},
	{"month-name-full", parseLayoutDate("January 2, 2006")},
	{"tomorrow", parseTomorrow},
	{"weekday", parseWeekday},
	{"bare-month-day", parseBareMonthDay},
}

// NormalizeDate resolves input to a canonical YYYY-MM-DD string. today
// anchors the relative forms (tomorrow, weekday names, bare month/day) and
// the past-date policy; callers pass the current time in the clinic's zone.
func NormalizeDate(input string, today time.Time) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrInvalidDateFormat
	}

	todayDate := truncateToDay(today)
	for _, rule := range dateRules {
		parsed, rolled, ok := rule.parse(s, todayDate)
		if !ok {
			continue
		}
		if !rolled && parsed.Before(todayDate) {
			return "", ErrPastDate
		}
		return parsed.Format(DateLayout), nil
	}
	return "", ErrInvalidDateFormat
}

// NormalizeTime resolves input to the canonical 12-hour form, e.g. "9:00 AM".
func NormalizeTime(input string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	if s == "" {
		return "", ErrInvalidTimeFormat
	}

	layouts := []string{
		"15:04",   // 08:00, 14:30
		"3:04 PM", // 8:00 AM
		"3:04PM",  // 8:00AM
		"3 PM",    // 9 AM
		"3PM",     // 9AM
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", ErrInvalidTimeFormat
}

func parseLayoutDate(layout string) func(string, time.Time) (time.Time, bool, bool) {
	return func(s string, _ time.Time) (time.Time, bool, bool) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false, false
		}
		return t, false, true
	}
}

func parseTomorrow(s string, today time.Time) (time.Time, bool, bool) {
	if !strings.EqualFold(s, "tomorrow") {
		return time.Time{}, false, false
	}
	return today.AddDate(0, 0, 1), false, true
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// parseWeekday resolves a weekday name to its next occurrence. When today is
// that weekday the result is seven days out, never today.
func parseWeekday(s string, today time.Time) (time.Time, bool, bool) {
	target, ok := weekdays[strings.ToLower(s)]
	if !ok {
		return time.Time{}, false, false
	}
	ahead := (int(target) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead), false, true
}

// parseBareMonthDay handles month/day forms with no year ("May 7", "5/7").
// The current year is assumed; a date already passed rolls to next year and
// is exempt from the past-date check.
func parseBareMonthDay(s string, today time.Time) (time.Time, bool, bool) {
	var parsed time.Time
	var matched bool
	for _, layout := range []string{"Jan 2", "January 2", "1/2"} {
		if t, err := time.Parse(layout, s); err == nil {
			parsed = t
			matched = true
			break
		}
	}
	if !matched {
		return time.Time{}, false, false
	}

	resolved := time.Date(today.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	if resolved.Before(today) {
		return resolved.AddDate(1, 0, 0), true, true
	}
	return resolved, false, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
