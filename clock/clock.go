package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout used for every calendar date string
	DateLayout = "2006-01-02"
	// ClockLayout used for every stored time of day
	ClockLayout = "3:04 PM"
)

var (
	// ErrParse occurs when a time of day string is malformed
	ErrParse = errors.New("malformed time of day")
)

// ParseError describes why a time of day string was rejected
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse time of day %q: %s", e.Input, e.Reason)
}

// Unwrap to ErrParse
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Today for the given instant in its own location
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Tomorrow relative to the given instant
func Tomorrow(now time.Time) string {
	return now.AddDate(0, 0, 1).Format(DateLayout)
}

// AddDays to a YYYY-MM-DD date string
func AddDays(date string, days int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %s: %w", date, err)
	}

	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// ValidDate reports whether s is a zero padded YYYY-MM-DD calendar date
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// TimeToMinutes converts "H:MM AM|PM" into minutes since midnight. Only the
// form FormatClock produces is accepted: no leading zero on the hour, two
// minute digits and exactly one space before the marker.
func TimeToMinutes(s string) (int, error) {
	clockPart, marker, ok := strings.Cut(s, " ")
	if !ok {
		return 0, &ParseError{Input: s, Reason: "missing AM/PM marker"}
	}

	if marker != "AM" && marker != "PM" {
		return 0, &ParseError{Input: s, Reason: "marker must be AM or PM"}
	}

	hourPart, minutePart, ok := strings.Cut(clockPart, ":")
	if !ok {
		return 0, &ParseError{Input: s, Reason: "missing ':' separator"}
	}

	hour, err := parseDigits(hourPart)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "hour is not numeric"}
	}

	if hourPart[0] == '0' {
		return 0, &ParseError{Input: s, Reason: "hour has a leading zero"}
	}

	minute, err := parseDigits(minutePart)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "minute is not numeric"}
	}

	if len(minutePart) != 2 {
		return 0, &ParseError{Input: s, Reason: "minute must be two digits"}
	}

	return toMinutes(s, hour, minute, marker)
}

// Normalize rewrites a loosely typed time of day such as "07:00 am" or
// "7:00  PM" into the "H:MM AM|PM" form stored with medications
func Normalize(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", &ParseError{Input: s, Reason: "expected a time and an AM/PM marker"}
	}

	hourPart, minutePart, ok := strings.Cut(fields[0], ":")
	if !ok {
		return "", &ParseError{Input: s, Reason: "missing ':' separator"}
	}

	hour, err := parseDigits(hourPart)
	if err != nil {
		return "", &ParseError{Input: s, Reason: "hour is not numeric"}
	}

	minute, err := parseDigits(minutePart)
	if err != nil || len(minutePart) != 2 {
		return "", &ParseError{Input: s, Reason: "minute must be two digits"}
	}

	minutes, err := toMinutes(s, hour, minute, strings.ToUpper(fields[1]))
	if err != nil {
		return "", err
	}

	return FormatMinutes(minutes), nil
}

// FormatMinutes renders minutes since midnight as "H:MM AM|PM"
func FormatMinutes(minutes int) string {
	return FormatClock(time.Date(2000, 1, 1, 0, minutes, 0, 0, time.UTC))
}

// FormatClock renders an instant the same way stored times are written
func FormatClock(now time.Time) string {
	return now.Format(ClockLayout)
}

func toMinutes(input string, hour, minute int, marker string) (int, error) {
	if marker != "AM" && marker != "PM" {
		return 0, &ParseError{Input: input, Reason: "marker must be AM or PM"}
	}

	if hour < 1 || hour > 12 {
		return 0, &ParseError{Input: input, Reason: "hour outside 1-12"}
	}

	if minute > 59 {
		return 0, &ParseError{Input: input, Reason: "minute outside 0-59"}
	}

	if hour == 12 {
		hour = 0
	}

	if marker == "PM" {
		hour += 12
	}

	return hour*60 + minute, nil
}

func parseDigits(s string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, strconv.ErrSyntax
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}

	return strconv.Atoi(s)
}
