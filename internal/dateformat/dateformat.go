// Package dateformat renders date strings with the token patterns used by note templates.
//
// Supported tokens, applied in this order:
//
//	YYYY  four-digit year
//	MMMM  full month name (Russian, nominative)
//	MMM   abbreviated month name (English)
//	MM    two-digit month
//	dddd  full weekday name (Russian)
//	DD    two-digit day of month
//	HH    two-digit hour (24h)
//	mm    two-digit minute
//	ss    two-digit second
//
// Only the first occurrence of each token in a pattern is substituted, so
// "DD.MM / DD" renders the second "DD" literally. Existing templates depend on this.
package dateformat

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var fullMonthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

var weekdayNames = [...]string{
	"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота",
}

type token struct {
	literal string
	value   func(t time.Time) string
}

// Longest tokens first so that "MMMM" is never consumed as "MM" + "MM".
var tokens = []token{
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMMM", func(t time.Time) string { return fullMonthNames[t.Month()-1] }},
	{"MMM", func(t time.Time) string { return t.Format("Jan") }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"dddd", func(t time.Time) string { return weekdayNames[t.Weekday()] }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"HH", func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) }},
	{"mm", func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) }},
	{"ss", func(t time.Time) string { return fmt.Sprintf("%02d", t.Second()) }},
}

// Format parses value and renders it with pattern. Empty input yields an empty
// string; input that cannot be parsed as a date is returned unchanged.
func Format(value, pattern string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	t, ok := Parse(value)
	if !ok {
		return value
	}
	return FormatTime(t.In(time.Local), pattern)
}

// Parse reads a date string in any of the common layouts. Strings without a
// zone are interpreted in local time.
func Parse(value string) (time.Time, bool) {
	t, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatTime renders t with pattern.
func FormatTime(t time.Time, pattern string) string {
	out := pattern
	for _, tok := range tokens {
		if strings.Contains(out, tok.literal) {
			out = strings.Replace(out, tok.literal, tok.value(t), 1)
		}
	}
	return out
}
