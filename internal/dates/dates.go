// Package dates normalizes the two timestamp shapes the backend emits:
// machine readable ISO 8601 and localized "dd/mm/yyyy hh:mm a. m." strings.
package dates

import (
	"strconv"
	"strings"
	"time"
)

// Kind tags a parse Result.
type Kind int

const (
	// Empty is a blank value or the 0001-01-01 sentinel.
	Empty Kind = iota
	// Parsed carries a valid instant.
	Parsed
	// Unparseable keeps the original text.
	Unparseable
)

func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Unparseable:
		return "unparseable"
	default:
		return "empty"
	}
}

// Result is the outcome of Parse. Callers pick a fallback explicitly with
// OrRaw or OrNow.
type Result struct {
	Kind Kind
	Time time.Time
	Raw  string
}

// Ok reports whether an instant was parsed.
func (r Result) Ok() bool { return r.Kind == Parsed }

// OrNow returns the parsed instant, or now for Empty and Unparseable.
func (r Result) OrNow(now time.Time) time.Time {
	if r.Kind == Parsed {
		return r.Time
	}
	return now
}

// OrRaw formats a parsed instant with format, returns the original text when
// unparseable and "---" when empty.
func (r Result) OrRaw(format func(time.Time) string) string {
	switch r.Kind {
	case Parsed:
		return format(r.Time)
	case Unparseable:
		return r.Raw
	default:
		return Placeholder
	}
}

// Placeholder is shown for missing dates.
const Placeholder = "---"

const sentinel = "0001-01-01"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse normalizes raw. Zone-less values are read in loc (time.Local when nil).
func Parse(raw string, loc *time.Location) Result {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, sentinel) {
		return Result{Kind: Empty, Raw: raw}
	}

	if strings.Contains(trimmed, "-") {
		if t, ok := parseISO(trimmed, loc); ok {
			return Result{Kind: Parsed, Time: t, Raw: raw}
		}
	}
	if t, ok := parseLocalized(trimmed, loc); ok {
		return Result{Kind: Parsed, Time: t, Raw: raw}
	}
	return Result{Kind: Unparseable, Raw: raw}
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseLocalized reads "dd/mm/yyyy[ hh:mm[:ss][ am|pm]]". Periods and
// non-breaking spaces in "p. m." are stripped before splitting.
func parseLocalized(s string, loc *time.Location) (time.Time, bool) {
	clean := strings.ToLower(s)
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.NewReplacer("\u00a0", " ", "\u202f", " ", ",", " ").Replace(clean)
	parts := strings.Fields(clean)
	if len(parts) == 0 {
		return time.Time{}, false
	}

	dateParts := strings.Split(parts[0], "/")
	if len(dateParts) != 3 {
		return time.Time{}, false
	}
	day, errD := strconv.Atoi(dateParts[0])
	month, errM := strconv.Atoi(dateParts[1])
	year, errY := strconv.Atoi(dateParts[2])
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, false
	}

	hour, minute, second := 0, 0, 0
	if len(parts) > 1 {
		timeParts := strings.Split(parts[1], ":")
		if len(timeParts) < 2 || len(timeParts) > 3 {
			return time.Time{}, false
		}
		var err error
		if hour, err = strconv.Atoi(timeParts[0]); err != nil {
			return time.Time{}, false
		}
		if minute, err = strconv.Atoi(timeParts[1]); err != nil {
			return time.Time{}, false
		}
		if len(timeParts) == 3 {
			if second, err = strconv.Atoi(timeParts[2]); err != nil {
				return time.Time{}, false
			}
		}

		meridiem := strings.Join(parts[2:], "")
		switch {
		case meridiem == "":
		case strings.HasPrefix(meridiem, "p"):
			if hour < 1 || hour > 12 {
				return time.Time{}, false
			}
			if hour < 12 {
				hour += 12
			}
		case strings.HasPrefix(meridiem, "a"):
			if hour < 1 || hour > 12 {
				return time.Time{}, false
			}
			if hour == 12 {
				hour = 0
			}
		default:
			return time.Time{}, false
		}
	}

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 || hour < 0 || minute < 0 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
