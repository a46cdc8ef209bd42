package dates

import (
	"fmt"
	"strings"
	"time"
)

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

var longMonths = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// ShortDate renders "3 ene 2026".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// DayMonthTime renders "04 ene, 05:37 p. m.".
func DayMonthTime(t time.Time) string {
	return fmt.Sprintf("%02d %s, %s", t.Day(), shortMonths[t.Month()-1], clock12(t))
}

// NumericDateTime renders "03/01/2026, 02:30 p. m.".
func NumericDateTime(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%d, %s", t.Day(), int(t.Month()), t.Year(), clock12(t))
}

// LongDateTime renders "3 de enero de 2026, 14:30".
func LongDateTime(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d, %02d:%02d", t.Day(), longMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FileDate renders "3-1-2026", as used in export file names.
func FileDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}

func clock12(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	suffix := "a. m."
	if t.Hour() >= 12 {
		suffix = "p. m."
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute(), suffix)
}

// ListDate is the ticket card date. Localized strings keep their date token
// as is; other values are parsed and shown as "3 ene 2026", falling back to
// the raw text.
func ListDate(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Placeholder
	}
	if strings.Contains(trimmed, "/") {
		return strings.Fields(trimmed)[0]
	}
	return Parse(raw, loc).OrRaw(func(t time.Time) string { return ShortDate(t.In(loc)) })
}

// DetailDate is the ticket detail timestamp: "04 ene, 05:37 p. m.", the raw
// text when unparseable, "---" when missing.
func DetailDate(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return Parse(raw, loc).OrRaw(func(t time.Time) string { return DayMonthTime(t.In(loc)) })
}
