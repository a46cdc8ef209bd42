package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var santoDomingo = time.FixedZone("AST", -4*3600)

func TestParseLocalized(t *testing.T) {
	cases := []struct {
		raw    string
		hour   int
		minute int
		day    int
		month  time.Month
	}{
		{"03/01/2026 02:30 pm", 14, 30, 3, time.January},
		{"03/01/2026 12:00 am", 0, 0, 3, time.January},
		{"03/01/2026 12:15 pm", 12, 15, 3, time.January},
		{"04/01/2026 05:37 p. m.", 17, 37, 4, time.January},
		{"04/01/2026 05:37 a. m.", 5, 37, 4, time.January},
		{"04/01/2026 17:37", 17, 37, 4, time.January},
		{"15/12/2025", 0, 0, 15, time.December},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			res := Parse(tc.raw, santoDomingo)
			require.Equal(t, Parsed, res.Kind)
			assert.Equal(t, tc.hour, res.Time.Hour())
			assert.Equal(t, tc.minute, res.Time.Minute())
			assert.Equal(t, tc.day, res.Time.Day())
			assert.Equal(t, tc.month, res.Time.Month())
		})
	}
}

func TestParseISO(t *testing.T) {
	res := Parse("2026-01-03T14:30:00", santoDomingo)
	require.True(t, res.Ok())
	assert.True(t, res.Time.Equal(time.Date(2026, 1, 3, 14, 30, 0, 0, santoDomingo)))

	utc := Parse("2026-01-03T14:30:00Z", santoDomingo)
	require.True(t, utc.Ok())
	assert.True(t, utc.Time.Equal(time.Date(2026, 1, 3, 14, 30, 0, 0, time.UTC)))

	frac := Parse("2026-01-03T14:30:00.1234567", santoDomingo)
	assert.True(t, frac.Ok())

	dateOnly := Parse("2026-01-03", santoDomingo)
	assert.True(t, dateOnly.Ok())
}

func TestParseFallbacks(t *testing.T) {
	garbage := Parse("ayer por la tarde", nil)
	assert.Equal(t, Unparseable, garbage.Kind)
	assert.Equal(t, "ayer por la tarde", garbage.OrRaw(ShortDate))

	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, now, garbage.OrNow(now))

	for _, raw := range []string{"", "   ", "0001-01-01T00:00:00"} {
		res := Parse(raw, nil)
		assert.Equal(t, Empty, res.Kind, raw)
		assert.Equal(t, Placeholder, res.OrRaw(ShortDate))
	}

	assert.Equal(t, Unparseable, Parse("31/02/2026 10:00 am", nil).Kind)
	assert.Equal(t, Unparseable, Parse("03/01/2026 13:00 pm", nil).Kind)
	assert.Equal(t, Unparseable, Parse("2026-13-45", nil).Kind)
}

func TestFormatters(t *testing.T) {
	afternoon := time.Date(2026, 1, 4, 17, 37, 0, 0, time.UTC)
	assert.Equal(t, "4 ene 2026", ShortDate(afternoon))
	assert.Equal(t, "04 ene, 05:37 p. m.", DayMonthTime(afternoon))
	assert.Equal(t, "04/01/2026, 05:37 p. m.", NumericDateTime(afternoon))
	assert.Equal(t, "4 de enero de 2026, 17:37", LongDateTime(afternoon))
	assert.Equal(t, "4-1-2026", FileDate(afternoon))

	midnight := time.Date(2026, 9, 10, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, "10 sept, 12:05 a. m.", DayMonthTime(midnight))
}

func TestListDate(t *testing.T) {
	assert.Equal(t, "---", ListDate("", time.UTC))
	assert.Equal(t, "05/01/2026", ListDate("05/01/2026 10:15 a. m.", time.UTC))
	assert.Equal(t, "3 ene 2026", ListDate("2026-01-03T14:30:00", time.UTC))
	assert.Equal(t, "pronto", ListDate("pronto", time.UTC))
}

func TestDetailDate(t *testing.T) {
	assert.Equal(t, "04 ene, 05:37 p. m.", DetailDate("04/01/2026 05:37 p. m.", time.UTC))
	assert.Equal(t, "---", DetailDate("0001-01-01T00:00:00", time.UTC))
	assert.Equal(t, "sin fecha", DetailDate("sin fecha", time.UTC))
}
