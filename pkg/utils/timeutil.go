// Package utils provides common utility functions: period parsing, calendar-day
// helpers, US market hours and ticker normalization.
package utils

import (
	"time"
)

// DateLayout is the calendar-day layout used for provider queries and CSV output.
const DateLayout = "2006-01-02"

// ET is the US Eastern time location used by NYSE and NASDAQ.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST if tz database is not available
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// TruncateDay returns midnight UTC of the calendar day t falls on (in t's own location).
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a day by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// secondsPerDay is the length of a UTC calendar day.
const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of whole calendar days from start to end.
// It works on Unix seconds, so ranges longer than time.Duration can hold are exact.
func DaysBetween(start, end time.Time) int {
	return int((TruncateDay(end).Unix() - TruncateDay(start).Unix()) / secondsPerDay)
}

// RangeForPeriod returns the closed range of `days` calendar days ending with the day
// of now, so a 7-day period is today and the six days before it. days below one is
// treated as one.
func RangeForPeriod(now time.Time, days int) (time.Time, time.Time) {
	end := TruncateDay(now)
	if days < 1 {
		days = 1
	}
	return AddDays(end, -(days - 1)), end
}

// ParseDate parses a "2006-01-02" string as a UTC calendar day.
func ParseDate(dateStr string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, dateStr, time.UTC)
}

// FormatDate formats t as "2006-01-02" in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MarketOpenTime returns the regular-session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET)
}

// MarketCloseTime returns the regular-session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
}

// isWeekend reports whether t falls on a Saturday or Sunday in ET.
func isWeekend(t time.Time) bool {
	wd := t.In(ET).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// TradingHoliday returns the name of the NYSE holiday t falls on, if any.
// This list should be updated annually.
func TradingHoliday(t time.Time) (string, bool) {
	name, ok := nyseHolidays2026[t.In(ET).Format(DateLayout)]
	return name, ok
}

// NYSE holidays for 2026 (update annually).
var nyseHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// MarketStatus returns the US market status at the given time.
func MarketStatus(now time.Time) string {
	now = now.In(ET)

	if isWeekend(now) {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := TradingHoliday(now); ok {
		return "CLOSED (" + holiday + ")"
	}

	switch {
	case now.Before(MarketOpenTime(now)):
		return "PRE-MARKET"
	case !now.After(MarketCloseTime(now)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}
