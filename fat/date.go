package fat

import (
	"time"
)

// ParseDate reads a FAT date stamp:
//  Bits 0–4: Day of month, valid value range 1-31 inclusive.
//  Bits 5–8: Month of year, 1 = January, valid value range 1–12 inclusive.
//  Bits 9–15: Count of years from 1980, valid value range 0–127 inclusive
//  (1980–2107).
// It returns a time.Time which has always a time of 00:00:00 UTC.
//
// Day or month 0 is invalid. In that case time.Time{} is returned to be
// compatible with time.Time.IsZero().
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads a FAT time stamp with a granularity of 2 seconds:
//  Bits 0–4: 2-second count, valid value range 0–29 inclusive (0 – 58 seconds).
//  Bits 5–10: Minutes, valid value range 0–59 inclusive.
//  Bits 11–15: Hours, valid value range 0–23 inclusive.
// It returns a time.Time on January 1, year 1.
//
// Bigger values than the specified ones are added to the time but limited
// to 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// FormatDate is the inverse of ParseDate. Dates before 1980 are stored as
// 1980-01-01, dates after 2107 as 2107-12-31.
func FormatDate(t time.Time) uint16 {
	t = clampTime(t)
	return uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

// FormatTime is the inverse of ParseTime. Odd seconds are rounded down.
func FormatTime(t time.Time) uint16 {
	t = clampTime(t)
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}

func clampTime(t time.Time) time.Time {
	t = t.UTC()
	if t.Year() < 1980 {
		return time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if t.Year() > 2107 {
		return time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC)
	}
	return t
}

// entryTime combines a date and a time stamp. It is zero if the date is invalid.
func entryTime(date, clock uint16) time.Time {
	d := ParseDate(date)
	if d.IsZero() {
		return time.Time{}
	}
	c := ParseTime(clock)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
}
