// Package calendar provides business-day arithmetic on calendar dates.
//
// All functions operate on the calendar day of their arguments; the time of day
// and location are discarded.
package calendar

import "time"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BusinessDays counts the weekdays in [start, end).
// The result is negative when end is before start.
func BusinessDays(start, end time.Time) int {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return -BusinessDays(e, s)
	}

	days := int(e.Sub(s).Hours() / 24)
	weeks := days / 7
	count := weeks * 5

	for d := s.AddDate(0, 0, weeks*7); d.Before(e); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			count++
		}
	}
	return count
}

// AddBusinessDays moves t by n weekdays. A weekend start rolls to the next
// (or, for negative n, previous) weekday on the first step.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := Day(t)
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if !IsWeekend(d) {
			n--
		}
	}
	return d
}

// RollBack maps a weekend day onto the preceding Friday.
func RollBack(t time.Time) time.Time {
	d := Day(t)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// RollForward maps a weekend day onto the following Monday.
func RollForward(t time.Time) time.Time {
	d := Day(t)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
