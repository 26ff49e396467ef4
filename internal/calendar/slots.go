// Package calendar enumerates the bookable slots of a practitioner's
// rolling 7-day window. It is pure: nothing here consults storage, so the
// caller is responsible for filtering out slots that are already reserved.
package calendar

import (
	"fmt"
	"iter"
	"time"
)

// Policy is the clinic's working-hours policy. Hours are practitioner-local
// rounded to whole hours; the source system only supports that shape.
type Policy struct {
	OpenHour   int           // first bookable hour of the day
	CloseHour  int           // slots must start strictly before this hour
	SlotLength time.Duration // granularity, normally 30 minutes
	WindowDays int           // rolling window size, normally 7
}

// DefaultPolicy matches the clinic defaults: 10:00-21:00, half-hour slots,
// seven days out.
var DefaultPolicy = Policy{
	OpenHour:   10,
	CloseHour:  21,
	SlotLength: 30 * time.Minute,
	WindowDays: 7,
}

// Slot is one bookable half-hour unit, identified by its canonical keys.
type Slot struct {
	DateKey string // day_month_year, no zero padding
	TimeKey string // h:mm AM/PM
	Start   time.Time
}

// DateKey builds the canonical date key for a calendar day.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// TimeKey builds the canonical time key for a slot start.
func TimeKey(t time.Time) string {
	return t.Format("3:04 PM")
}

// dayStart returns the first candidate slot start for the day at the given
// offset. For today that is the next boundary strictly after now (minute
// past the half hour rounds up to the next hour, otherwise to the half
// hour), clamped to opening time. Future days open the full window.
func (p Policy) dayStart(now time.Time, offset int) time.Time {
	day := now.AddDate(0, 0, offset)
	open := time.Date(day.Year(), day.Month(), day.Day(), p.OpenHour, 0, 0, 0, day.Location())
	if offset != 0 {
		return open
	}

	var first time.Time
	if now.Minute() >= 30 {
		first = time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	} else {
		first = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 30, 0, 0, now.Location())
	}
	if first.Before(open) {
		return open
	}
	return first
}

// Day yields the bookable slots for the day at the given offset from now.
// The sequence is finite and can be ranged over more than once.
func (p Policy) Day(now time.Time, offset int) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		day := now.AddDate(0, 0, offset)
		end := time.Date(day.Year(), day.Month(), day.Day(), p.CloseHour, 0, 0, 0, day.Location())

		for t := p.dayStart(now, offset); t.Before(end); t = t.Add(p.SlotLength) {
			s := Slot{
				DateKey: DateKey(t),
				TimeKey: TimeKey(t),
				Start:   t,
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Window yields one sequence per day of the rolling window, today first.
func (p Policy) Window(now time.Time) []iter.Seq[Slot] {
	days := make([]iter.Seq[Slot], 0, p.WindowDays)
	for offset := 0; offset < p.WindowDays; offset++ {
		days = append(days, p.Day(now, offset))
	}
	return days
}

// Contains reports whether the (dateKey, timeKey) pair is a slot the
// calendar would currently generate. Booking uses this to reject stale
// client slot lists.
func (p Policy) Contains(now time.Time, dateKey, timeKey string) bool {
	for offset := 0; offset < p.WindowDays; offset++ {
		if DateKey(now.AddDate(0, 0, offset)) != dateKey {
			continue
		}
		for s := range p.Day(now, offset) {
			if s.TimeKey == timeKey {
				return true
			}
		}
		return false
	}
	return false
}
