package schedule

import (
	"strings"
	"time"
)

var weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Countdown is the remaining time until the next broadcast, decomposed for
// display.
type Countdown struct {
	Next    time.Time
	Days    int
	Hours   int
	Minutes int
}

// NextEpisode computes the countdown to the next broadcast of a series.
// Schedule titles are matched by containment of the series name. A same-day
// slot still ahead of now counts for this week, one that already aired rolls
// to next week. No matching entry returns ok=false, which is a normal state
// rather than an error.
func NextEpisode(sched Schedule, series string, now time.Time) (Countdown, bool) {
	now = now.UTC()
	currentDay := mondayIndex(now.Weekday())

	var next time.Time
	found := false

	for day, entries := range sched {
		dayIndex := weekdayIndex(strings.ToLower(day))
		if dayIndex == -1 {
			continue
		}

		for _, entry := range entries {
			if !strings.Contains(entry.Title, series) {
				continue
			}

			broadcast, err := time.Parse("15:04", entry.Time)
			if err != nil {
				continue
			}

			daysUntil := (dayIndex - currentDay + 7) % 7
			if daysUntil == 0 && !timeOfDayAfter(broadcast, now) {
				daysUntil = 7
			}

			instant := time.Date(now.Year(), now.Month(), now.Day(),
				broadcast.Hour(), broadcast.Minute(), 0, 0, time.UTC).
				AddDate(0, 0, daysUntil)

			if !found || instant.Before(next) {
				next = instant
				found = true
			}
		}
	}

	if !found {
		return Countdown{}, false
	}

	remaining := next.Sub(now)
	return Countdown{
		Next:    next,
		Days:    int(remaining.Hours()) / 24,
		Hours:   int(remaining.Hours()) % 24,
		Minutes: int(remaining.Minutes()) % 60,
	}, true
}

// mondayIndex converts Go's Sunday-based weekday to a Monday=0 index.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func weekdayIndex(day string) int {
	for i, name := range weekdays {
		if name == day {
			return i
		}
	}
	return -1
}

// timeOfDayAfter reports whether the broadcast's time of day is still ahead
// of now's time of day.
func timeOfDayAfter(broadcast time.Time, now time.Time) bool {
	bh, bm := broadcast.Hour(), broadcast.Minute()
	nh, nm := now.Hour(), now.Minute()

	if bh != nh {
		return bh > nh
	}
	return bm > nm
}
