package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of the clock used by time windows.
const MinutesPerDay = 24 * 60

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockMinutes returns the wall clock of t in minutes since midnight.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ClockString returns the wall clock of t as "HH:MM".
func ClockString(t time.Time) string {
	return FormatClock(ClockMinutes(t))
}

// InClockWindow reports whether minute t falls in [start, end). When start > end the
// window wraps past midnight and covers t >= start or t < end.
func InClockWindow(t, start, end int) bool {
	if start > end {
		return t >= start || t < end
	}
	return t >= start && t < end
}

// Contains reports whether clock minute t falls inside the window. Unparseable
// windows contain nothing.
func (w TimeWindow) Contains(t int) bool {
	start, err := ParseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return false
	}
	return InClockWindow(t, start, end)
}

// Overnight reports whether the window wraps past midnight.
func (w TimeWindow) Overnight() bool {
	start, err1 := ParseClock(w.Start)
	end, err2 := ParseClock(w.End)
	return err1 == nil && err2 == nil && start > end
}
