// Package airtime provides wall-clock parsing and duration arithmetic
// for spot air times, including next-day rollover notation.
package airtime

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in one broadcast day.
const MinutesPerDay = 1440

// MalformedTimeError reports an unparseable wall-clock value. Callers
// treat the spot as duration 0 and flag it for attention rather than
// aborting the batch.
type MalformedTimeError struct {
	Value  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed air time %q: %s", e.Value, e.Reason)
}

// ParseClock parses a wall-clock string into minutes since midnight of
// the air date. Accepted forms:
//
//	"HH:MM:SS"
//	"HH:MM"
//	"1 day, HH:MM:SS"   (next-day rollover notation)
//
// A day prefix contributes a whole-day offset, so "1 day, 02:00:00"
// parses to 1560. Seconds are validated but truncated.
func ParseClock(value string) (int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, &MalformedTimeError{Value: value, Reason: "empty"}
	}

	days := 0
	if i := strings.Index(strings.ToLower(s), "day"); i >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil || n < 0 {
			return 0, &MalformedTimeError{Value: value, Reason: "bad day offset"}
		}
		days = n
		rest := s[i+len("day"):]
		rest = strings.TrimPrefix(rest, "s")
		rest = strings.TrimSpace(rest)
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
		s = rest
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &MalformedTimeError{Value: value, Reason: "expected HH:MM[:SS]"}
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, &MalformedTimeError{Value: value, Reason: "hour out of range"}
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, &MalformedTimeError{Value: value, Reason: "minute out of range"}
	}
	if len(parts) == 3 {
		sec, secErr := strconv.Atoi(strings.TrimSpace(parts[2]))
		if secErr != nil || sec < 0 || sec > 59 {
			return 0, &MalformedTimeError{Value: value, Reason: "second out of range"}
		}
	}

	return days*MinutesPerDay + hour*60 + minute, nil
}

// DurationMinutes returns the elapsed minutes between timeIn and
// timeOut. An end before the start with no explicit rollover marker is
// assumed to cross midnight.
func DurationMinutes(timeIn, timeOut string) (int, error) {
	start, err := ParseClock(timeIn)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(timeOut)
	if err != nil {
		return 0, err
	}

	if end >= start {
		return end - start, nil
	}
	return (MinutesPerDay - start) + end, nil
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// SpanSegments folds an aired time range into same-day segments. A
// range that crosses midnight (explicitly via rollover notation or
// implicitly via end < start) yields two segments: the tail of the air
// date and the head of the following day.
func SpanSegments(timeIn, timeOut string) ([]Interval, error) {
	start, err := ParseClock(timeIn)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(timeOut)
	if err != nil {
		return nil, err
	}

	start %= MinutesPerDay
	if end < start {
		end += MinutesPerDay
	}
	if end <= MinutesPerDay {
		return []Interval{{Start: start, End: end}}, nil
	}
	return []Interval{
		{Start: start, End: MinutesPerDay},
		{Start: 0, End: end - MinutesPerDay},
	}, nil
}

// Overlaps reports whether any segment in a intersects any segment in b.
// Zero-length segments never overlap.
func Overlaps(a, b []Interval) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Start < y.End && y.Start < x.End {
				return true
			}
		}
	}
	return false
}
