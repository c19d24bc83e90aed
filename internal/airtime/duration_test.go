package airtime_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/spotgrid/internal/airtime"
)

func TestDurationMinutes(t *testing.T) {
	testCases := []struct {
		name    string
		timeIn  string
		timeOut string
		want    int
	}{
		{name: "same day", timeIn: "13:00:00", timeOut: "23:59:00", want: 659},
		{name: "zero length", timeIn: "06:00:00", timeOut: "06:00:00", want: 0},
		{name: "explicit rollover", timeIn: "23:00:00", timeOut: "1 day, 02:00:00", want: 180},
		{name: "rollover to midnight", timeIn: "21:00:00", timeOut: "1 day, 0:00:00", want: 180},
		{name: "implicit rollover", timeIn: "22:00:00", timeOut: "02:00:00", want: 240},
		{name: "short form", timeIn: "16:00", timeOut: "19:00", want: 180},
		{name: "full day window", timeIn: "06:00:00", timeOut: "1 day, 06:00:00", want: 1440},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := airtime.DurationMinutes(tc.timeIn, tc.timeOut)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("DurationMinutes(%q, %q) = %d, want %d", tc.timeIn, tc.timeOut, got, tc.want)
			}
		})
	}
}

func TestDurationMinutes_Malformed(t *testing.T) {
	testCases := []struct {
		name    string
		timeIn  string
		timeOut string
	}{
		{name: "empty in", timeIn: "", timeOut: "12:00:00"},
		{name: "empty out", timeIn: "12:00:00", timeOut: ""},
		{name: "garbage", timeIn: "noon", timeOut: "12:00:00"},
		{name: "hour out of range", timeIn: "25:00:00", timeOut: "12:00:00"},
		{name: "minute out of range", timeIn: "12:61:00", timeOut: "13:00:00"},
		{name: "bad day offset", timeIn: "12:00:00", timeOut: "x day, 02:00:00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := airtime.DurationMinutes(tc.timeIn, tc.timeOut)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var malformed *airtime.MalformedTimeError
			if !errors.As(err, &malformed) {
				t.Errorf("expected MalformedTimeError, got %T", err)
			}
		})
	}
}

func TestSpanSegments(t *testing.T) {
	testCases := []struct {
		name    string
		timeIn  string
		timeOut string
		want    []airtime.Interval
	}{
		{
			name:    "same day",
			timeIn:  "16:00:00",
			timeOut: "19:00:00",
			want:    []airtime.Interval{{Start: 960, End: 1140}},
		},
		{
			name:    "implicit rollover splits",
			timeIn:  "22:00:00",
			timeOut: "02:00:00",
			want:    []airtime.Interval{{Start: 1320, End: 1440}, {Start: 0, End: 120}},
		},
		{
			name:    "explicit rollover splits",
			timeIn:  "23:00:00",
			timeOut: "1 day, 02:00:00",
			want:    []airtime.Interval{{Start: 1380, End: 1440}, {Start: 0, End: 120}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := airtime.SpanSegments(tc.timeIn, tc.timeOut)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d segments, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	spot, err := airtime.SpanSegments("22:00:00", "02:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	earlyBlock, _ := airtime.SpanSegments("00:00:00", "06:00:00")
	if !airtime.Overlaps(spot, earlyBlock) {
		t.Error("expected post-midnight tail to overlap early block")
	}

	afternoonBlock, _ := airtime.SpanSegments("12:00:00", "18:00:00")
	if airtime.Overlaps(spot, afternoonBlock) {
		t.Error("expected no overlap with afternoon block")
	}

	touching, _ := airtime.SpanSegments("02:00:00", "04:00:00")
	if airtime.Overlaps(spot, touching) {
		t.Error("half-open ranges that only touch must not overlap")
	}
}
