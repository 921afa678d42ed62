package domain

import (
	"testing"
	"time"
)

func TestDayOf_TruncatesToUTCCalendarDay(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midday utc",
			in:   time.Date(2026, 8, 28, 13, 45, 12, 999, time.UTC),
			want: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "just before utc midnight",
			in:   time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC),
			want: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "offset zone crossing the day boundary",
			in:   time.Date(2026, 8, 29, 0, 30, 0, 0, lagos),
			want: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DayOf(tc.in)
			if !got.Equal(tc.want) {
				t.Fatalf("DayOf(%v) = %v, want %v", tc.in, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %v", got.Location())
			}
		})
	}
}

func TestDayOf_AdjacentInstantsSameDay(t *testing.T) {
	a := time.Date(2026, 8, 28, 0, 0, 1, 0, time.UTC)
	b := time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC)
	if !DayOf(a).Equal(DayOf(b)) {
		t.Fatal("expected instants on the same UTC day to truncate equally")
	}

	c := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if DayOf(b).Equal(DayOf(c)) {
		t.Fatal("expected instants on different UTC days to truncate differently")
	}
}
