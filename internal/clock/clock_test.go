package clock

import (
	"testing"
	"time"
)

func TestCalendarDay(t *testing.T) {
	at := time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want time.Time
	}{
		{"nil location", nil, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"utc", time.UTC, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"behind utc", time.FixedZone("UTC-10", -10*60*60), time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)},
		{"ahead of utc", time.FixedZone("UTC+3", 3*60*60), time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"next day ahead", time.FixedZone("UTC+20", 20*60*60), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalendarDay(at, tt.loc)
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
