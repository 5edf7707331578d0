package scheduler

import (
	"reflect"
	"testing"
	"time"
)

func TestParseReminderDays(t *testing.T) {
	tests := []struct {
		value string
		want  []int
	}{
		{"3,1", []int{3, 1}},
		{"1, 7 ,3", []int{7, 3, 1}},
		{"3,abc,1", []int{3, 1}},
		{"3,3,-2,0", []int{3, 0}},
		{"", []int{3, 1}},
		{"soon", []int{3, 1}},
		{"14", []int{14}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := ParseReminderDays(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReminderDays(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNextRun(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name string
		now  time.Time
		hour int
		loc  *time.Location
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 15, 1, 0, 0, 0, time.UTC),
			hour: 6,
			loc:  time.UTC,
			want: time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at run time moves to tomorrow",
			now:  time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC),
			hour: 6,
			loc:  time.UTC,
			want: time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "end of month",
			now:  time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC),
			hour: 2,
			loc:  time.UTC,
			want: time.Date(2026, 11, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "local timezone",
			now:  time.Date(2026, 10, 15, 21, 30, 0, 0, time.UTC),
			hour: 1,
			loc:  moscow,
			want: time.Date(2026, 10, 16, 1, 0, 0, 0, moscow),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.now, tt.hour, tt.loc); !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}
