package format

import (
	"testing"
	"time"
)

func TestCountdown(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "less than a minute"},
		{5 * time.Minute, "5 minutes"},
		{90 * time.Minute, "1 hours 30 minutes"},
		{2 * time.Hour, "2 hours"},
		{72 * time.Hour, "3 days"},
		{-10 * time.Minute, "10 minutes"},
	}
	for _, tt := range tests {
		if got := Countdown(tt.d); got != tt.want {
			t.Errorf("Countdown(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRelativeDeadline(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := RelativeDeadline(now.Add(2*time.Hour), now); got != "in 2 hours" {
		t.Errorf("future = %q", got)
	}
	if got := RelativeDeadline(now.Add(-45*time.Minute), now); got != "45 minutes overdue" {
		t.Errorf("past = %q", got)
	}
}
