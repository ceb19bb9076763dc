package format

import (
	"fmt"
	"time"
)

// Countdown renders d as a compact human-readable duration.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "less than a minute"
	}
	minutes := int(d.Minutes())
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := int(d.Hours())
	if d < 48*time.Hour {
		mins := minutes % 60
		if mins == 0 {
			return fmt.Sprintf("%d hours", hours)
		}
		return fmt.Sprintf("%d hours %d minutes", hours, mins)
	}
	return fmt.Sprintf("%d days", hours/24)
}

// RelativeDeadline describes t relative to now.
func RelativeDeadline(t, now time.Time) string {
	diff := t.Sub(now)
	if diff < 0 {
		return fmt.Sprintf("%s overdue", Countdown(-diff))
	}
	return fmt.Sprintf("in %s", Countdown(diff))
}
