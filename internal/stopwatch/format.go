package stopwatch

import (
	"fmt"
	"time"
)

// Format renders d as MM:SS.cc. Minutes are unbounded, hundredths truncate.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	hundredths := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, hundredths)
}

// FormatMillis is Format for a raw millisecond count.
func FormatMillis(ms int64) string {
	return Format(time.Duration(ms) * time.Millisecond)
}
