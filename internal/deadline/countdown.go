package deadline

import (
	"fmt"
	"time"
)

// Expired is the fixed indicator rendered once a deadline has passed;
// counters never go negative.
const Expired = "Expired"

// FormatRemaining renders a remaining duration as zero-padded
// "DDd HHh MMm SSs". The value is recomputed by callers on every tick from
// the cached raw data; nothing here carries state between calls.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return Expired
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs -= days * 86400
	hours := secs / 3600
	secs -= hours * 3600
	mins := secs / 60
	secs -= mins * 60
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", days, hours, mins, secs)
}
