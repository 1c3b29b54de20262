package deadline

import (
	"strconv"
	"strings"
	"time"

	"confdash/internal/model"
)

// RefZone is the fixed reference timezone all deadlines are normalized
// into (UTC+8).
var RefZone = time.FixedZone("UTC+8", 8*60*60)

// rawLayout is the deadline format used by the feeds.
const rawLayout = "2006-01-02 15:04:05"

// Normalize converts a raw deadline string plus its timezone descriptor into
// the equivalent instant in UTC+8.
//
// The descriptor is either "UTCn"/"UTC-n" (case-insensitive, trailing signed
// integer offset) or the literal "AoE". An AoE deadline is interpreted as
// already being in UTC+8: the raw string passes through with no offset math.
// That is not true Anywhere-on-Earth semantics (UTC-12); it is long-standing
// behavior callers depend on and is pinned by a regression test.
//
// "TBD", empty, or unparseable input returns ok=false; callers must check
// before using the time in comparisons or display.
func Normalize(raw, timezone string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, model.TBD) {
		return time.Time{}, false
	}

	tz := strings.TrimSpace(timezone)
	if strings.EqualFold(tz, "AoE") {
		t, err := time.ParseInLocation(rawLayout, raw, RefZone)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	offset, ok := parseUTCOffset(tz)
	if !ok {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(rawLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	// instant - offset hours = UTC; rendering in RefZone adds the +8.
	return t.Add(-time.Duration(offset) * time.Hour).In(RefZone), true
}

// parseUTCOffset extracts the signed hour offset from a "UTCn"/"UTC-n"
// descriptor. A bare "UTC" means offset 0.
func parseUTCOffset(tz string) (int, bool) {
	if len(tz) < 3 || !strings.EqualFold(tz[:3], "UTC") {
		return 0, false
	}
	rest := strings.TrimSpace(tz[3:])
	if rest == "" {
		return 0, true
	}
	rest = strings.TrimPrefix(rest, "+")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
