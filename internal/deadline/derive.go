package deadline

import (
	"sort"
	"strings"
	"time"

	"confdash/internal/model"
)

// derive walks series -> instance -> timeline entries, yielding one
// DeadlineInfo per entry with a valid (non-TBD, parseable) deadline.
// Entries are not deduplicated here: a series may legitimately surface
// multiple rounds at once. Series without instances and instances without
// timeline entries contribute nothing.
func derive(series []model.ConferenceSeries, now time.Time) []model.DeadlineInfo {
	out := make([]model.DeadlineInfo, 0)
	for _, s := range series {
		if !s.Valid() {
			continue
		}
		for _, inst := range s.Instances {
			for _, entry := range inst.Timeline {
				t, ok := Normalize(entry.Deadline, inst.Timezone)
				if !ok {
					continue
				}
				out = append(out, model.DeadlineInfo{
					Title:     s.Title,
					Year:      inst.Year,
					Rank:      s.Rank,
					Sub:       s.Sub,
					Deadline:  t,
					Link:      inst.Link,
					Comment:   entry.Comment,
					Remaining: t.Sub(now),
				})
			}
		}
	}
	return out
}

// Upcoming returns every derivable deadline strictly in the future relative
// to now, sorted ascending by time remaining.
func Upcoming(series []model.ConferenceSeries, now time.Time) []model.DeadlineInfo {
	all := derive(series, now)
	out := all[:0]
	for _, d := range all {
		if d.Remaining > 0 {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Remaining < out[j].Remaining
	})
	return out
}

// Search returns every derivable deadline, past or future, whose series
// title equals term case-insensitively, sorted by absolute distance from
// now.
func Search(series []model.ConferenceSeries, term string, now time.Time) []model.DeadlineInfo {
	all := derive(series, now)
	out := all[:0]
	for _, d := range all {
		if strings.EqualFold(d.Title, term) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return absDuration(out[i].Remaining) < absDuration(out[j].Remaining)
	})
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
