package calendar

import (
	"sort"
	"strconv"
	"time"

	"confdash/internal/deadline"
	appLog "confdash/internal/log"
	"confdash/internal/model"
)

// Pick reduces all series down to at most one CalendarConference per
// (title, sub) dedup key: the most relevant recent offering.
//
// Per series, instances are scanned newest-year first; the first instance
// with at least one valid timeline deadline wins and its latest (maximum)
// valid deadline becomes the representative date. Scanning stops there even
// if an older instance would have been preferable — a simplification the
// calendar view accepts. Should two series ever collapse to one key, the
// candidate with the later chosen deadline is kept.
//
// The result is sorted by month ascending; entries without a derivable
// month sort last. A nil input logs a warning and yields an empty list.
func Pick(series []model.ConferenceSeries) []model.CalendarConference {
	if series == nil {
		appLog.Warn("calendar picker: nil series input")
		return []model.CalendarConference{}
	}

	byKey := make(map[string]model.CalendarConference)
	for _, s := range series {
		if !s.Valid() {
			continue
		}
		cc, ok := pickSeries(s)
		if !ok {
			continue
		}
		key := s.Title + "\x00" + s.Sub
		if prev, exists := byKey[key]; exists && !cc.Deadline.After(prev.Deadline) {
			continue
		}
		byKey[key] = cc
	}

	out := make([]model.CalendarConference, 0, len(byKey))
	for _, cc := range byKey {
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := monthSortKey(out[i].Month), monthSortKey(out[j].Month)
		if mi != mj {
			return mi < mj
		}
		// Deterministic order within a month so repeated runs agree.
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// pickSeries chooses the representative entry for one series, or ok=false
// when no instance carries a valid deadline.
func pickSeries(s model.ConferenceSeries) (model.CalendarConference, bool) {
	insts := make([]model.ConferenceInstance, len(s.Instances))
	copy(insts, s.Instances)
	sort.SliceStable(insts, func(i, j int) bool {
		return insts[i].Year > insts[j].Year
	})

	for _, inst := range insts {
		var best time.Time
		found := false
		for _, entry := range inst.Timeline {
			t, ok := deadline.Normalize(entry.Deadline, inst.Timezone)
			if !ok {
				continue
			}
			if !found || t.After(best) {
				best = t
				found = true
			}
		}
		if !found {
			continue
		}
		return model.CalendarConference{
			ID:       inst.ID + strconv.Itoa(inst.Year),
			Name:     s.Description,
			Abbr:     s.Title,
			Year:     inst.Year,
			Category: s.Sub,
			Deadline: best,
			DDL:      best.Format(time.RFC3339),
			Month:    int(best.Month()),
			Location: inst.Place,
			Link:     inst.Link,
		}, true
	}
	return model.CalendarConference{}, false
}

// monthSortKey orders months 1-12 ascending and pushes underivable (0)
// months to the end.
func monthSortKey(m int) int {
	if m < 1 || m > 12 {
		return 13
	}
	return m
}
