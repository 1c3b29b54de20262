package calendar

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "confdash/internal/log"
	"confdash/internal/model"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	m.Run()
}

func seriesWith(title, sub string, insts ...model.ConferenceInstance) model.ConferenceSeries {
	return model.ConferenceSeries{
		Title:       title,
		Description: title + " conference",
		Sub:         sub,
		Instances:   insts,
	}
}

func TestPick_ChoosesLatestDeadlineOfNewestQualifyingInstance(t *testing.T) {
	s := seriesWith("ABC", "AI",
		model.ConferenceInstance{
			Year: 2025, ID: "abc25", Timezone: "AoE", Place: "Lisbon", Link: "https://abc.example.org",
			Timeline: []model.TimelineEntry{
				{Deadline: "2025-03-01 23:59:59", Comment: "abstract"},
				{Deadline: "2025-06-15 23:59:59", Comment: "camera-ready"},
				{Deadline: "TBD"},
			},
		},
		model.ConferenceInstance{
			Year: 2024, ID: "abc24", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2024-06-01 23:59:59"}},
		},
	)

	got := Pick([]model.ConferenceSeries{s})
	require.Len(t, got, 1)

	cc := got[0]
	assert.Equal(t, "abc252025", cc.ID)
	assert.Equal(t, "ABC", cc.Abbr)
	assert.Equal(t, "ABC conference", cc.Name)
	assert.Equal(t, 2025, cc.Year)
	assert.Equal(t, "AI", cc.Category)
	// The maximum valid deadline of the chosen instance wins, not the first.
	assert.Equal(t, "2025-06-15T23:59:59+08:00", cc.DDL)
	assert.Equal(t, 6, cc.Month)
	assert.Equal(t, "Lisbon", cc.Location)
}

func TestPick_StopsAtFirstQualifyingInstance(t *testing.T) {
	// The 2025 instance qualifies (even though its deadline already passed in
	// any realistic "now"), so the 2024 instance is never considered.
	s := seriesWith("ABC", "AI",
		model.ConferenceInstance{
			Year: 2025, ID: "abc25", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2025-01-05 00:00:00"}},
		},
		model.ConferenceInstance{
			Year: 2024, ID: "abc24", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2024-12-31 00:00:00"}},
		},
	)

	got := Pick([]model.ConferenceSeries{s})
	require.Len(t, got, 1)
	assert.Equal(t, 2025, got[0].Year)
}

func TestPick_SkipsInstancesWithoutValidDeadlines(t *testing.T) {
	s := seriesWith("ABC", "AI",
		model.ConferenceInstance{
			Year: 2026, ID: "abc26", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "TBD"}},
		},
		model.ConferenceInstance{
			Year: 2025, ID: "abc25", Timezone: "UTC-5",
			Timeline: []model.TimelineEntry{{Deadline: "2025-08-01 12:00:00"}},
		},
	)

	got := Pick([]model.ConferenceSeries{s})
	require.Len(t, got, 1)
	// 2026 has only TBD, so 2025 is the newest qualifying instance.
	assert.Equal(t, 2025, got[0].Year)
}

func TestPick_OneEntryPerDedupKey(t *testing.T) {
	a := seriesWith("ABC", "AI", model.ConferenceInstance{
		Year: 2025, ID: "a25", Timezone: "AoE",
		Timeline: []model.TimelineEntry{{Deadline: "2025-05-01 00:00:00"}},
	})
	// Same (title, sub) key; the later chosen deadline must win.
	b := seriesWith("ABC", "AI", model.ConferenceInstance{
		Year: 2025, ID: "b25", Timezone: "AoE",
		Timeline: []model.TimelineEntry{{Deadline: "2025-09-01 00:00:00"}},
	})
	// Same title, different sub: distinct key, kept separately.
	c := seriesWith("ABC", "SE", model.ConferenceInstance{
		Year: 2025, ID: "c25", Timezone: "AoE",
		Timeline: []model.TimelineEntry{{Deadline: "2025-02-01 00:00:00"}},
	})

	got := Pick([]model.ConferenceSeries{a, b, c})
	require.Len(t, got, 2)

	seen := make(map[string]bool)
	for _, cc := range got {
		key := cc.Abbr + "\x00" + cc.Category
		assert.False(t, seen[key], "duplicate dedup key %q", key)
		seen[key] = true
	}
	for _, cc := range got {
		if cc.Category == "AI" {
			assert.Equal(t, "b252025", cc.ID)
		}
	}
}

func TestPick_SortedByMonthAscending(t *testing.T) {
	mk := func(title, month string) model.ConferenceSeries {
		return seriesWith(title, "AI", model.ConferenceInstance{
			Year: 2025, ID: title, Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2025-" + month + "-10 00:00:00"}},
		})
	}

	got := Pick([]model.ConferenceSeries{mk("NOV", "11"), mk("FEB", "02"), mk("JUL", "07")})
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 7, 11}, []int{got[0].Month, got[1].Month, got[2].Month})
}

func TestPick_Idempotent(t *testing.T) {
	input := []model.ConferenceSeries{
		seriesWith("X", "AI", model.ConferenceInstance{
			Year: 2025, ID: "x25", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2025-03-10 00:00:00"}},
		}),
		seriesWith("Y", "AI", model.ConferenceInstance{
			Year: 2025, ID: "y25", Timezone: "AoE",
			Timeline: []model.TimelineEntry{{Deadline: "2025-03-10 00:00:00"}},
		}),
	}

	first := Pick(input)
	second := Pick(input)
	assert.Equal(t, first, second)
}

func TestPick_NilInputYieldsEmpty(t *testing.T) {
	got := Pick(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}
