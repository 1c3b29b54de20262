package model

import "time"

// TBD is the placeholder feed value for a deadline that is not yet announced.
const TBD = "TBD"

// Rank holds per-ranking-system grades for a series.
type Rank struct {
	CCF  string `yaml:"ccf" json:"ccf,omitempty"`
	Core string `yaml:"core" json:"core,omitempty"`
}

// TimelineEntry is one named deadline milestone within an instance
// (e.g., abstract, paper, camera-ready).
type TimelineEntry struct {
	// Deadline is the raw feed value: "YYYY-MM-DD HH:mm:ss", "TBD", or empty.
	Deadline string `yaml:"deadline" json:"deadline"`
	Comment  string `yaml:"comment" json:"comment,omitempty"`
}

// ConferenceInstance is one year's concrete occurrence of a series.
type ConferenceInstance struct {
	Year int    `yaml:"year" json:"year"`
	ID   string `yaml:"id" json:"id"`
	Link string `yaml:"link" json:"link"`
	// Timezone is a UTC offset string ("UTC-5", "UTC8") or the literal "AoE".
	Timezone string          `yaml:"timezone" json:"timezone"`
	Timeline []TimelineEntry `yaml:"timeline" json:"timeline"`
	Place    string          `yaml:"place" json:"place"`
	Date     string          `yaml:"date" json:"date"`
}

// ConferenceSeries is a recurring named conference tracked across years.
// Identity for search is the title, matched exactly (case-insensitive at
// the query layer).
type ConferenceSeries struct {
	Title       string               `yaml:"title" json:"title"`
	Description string               `yaml:"description" json:"description"`
	Sub         string               `yaml:"sub" json:"sub"`
	Rank        Rank                 `yaml:"rank" json:"rank"`
	DBLP        string               `yaml:"dblp" json:"dblp"`
	Instances   []ConferenceInstance `yaml:"confs" json:"confs"`
}

// Valid reports whether a series record carries the minimum shape worth
// keeping. Malformed records are skipped, never aborting the batch.
func (s *ConferenceSeries) Valid() bool {
	return s != nil && s.Title != ""
}

// YearlyRate is one year's acceptance statistics for a series.
type YearlyRate struct {
	Year      int    `yaml:"year" json:"year"`
	Submitted int    `yaml:"submitted" json:"submitted"`
	Accepted  int    `yaml:"accepted" json:"accepted"`
	Rate      string `yaml:"rate" json:"rate"`
	Source    string `yaml:"source" json:"source,omitempty"`
}

// AcceptanceRecord holds historical acceptance rates for one series,
// looked up by (title, year).
type AcceptanceRecord struct {
	Title string       `yaml:"title" json:"title"`
	Rates []YearlyRate `yaml:"accept_rates" json:"accept_rates"`
}

// Valid reports whether an acceptance record is worth keeping.
func (a *AcceptanceRecord) Valid() bool {
	return a != nil && a.Title != ""
}

// RateFor returns the yearly rate for the given year, if recorded.
func (a *AcceptanceRecord) RateFor(year int) (YearlyRate, bool) {
	for _, r := range a.Rates {
		if r.Year == year {
			return r, true
		}
	}
	return YearlyRate{}, false
}

// DeadlineInfo is a derived, never-persisted projection of one timeline
// entry: the deadline normalized to UTC+8 plus display metadata. It is
// recomputed on every read from the cached raw data.
type DeadlineInfo struct {
	Title    string        `json:"title"`
	Year     int           `json:"year"`
	Rank     Rank          `json:"rank"`
	Sub      string        `json:"sub,omitempty"`
	Deadline time.Time     `json:"deadline"`
	Link     string        `json:"link"`
	Comment  string        `json:"comment,omitempty"`
	// Remaining is deadline minus "now" at derivation time; negative once past.
	Remaining time.Duration `json:"remaining_ms"`
}

// CalendarConference is the compact calendar-view projection: at most one
// per (title, sub) dedup key, carrying the chosen representative deadline.
type CalendarConference struct {
	// ID is the instance id plus year, unique within one calendar build.
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Abbr     string    `json:"abbr"`
	Year     int       `json:"year"`
	Category string    `json:"category"`
	Deadline time.Time `json:"-"`
	// DDL is the chosen deadline as an ISO-8601 string for display.
	DDL      string `json:"ddl"`
	// Month is 1-12 derived from the chosen deadline; 0 when underivable.
	Month    int    `json:"month"`
	Location string `json:"location"`
	Link     string `json:"link"`
}
