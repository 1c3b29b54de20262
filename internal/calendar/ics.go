package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"confdash/internal/model"
)

// ExportICS renders calendar entries as an iCalendar document so the
// deadline calendar can be subscribed to from external calendar apps.
// Each entry becomes one VEVENT anchored at its chosen deadline.
func ExportICS(entries []model.CalendarConference, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//confdash//conference deadlines//EN")

	for _, e := range entries {
		if e.Deadline.IsZero() {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s@confdash", e.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(e.Deadline)
		ev.SetEndAt(e.Deadline.Add(time.Hour))
		ev.SetSummary(fmt.Sprintf("%s %d deadline", e.Abbr, e.Year))
		if e.Name != "" {
			ev.SetDescription(e.Name)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Link != "" {
			ev.SetURL(e.Link)
		}
	}
	return cal.Serialize()
}
