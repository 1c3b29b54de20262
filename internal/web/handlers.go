package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"confdash/internal/calendar"
	"confdash/internal/deadline"
	appLog "confdash/internal/log"
	"confdash/internal/model"
	"confdash/internal/vendor"
)

// maxUploadBytes bounds OCR image uploads.
const maxUploadBytes = 10 << 20

// deadlineDTO is the JSON view of one derived deadline, with the
// countdown pre-rendered for display.
type deadlineDTO struct {
	Title       string     `json:"title"`
	Year        int        `json:"year"`
	Rank        model.Rank `json:"rank"`
	Sub         string     `json:"sub,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	Link        string     `json:"link,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	RemainingMS int64      `json:"remaining_ms"`
	Countdown   string     `json:"countdown"`
}

func toDeadlineDTO(d model.DeadlineInfo) deadlineDTO {
	return deadlineDTO{
		Title:       d.Title,
		Year:        d.Year,
		Rank:        d.Rank,
		Sub:         d.Sub,
		Deadline:    d.Deadline,
		Link:        d.Link,
		Comment:     d.Comment,
		RemainingMS: d.Remaining.Milliseconds(),
		Countdown:   deadline.FormatRemaining(d.Remaining),
	}
}

// handleConferences returns the raw series and acceptance records.
// Missing data is served as empty arrays, never an error.
func (s *Server) handleConferences(w http.ResponseWriter, r *http.Request) {
	data := s.data.ConferenceData(r.Context())
	writeJSON(w, http.StatusOK, data)
}

// handleDeadlines serves the two derived views:
//
//	GET /api/deadlines        -> upcoming deadlines, ascending remaining
//	GET /api/deadlines?q=ABC  -> exact-title search, past and future
func (s *Server) handleDeadlines(w http.ResponseWriter, r *http.Request) {
	data := s.data.ConferenceData(r.Context())
	now := s.now().In(deadline.RefZone)

	var infos []model.DeadlineInfo
	if q := r.URL.Query().Get("q"); q != "" {
		infos = deadline.Search(data.Conferences, q, now)
	} else {
		infos = deadline.Upcoming(data.Conferences, now)
	}

	dtos := make([]deadlineDTO, 0, len(infos))
	for _, d := range infos {
		dtos = append(dtos, toDeadlineDTO(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"now":       now,
		"deadlines": dtos,
	})
}

// handleCalendar returns the deduped calendar entries plus the wave layout
// for a requested drawing size.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	data := s.data.ConferenceData(r.Context())
	entries := calendar.Pick(data.Conferences)

	width := parseFloatDefault(r.URL.Query().Get("width"), 1200)
	height := parseFloatDefault(r.URL.Query().Get("height"), 420)
	wave, months := calendar.Layout(entries, width, height, calendar.Options{})

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"wave":    wave,
		"months":  months,
	})
}

// handleCalendarICS exports the calendar entries as an iCalendar document.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	data := s.data.ConferenceData(r.Context())
	entries := calendar.Pick(data.Conferences)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.ExportICS(entries, s.now())))
}

// handleRefresh triggers one server-side refresh cycle.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	out := s.data.Refresh(r.Context())
	status := http.StatusOK
	if !out.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, out)
}

// handleOCR forwards one uploaded image to the recognition vendor and
// records the result in the history.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	res, err := s.ocr.Recognize(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, vendor.ErrRecognitionFailed) {
			writeError(w, http.StatusUnprocessableEntity, "recognition failed")
			return
		}
		appLog.Error("ocr proxy failed", err)
		writeError(w, http.StatusBadGateway, "recognition failed")
		return
	}

	rec, err := s.kv.AddRecognition(res.Latex, res.Confidence, s.now(), s.cfg.HistoryLimit)
	if err != nil {
		// History is best effort; the recognition itself succeeded.
		appLog.Error("recognition history append failed", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         rec.ID,
		"latex":      res.Latex,
		"confidence": res.Confidence,
	})
}

// handleRank proxies a publication-ranking lookup and records the query.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}

	info, err := s.rank.Lookup(r.Context(), name)
	if err != nil {
		if errors.Is(err, vendor.ErrRankLookupFailed) {
			writeError(w, http.StatusBadGateway, "query failed")
			return
		}
		appLog.Error("rank proxy failed", err, "name", name)
		writeError(w, http.StatusBadGateway, "query failed")
		return
	}

	if _, err := s.kv.AddSearch(name, s.now(), s.cfg.HistoryLimit); err != nil {
		appLog.Error("search history append failed", err)
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListRecognitions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.kv.Recognitions(s.cfg.HistoryLimit)
	if err != nil {
		appLog.Error("recognition history read failed", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleClearRecognitions(w http.ResponseWriter, _ *http.Request) {
	if err := s.kv.ClearRecognitions(); err != nil {
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	recs, err := s.kv.Searches(s.cfg.HistoryLimit)
	if err != nil {
		appLog.Error("search history read failed", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleClearSearches(w http.ResponseWriter, _ *http.Request) {
	if err := s.kv.ClearSearches(); err != nil {
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.kv.ViewSettings()
	if err != nil {
		appLog.Error("view settings read failed", err)
		writeError(w, http.StatusInternalServerError, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings struct {
		ShowPast    bool     `json:"show_past"`
		Categories  []string `json:"categories"`
		RankFilter  string   `json:"rank_filter"`
		MonthsAhead int      `json:"months_ahead"`
	}
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body")
		return
	}

	stored, err := s.kv.ViewSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "settings unavailable")
		return
	}
	stored.ShowPast = settings.ShowPast
	if settings.Categories != nil {
		stored.Categories = settings.Categories
	}
	stored.RankFilter = settings.RankFilter
	if settings.MonthsAhead > 0 {
		stored.MonthsAhead = settings.MonthsAhead
	}

	if err := s.kv.SaveViewSettings(stored); err != nil {
		writeError(w, http.StatusInternalServerError, "settings save failed")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
