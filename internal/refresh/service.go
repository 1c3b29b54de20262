// Package refresh owns the conference-data pipeline: remote fetch ->
// decode -> snapshot/file caches -> decoded records for the API layer.
// It is constructed once at startup and passed to consumers; there is no
// package-level state.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"confdash/internal/feed"
	"confdash/internal/filecache"
	appLog "confdash/internal/log"
	"confdash/internal/model"
	"confdash/internal/store"
)

// Data is the decoded record pair served to the API. Either slice may be
// empty, never nil.
type Data struct {
	Conferences []model.ConferenceSeries `json:"conferences"`
	Acceptances []model.AcceptanceRecord `json:"acceptances"`
}

// Outcome reports a triggered server-side refresh.
type Outcome struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Metadata *filecache.Metadata `json:"metadata,omitempty"`
}

// Service is the cache-service object: it owns the feed client, the
// persisted file cache, and the snapshot store. The cron registration
// guard is an explicit field, not a global flag.
type Service struct {
	feeds *feed.Client
	files *filecache.Cache
	kv    *store.Store
	ttl   map[string]time.Duration

	// now is injectable for tests.
	now func() time.Time

	mu          sync.Mutex
	cron        *cron.Cron
	cronStarted bool
}

// New wires the pipeline together. ttl keys are the feed kinds
// ("conferences", "acceptances").
func New(feeds *feed.Client, files *filecache.Cache, kv *store.Store, ttl map[string]time.Duration) *Service {
	return &Service{
		feeds: feeds,
		files: files,
		kv:    kv,
		ttl:   ttl,
		now:   time.Now,
	}
}

// ConferenceData returns the decoded conference and acceptance records.
// It never fails: fresh snapshots are served directly; otherwise a remote
// fetch is attempted, falling back to stale snapshots, then the persisted
// file cache, and finally empty slices. Stale data is served silently.
func (s *Service) ConferenceData(ctx context.Context) Data {
	now := s.now()

	confSn, confErr := s.kv.GetSnapshot(string(feed.KindConferences))
	accSn, accErr := s.kv.GetSnapshot(string(feed.KindAcceptances))

	if confErr == nil && accErr == nil &&
		confSn.Fresh(s.ttl[string(feed.KindConferences)], now) &&
		accSn.Fresh(s.ttl[string(feed.KindAcceptances)], now) {
		if data, ok := decode(confSn.Payload, accSn.Payload); ok {
			return data
		}
		// A cached document that no longer decodes is treated like a
		// fetch failure: try the network.
	}

	payload, err := s.feeds.FetchBoth(ctx)
	if err == nil {
		if data, ok := decode(payload.Conferences, payload.Acceptances); ok {
			s.storeSnapshots(payload, now)
			if _, serr := s.files.Store(payload, now); serr != nil {
				appLog.Error("feed file cache store failed", serr)
			}
			return data
		}
		appLog.Warn("fetched feed failed to decode, falling back to cache")
	} else {
		appLog.Error("feed fetch failed, falling back to cache", err)
	}

	// Last resorts: expired snapshots, then the persisted file cache.
	conf := confSn.Payload
	acc := accSn.Payload
	if confErr != nil || accErr != nil {
		if filePayload, _, ferr := s.files.Load(); ferr == nil {
			if confErr != nil {
				conf = filePayload.Conferences
			}
			if accErr != nil {
				acc = filePayload.Acceptances
			}
		}
	}

	data, _ := decode(conf, acc)
	return data
}

// Refresh runs one server-side refresh cycle: fetch both documents,
// validate, and persist to the file cache (rewriting only on content
// change) and the snapshot store.
func (s *Service) Refresh(ctx context.Context) Outcome {
	now := s.now()

	payload, err := s.feeds.FetchBoth(ctx)
	if err != nil {
		return Outcome{Success: false, Message: err.Error()}
	}

	// A document that is not a record list is a hard failure for the cycle.
	if _, err := feed.DecodeConferences(payload.Conferences); err != nil {
		return Outcome{Success: false, Message: err.Error()}
	}
	if _, err := feed.DecodeAcceptances(payload.Acceptances); err != nil {
		return Outcome{Success: false, Message: err.Error()}
	}

	res, err := s.files.Store(payload, now)
	if err != nil {
		return Outcome{Success: false, Message: err.Error()}
	}
	s.storeSnapshots(payload, now)

	return Outcome{Success: true, Message: res.Message, Metadata: &res.Metadata}
}

// storeSnapshots writes both kinds independently; one failing does not
// block the other.
func (s *Service) storeSnapshots(p feed.Payload, now time.Time) {
	if err := s.kv.PutSnapshot(string(feed.KindConferences), p.Conferences, now); err != nil {
		appLog.Error("conference snapshot store failed", err)
	}
	if err := s.kv.PutSnapshot(string(feed.KindAcceptances), p.Acceptances, now); err != nil {
		appLog.Error("acceptance snapshot store failed", err)
	}
}

// decode parses both documents, tolerating a missing kind. ok is false
// only when neither document yielded records.
func decode(conf, acc []byte) (Data, bool) {
	data := Data{
		Conferences: []model.ConferenceSeries{},
		Acceptances: []model.AcceptanceRecord{},
	}
	ok := false
	if len(conf) > 0 {
		if series, err := feed.DecodeConferences(conf); err == nil {
			data.Conferences = series
			ok = true
		}
	}
	if len(acc) > 0 {
		if records, err := feed.DecodeAcceptances(acc); err == nil {
			data.Acceptances = records
			ok = true
		}
	}
	return data, ok
}

// StartCron schedules the periodic refresh and runs one cycle immediately
// in the background. Calling it twice is a no-op.
func (s *Service) StartCron(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronStarted {
		appLog.Warn("refresh cron already started")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() { s.runScheduled(ctx) })
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.cronStarted = true

	go s.runScheduled(ctx)

	appLog.Info("refresh cron started", "spec", spec)
	return nil
}

// StopCron stops the scheduler and waits for a running job to finish.
func (s *Service) StopCron() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cronStarted {
		return
	}
	<-s.cron.Stop().Done()
	s.cronStarted = false
}

func (s *Service) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		// Shutdown already requested; a late tick must not touch state.
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out := s.Refresh(runCtx)
	if !out.Success {
		appLog.Error("scheduled refresh failed", errors.New(out.Message))
		return
	}
	appLog.Info("scheduled refresh finished", "message", out.Message)
}
