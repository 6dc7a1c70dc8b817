// Package service runs the analytics engine over batches fetched from the
// event store and memoizes the resulting reports.
package service

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"campusinsight/internal/analytics"
	"campusinsight/internal/db"
	"campusinsight/internal/logger"
	"campusinsight/internal/metrics"
)

// EventStore is the read side of the event store.
type EventStore interface {
	FetchEvents(ctx context.Context, q db.EventQuery) ([]analytics.Event, error)
}

// Options configures an InsightService.
type Options struct {
	Location *time.Location
	// Window is the batch length used when a query does not name one.
	Window time.Duration
	// TTL bounds how long a computed report is reused. Zero disables caching.
	TTL time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Query selects the batch to analyse. Zero values take the service defaults.
type Query struct {
	Now  time.Time
	Days int
}

// Result is a computed report together with the window it covers.
type Result struct {
	Report analytics.Report
	Now    time.Time
	Since  time.Time
	Cached bool
}

type cachedReport struct {
	report   analytics.Report
	now      time.Time
	since    time.Time
	storedAt time.Time
}

type InsightService struct {
	store EventStore
	opts  Options

	cache sync.Map // uint64 batch key -> *cachedReport
}

func NewInsightService(store EventStore, opts Options) *InsightService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Window <= 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &InsightService{store: store, opts: opts}
}

// Location is the timezone reports are computed in.
func (s *InsightService) Location() *time.Location { return s.opts.Location }

// MaxDays bounds an explicit window length.
const MaxDays = 3650

// Window resolves q into the [since, now] range it covers. Without an
// explicit Now the current clock time is used as is. Days above MaxDays are
// clamped.
func (s *InsightService) Window(q Query) (since, now time.Time) {
	now = q.Now
	if now.IsZero() {
		now = s.opts.Clock()
	}
	if q.Days > 0 {
		return now.AddDate(0, 0, -min(q.Days, MaxDays)), now
	}
	return now.Add(-s.opts.Window), now
}

// Events fetches the batch q covers.
func (s *InsightService) Events(ctx context.Context, q Query) ([]analytics.Event, time.Time, time.Time, error) {
	since, now := s.Window(q)
	events, err := s.store.FetchEvents(ctx, db.EventQuery{Since: &since, Until: &now})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("fetch_events").Inc()
		return nil, since, now, err
	}
	return events, since, now, nil
}

// Report computes, or reuses, the full analytics report for q. Without an
// explicit Now the cache key uses the clock truncated to the minute, so
// requests within the same minute over an unchanged batch share an entry;
// a hit reports the window it was computed for.
func (s *InsightService) Report(ctx context.Context, q Query) (*Result, error) {
	events, since, now, err := s.Events(ctx, q)
	if err != nil {
		return nil, err
	}

	keyNow := now
	if q.Now.IsZero() {
		keyNow = now.Truncate(time.Minute)
	}
	key := batchKey(events, keyNow, s.opts.Location)

	if cached, ok := s.getFromCache(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return &Result{Report: cached.report, Now: cached.now, Since: cached.since, Cached: true}, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	res := &Result{Now: now, Since: since}
	start := time.Now()
	res.Report = analytics.Analyze(events, analytics.Options{Now: now, Location: s.opts.Location})
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	s.putInCache(key, res)

	logger.Get("insights").WithFields(logrus.Fields{
		"events": len(events),
		"since":  since.Format(time.RFC3339),
		"now":    now.Format(time.RFC3339),
	}).Debug("analytics report computed")

	return res, nil
}

// DimensionPage returns one page of a dimension's metrics in the requested
// order. The cached report is never reordered in place.
func (s *InsightService) DimensionPage(ctx context.Context, q Query, dim analytics.Dimension, cfg analytics.SortConfig, offset, limit int) (analytics.Page[analytics.DimensionMetric], *Result, error) {
	res, err := s.Report(ctx, q)
	if err != nil {
		return analytics.Page[analytics.DimensionMetric]{}, nil, err
	}

	src := res.Report.Dimensions[dim]
	sorted := make([]analytics.DimensionMetric, len(src))
	copy(sorted, src)
	analytics.SortMetrics(sorted, cfg)

	return analytics.Paginate(sorted, offset, limit), res, nil
}

func (s *InsightService) getFromCache(key uint64) (*cachedReport, bool) {
	if s.opts.TTL <= 0 {
		return nil, false
	}
	v, ok := s.cache.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(*cachedReport)
	if s.opts.Clock().Sub(entry.storedAt) >= s.opts.TTL {
		s.cache.Delete(key)
		return nil, false
	}
	return entry, true
}

func (s *InsightService) putInCache(key uint64, res *Result) {
	if s.opts.TTL <= 0 {
		return
	}
	now := s.opts.Clock()
	s.cache.Range(func(k, v any) bool {
		if now.Sub(v.(*cachedReport).storedAt) >= s.opts.TTL {
			s.cache.Delete(k)
		}
		return true
	})
	s.cache.Store(key, &cachedReport{report: res.Report, now: res.Now, since: res.Since, storedAt: now})
}

// batchKey fingerprints the inputs of analytics.Analyze. Every result of
// Analyze is independent of event order, so the key is too: per-event digests
// are sorted before being combined.
func batchKey(events []analytics.Event, now time.Time, loc *time.Location) uint64 {
	digests := make([]uint64, len(events))
	for i, e := range events {
		digests[i] = eventDigest(e)
	}
	slices.Sort(digests)

	h := xxhash.New()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint(uint64(now.UnixNano()))
	h.WriteString(loc.String())
	writeUint(uint64(len(events)))
	for _, d := range digests {
		writeUint(d)
	}
	return h.Sum64()
}

func eventDigest(e analytics.Event) uint64 {
	h := xxhash.New()
	h.WriteString(string(e.Kind()))
	h.WriteString("\x00")
	h.WriteString(e.SessionID)
	h.WriteString("\x00")
	if e.HasTimestamp() {
		h.WriteString(e.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	h.WriteString("\x00")
	// Encode only yields strings and ints, which always marshal.
	payload, _ := json.Marshal(analytics.Encode(e.Payload))
	h.Write(payload)
	return h.Sum64()
}
