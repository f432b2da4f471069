// Package search runs filter passes for an interactive client. Free-text and
// range inputs are debounced, discrete inputs apply immediately, and only
// the newest criteria snapshot ever produces a result.
package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/debounce"
	"github.com/rsilvagit/tutorfind/internal/filter"
	"github.com/rsilvagit/tutorfind/internal/metrics"
	"github.com/rsilvagit/tutorfind/internal/model"
)

// InputKind says which kind of control produced a criteria change.
type InputKind int

const (
	InputText InputKind = iota
	InputRange
	InputToggle
	InputSelect
)

func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputRange:
		return "range"
	case InputToggle:
		return "toggle"
	case InputSelect:
		return "select"
	}
	return "unknown"
}

// Result is one completed filter pass.
type Result struct {
	Seq      uint64
	Criteria filter.Criteria
	Listings []model.Listing
}

// HistoryRecorder persists listing keys that matched a text search.
type HistoryRecorder interface {
	RecordHits(ctx context.Context, user string, listingKeys []string) error
}

// Options configures a Session. OnResult runs with the session locked and
// must not call back into it.
type Options struct {
	TextDebounce  time.Duration
	RangeDebounce time.Duration
	OnResult      func(Result)
	History       HistoryRecorder
	User          string
	Logger        *zap.Logger
}

// Session evaluates criteria against a caller-owned listing slice. The
// slice is read during passes and its InSearchHistory flags are updated
// after text searches; callers must not mutate it concurrently.
type Session struct {
	listings []model.Listing
	text     *debounce.Debouncer
	ranges   *debounce.Debouncer
	onResult func(Result)
	history  HistoryRecorder
	user     string
	log      *zap.Logger

	mu     sync.Mutex
	seq    uint64
	latest uint64
	last   *Result
}

func NewSession(listings []model.Listing, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Session{
		listings: listings,
		text:     debounce.New(opts.TextDebounce),
		ranges:   debounce.New(opts.RangeDebounce),
		onResult: opts.OnResult,
		history:  opts.History,
		user:     opts.User,
		log:      opts.Logger.Named("search"),
	}
	s.text.OnSupersede(metrics.SupersededEvaluations.Inc)
	s.ranges.OnSupersede(metrics.SupersededEvaluations.Inc)
	return s
}

// Update submits a new criteria snapshot. Text and range changes wait for
// their debounce window; toggles and selects evaluate right away and drop
// any pass still waiting.
func (s *Session) Update(c filter.Criteria, kind InputKind) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.latest = seq
	s.mu.Unlock()

	switch kind {
	case InputText:
		s.ranges.Cancel()
		s.text.Trigger(func() { s.evaluate(seq, c) })
	case InputRange:
		s.text.Cancel()
		s.ranges.Trigger(func() { s.evaluate(seq, c) })
	default:
		s.text.Cancel()
		s.ranges.Cancel()
		s.evaluate(seq, c)
	}
	return seq
}

// Pending reports whether a debounced pass is waiting or still running.
func (s *Session) Pending() bool {
	return s.text.Pending() || s.ranges.Pending()
}

// Last returns the most recent delivered result.
func (s *Session) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Close drops any pending pass and waits for one already running to
// deliver. It must not be called from OnResult.
func (s *Session) Close() {
	s.text.Cancel()
	s.ranges.Cancel()
	s.text.Wait()
	s.ranges.Wait()
}

func (s *Session) evaluate(seq uint64, c filter.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer snapshot arrived while this pass waited for the lock.
	if seq != s.latest {
		metrics.SupersededEvaluations.Inc()
		return
	}

	listings, err := filter.Apply(s.listings, &c)
	if err != nil {
		s.log.Error("filter pass failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	metrics.FilterPasses.WithLabelValues("session").Inc()
	metrics.FilterMatches.WithLabelValues("session").Observe(float64(len(listings)))

	if c.Query != "" {
		s.recordHits(c.Query)
	}

	res := Result{Seq: seq, Criteria: c, Listings: listings}
	s.last = &res
	s.log.Debug("filter pass", zap.Uint64("seq", seq), zap.Int("matches", len(listings)))
	if s.onResult != nil {
		s.onResult(res)
	}
}

func (s *Session) recordHits(query string) {
	marked := filter.RecordSearchHits(s.listings, query)
	if len(marked) == 0 {
		return
	}
	metrics.SearchHitsRecorded.Add(float64(len(marked)))
	if s.history == nil || s.user == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.history.RecordHits(ctx, s.user, marked); err != nil {
		s.log.Warn("persisting search history failed", zap.Error(err))
	}
}
