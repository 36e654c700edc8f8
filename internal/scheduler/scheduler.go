// Package scheduler owns the cached market snapshot and the periodic
// refresh loop that feeds every subscriber.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/market"
)

// Subscriber receives each completed snapshot. Snapshots are shared and
// must be treated as read-only.
type Subscriber func(*market.Snapshot)

// Config holds scheduler timings.
type Config struct {
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig refreshes every 10 seconds, matching the ticker widget.
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Second}
}

// Scheduler periodically refreshes market data and fans results out to
// registered observers. Concurrent refresh requests coalesce into one
// in-flight cycle; the cached snapshot is the only shared mutable state
// and is replaced atomically as one reference at the end of a cycle.
type Scheduler struct {
	orchestrator *market.Orchestrator
	fallback     *market.FallbackGenerator
	config       Config

	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextID      int
	cached      *market.Snapshot
	refreshing  bool
	ticker      *time.Ticker
	tickerStop  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a stopped scheduler. Nothing runs until the first Subscribe.
func New(orchestrator *market.Orchestrator, fallback *market.FallbackGenerator, config Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		orchestrator: orchestrator,
		fallback:     fallback,
		config:       config,
		subscribers:  make(map[int]Subscriber),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Subscribe registers cb and returns its unsubscribe function. The new
// subscriber is served immediately: the cached snapshot if one exists,
// otherwise a synthetic one, so the widget never renders an empty state
// while the first network cycle completes. The refresh loop starts with
// the first subscriber and stops when the last one leaves.
func (s *Scheduler) Subscribe(cb Subscriber) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = cb

	if s.cached == nil {
		s.cached = s.fallback.Snapshot()
		log.Info().Msg("seeding subscribers with synthetic snapshot until first cycle lands")
	}
	snapshot := s.cached

	first := len(s.subscribers) == 1
	if first {
		s.startLocked()
	}
	s.mu.Unlock()

	go notify([]Subscriber{cb}, snapshot)
	if first {
		go s.Refresh()
	}

	return func() { s.unsubscribe(id) }
}

func (s *Scheduler) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
	if len(s.subscribers) == 0 && s.ticker != nil {
		s.ticker.Stop()
		close(s.tickerStop)
		s.ticker = nil
		log.Info().Msg("last subscriber left, refresh loop stopped")
	}
}

// startLocked launches the interval loop. Caller holds s.mu.
func (s *Scheduler) startLocked() {
	s.ticker = time.NewTicker(s.config.Interval)
	s.tickerStop = make(chan struct{})
	ticks := s.ticker.C
	stop := s.tickerStop
	go func() {
		for {
			select {
			case <-ticks:
				s.Refresh()
			case <-stop:
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
	log.Info().Dur("interval", s.config.Interval).Msg("refresh loop started")
}

// Refresh runs one full pipeline cycle and notifies subscribers. If a
// cycle is already in flight the call returns immediately after serving
// the previous cached snapshot; the overlapping request never spawns a
// second fetch wave.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	if s.refreshing {
		cached := s.cached
		subs := s.subscriberList()
		s.mu.Unlock()
		if cached != nil {
			notify(subs, cached)
		}
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	snapshot := s.orchestrator.FetchAll(s.ctx)
	if snapshot == nil {
		// FetchAll degrades internally and should never return nil; this
		// is the last line of the no-nil-delivery guarantee.
		snapshot = s.fallback.Snapshot()
	}

	s.mu.Lock()
	s.cached = snapshot
	s.refreshing = false
	subs := s.subscriberList()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Snapshot returns the latest cached snapshot, or nil before the first
// Subscribe or Refresh.
func (s *Scheduler) Snapshot() *market.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

// SubscriberCount reports the current number of registered observers.
func (s *Scheduler) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Stop cancels the refresh loop and any in-flight cycle. The scheduler
// cannot be restarted afterwards.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.tickerStop)
		s.ticker = nil
	}
	s.mu.Unlock()
}

// subscriberList snapshots the callback set. Caller holds s.mu.
func (s *Scheduler) subscriberList() []Subscriber {
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, cb := range s.subscribers {
		subs = append(subs, cb)
	}
	return subs
}

// notify delivers outside the lock; a panicking subscriber must not take
// the loop down with it.
func notify(subs []Subscriber, snapshot *market.Snapshot) {
	for _, cb := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn().Interface("panic", r).Msg("subscriber callback panicked")
				}
			}()
			cb(snapshot)
		}()
	}
}
