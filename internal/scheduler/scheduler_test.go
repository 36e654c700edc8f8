package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsymposium/marketpulse/internal/market"
)

// gateSource blocks every fetch until released, and counts cycles by
// counting attempts on a single symbol.
type gateSource struct {
	mu       sync.Mutex
	attempts int
	gate     chan struct{}
}

func newGateSource(blocked bool) *gateSource {
	g := &gateSource{gate: make(chan struct{})}
	if !blocked {
		close(g.gate)
	}
	return g
}

func (g *gateSource) release() { close(g.gate) }

func (g *gateSource) wait(ctx context.Context) error {
	select {
	case <-g.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gateSource) FetchQuote(ctx context.Context, symbol string) (market.Quote, error) {
	if symbol == "RELIANCE.NS" {
		g.mu.Lock()
		g.attempts++
		g.mu.Unlock()
	}
	if err := g.wait(ctx); err != nil {
		return market.Quote{}, err
	}
	return market.Quote{
		Symbol: symbol, Name: symbol, Price: 500, Change: 5, ChangePercent: 1,
		DayHigh: 505, DayLow: 495, Timestamp: time.Now(), MarketState: market.StateRegular,
	}, nil
}

func (g *gateSource) FetchCurrencyRate(ctx context.Context, symbol string) (market.CurrencyRate, error) {
	if err := g.wait(ctx); err != nil {
		return market.CurrencyRate{}, err
	}
	return market.CurrencyRate{Symbol: symbol, Name: symbol, Rate: 84.5, Timestamp: time.Now()}, nil
}

func (g *gateSource) cycleAttempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

func newTestScheduler(source market.QuoteSource, interval time.Duration) (*Scheduler, *market.FallbackGenerator) {
	session := market.NewSession(nil)
	fallback := market.NewFallbackGenerator(session, 42)
	orch := market.NewOrchestrator(source, fallback, session, market.OrchestratorConfig{
		ItemTimeout: 10 * time.Second,
		Version:     "test",
	})
	return New(orch, fallback, Config{Interval: interval}), fallback
}

func collectSnapshot(t *testing.T, ch <-chan *market.Snapshot) *market.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot delivery")
		return nil
	}
}

func TestScheduler_SubscribeDeliversImmediately(t *testing.T) {
	sched, _ := newTestScheduler(newGateSource(false), time.Hour)
	defer sched.Stop()

	delivered := make(chan *market.Snapshot, 8)
	unsubscribe := sched.Subscribe(func(s *market.Snapshot) { delivered <- s })
	defer unsubscribe()

	// The very first delivery arrives before any network cycle completes
	// and is never nil.
	snap := collectSnapshot(t, delivered)
	require.NotNil(t, snap)
	assert.NotEmpty(t, snap.Stocks)
}

func TestScheduler_FirstCycleReachesSubscriber(t *testing.T) {
	source := newGateSource(false)
	sched, _ := newTestScheduler(source, time.Hour)
	defer sched.Stop()

	delivered := make(chan *market.Snapshot, 8)
	unsubscribe := sched.Subscribe(func(s *market.Snapshot) { delivered <- s })
	defer unsubscribe()

	// Both the synthetic seed and the first live cycle arrive; their
	// relative order is not guaranteed.
	first := collectSnapshot(t, delivered)
	second := collectSnapshot(t, delivered)
	assert.NotEqual(t, first.Fallback, second.Fallback)

	require.Eventually(t, func() bool {
		s := sched.Snapshot()
		return s != nil && !s.Fallback
	}, 5*time.Second, 10*time.Millisecond)
}

func TestScheduler_OverlappingRefreshCoalesces(t *testing.T) {
	source := newGateSource(true)
	sched, _ := newTestScheduler(source, time.Hour)
	defer sched.Stop()

	delivered := make(chan *market.Snapshot, 64)
	unsubscribe := sched.Subscribe(func(s *market.Snapshot) { delivered <- s })
	defer unsubscribe()

	collectSnapshot(t, delivered) // synthetic seed

	// Wait until the first cycle is actually in flight.
	require.Eventually(t, func() bool { return source.cycleAttempts() >= 1 },
		2*time.Second, 10*time.Millisecond)

	// Overlapping refreshes must not spawn extra fetch waves; they serve
	// the cached snapshot instead.
	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		go func() {
			sched.Refresh()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("overlapping refresh blocked behind the in-flight cycle")
		}
		cached := collectSnapshot(t, delivered)
		assert.True(t, cached.Fallback, "latecomers get the previous cached snapshot")
	}
	assert.Equal(t, 1, source.cycleAttempts())

	// Releasing the gate lets the single in-flight cycle land.
	source.release()
	require.Eventually(t, func() bool {
		s := sched.Snapshot()
		return s != nil && !s.Fallback
	}, 5*time.Second, 10*time.Millisecond)
}

func TestScheduler_TickerRefreshes(t *testing.T) {
	source := newGateSource(false)
	sched, _ := newTestScheduler(source, 50*time.Millisecond)
	defer sched.Stop()

	unsubscribe := sched.Subscribe(func(*market.Snapshot) {})
	defer unsubscribe()

	require.Eventually(t, func() bool { return source.cycleAttempts() >= 3 },
		3*time.Second, 10*time.Millisecond)
}

func TestScheduler_StopsWhenLastSubscriberLeaves(t *testing.T) {
	source := newGateSource(false)
	sched, _ := newTestScheduler(source, 30*time.Millisecond)
	defer sched.Stop()

	unsubscribe := sched.Subscribe(func(*market.Snapshot) {})
	require.Eventually(t, func() bool { return source.cycleAttempts() >= 1 },
		2*time.Second, 10*time.Millisecond)

	unsubscribe()
	assert.Equal(t, 0, sched.SubscriberCount())

	// Let any in-flight tick drain, then verify the loop is quiet.
	time.Sleep(100 * time.Millisecond)
	settled := source.cycleAttempts()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, source.cycleAttempts(), "refresh loop must stop with no subscribers")
}

func TestScheduler_PanickingSubscriberDoesNotStopDelivery(t *testing.T) {
	sched, _ := newTestScheduler(newGateSource(false), time.Hour)
	defer sched.Stop()

	unsubPanic := sched.Subscribe(func(*market.Snapshot) { panic("subscriber bug") })
	defer unsubPanic()

	delivered := make(chan *market.Snapshot, 8)
	unsubscribe := sched.Subscribe(func(s *market.Snapshot) { delivered <- s })
	defer unsubscribe()

	collectSnapshot(t, delivered)
	sched.Refresh()
	require.NotNil(t, collectSnapshot(t, delivered))
}

func TestScheduler_SnapshotNilBeforeFirstSubscribe(t *testing.T) {
	sched, _ := newTestScheduler(newGateSource(false), time.Hour)
	defer sched.Stop()
	assert.Nil(t, sched.Snapshot())
}
