package http

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/market"
)

// Request-level safety bound: if a full cycle has not landed by then, the
// response is a wholly synthetic snapshot and the in-flight work is
// abandoned. The route never returns an error status.
const marketDataTimeout = 15 * time.Second

// How old a cached snapshot may be and still be served without running a
// fresh cycle. Matches the scheduler interval, so widget polls during an
// in-flight refresh get the previous snapshot immediately.
const snapshotMaxAge = 10 * time.Second

// marketDataResponse lifts the session state to the top level the way the
// widget expects it.
type marketDataResponse struct {
	*market.Snapshot
	MarketState string `json:"marketState"`
}

func marketStateLabel(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}

// handleMarketData serves the best-effort snapshot: cached when fresh,
// freshly fetched otherwise, synthetic when the pipeline cannot answer in
// time. Always HTTP 200.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	if cached := s.deps.Scheduler.Snapshot(); cached != nil && time.Since(cached.Timestamp) < snapshotMaxAge {
		writeJSON(w, http.StatusOK, marketDataResponse{Snapshot: cached, MarketState: marketStateLabel(cached.MarketOpen)})
		return
	}

	result := make(chan *market.Snapshot, 1)
	go func() {
		result <- s.deps.Orchestrator.FetchAll(r.Context())
	}()

	timer := time.NewTimer(marketDataTimeout)
	defer timer.Stop()

	select {
	case snapshot := <-result:
		writeJSON(w, http.StatusOK, marketDataResponse{Snapshot: snapshot, MarketState: marketStateLabel(snapshot.MarketOpen)})
	case <-timer.C:
		log.Warn().Msg("market data request hit the safety timeout, serving synthetic snapshot")
		snapshot := s.deps.Fallback.Snapshot()
		snapshot.Metadata = &market.SnapshotMetadata{
			Source:  "server-fallback",
			Version: s.deps.Version,
		}
		writeJSON(w, http.StatusOK, marketDataResponse{Snapshot: snapshot, MarketState: marketStateLabel(snapshot.MarketOpen)})
	case <-r.Context().Done():
		// Client gone; nothing to write.
	}
}
