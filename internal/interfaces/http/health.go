package http

import (
	"net/http"
	"runtime"
	"time"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "ping"})
}

// healthResponse is the operational health document.
type healthResponse struct {
	Status    string     `json:"status"` // "healthy" or "degraded"
	Timestamp time.Time  `json:"timestamp"`
	Uptime    string     `json:"uptime"`
	Version   string     `json:"version"`
	System    systemInfo `json:"system"`
	Market    marketInfo `json:"market"`
	Store     storeInfo  `json:"store"`
}

type systemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAlloc      uint64 `json:"mem_alloc_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

type marketInfo struct {
	SnapshotAge   string `json:"snapshot_age,omitempty"`
	Fallback      bool   `json:"fallback"`
	Subscribers   int    `json:"subscribers"`
	StreamClients int    `json:"stream_clients"`
}

type storeInfo struct {
	WritesEnabled bool `json:"writes_enabled"`
}

// handleHealth reports pipeline and store status. Serving synthetic data
// is "degraded", not unhealthy: the site keeps working, but operators
// should know the pipeline is offline.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Version:   s.deps.Version,
		System: systemInfo{
			GoVersion:     runtime.Version(),
			NumGoroutines: runtime.NumGoroutine(),
			MemAlloc:      mem.Alloc,
			NumGC:         mem.NumGC,
		},
		Market: marketInfo{
			Subscribers:   s.deps.Scheduler.SubscriberCount(),
			StreamClients: s.deps.Hub.ClientCount(),
		},
		Store: storeInfo{
			WritesEnabled: s.deps.Store.WritesEnabled(),
		},
	}

	if snapshot := s.deps.Scheduler.Snapshot(); snapshot != nil {
		resp.Market.SnapshotAge = time.Since(snapshot.Timestamp).Round(time.Millisecond).String()
		resp.Market.Fallback = snapshot.Fallback
		if snapshot.Fallback {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
