package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsymposium/marketpulse/internal/market"
	"github.com/finsymposium/marketpulse/internal/metrics"
	"github.com/finsymposium/marketpulse/internal/scheduler"
	"github.com/finsymposium/marketpulse/internal/store/github"
	"github.com/finsymposium/marketpulse/internal/stream"
)

// fixedSource serves the same healthy quote for everything, or hangs
// until the context dies when hang is set.
type fixedSource struct {
	hang bool
	fail bool
}

func (s *fixedSource) FetchQuote(ctx context.Context, symbol string) (market.Quote, error) {
	if s.hang {
		<-ctx.Done()
		return market.Quote{}, ctx.Err()
	}
	if s.fail {
		return market.Quote{}, errors.New("provider down")
	}
	return market.Quote{
		Symbol: symbol, Name: symbol, Price: 1234.5, Change: 12.3, ChangePercent: 1.01,
		DayHigh: 1250, DayLow: 1220, Timestamp: time.Now(), MarketState: market.StateRegular,
	}, nil
}

func (s *fixedSource) FetchCurrencyRate(ctx context.Context, symbol string) (market.CurrencyRate, error) {
	if s.hang {
		<-ctx.Done()
		return market.CurrencyRate{}, ctx.Err()
	}
	if s.fail {
		return market.CurrencyRate{}, errors.New("provider down")
	}
	return market.CurrencyRate{Symbol: symbol, Name: symbol, Rate: 84.5, Timestamp: time.Now()}, nil
}

// docStore is an in-memory stand-in for the GitHub repository, serving
// both the raw host and the Contents API from one handler.
type docStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	failPuts bool
}

func (d *docStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/repos/"):
		// SHA lookup; report missing so commits create.
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		if d.failPuts {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		decoded, _ := base64.StdEncoding.DecodeString(body.Content)
		parts := strings.Split(r.URL.Path, "/contents/")
		d.files[parts[len(parts)-1]] = decoded
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("{}"))
	default:
		// Raw read: /{owner}/{repo}/{branch}/data/{name}.json
		idx := strings.Index(r.URL.Path, "/data/")
		if idx < 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		content, ok := d.files[r.URL.Path[idx+1:]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(content)
	}
}

type serverFixture struct {
	server *Server
	source *fixedSource
	docs   *docStore
}

func newServerFixture(t *testing.T, token string) *serverFixture {
	t.Helper()

	source := &fixedSource{}
	session := market.NewSession(nil)
	fallback := market.NewFallbackGenerator(session, 42)
	orch := market.NewOrchestrator(source, fallback, session, market.OrchestratorConfig{
		ItemTimeout: 300 * time.Millisecond,
		Version:     "test",
	})
	sched := scheduler.New(orch, fallback, scheduler.Config{Interval: time.Hour})
	t.Cleanup(sched.Stop)

	docs := &docStore{files: make(map[string][]byte)}
	ghServer := httptest.NewServer(docs)
	t.Cleanup(ghServer.Close)

	store := github.NewStore(github.NewClient(github.Config{
		Owner: "finsymposium", Repo: "site-data", Branch: "main", Token: token,
		APIBaseURL: ghServer.URL, RawBaseURL: ghServer.URL,
	}, nil), nil)

	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Orchestrator: orch,
		Fallback:     fallback,
		Scheduler:    sched,
		Store:        store,
		Hub:          stream.NewHub(nil),
		Metrics:      metrics.NewRegistry(),
		Version:      "test",
	})
	return &serverFixture{server: s, source: source, docs: docs}
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Ping(t *testing.T) {
	f := newServerFixture(t, "")
	rec := f.do("GET", "/api/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"message":"ping"}`, rec.Body.String())
}

func TestServer_MarketData(t *testing.T) {
	f := newServerFixture(t, "")
	rec := f.do("GET", "/api/market-data", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stocks      []market.Quote        `json:"stocks"`
		Currencies  []market.CurrencyRate `json:"currencies"`
		Sentiment   market.MarketSentiment `json:"sentiment"`
		MarketState string                `json:"marketState"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Stocks, len(market.DefaultInstruments))
	assert.Len(t, body.Currencies, len(market.DefaultCurrencyPairs))
	assert.Contains(t, []string{"OPEN", "CLOSED"}, body.MarketState)
	assert.NotEmpty(t, body.Sentiment.Sentiment)
}

func TestServer_MarketDataAlwaysSucceeds(t *testing.T) {
	// A hung provider must still produce a 200 with a full payload within
	// the item timeout bound.
	f := newServerFixture(t, "")
	f.source.hang = true

	start := time.Now()
	rec := f.do("GET", "/api/market-data", "")
	elapsed := time.Since(start)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, elapsed, 5*time.Second)

	var body struct {
		Stocks   []market.Quote `json:"stocks"`
		Fallback bool           `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Fallback)
	assert.Len(t, body.Stocks, len(market.DefaultInstruments))
}

func TestServer_MarketDataServesFreshCache(t *testing.T) {
	f := newServerFixture(t, "")

	// Let the scheduler land a live snapshot, then break the provider.
	unsubscribe := f.server.deps.Scheduler.Subscribe(func(*market.Snapshot) {})
	defer unsubscribe()
	require.Eventually(t, func() bool {
		s := f.server.deps.Scheduler.Snapshot()
		return s != nil && !s.Fallback
	}, 5*time.Second, 10*time.Millisecond)
	f.source.fail = true

	rec := f.do("GET", "/api/market-data", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Fallback bool `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Fallback, "fresh cached snapshot must be served as-is")
}

func TestServer_ContentGetSeedsDefaults(t *testing.T) {
	f := newServerFixture(t, "")

	for _, name := range []string{"events", "sponsors", "luminaries"} {
		rec := f.do("GET", "/api/"+name, "")
		require.Equal(t, http.StatusOK, rec.Code, name)

		var body struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.NotEmpty(t, body.Data)
	}
}

func TestServer_ContentUpdate(t *testing.T) {
	f := newServerFixture(t, "token-123")

	payload := `{"data":{"sponsors":[{"id":"acme","name":"Acme Capital","isActive":true}]}}`
	rec := f.do("POST", "/api/sponsors", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)

	// The committed document carries a fresh lastModified stamp.
	f.docs.mu.Lock()
	stored := f.docs.files["data/sponsors.json"]
	f.docs.mu.Unlock()
	require.NotEmpty(t, stored)
	var doc struct {
		LastModified int64 `json:"lastModified"`
	}
	require.NoError(t, json.Unmarshal(stored, &doc))
	assert.Positive(t, doc.LastModified)
}

func TestServer_ContentUpdateRejectsMalformedBodies(t *testing.T) {
	f := newServerFixture(t, "token-123")

	tests := []struct {
		name string
		body string
	}{
		{"not_json", "not json at all"},
		{"missing_data_key", `{"something":"else"}`},
		{"wrong_shape", `{"data":{"unrelated":true}}`},
		{"data_not_object", `{"data":"just a string"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do("POST", "/api/sponsors", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Success bool `json:"success"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
		})
	}
}

func TestServer_ContentUpdateStoreFailure(t *testing.T) {
	f := newServerFixture(t, "token-123")
	f.docs.failPuts = true

	rec := f.do("POST", "/api/sponsors", `{"data":{"sponsors":[]}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ContentSync(t *testing.T) {
	// A token lets the first load persist its seeded defaults, giving the
	// document a stable version stamp across requests.
	f := newServerFixture(t, "token-123")

	rec := f.do("GET", "/api/events/sync?lastModified=0", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success            bool  `json:"success"`
		NeedsUpdate        bool  `json:"needsUpdate"`
		ServerLastModified int64 `json:"serverLastModified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.NeedsUpdate, "an empty client stamp is always stale")
	assert.Positive(t, body.ServerLastModified)

	// A client already at the server's version needs nothing.
	rec = f.do("GET", "/api/events/sync?lastModified="+strconv.FormatInt(body.ServerLastModified, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.NeedsUpdate)
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t, "")
	rec := f.do("GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Store  struct {
			WritesEnabled bool `json:"writes_enabled"`
		} `json:"store"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Store.WritesEnabled)
}

func TestServer_Metrics(t *testing.T) {
	f := newServerFixture(t, "")
	f.do("GET", "/api/ping", "")

	rec := f.do("GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketpulse_http_requests_total")
}

func TestServer_NotFound(t *testing.T) {
	f := newServerFixture(t, "")
	rec := f.do("GET", "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "/api/nope", body.Path)
}

func TestServer_CORSPreflight(t *testing.T) {
	f := newServerFixture(t, "")
	rec := f.do("OPTIONS", "/api/sponsors", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
