package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"zugfinder.bahnradar.org/internal/app"
	"zugfinder.bahnradar.org/internal/appconf"
	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/config"
	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/models"
	"zugfinder.bahnradar.org/internal/trains"
)

// fakeUpstream serves canned transit API payloads. boardGate, when set,
// blocks board requests until the channel is closed, which lets tests hold
// a rebuild mid-flight.
type fakeUpstream struct {
	mu           sync.Mutex
	departures   string
	arrivals     string
	trip         string
	tripCode     int
	journeys     string
	boardGate    chan struct{}
	boardEntered chan struct{}
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		departures: `[
			{"tripId":"trip-a","line":{"name":"ICE 513"},"direction":"München Hbf","when":"2025-06-01T14:32:00Z","delay":120,"platform":"7"},
			{"tripId":"trip-b","line":{"name":"RE 4611"},"direction":"Hanau Hbf","plannedWhen":"2025-06-01T14:40:00Z"}
		]`,
		arrivals: `[]`,
		trip: `{"id":"trip-a","line":{"name":"ICE 513"},"direction":"München Hbf","stopovers":[
			{"stop":{"id":"8000105","name":"Frankfurt (Main) Hbf"},"departure":"2025-06-01T14:32:00Z"}
		]}`,
		journeys: `[{"legs":[
			{"walking":true},
			{"tripId":"trip-j","line":{"name":"ICE 783"},"direction":"München Hbf"}
		]}]`,
	}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	departures, arrivals := f.departures, f.arrivals
	trip, tripCode := f.trip, f.tripCode
	journeys := f.journeys
	gate, entered := f.boardGate, f.boardEntered
	f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/departures"):
		if gate != nil {
			if entered != nil {
				select {
				case entered <- struct{}{}:
				default:
				}
			}
			<-gate
		}
		io.WriteString(w, `{"departures":`+departures+`}`)
	case strings.HasSuffix(path, "/arrivals"):
		io.WriteString(w, `{"arrivals":`+arrivals+`}`)
	case strings.HasPrefix(path, "/trips/"):
		if tripCode != 0 {
			w.WriteHeader(tripCode)
			return
		}
		io.WriteString(w, `{"trip":`+trip+`}`)
	case path == "/journeys":
		io.WriteString(w, `{"journeys":`+journeys+`}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestAPI(t *testing.T, upstream *fakeUpstream, apiKeys []string) (*RestAPI, *http.ServeMux) {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Upstream.BaseURL = server.URL
	cfg.Upstream.RetryBaseDelayMS = 1
	cfg.Stations = []trains.Station{{ID: "8000105", Name: "Frankfurt (Main) Hbf"}}
	cfg.Routes = []trains.Route{{FromID: "8002549", ToID: "8000261"}}
	cfg.Index.WindowCount = 1
	cfg.Index.WindowHours = 1
	cfg.Index.BoardResults = 100

	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := hafas.NewClient(cfg.ClientConfig(), nil, nil, clk)
	store := trains.NewStore()
	builder := trains.NewBuilder(client, store, trains.BuilderConfig{
		Catalog:      cfg.Catalog(),
		Windows:      cfg.Windows(),
		BoardResults: cfg.Index.BoardResults,
		Pacer:        rate.NewLimiter(rate.Inf, 1),
	}, nil, clk, nil)

	application := &app.Application{
		Config:    appconf.Config{Env: appconf.Test, ApiKeys: apiKeys},
		AppConfig: cfg,
		Client:    client,
		Store:     store,
		Builder:   builder,
		Scheduler: trains.NewScheduler(builder, time.Hour, nil),
		Fallback:  trains.NewStagedSearch(client, cfg.Catalog(), cfg.FallbackRoutes(), nil),
		Clock:     clk,
	}

	api := NewRestAPI(application)
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	return api, mux
}

func rebuildIndex(t *testing.T, api *RestAPI) {
	t.Helper()
	_, err := api.Builder.Rebuild(context.Background())
	require.NoError(t, err)
}

type envelope struct {
	Code        int             `json:"code"`
	CurrentTime int64           `json:"currentTime"`
	Data        json.RawMessage `json:"data"`
	Text        string          `json:"text"`
	Version     int             `json:"version"`
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthzBeforeFirstBuild(t *testing.T) {
	_, mux := newTestAPI(t, newFakeUpstream(), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "starting", health.Status)
}

func TestHealthzAfterBuild(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Index)
	assert.Equal(t, trains.StatusReady, health.Index.Status)
	assert.Greater(t, health.Index.EntryCount, 0)
}

func TestHealthzWithoutStore(t *testing.T) {
	api := NewRestAPI(&app.Application{})
	rec := httptest.NewRecorder()
	api.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unavailable", health.Status)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation error", env.Text)
	assert.Contains(t, string(env.Data), `"q"`)
}

func TestSearchReturnsIndexedTrainWithTrip(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=ICE+513")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.Version)

	var data models.SearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Found)
	require.NotNil(t, data.Entry)
	assert.Equal(t, "trip-a", data.Entry.TripID)
	assert.Equal(t, "513", data.Entry.TrainNumber)
	assert.Equal(t, trains.StatusReady, data.IndexStatus)

	require.NotNil(t, data.Trip)
	assert.Equal(t, "trip-a", data.Trip.ID)
	assert.Empty(t, data.TripError)
}

func TestSearchKeepsHitWhenTripFetchFails(t *testing.T) {
	upstream := newFakeUpstream()
	api, mux := newTestAPI(t, upstream, nil)
	rebuildIndex(t, api)

	upstream.mu.Lock()
	upstream.tripCode = http.StatusNotFound
	upstream.mu.Unlock()

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=513")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.SearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Found, "the located train is not retracted by a detail-fetch failure")
	assert.Nil(t, data.Trip)
	assert.NotEmpty(t, data.TripError)
}

func TestSearchFallsBackToJourneySearch(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.trip = `{"id":"trip-j","line":{"name":"ICE 783"},"direction":"München Hbf"}`
	api, mux := newTestAPI(t, upstream, nil)
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=ICE+783")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.SearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Found)
	assert.Nil(t, data.Entry, "the train came from the staged search, not the index")
	require.NotNil(t, data.Fallback)
	assert.Equal(t, "trip-j", data.Fallback.TripID)
	assert.Equal(t, "routes", data.Fallback.Stage)
	require.NotNil(t, data.Trip)
	assert.Equal(t, "trip-j", data.Trip.ID)
}

func TestSearchMissWithoutFallback(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)
	api.Fallback = nil

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=ICE+9999")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.SearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.False(t, data.Found)
	assert.Equal(t, trains.StatusReady, data.IndexStatus)
	assert.Greater(t, data.IndexSize, 0)
}

func TestAutocompleteEndpoint(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/autocomplete?q=51")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.AutocompleteData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Candidates, 1)
	assert.Equal(t, "ICE 513", data.Candidates[0].LineName)

	rec, _ = doRequest(t, mux, http.MethodGet, "/api/trains/autocomplete?q=")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexStatusEndpoint(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/index-status")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.IndexStatusData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, trains.StatusReady, data.Meta.Status)
	assert.Greater(t, data.Meta.EntryCount, 0)
	assert.Equal(t, 2, data.Meta.TrainCount)
	assert.Equal(t, 1, data.CatalogSize)
}

func TestRebuildEndpointReturnsSummary(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)

	rec, env := doRequest(t, mux, http.MethodPost, "/api/trains/rebuild-index")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary trains.RebuildSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Greater(t, summary.Entries, 0)
	assert.Equal(t, 1, summary.Stations)

	assert.Equal(t, trains.StatusReady, api.Store.Current().Meta().Status)
}

func TestRebuildEndpointRejectsConcurrentRebuild(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.boardGate = make(chan struct{})
	upstream.boardEntered = make(chan struct{}, 16)
	_, mux := newTestAPI(t, upstream, nil)

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trains/rebuild-index", nil))
		done <- rec.Code
	}()

	select {
	case <-upstream.boardEntered:
	case <-time.After(5 * time.Second):
		t.Fatal("first rebuild never reached the upstream")
	}

	rec, env := doRequest(t, mux, http.MethodPost, "/api/trains/rebuild-index")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Text, "already in progress")

	close(upstream.boardGate)
	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("first rebuild did not finish")
	}
}

func TestAPIKeyEnforcement(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), []string{"secret"})
	rebuildIndex(t, api)

	rec, env := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=513")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "permission denied", env.Text)

	rec, _ = doRequest(t, mux, http.MethodGet, "/api/trains/search?q=513&key=secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, mux, http.MethodGet, "/api/trains/search?q=513&key=wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCacheControlHeaders(t *testing.T) {
	api, mux := newTestAPI(t, newFakeUpstream(), nil)
	rebuildIndex(t, api)

	rec, _ := doRequest(t, mux, http.MethodGet, "/api/trains/search?q=513")
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))

	rec, _ = doRequest(t, mux, http.MethodGet, "/api/trains/index-status")
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
}
