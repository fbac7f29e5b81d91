// Package restapi exposes the train index over HTTP: search,
// autocompletion, index status, manual rebuilds, and health checks.
package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zugfinder.bahnradar.org/internal/app"
)

// RestAPI wires the application's components to HTTP handlers.
type RestAPI struct {
	*app.Application
}

// NewRestAPI creates the API for an application.
func NewRestAPI(application *app.Application) *RestAPI {
	return &RestAPI{Application: application}
}

// SetRoutes registers all handlers on mux. Read endpoints serving index
// snapshots get a short client-side cache; everything touching rebuild
// state is uncacheable.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.Handle("GET /healthz", http.HandlerFunc(api.healthHandler))

	mux.Handle("GET /api/trains/search", api.requireAPIKey(CacheControlMiddleware(30, http.HandlerFunc(api.searchHandler))))
	mux.Handle("GET /api/trains/autocomplete", api.requireAPIKey(CacheControlMiddleware(30, http.HandlerFunc(api.autocompleteHandler))))
	mux.Handle("GET /api/trains/index-status", api.requireAPIKey(CacheControlMiddleware(0, http.HandlerFunc(api.indexStatusHandler))))
	mux.Handle("POST /api/trains/rebuild-index", api.requireAPIKey(http.HandlerFunc(api.rebuildHandler)))

	if api.Application != nil && api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// requireAPIKey rejects requests without a valid key when API keys are
// configured. An empty key list leaves the API open (local development).
func (api *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.Application != nil && len(api.Config.ApiKeys) > 0 && api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
