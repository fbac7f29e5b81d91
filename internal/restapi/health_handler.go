package restapi

import (
	"encoding/json"
	"net/http"

	"zugfinder.bahnradar.org/internal/trains"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status string       `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Index  *trains.Meta `json:"index,omitempty"`
}

// healthHandler reports liveness and readiness. It returns 503 until the
// first index rebuild has published, so load balancers do not route
// traffic to a cold instance with an empty index.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "index store not initialized",
		})
		return
	}

	meta := api.Store.Current().Meta()
	switch meta.Status {
	case trains.StatusNotInitialized:
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "starting",
			Detail: "train index has not been built yet",
			Index:  &meta,
		})
	case trains.StatusBuilding:
		// A rebuild against an already published index keeps serving the
		// previous snapshot; only the very first build reports starting.
		if meta.LastUpdated.IsZero() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(HealthResponse{
				Status: "starting",
				Detail: "initial train index build in progress",
				Index:  &meta,
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Detail: "rebuild in progress", Index: &meta})
	default:
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Index: &meta})
	}
}
