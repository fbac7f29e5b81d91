package restapi

import (
	"log/slog"
	"net/http"
	"strings"

	"zugfinder.bahnradar.org/internal/logging"
	"zugfinder.bahnradar.org/internal/models"
)

// searchHandler locates a train by designator. A hit is enriched with the
// full itinerary, best effort: a failed trip fetch is reported alongside
// the hit, never as an overall failure. An index miss falls through to the
// staged upstream search when one is configured.
func (api *RestAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"q": {"query must not be empty"},
		})
		return
	}

	result := api.Store.Search(query)
	data := models.SearchData{
		Query:       query,
		Found:       result.Found,
		Entry:       result.Entry,
		IndexStatus: result.IndexStatus,
		IndexSize:   result.IndexSize,
	}

	logger := logging.FromContext(r.Context())

	if result.Found {
		api.attachTrip(r, &data, result.Entry.TripID)
	} else if api.Fallback != nil {
		match, err := api.Fallback.Find(r.Context(), query)
		if err != nil {
			logging.LogError(logger, "staged fallback search failed", err,
				slog.String("query", query))
		} else if match != nil {
			data.Found = true
			data.Fallback = match
			if match.TripID != "" {
				api.attachTrip(r, &data, match.TripID)
			}
		}
	}

	api.sendResponse(w, r, models.NewOKResponse(data, api.clockOrDefault()))
}

// attachTrip fetches the located train's full itinerary. The train's
// existence is not retracted by a transient detail-fetch failure.
func (api *RestAPI) attachTrip(r *http.Request, data *models.SearchData, tripID string) {
	if api.Client == nil {
		return
	}
	trip, err := api.Client.Trip(r.Context(), tripID, true)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logging.LogError(logger, "trip detail fetch failed after index hit", err,
			slog.String("trip_id", tripID))
		data.TripError = err.Error()
		return
	}
	data.Trip = trip
}
