package restapi

import (
	"errors"
	"net/http"

	"zugfinder.bahnradar.org/internal/models"
	"zugfinder.bahnradar.org/internal/trains"
)

// rebuildHandler triggers a manual index rebuild. A rebuild already in
// progress is reported as a conflict, never queued.
func (api *RestAPI) rebuildHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := api.Scheduler.TriggerManual(r.Context())
	if err != nil {
		if errors.Is(err, trains.ErrRebuildInProgress) {
			api.sendError(w, r, http.StatusConflict, "index rebuild already in progress")
			return
		}
		api.sendError(w, r, http.StatusInternalServerError, "index rebuild failed: "+err.Error())
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(summary, api.clockOrDefault()))
}
