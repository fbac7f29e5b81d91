package restapi

import (
	"net/http"

	"zugfinder.bahnradar.org/internal/models"
)

// indexStatusHandler reports the published index's build metadata plus the
// size of the station catalog being polled.
func (api *RestAPI) indexStatusHandler(w http.ResponseWriter, r *http.Request) {
	data := models.IndexStatusData{
		Meta:        api.Store.Current().Meta(),
		CatalogSize: len(api.AppConfig.Catalog()),
	}
	api.sendResponse(w, r, models.NewOKResponse(data, api.clockOrDefault()))
}
