package restapi

import (
	"net/http"
	"strings"

	"zugfinder.bahnradar.org/internal/models"
	"zugfinder.bahnradar.org/internal/trains"
)

// autocompleteHandler serves ranked candidates for live typing.
func (api *RestAPI) autocompleteHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"q": {"query must not be empty"},
		})
		return
	}

	candidates := api.Store.Autocomplete(query)
	if candidates == nil {
		candidates = []*trains.IndexEntry{}
	}

	data := models.AutocompleteData{Query: query, Candidates: candidates}
	api.sendResponse(w, r, models.NewOKResponse(data, api.clockOrDefault()))
}
