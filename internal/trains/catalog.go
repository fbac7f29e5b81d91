// Package trains implements the train discovery index: polling major
// station boards, extracting train identity from raw schedule records,
// building a deduplicated multi-keyed in-memory index, and serving
// lookups and autocompletion against it.
package trains

// Station is one polling target in the station catalog.
type Station struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Route is a known long-distance corridor used by the staged fallback
// search when the index cannot answer a query.
type Route struct {
	FromID string `yaml:"from" json:"from"`
	ToID   string `yaml:"to" json:"to"`
}

// DefaultCatalog returns the major long-distance hubs polled during index
// rebuilds. IDs are EVA station numbers. Catalog order matters: within one
// build pass the first station to report a train wins the shared keys.
func DefaultCatalog() []Station {
	return []Station{
		{ID: "8000105", Name: "Frankfurt (Main) Hbf"},
		{ID: "8011160", Name: "Berlin Hbf"},
		{ID: "8000261", Name: "München Hbf"},
		{ID: "8002549", Name: "Hamburg Hbf"},
		{ID: "8000207", Name: "Köln Hbf"},
		{ID: "8000096", Name: "Stuttgart Hbf"},
		{ID: "8000085", Name: "Düsseldorf Hbf"},
		{ID: "8000152", Name: "Hannover Hbf"},
		{ID: "8010205", Name: "Leipzig Hbf"},
		{ID: "8000284", Name: "Nürnberg Hbf"},
		{ID: "8000244", Name: "Mannheim Hbf"},
		{ID: "8000191", Name: "Karlsruhe Hbf"},
		{ID: "8000080", Name: "Dortmund Hbf"},
		{ID: "8000013", Name: "Augsburg Hbf"},
	}
}

// DefaultRoutes returns the long-distance corridors scanned by the staged
// fallback search.
func DefaultRoutes() []Route {
	return []Route{
		{FromID: "8002549", ToID: "8000261"}, // Hamburg - München
		{FromID: "8011160", ToID: "8000261"}, // Berlin - München
		{FromID: "8000207", ToID: "8011160"}, // Köln - Berlin
		{FromID: "8000105", ToID: "8011160"}, // Frankfurt - Berlin
		{FromID: "8000105", ToID: "8002549"}, // Frankfurt - Hamburg
	}
}
