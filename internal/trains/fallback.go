package trains

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"zugfinder.bahnradar.org/internal/hafas"
)

// FallbackClient is the slice of the upstream client the staged fallback
// search needs.
type FallbackClient interface {
	Departures(ctx context.Context, stationID string, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error)
	Journeys(ctx context.Context, fromStationID, toStationID string, opts hafas.JourneyOptions) ([]hafas.Journey, error)
}

// FallbackMatch is a train located by the staged fallback search, outside
// the index.
type FallbackMatch struct {
	TripID    string     `json:"tripId"`
	LineName  string     `json:"lineName"`
	Direction string     `json:"direction,omitempty"`
	When      *time.Time `json:"when,omitempty"`
	Stage     string     `json:"stage"`
}

// StagedSearch locates a train by querying upstream directly, for callers
// without a live index. Stages run in order and the first hit wins:
// major-station departure boards, then long-distance journey legs, then the
// station boards again with each type prefix prepended to a numeric query.
type StagedSearch struct {
	client   FallbackClient
	stations []Station
	routes   []Route
	logger   *slog.Logger
}

// NewStagedSearch creates a StagedSearch over the given stations and
// routes. Both lists are scanned in order, so put the busiest hubs first.
func NewStagedSearch(client FallbackClient, stations []Station, routes []Route, logger *slog.Logger) *StagedSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &StagedSearch{
		client:   client,
		stations: stations,
		routes:   routes,
		logger:   logger.With(slog.String("component", "staged_search")),
	}
}

// Find runs the staged search for query. A nil match with a nil error means
// every stage came up empty; fetch failures inside a stage are logged and
// skipped. Only context cancellation aborts the search.
func (s *StagedSearch) Find(ctx context.Context, query string) (*FallbackMatch, error) {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if normalized == "" {
		return nil, nil
	}

	if match, err := s.searchStations(ctx, normalized, "stations"); match != nil || err != nil {
		return match, err
	}

	if match, err := s.searchRoutes(ctx, normalized); match != nil || err != nil {
		return match, err
	}

	// Purely numeric queries get retried with each known type prefix.
	if isAllDigits(normalized) {
		for _, trainType := range trainTypes {
			prefixed := trainType + " " + normalized
			match, err := s.searchStations(ctx, prefixed, "type_prefix")
			if match != nil || err != nil {
				return match, err
			}
		}
	}

	return nil, nil
}

func (s *StagedSearch) searchStations(ctx context.Context, query, stage string) (*FallbackMatch, error) {
	for _, station := range s.stations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.client.Departures(ctx, station.ID, hafas.BoardOptions{
			Duration: 2 * time.Hour,
			Results:  100,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("fallback station board fetch failed",
				slog.String("station_id", station.ID),
				slog.String("error", err.Error()))
			continue
		}
		for _, rec := range records {
			if rec.TripID == "" {
				continue
			}
			if labelMatches(rec.LineName(), query) {
				when := rec.When
				if when == nil {
					when = rec.PlannedWhen
				}
				return &FallbackMatch{
					TripID:    rec.TripID,
					LineName:  rec.LineName(),
					Direction: rec.Direction,
					When:      when,
					Stage:     stage,
				}, nil
			}
		}
	}
	return nil, nil
}

func (s *StagedSearch) searchRoutes(ctx context.Context, query string) (*FallbackMatch, error) {
	for _, route := range s.routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		journeys, err := s.client.Journeys(ctx, route.FromID, route.ToID, hafas.JourneyOptions{Results: 5})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("fallback journey search failed",
				slog.String("from", route.FromID),
				slog.String("to", route.ToID),
				slog.String("error", err.Error()))
			continue
		}
		for _, journey := range journeys {
			for _, leg := range journey.Legs {
				if leg.Walking || leg.Line == nil {
					continue
				}
				if labelMatches(leg.Line.Name, query) {
					return &FallbackMatch{
						TripID:    leg.TripID,
						LineName:  leg.Line.Name,
						Direction: leg.Direction,
						When:      leg.Departure,
						Stage:     "routes",
					}, nil
				}
			}
		}
	}
	return nil, nil
}

// labelMatches compares a line label against a normalized query: exact
// match, whitespace-insensitive match, or train number equality for numeric
// queries.
func labelMatches(label, query string) bool {
	labelUpper := strings.ToUpper(strings.TrimSpace(label))
	if labelUpper == "" {
		return false
	}
	if labelUpper == query {
		return true
	}
	if strings.ReplaceAll(labelUpper, " ", "") == strings.ReplaceAll(query, " ", "") {
		return true
	}
	if isAllDigits(query) {
		if number, ok := ExtractTrainNumber(label); ok && number == query {
			return true
		}
	}
	return false
}
