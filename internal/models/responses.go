// Package models defines the JSON shapes returned by the REST API.
package models

import (
	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/trains"
)

// ResponseModel is the envelope every API response is wrapped in.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

// ResponseCurrentTime returns the envelope timestamp in Unix milliseconds.
func ResponseCurrentTime(c clock.Clock) int64 {
	if c == nil {
		c = clock.RealClock{}
	}
	return c.NowUnixMilli()
}

// NewOKResponse wraps data in a 200 envelope.
func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     2,
	}
}

// SearchData is the payload of GET /api/trains/search.
type SearchData struct {
	Query       string                `json:"query"`
	Found       bool                  `json:"found"`
	Entry       *trains.IndexEntry    `json:"entry,omitempty"`
	Trip        *hafas.Trip           `json:"trip,omitempty"`
	TripError   string                `json:"tripError,omitempty"`
	Fallback    *trains.FallbackMatch `json:"fallback,omitempty"`
	IndexStatus trains.Status         `json:"indexStatus"`
	IndexSize   int                   `json:"indexSize"`
}

// AutocompleteData is the payload of GET /api/trains/autocomplete.
type AutocompleteData struct {
	Query      string               `json:"query"`
	Candidates []*trains.IndexEntry `json:"candidates"`
}

// IndexStatusData is the payload of GET /api/trains/index-status.
type IndexStatusData struct {
	Meta        trains.Meta `json:"meta"`
	CatalogSize int         `json:"catalogSize"`
}
