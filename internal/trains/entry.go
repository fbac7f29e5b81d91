package trains

import (
	"strings"
	"time"

	"zugfinder.bahnradar.org/internal/hafas"
)

// IndexEntry is one observed occurrence of a train service at a polled
// station. Entries are immutable once created; a rebuild replaces the whole
// index rather than mutating entries in place.
type IndexEntry struct {
	TripID      string    `json:"tripId"`
	LineName    string    `json:"lineName"`
	TrainNumber string    `json:"trainNumber"`
	TrainType   string    `json:"trainType,omitempty"`
	StationID   string    `json:"stationId"`
	StationName string    `json:"stationName"`
	Direction   string    `json:"direction,omitempty"`
	Time        time.Time `json:"time"`
	Delay       int       `json:"delay"`
	Source      string    `json:"source"`
}

// BuildEntry turns one raw schedule record into an index entry plus the
// lookup keys it is filed under. Records missing a trip ID, a line label,
// or an extractable train number are skipped (ok=false); that is expected
// filtering, not an error.
//
// Keys for "ICE 513": "513", "ICE513", "ICE 513", and the raw label
// uppercased.
func BuildEntry(rec hafas.ScheduleRecord, station Station, source string) (*IndexEntry, []string, bool) {
	lineName := rec.LineName()
	if rec.TripID == "" || lineName == "" {
		return nil, nil, false
	}

	number, ok := ExtractTrainNumber(lineName)
	if !ok {
		return nil, nil, false
	}
	trainType, _ := ExtractTrainType(lineName)

	entry := &IndexEntry{
		TripID:      rec.TripID,
		LineName:    lineName,
		TrainNumber: number,
		TrainType:   trainType,
		StationID:   station.ID,
		StationName: station.Name,
		Direction:   rec.Direction,
		Time:        rec.EffectiveTime(),
		Delay:       rec.DelaySeconds(),
		Source:      source,
	}

	keys := make([]string, 0, 4)
	keys = append(keys, number)
	if trainType != "" {
		keys = append(keys, trainType+number)
		keys = append(keys, trainType+" "+number)
	}
	rawKey := strings.ToUpper(strings.TrimSpace(lineName))
	duplicate := false
	for _, key := range keys {
		if key == rawKey {
			duplicate = true
			break
		}
	}
	if !duplicate {
		keys = append(keys, rawKey)
	}

	return entry, keys, true
}
