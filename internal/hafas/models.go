package hafas

import "time"

// Station is a named stop or station as reported upstream.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Line describes the service a schedule record belongs to.
type Line struct {
	Name    string `json:"name"`
	Product string `json:"product,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// ScheduleRecord is one arrival or departure occurrence reported by a
// station board. When is the realtime estimate; PlannedWhen the timetable
// value. Delay is in seconds and may be absent.
type ScheduleRecord struct {
	TripID      string     `json:"tripId"`
	Line        *Line      `json:"line"`
	Direction   string     `json:"direction,omitempty"`
	When        *time.Time `json:"when,omitempty"`
	PlannedWhen *time.Time `json:"plannedWhen,omitempty"`
	Delay       *int       `json:"delay,omitempty"`
	Platform    string     `json:"platform,omitempty"`
}

// Stopover is one stop along a trip's itinerary.
type Stopover struct {
	Stop             *Station   `json:"stop"`
	Arrival          *time.Time `json:"arrival,omitempty"`
	PlannedArrival   *time.Time `json:"plannedArrival,omitempty"`
	Departure        *time.Time `json:"departure,omitempty"`
	PlannedDeparture *time.Time `json:"plannedDeparture,omitempty"`
	ArrivalDelay     *int       `json:"arrivalDelay,omitempty"`
	DepartureDelay   *int       `json:"departureDelay,omitempty"`
	Platform         string     `json:"platform,omitempty"`
}

// Trip is the full itinerary of one specific run of a service.
type Trip struct {
	ID          string     `json:"id"`
	Line        *Line      `json:"line"`
	Direction   string     `json:"direction,omitempty"`
	Origin      *Station   `json:"origin,omitempty"`
	Destination *Station   `json:"destination,omitempty"`
	Departure   *time.Time `json:"departure,omitempty"`
	Arrival     *time.Time `json:"arrival,omitempty"`
	Stopovers   []Stopover `json:"stopovers,omitempty"`
}

// Leg is one segment of a multi-leg journey.
type Leg struct {
	TripID      string     `json:"tripId,omitempty"`
	Line        *Line      `json:"line,omitempty"`
	Direction   string     `json:"direction,omitempty"`
	Origin      *Station   `json:"origin,omitempty"`
	Destination *Station   `json:"destination,omitempty"`
	Departure   *time.Time `json:"departure,omitempty"`
	Arrival     *time.Time `json:"arrival,omitempty"`
	Walking     bool       `json:"walking,omitempty"`
}

// Journey is one multi-leg itinerary between two stations.
type Journey struct {
	Legs []Leg `json:"legs"`
}

// DelaySeconds returns the record's delay in seconds, or 0 if absent.
func (r ScheduleRecord) DelaySeconds() int {
	if r.Delay == nil {
		return 0
	}
	return *r.Delay
}

// EffectiveTime returns the realtime estimate when present, falling back to
// the planned time. Returns the zero time if neither is set.
func (r ScheduleRecord) EffectiveTime() time.Time {
	if r.When != nil {
		return *r.When
	}
	if r.PlannedWhen != nil {
		return *r.PlannedWhen
	}
	return time.Time{}
}

// LineName returns the record's line label, or "" if the line is missing.
func (r ScheduleRecord) LineName() string {
	if r.Line == nil {
		return ""
	}
	return r.Line.Name
}
