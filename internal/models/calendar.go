package models

import "time"

// EventType classifies a demand event.
type EventType string

const (
	EventTypeHoliday  EventType = "holiday"
	EventTypeFestival EventType = "festival"
	EventTypeOther    EventType = "other"
)

// EventWindow is a named demand event covering an inclusive date range.
// DemandWeight is a 0.0-1.0+ score of how strongly the event raises demand.
type EventWindow struct {
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	DemandWeight float64   `json:"demand_weight"`
	Type         EventType `json:"type"`
	MinStay      int       `json:"min_stay"`
}

// Covers reports whether the window includes the given date (inclusive).
func (e EventWindow) Covers(date time.Time) bool {
	return !date.Before(e.StartDate) && !date.After(e.EndDate)
}

// SeasonalityTable maps a calendar month to its baseline demand multiplier.
type SeasonalityTable map[time.Month]float64
