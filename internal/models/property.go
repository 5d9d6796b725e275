package models

import "time"

// RoomType describes one bookable room category.
type RoomType struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	BaseRate     float64 `json:"base_rate"`
	MaxOccupancy int     `json:"max_occupancy"`
}

// PropertyConfig is the immutable property description loaded at startup.
// It is passed into each engine at construction and never mutated.
type PropertyConfig struct {
	PropertyID   string     `json:"property_id"`
	PropertyName string     `json:"property_name"`
	TotalRooms   int        `json:"total_rooms"`
	RoomTypes    []RoomType `json:"room_types"`

	MinRateFloor   float64 `json:"min_rate_floor"`
	MaxRateCap     float64 `json:"max_rate_cap"`
	BuyoutBaseRate float64 `json:"buyout_base_rate"`

	// Optional per-weekday rate factors ("friday": 1.25, ...).
	// Missing days default to 1.0.
	DayOfWeekFactors map[string]float64 `json:"day_of_week_factors"`
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// RoomTypeByID returns the room type with the given ID.
func (p *PropertyConfig) RoomTypeByID(id string) (RoomType, bool) {
	for _, rt := range p.RoomTypes {
		if rt.ID == id {
			return rt, true
		}
	}
	return RoomType{}, false
}

// DayFactor returns the rate factor for a weekday, 1.0 when unconfigured.
func (p *PropertyConfig) DayFactor(day time.Weekday) float64 {
	if f, ok := p.DayOfWeekFactors[weekdayNames[day]]; ok && f > 0 {
		return f
	}
	return 1.0
}
