package models

import "time"

// RateBand is a low/high competitor price band for a date.
type RateBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// DemandContext carries the demand signals for one stay date. It is derived
// fresh per query and never stored. Pointer fields are optional: a nil value
// means the signal is unavailable and the engine falls back to a neutral
// default instead of failing.
type DemandContext struct {
	Date         time.Time    `json:"date"`
	DayOfWeek    time.Weekday `json:"day_of_week"`
	LeadTimeDays int          `json:"lead_time_days"`

	SeasonalityMultiplier float64 `json:"seasonality_multiplier"`
	EventDemandWeight     float64 `json:"event_demand_weight"`
	EventName             string  `json:"event_name,omitempty"`
	EventMinStay          int     `json:"event_min_stay,omitempty"`

	CurrentOccupancyPct *float64  `json:"current_occupancy_pct,omitempty"`
	BookingPaceRatio    *float64  `json:"booking_pace_ratio,omitempty"`
	CompetitorRateBand  *RateBand `json:"competitor_rate_band,omitempty"`
}

// PriceBreakdown records every factor applied to a quote, in application
// order, so a rate can be audited and reproduced.
type PriceBreakdown struct {
	Base                 float64 `json:"base"`
	SeasonalityMult      float64 `json:"seasonality_mult"`
	EventMult            float64 `json:"event_mult"`
	DayOfWeekMult        float64 `json:"day_of_week_mult"`
	LeadTimeMult         float64 `json:"lead_time_mult"`
	OccupancyMult        float64 `json:"occupancy_mult"`
	CompetitorCapApplied bool    `json:"competitor_cap_applied"`
	BoundsClampApplied   bool    `json:"bounds_clamp_applied"`
}

// PriceQuote is the nightly rate for one (date, room type) pair.
type PriceQuote struct {
	Date         time.Time      `json:"date"`
	RoomTypeID   string         `json:"room_type_id"`
	RoomTypeName string         `json:"room_type_name"`
	NightlyRate  float64        `json:"nightly_rate"`
	MinStay      int            `json:"min_stay"`
	Breakdown    PriceBreakdown `json:"breakdown"`
}

// StayQuote prices a consecutive multi-night stay for one room type. The
// length-of-stay discount applies to the stay total; the nightly quotes keep
// their undiscounted rates so the per-night audit stays valid.
type StayQuote struct {
	RoomTypeID      string       `json:"room_type_id"`
	RoomTypeName    string       `json:"room_type_name"`
	CheckIn         time.Time    `json:"check_in"`
	CheckOut        time.Time    `json:"check_out"`
	Nights          int          `json:"nights"`
	NightlyQuotes   []PriceQuote `json:"nightly_quotes"`
	Subtotal        float64      `json:"subtotal"`
	AvgNightlyRate  float64      `json:"avg_nightly_rate"`
	StayDiscountPct float64      `json:"stay_discount_pct"`
	DiscountAmount  float64      `json:"discount_amount"`
	Total           float64      `json:"total"`
	MinStay         int          `json:"min_stay"`
}

// Overall pricing strategy labels.
const (
	StrategyMaximize = "MAXIMIZE"
	StrategyOptimize = "OPTIMIZE"
	StrategyFill     = "FILL"
	StrategyBalanced = "BALANCED"
)

// Recommendation is one actionable pricing suggestion for a date.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// PricingAdvice bundles the per-signal recommendations for a date with the
// overall strategy derived from the composed demand multipliers.
type PricingAdvice struct {
	Date                time.Time        `json:"date"`
	Strategy            string           `json:"strategy"`
	PriceGuidance       string           `json:"price_guidance"`
	SuggestedMultiplier float64          `json:"suggested_multiplier"`
	Recommendations     []Recommendation `json:"recommendations"`
}

// CalendarDay is one day of a monthly pricing calendar.
type CalendarDay struct {
	Date      time.Time    `json:"date"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	Rate      float64      `json:"rate"`
	EventName string       `json:"event_name,omitempty"`
	MinStay   int          `json:"min_stay"`
}

// PricingCalendar is a month of rates for one room type with a summary
// for dashboard rendering.
type PricingCalendar struct {
	RoomTypeID   string        `json:"room_type_id"`
	RoomTypeName string        `json:"room_type_name"`
	Year         int           `json:"year"`
	Month        time.Month    `json:"month"`
	BaseRate     float64       `json:"base_rate"`
	Days         []CalendarDay `json:"days"`
	AvgRate      float64       `json:"avg_rate"`
	MinRate      float64       `json:"min_rate"`
	MaxRate      float64       `json:"max_rate"`
	Events       []string      `json:"events"`
}
