package models

import "time"

// RevenueProjection compares the two sales channels for one date.
type RevenueProjection struct {
	Individual float64 `json:"individual"`
	Buyout     float64 `json:"buyout"`
}

// AllocationDecision is the per-date split of inventory between individual
// room sales and a held-back full-property buyout.
// IndividualRoomsAvailable + BuyoutReserved always equals the property's
// total room count.
type AllocationDecision struct {
	Date                     time.Time `json:"date"`
	IndividualRoomsAvailable int       `json:"individual_rooms_available"`
	BuyoutReserved           int       `json:"buyout_reserved"`
	Reason                   string    `json:"reason"`
	ProtectedByBuyoutEngine  bool      `json:"protected_by_buyout_engine"`

	Revenue RevenueProjection `json:"revenue"`
	MinStay int               `json:"min_stay"`
}

// BuyoutProtectionRecord is the longer-horizon decision for one date,
// produced by the buyout engine batch pass and read by the allocator.
// Both projected revenue figures are retained for audit.
type BuyoutProtectionRecord struct {
	Date                       time.Time `json:"date"`
	Protected                  bool      `json:"protected"`
	TriggeringEvent            string    `json:"triggering_event,omitempty"`
	TriggeringRule             string    `json:"triggering_rule,omitempty"`
	ProjectedIndividualRevenue float64   `json:"projected_individual_revenue"`
	ProjectedBuyoutRevenue     float64   `json:"projected_buyout_revenue"`
}

// ProtectionPeriod is a run of consecutive protected dates.
type ProtectionPeriod struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Nights int       `json:"nights"`
}
