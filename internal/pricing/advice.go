package pricing

import (
	"fmt"
	"math"
	"time"

	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
)

// Strategy cut points over the composed seasonality/event/day-of-week
// multiplier and the occupancy bands they pair with.
const (
	maximizeMultiplier = 1.5
	optimizeMultiplier = 1.2
	maximizeOccupancy  = 0.70
	peakSeasonMult     = 1.2
	lowSeasonMult      = 0.9
	lastMinuteSellable = 0.60
)

// Advise summarizes how a date should be priced: one recommendation per
// notable demand signal, plus the overall strategy. Unknown occupancy
// produces neither occupancy advice nor the FILL strategy.
func (e *Engine) Advise(date time.Time, ctx models.DemandContext) models.PricingAdvice {
	date = calendar.Day(date)
	advice := models.PricingAdvice{Date: date}
	p := e.cfg.Pricing

	var occupancy float64
	occupancyKnown := ctx.CurrentOccupancyPct != nil
	if occupancyKnown {
		occupancy = *ctx.CurrentOccupancyPct
	}

	if occupancyKnown {
		if occupancy < p.LowOccupancyPct {
			advice.Recommendations = append(advice.Recommendations, models.Recommendation{
				Type:     "occupancy",
				Priority: "high",
				Message:  "Low occupancy for the date",
				Action:   "Reduce rates or open promotional inventory to stimulate demand",
			})
		} else if occupancy > p.HighOccupancyPct {
			advice.Recommendations = append(advice.Recommendations, models.Recommendation{
				Type:     "occupancy",
				Priority: "high",
				Message:  "House is nearly full",
				Action:   "Raise rates to capture the remaining demand",
			})
		}
	}

	if ctx.EventName != "" {
		minStay := ctx.EventMinStay
		if minStay < 1 {
			minStay = 1
		}
		advice.Recommendations = append(advice.Recommendations, models.Recommendation{
			Type:     "event",
			Priority: "high",
			Message:  fmt.Sprintf("%s drives demand on this date", ctx.EventName),
			Action:   fmt.Sprintf("Hold the %.0f%% premium and the %d-night minimum stay", math.Max(ctx.EventDemandWeight, 0)*100, minStay),
		})
	}

	season := e.seasonalityMultiplier(date, ctx)
	if season > peakSeasonMult {
		advice.Recommendations = append(advice.Recommendations, models.Recommendation{
			Type:     "season",
			Priority: "medium",
			Message:  "Peak season",
			Action:   "Ensure rates reflect the high-demand period",
		})
	} else if season < lowSeasonMult {
		advice.Recommendations = append(advice.Recommendations, models.Recommendation{
			Type:     "season",
			Priority: "medium",
			Message:  "Low season",
			Action:   "Consider packages or added value to attract bookings",
		})
	}

	if ctx.LeadTimeDays < p.LastMinuteDays && occupancyKnown && occupancy < lastMinuteSellable {
		advice.Recommendations = append(advice.Recommendations, models.Recommendation{
			Type:     "lead_time",
			Priority: "high",
			Message:  "Last-minute inventory available",
			Action:   "Consider a flash sale or an OTA visibility boost",
		})
	}

	total := season * (1.0 + math.Max(ctx.EventDemandWeight, 0)) * e.property.DayFactor(date.Weekday())
	switch {
	case total > maximizeMultiplier && occupancy > maximizeOccupancy:
		advice.Strategy = models.StrategyMaximize
		advice.PriceGuidance = "premium"
		advice.SuggestedMultiplier = 1.3
	case total > optimizeMultiplier:
		advice.Strategy = models.StrategyOptimize
		advice.PriceGuidance = "standard-plus"
		advice.SuggestedMultiplier = 1.1
	case occupancyKnown && occupancy < p.LowOccupancyPct:
		advice.Strategy = models.StrategyFill
		advice.PriceGuidance = "promotional"
		advice.SuggestedMultiplier = 0.85
	default:
		advice.Strategy = models.StrategyBalanced
		advice.PriceGuidance = "standard"
		advice.SuggestedMultiplier = 1.0
	}

	return advice
}
