package pricing

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
)

// ErrRoomTypeNotFound is returned when a quote is requested for a room type
// the property does not have. Every other missing input degrades to a
// neutral multiplier instead of failing.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrInvalidStay is returned when a stay quote is requested with a
// check-out on or before the check-in.
var ErrInvalidStay = errors.New("check-out must be after check-in")

// Engine computes bounded nightly rates. It is a pure computation over the
// immutable property configuration and the per-call demand context, so a
// single instance may be shared across request handlers without locking.
type Engine struct {
	cfg      *config.Config
	property *models.PropertyConfig
	cal      *calendar.Calendar
	logger   *logrus.Logger
}

// NewEngine creates a pricing engine.
func NewEngine(cfg *config.Config, property *models.PropertyConfig, cal *calendar.Calendar, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{
		cfg:      cfg,
		property: property,
		cal:      cal,
		logger:   logger,
	}
}

// Quote computes the nightly rate for one (date, room type) pair.
//
// Factors are applied multiplicatively in a fixed order so the breakdown is
// reproducible: base rate, seasonality, event demand, day of week, lead
// time, occupancy, competitor clamp, and finally the configured floor/cap.
func (e *Engine) Quote(date time.Time, roomTypeID string, ctx models.DemandContext) (models.PriceQuote, error) {
	roomType, ok := e.property.RoomTypeByID(roomTypeID)
	if !ok {
		return models.PriceQuote{}, fmt.Errorf("%w: %s", ErrRoomTypeNotFound, roomTypeID)
	}

	date = calendar.Day(date)
	breakdown := models.PriceBreakdown{
		Base:            roomType.BaseRate,
		SeasonalityMult: e.seasonalityMultiplier(date, ctx),
		EventMult:       1.0 + math.Max(ctx.EventDemandWeight, 0),
		DayOfWeekMult:   e.property.DayFactor(date.Weekday()),
		LeadTimeMult:    e.leadTimeMultiplier(ctx),
		OccupancyMult:   e.occupancyMultiplier(ctx.CurrentOccupancyPct),
	}

	rate := breakdown.Base
	rate *= breakdown.SeasonalityMult
	rate *= breakdown.EventMult
	rate *= breakdown.DayOfWeekMult
	rate *= breakdown.LeadTimeMult
	rate *= breakdown.OccupancyMult

	if band := ctx.CompetitorRateBand; band != nil && band.High > 0 {
		capHigh := band.High * e.cfg.Pricing.CompetitorHighMargin
		capLow := band.Low * e.cfg.Pricing.CompetitorLowMargin
		clamped := math.Min(math.Max(rate, capLow), capHigh)
		if clamped != rate {
			breakdown.CompetitorCapApplied = true
			rate = clamped
		}
	}

	// Round to whole dollars before the floor/cap so the bounds always hold
	// in the final rate, even when a bound is fractional.
	rate = math.Round(rate)
	bounded := math.Min(math.Max(rate, e.property.MinRateFloor), e.property.MaxRateCap)
	if bounded != rate {
		breakdown.BoundsClampApplied = true
		rate = bounded
	}

	minStay := ctx.EventMinStay
	if minStay < 1 {
		minStay = 1
	}

	return models.PriceQuote{
		Date:         date,
		RoomTypeID:   roomType.ID,
		RoomTypeName: roomType.Name,
		NightlyRate:  rate,
		MinStay:      minStay,
		Breakdown:    breakdown,
	}, nil
}

// QuoteAll quotes every individual room type for a date.
func (e *Engine) QuoteAll(date time.Time, ctx models.DemandContext) []models.PriceQuote {
	quotes := make([]models.PriceQuote, 0, len(e.property.RoomTypes))
	for _, rt := range e.property.RoomTypes {
		quote, err := e.Quote(date, rt.ID, ctx)
		if err != nil {
			// Cannot happen for configured room types; log and skip.
			e.logger.WithError(err).WithField("room_type_id", rt.ID).Error("Failed to quote configured room type")
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes
}

// ProjectRevenue compares the two channels for a date: the sum of
// individual-room quotes weighted by their expected sell-through, against
// the whole-property buyout rate under the same seasonality and event
// signals.
func (e *Engine) ProjectRevenue(date time.Time, ctx models.DemandContext) models.RevenueProjection {
	var individual float64
	for _, quote := range e.QuoteAll(date, ctx) {
		individual += quote.NightlyRate * e.sellThrough(ctx)
	}

	buyout := e.property.BuyoutBaseRate
	buyout *= e.seasonalityMultiplier(calendar.Day(date), ctx)
	buyout *= 1.0 + math.Max(ctx.EventDemandWeight, 0)

	return models.RevenueProjection{
		Individual: math.Round(individual),
		Buyout:     math.Round(buyout),
	}
}

// QuoteStay prices every night of [checkIn, checkOut) for one room type and
// applies the length-of-stay discount to the stay total. The highest event
// minimum stay across the nights applies to the whole stay.
func (e *Engine) QuoteStay(checkIn, checkOut time.Time, roomTypeID string, ctxFor func(time.Time) models.DemandContext) (models.StayQuote, error) {
	roomType, ok := e.property.RoomTypeByID(roomTypeID)
	if !ok {
		return models.StayQuote{}, fmt.Errorf("%w: %s", ErrRoomTypeNotFound, roomTypeID)
	}

	checkIn, checkOut = calendar.Day(checkIn), calendar.Day(checkOut)
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		return models.StayQuote{}, ErrInvalidStay
	}

	stay := models.StayQuote{
		RoomTypeID:   roomType.ID,
		RoomTypeName: roomType.Name,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Nights:       nights,
		MinStay:      1,
	}
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		quote, err := e.Quote(d, roomTypeID, ctxFor(d))
		if err != nil {
			return models.StayQuote{}, err
		}
		stay.NightlyQuotes = append(stay.NightlyQuotes, quote)
		stay.Subtotal += quote.NightlyRate
		if quote.MinStay > stay.MinStay {
			stay.MinStay = quote.MinStay
		}
	}

	stay.AvgNightlyRate = math.Round(stay.Subtotal / float64(nights))
	stay.StayDiscountPct = e.stayDiscount(nights)
	stay.DiscountAmount = math.Round(stay.Subtotal * stay.StayDiscountPct)
	stay.Total = stay.Subtotal - stay.DiscountAmount
	return stay, nil
}

// stayDiscount picks the length-of-stay tier, longest first.
func (e *Engine) stayDiscount(nights int) float64 {
	p := e.cfg.Pricing
	switch {
	case p.WeekStayNights > 0 && nights >= p.WeekStayNights:
		return p.WeekStayDiscount
	case p.LongStayNights > 0 && nights >= p.LongStayNights:
		return p.LongStayDiscount
	case p.MidStayNights > 0 && nights >= p.MidStayNights:
		return p.MidStayDiscount
	default:
		return 0
	}
}

// MonthlyCalendar produces a month of nightly rates for one room type.
// ctxFor supplies the demand context per day; the summary covers avg/min/max
// and the events touching the month.
func (e *Engine) MonthlyCalendar(year int, month time.Month, roomTypeID string, ctxFor func(time.Time) models.DemandContext) (models.PricingCalendar, error) {
	roomType, ok := e.property.RoomTypeByID(roomTypeID)
	if !ok {
		return models.PricingCalendar{}, fmt.Errorf("%w: %s", ErrRoomTypeNotFound, roomTypeID)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	cal := models.PricingCalendar{
		RoomTypeID:   roomType.ID,
		RoomTypeName: roomType.Name,
		Year:         year,
		Month:        month,
		BaseRate:     roomType.BaseRate,
		MinRate:      math.MaxFloat64,
	}

	var total float64
	seenEvents := make(map[string]bool)
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		ctx := ctxFor(date)
		quote, err := e.Quote(date, roomTypeID, ctx)
		if err != nil {
			return models.PricingCalendar{}, err
		}

		cal.Days = append(cal.Days, models.CalendarDay{
			Date:      date,
			DayOfWeek: date.Weekday(),
			Rate:      quote.NightlyRate,
			EventName: ctx.EventName,
			MinStay:   quote.MinStay,
		})
		total += quote.NightlyRate
		cal.MinRate = math.Min(cal.MinRate, quote.NightlyRate)
		cal.MaxRate = math.Max(cal.MaxRate, quote.NightlyRate)
		if ctx.EventName != "" && !seenEvents[ctx.EventName] {
			seenEvents[ctx.EventName] = true
			cal.Events = append(cal.Events, ctx.EventName)
		}
	}

	cal.AvgRate = math.Round(total / float64(len(cal.Days)))
	return cal, nil
}

// seasonalityMultiplier prefers the context value; a zero value means the
// caller did not resolve it and the calendar table is consulted directly.
func (e *Engine) seasonalityMultiplier(date time.Time, ctx models.DemandContext) float64 {
	if ctx.SeasonalityMultiplier > 0 {
		return ctx.SeasonalityMultiplier
	}
	return e.cal.SeasonalityFor(date.Month())
}

// leadTimeMultiplier raises rates inside the last-minute window and
// discounts far-out dates with a slow booking pace. The middle band is flat.
func (e *Engine) leadTimeMultiplier(ctx models.DemandContext) float64 {
	p := e.cfg.Pricing
	lead := ctx.LeadTimeDays
	if lead < 0 {
		lead = 0
	}

	if lead <= p.LastMinuteDays && p.LastMinuteDays > 0 {
		closeness := float64(p.LastMinuteDays-lead) / float64(p.LastMinuteDays)
		return 1.0 + p.LastMinuteUplift*closeness
	}

	if lead > p.FarOutDays && ctx.BookingPaceRatio != nil {
		pace := *ctx.BookingPaceRatio
		if pace < p.FarOutPaceThreshold && p.FarOutPaceThreshold > 0 {
			shortfall := (p.FarOutPaceThreshold - pace) / p.FarOutPaceThreshold
			return 1.0 - p.FarOutDiscount*shortfall
		}
	}

	return 1.0
}

// occupancyMultiplier is the scarcity step function. An unknown occupancy
// is a no-op, not an error.
func (e *Engine) occupancyMultiplier(occupancy *float64) float64 {
	if occupancy == nil {
		return 1.0
	}
	p := e.cfg.Pricing
	switch {
	case *occupancy < p.LowOccupancyPct:
		return p.LowOccupancyMult
	case *occupancy > p.HighOccupancyPct:
		return p.HighOccupancyMult
	default:
		return 1.0
	}
}

// sellThrough estimates the probability an individual room sells for the
// date, from the baseline scaled by the observed booking pace.
func (e *Engine) sellThrough(ctx models.DemandContext) float64 {
	rate := e.cfg.Allocation.BaseSellThrough
	if ctx.BookingPaceRatio != nil {
		pace := math.Min(math.Max(*ctx.BookingPaceRatio, 0.5), 1.2)
		rate *= pace
	}
	return math.Min(math.Max(rate, 0.20), 1.0)
}
