package buyout

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/demand"
	"harvesthouse/server/internal/models"
	"harvesthouse/server/internal/pricing"
)

// Protection rule names recorded on each record for audit.
const (
	RuleHighDemandEvent = "high-demand-event"
	RuleRevenuePremium  = "revenue-premium"
)

// Engine is the longer-horizon policy layer: it decides in advance which
// dates are held exclusively for a full-property buyout. It runs as a batch
// pass over a horizon, before the per-date allocator, and is fully
// deterministic for a fixed evaluation instant.
type Engine struct {
	cfg       *config.Config
	property  *models.PropertyConfig
	cal       *calendar.Calendar
	pricer    *pricing.Engine
	occupancy demand.OccupancySource
	now       func() time.Time
	logger    *logrus.Logger
}

// NewEngine creates a buyout allocation engine. occupancy may be nil; pace
// and occupancy then default to neutral. now defaults to time.Now.
func NewEngine(cfg *config.Config, property *models.PropertyConfig, cal *calendar.Calendar, pricer *pricing.Engine, occupancy demand.OccupancySource, now func() time.Time, logger *logrus.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{
		cfg:       cfg,
		property:  property,
		cal:       cal,
		pricer:    pricer,
		occupancy: occupancy,
		now:       now,
		logger:    logger,
	}
}

// ComputeProtection analyzes every date in [start, end] and returns one
// record per date. Lead time is measured from the evaluation instant, not
// the stay date: protection is decided in advance, not at booking time.
func (e *Engine) ComputeProtection(start, end time.Time) []models.BuyoutProtectionRecord {
	start, end = calendar.Day(start), calendar.Day(end)
	today := calendar.Day(e.now())

	var records []models.BuyoutProtectionRecord
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		records = append(records, e.analyzeDate(date, today))
	}
	return records
}

func (e *Engine) analyzeDate(date, today time.Time) models.BuyoutProtectionRecord {
	lead := int(date.Sub(today).Hours() / 24)
	if lead < 0 {
		lead = 0
	}

	weight, eventName, minStay := e.cal.MaxDemandFor(date)
	ctx := models.DemandContext{
		Date:                  date,
		DayOfWeek:             date.Weekday(),
		LeadTimeDays:          lead,
		SeasonalityMultiplier: e.cal.SeasonalityFor(date.Month()),
		EventDemandWeight:     weight,
		EventName:             eventName,
		EventMinStay:          minStay,
	}

	var pace float64 = 1.0
	if e.occupancy != nil {
		if occ, err := e.occupancy.OccupancyFor(date); err == nil {
			ctx.CurrentOccupancyPct = &occ
		}
		if p, err := e.occupancy.BookingPaceFor(date); err == nil {
			pace = p
			ctx.BookingPaceRatio = &p
		}
	}

	revenue := e.pricer.ProjectRevenue(date, ctx)
	record := models.BuyoutProtectionRecord{
		Date:                       date,
		ProjectedIndividualRevenue: revenue.Individual,
		ProjectedBuyoutRevenue:     revenue.Buyout,
	}

	// Booking pace shifts the bars: confirmed demand protects sooner, a
	// slow date releases rooms to salvage individual revenue.
	weightBar := e.cfg.Buyout.HighDemandWeight
	marginBar := e.cfg.Buyout.RevenueMargin
	if pace >= e.cfg.Buyout.PaceHighRatio {
		weightBar -= e.cfg.Buyout.PaceThresholdShift
		marginBar -= e.cfg.Buyout.PaceThresholdShift
	} else if pace <= e.cfg.Buyout.PaceLowRatio {
		weightBar += e.cfg.Buyout.PaceThresholdShift
		marginBar += e.cfg.Buyout.PaceThresholdShift
	}

	// Rule (a): a high-demand event with enough advance notice. The advance
	// window keeps last-minute demand from locking out individual sales.
	if weight >= weightBar && lead >= e.cfg.Buyout.MinAdvanceDays {
		record.Protected = true
		record.TriggeringRule = RuleHighDemandEvent
		record.TriggeringEvent = eventName
		return record
	}

	// Rule (b): pure revenue-driven protection, no named event required. The
	// advance window belongs to rule (a) only: when a buyout clearly out-earns
	// the rooms, holding the date is right at any lead time.
	if revenue.Buyout > revenue.Individual*(1.0+marginBar) {
		record.Protected = true
		record.TriggeringRule = RuleRevenuePremium
		record.TriggeringEvent = eventName
		return record
	}

	return record
}

// GroupProtected collapses consecutive protected dates into periods for
// dashboard display.
func GroupProtected(records []models.BuyoutProtectionRecord) []models.ProtectionPeriod {
	var periods []models.ProtectionPeriod
	var current *models.ProtectionPeriod

	for _, r := range records {
		if !r.Protected {
			current = nil
			continue
		}
		if current != nil && r.Date.Sub(current.End).Hours() == 24 {
			current.End = r.Date
			current.Nights++
			continue
		}
		periods = append(periods, models.ProtectionPeriod{Start: r.Date, End: r.Date, Nights: 1})
		current = &periods[len(periods)-1]
	}
	return periods
}
