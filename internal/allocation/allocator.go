package allocation

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
	"harvesthouse/server/internal/pricing"
)

// Allocation decision reasons, recorded for operator audit.
const (
	ReasonBuyoutProtected   = "buyout-protected"
	ReasonNearTermRelease   = "near-term-release"
	ReasonLeadTimeDefault   = "lead-time-default"
	ReasonFarOutHold        = "far-out-hold"
	ReasonBuyoutFavored     = "revenue-favors-buyout"
	ReasonIndividualRelease = "individual-release"
)

// ProtectionSource is the read side of the buyout engine's cache. A missing
// record means the date is not protected; readers never block on it.
type ProtectionSource interface {
	RecordFor(date time.Time) (models.BuyoutProtectionRecord, bool)
}

// Allocator decides the per-date split between individually bookable rooms
// and inventory held for a full-property buyout. Stateless: every decision
// is a pure function of the configuration and the supplied context.
type Allocator struct {
	cfg        *config.Config
	property   *models.PropertyConfig
	pricer     *pricing.Engine
	protection ProtectionSource
	logger     *logrus.Logger
}

// NewAllocator creates an allocator. protection may be nil when no buyout
// engine runs; every date is then treated as unprotected.
func NewAllocator(cfg *config.Config, property *models.PropertyConfig, pricer *pricing.Engine, protection ProtectionSource, logger *logrus.Logger) *Allocator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Allocator{
		cfg:        cfg,
		property:   property,
		pricer:     pricer,
		protection: protection,
		logger:     logger,
	}
}

// Allocate produces the room split for one date.
//
// Rule order: buyout protection is an override; near-term dates release
// everything; dates without occupancy history fall back to the lead-time
// rule alone; otherwise the projected-revenue comparison decides, with
// day-of-week margins and a far-out hold for close calls.
func (a *Allocator) Allocate(date time.Time, ctx models.DemandContext) models.AllocationDecision {
	date = calendar.Day(date)
	total := a.property.TotalRooms
	revenue := a.pricer.ProjectRevenue(date, ctx)

	decision := models.AllocationDecision{
		Date:    date,
		Revenue: revenue,
		MinStay: maxInt(ctx.EventMinStay, 1),
	}

	if a.protection != nil {
		if record, ok := a.protection.RecordFor(date); ok && record.Protected {
			decision.IndividualRoomsAvailable = 0
			decision.BuyoutReserved = total
			decision.Reason = ReasonBuyoutProtected
			decision.ProtectedByBuyoutEngine = true
			return a.checked(decision)
		}
	}

	alloc := a.cfg.Allocation

	// Close-in, unsold buyout potential rarely materializes; empty rooms
	// are worse than discounted individual sales.
	if ctx.LeadTimeDays < alloc.NearTermDays {
		decision.IndividualRoomsAvailable = total
		decision.Reason = ReasonNearTermRelease
		return a.checked(decision)
	}

	// Far out, the revenue comparison is speculative either way: release
	// the majority but hold a few rooms back to keep the buyout option
	// open. Full-property holds on far dates are the buyout engine's call,
	// applied above as protection.
	if ctx.LeadTimeDays > alloc.FarOutDays {
		hold := minInt(alloc.FarOutHoldRooms, total)
		decision.IndividualRoomsAvailable = total - hold
		decision.BuyoutReserved = hold
		decision.Reason = ReasonFarOutHold
		return a.checked(decision)
	}

	// No occupancy history makes the revenue comparison indeterminate:
	// fall back to the lead-time rule alone.
	if ctx.CurrentOccupancyPct == nil && ctx.BookingPaceRatio == nil {
		decision.IndividualRoomsAvailable = total
		decision.Reason = ReasonLeadTimeDefault
		return a.checked(decision)
	}

	// Weekend nights bias toward buyout: individual revenue must clear the
	// buyout projection by a margin before all rooms open individually.
	// Weekday nights bias the other way.
	weekend := ctx.DayOfWeek == time.Friday || ctx.DayOfWeek == time.Saturday

	var buyoutWins bool
	if weekend {
		buyoutWins = revenue.Individual <= revenue.Buyout*(1.0+alloc.WeekendBuyoutMargin)
	} else {
		buyoutWins = revenue.Buyout > revenue.Individual*(1.0+alloc.WeekdayBuyoutMargin)
	}

	if buyoutWins {
		decision.IndividualRoomsAvailable = 0
		decision.BuyoutReserved = total
		decision.Reason = ReasonBuyoutFavored
		return a.checked(decision)
	}

	decision.IndividualRoomsAvailable = total
	decision.Reason = ReasonIndividualRelease
	return a.checked(decision)
}

// AllocateRange produces decisions for every date in [start, end].
func (a *Allocator) AllocateRange(start, end time.Time, ctxFor func(time.Time) models.DemandContext) []models.AllocationDecision {
	start, end = calendar.Day(start), calendar.Day(end)
	var decisions []models.AllocationDecision
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		decisions = append(decisions, a.Allocate(date, ctxFor(date)))
	}
	return decisions
}

// checked enforces the total-inventory invariant. A violation is a
// programming error, not a runtime condition to tolerate.
func (a *Allocator) checked(d models.AllocationDecision) models.AllocationDecision {
	if d.IndividualRoomsAvailable < 0 || d.BuyoutReserved < 0 ||
		d.IndividualRoomsAvailable+d.BuyoutReserved != a.property.TotalRooms {
		a.logger.WithFields(logrus.Fields{
			"date":       d.Date.Format("2006-01-02"),
			"individual": d.IndividualRoomsAvailable,
			"buyout":     d.BuyoutReserved,
			"total":      a.property.TotalRooms,
			"reason":     d.Reason,
		}).Panic("Allocation violated total-inventory invariant")
	}
	return d
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
