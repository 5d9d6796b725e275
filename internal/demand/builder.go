package demand

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
)

// OccupancySource exposes the reservation store aggregates the engines read.
type OccupancySource interface {
	// OccupancyFor returns the fraction of rooms occupied on the date, 0..1.
	OccupancyFor(date time.Time) (float64, error)

	// BookingPaceFor returns bookings received so far for the date versus
	// the historical average at the same lead time.
	BookingPaceFor(date time.Time) (float64, error)
}

// CompetitorSource exposes the injected competitor rate snapshot.
type CompetitorSource interface {
	BandFor(date time.Time) (models.RateBand, bool)
}

// Builder assembles a DemandContext per stay date from the calendar and the
// external collaborators. Sources may be nil; the corresponding signals are
// then simply absent and the engines fall back to their neutral defaults.
type Builder struct {
	cal        *calendar.Calendar
	occupancy  OccupancySource
	competitor CompetitorSource
	now        func() time.Time
	logger     *logrus.Logger
}

// NewBuilder creates a context builder. now defaults to time.Now.
func NewBuilder(cal *calendar.Calendar, occupancy OccupancySource, competitor CompetitorSource, now func() time.Time, logger *logrus.Logger) *Builder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Builder{
		cal:        cal,
		occupancy:  occupancy,
		competitor: competitor,
		now:        now,
		logger:     logger,
	}
}

// ContextFor resolves every demand signal for the date. Collaborator
// failures are logged and leave the signal unset; pricing must never be
// unavailable because a data source is.
func (b *Builder) ContextFor(date time.Time) models.DemandContext {
	date = calendar.Day(date)
	today := calendar.Day(b.now())

	lead := int(date.Sub(today).Hours() / 24)
	if lead < 0 {
		lead = 0
	}

	weight, eventName, minStay := b.cal.MaxDemandFor(date)
	ctx := models.DemandContext{
		Date:                  date,
		DayOfWeek:             date.Weekday(),
		LeadTimeDays:          lead,
		SeasonalityMultiplier: b.cal.SeasonalityFor(date.Month()),
		EventDemandWeight:     weight,
		EventName:             eventName,
		EventMinStay:          minStay,
	}

	if b.occupancy != nil {
		if occ, err := b.occupancy.OccupancyFor(date); err != nil {
			b.logger.WithError(err).WithField("date", date.Format("2006-01-02")).Warn("Failed to read occupancy")
		} else {
			ctx.CurrentOccupancyPct = &occ
		}

		if pace, err := b.occupancy.BookingPaceFor(date); err != nil {
			b.logger.WithError(err).WithField("date", date.Format("2006-01-02")).Warn("Failed to read booking pace")
		} else {
			ctx.BookingPaceRatio = &pace
		}
	}

	if b.competitor != nil {
		if band, ok := b.competitor.BandFor(date); ok {
			ctx.CompetitorRateBand = &band
		}
	}

	return ctx
}
