package allocation

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
	"harvesthouse/server/internal/pricing"
)

// stubProtection marks a fixed set of dates as protected.
type stubProtection struct {
	protected map[string]bool
}

func (s *stubProtection) RecordFor(date time.Time) (models.BuyoutProtectionRecord, bool) {
	key := calendar.Day(date).Format("2006-01-02")
	if !s.protected[key] {
		return models.BuyoutProtectionRecord{}, false
	}
	return models.BuyoutProtectionRecord{
		Date:            calendar.Day(date),
		Protected:       true,
		TriggeringRule:  "high-demand-event",
		TriggeringEvent: "Test Festival",
	}, true
}

func testProperty() *models.PropertyConfig {
	return &models.PropertyConfig{
		PropertyID:   "test-inn",
		PropertyName: "Test Inn",
		TotalRooms:   6,
		RoomTypes: []models.RoomType{
			{ID: "vineyard-king", Name: "Vineyard King Suite", BaseRate: 425, MaxOccupancy: 2},
			{ID: "estate-king", Name: "Estate King", BaseRate: 375, MaxOccupancy: 2},
			{ID: "garden-queen", Name: "Garden Queen", BaseRate: 295, MaxOccupancy: 2},
			{ID: "courtyard-queen", Name: "Courtyard Queen", BaseRate: 285, MaxOccupancy: 2},
			{ID: "hillside-double", Name: "Hillside Double", BaseRate: 265, MaxOccupancy: 4},
			{ID: "cottage-double", Name: "Cottage Double", BaseRate: 235, MaxOccupancy: 4},
		},
		MinRateFloor:   185,
		MaxRateCap:     950,
		BuyoutBaseRate: 1450,
	}
}

func testAllocator(t *testing.T, protection ProtectionSource) *Allocator {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	property := testProperty()
	pricer := pricing.NewEngine(cfg, property, calendar.New(nil, nil), logger)
	return NewAllocator(cfg, property, pricer, protection, logger)
}

func floatPtr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAllocate_ProtectionOverridesEverything(t *testing.T) {
	protection := &stubProtection{protected: map[string]bool{"2026-09-05": true}}
	allocator := testAllocator(t, protection)

	// Even a near-term date stays fully reserved while protected
	decision := allocator.Allocate(date(2026, 9, 5), models.DemandContext{
		Date:                date(2026, 9, 5),
		DayOfWeek:           time.Saturday,
		LeadTimeDays:        3,
		CurrentOccupancyPct: floatPtr(0.9),
	})

	assert.Zero(t, decision.IndividualRoomsAvailable)
	assert.Equal(t, 6, decision.BuyoutReserved)
	assert.Equal(t, ReasonBuyoutProtected, decision.Reason)
	assert.True(t, decision.ProtectedByBuyoutEngine)
}

func TestAllocate_NearTermReleasesAll(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	decision := allocator.Allocate(date(2026, 9, 5), models.DemandContext{
		Date:                date(2026, 9, 5),
		DayOfWeek:           time.Saturday,
		LeadTimeDays:        5,
		CurrentOccupancyPct: floatPtr(0.3),
		BookingPaceRatio:    floatPtr(0.9),
	})

	assert.Equal(t, 6, decision.IndividualRoomsAvailable)
	assert.Zero(t, decision.BuyoutReserved)
	assert.Equal(t, ReasonNearTermRelease, decision.Reason)
}

func TestAllocate_FarOutHoldsPartialInventory(t *testing.T) {
	allocator := testAllocator(t, nil)

	// A plain weekday ten months out: most rooms open individually, a couple
	// held back to keep the buyout option alive
	decision := allocator.Allocate(date(2027, 6, 15), models.DemandContext{
		Date:         date(2027, 6, 15),
		DayOfWeek:    time.Tuesday,
		LeadTimeDays: 290,
	})

	assert.Equal(t, 4, decision.IndividualRoomsAvailable)
	assert.Equal(t, 2, decision.BuyoutReserved)
	assert.Equal(t, ReasonFarOutHold, decision.Reason)
	assert.Greater(t, decision.IndividualRoomsAvailable, decision.BuyoutReserved)
}

func TestAllocate_NoSignalsFallsBackToLeadTime(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	decision := allocator.Allocate(date(2026, 10, 7), models.DemandContext{
		Date:         date(2026, 10, 7),
		DayOfWeek:    time.Wednesday,
		LeadTimeDays: 40,
	})

	assert.Equal(t, 6, decision.IndividualRoomsAvailable)
	assert.Zero(t, decision.BuyoutReserved)
	assert.Equal(t, ReasonLeadTimeDefault, decision.Reason)
}

func TestAllocate_WeekendFavorsBuyout(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	// Friday, mid-band lead: individual (1880 * 0.70 = 1316) does not clear
	// buyout (1450) plus the weekend margin
	decision := allocator.Allocate(date(2026, 10, 9), models.DemandContext{
		Date:                date(2026, 10, 9),
		DayOfWeek:           time.Friday,
		LeadTimeDays:        41,
		CurrentOccupancyPct: floatPtr(0.5),
		BookingPaceRatio:    floatPtr(1.0),
	})

	assert.Zero(t, decision.IndividualRoomsAvailable)
	assert.Equal(t, 6, decision.BuyoutReserved)
	assert.Equal(t, ReasonBuyoutFavored, decision.Reason)
}

func TestAllocate_WeekdayKeepsRoomsIndividual(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	// Tuesday: buyout (1450) does not beat individual (1316) by the 20%
	// weekday margin, so everything opens individually
	decision := allocator.Allocate(date(2026, 10, 6), models.DemandContext{
		Date:                date(2026, 10, 6),
		DayOfWeek:           time.Tuesday,
		LeadTimeDays:        41,
		CurrentOccupancyPct: floatPtr(0.5),
		BookingPaceRatio:    floatPtr(1.0),
	})

	assert.Equal(t, ReasonIndividualRelease, decision.Reason)
	assert.Equal(t, 6, decision.IndividualRoomsAvailable)
	assert.Zero(t, decision.BuyoutReserved)
}

func TestAllocate_SlowWeekdayFavorsBuyout(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	// A slow pace halves the sell-through, collapsing the individual
	// projection (1880 * 0.35 = 658) below the buyout-plus-margin bar
	decision := allocator.Allocate(date(2026, 10, 6), models.DemandContext{
		Date:                date(2026, 10, 6),
		DayOfWeek:           time.Tuesday,
		LeadTimeDays:        41,
		CurrentOccupancyPct: floatPtr(0.5),
		BookingPaceRatio:    floatPtr(0.5),
	})

	assert.Equal(t, ReasonBuyoutFavored, decision.Reason)
	assert.Zero(t, decision.IndividualRoomsAvailable)
	assert.Equal(t, 6, decision.BuyoutReserved)
}

func TestAllocate_InventoryInvariantHolds(t *testing.T) {
	protection := &stubProtection{protected: map[string]bool{"2026-09-05": true, "2026-09-06": true}}
	allocator := testAllocator(t, protection)

	paces := []*float64{nil, floatPtr(0.5), floatPtr(1.0), floatPtr(1.3)}
	for lead := 0; lead <= 400; lead += 13 {
		day := date(2026, 9, 1).AddDate(0, 0, lead%60)
		ctx := models.DemandContext{
			Date:             day,
			DayOfWeek:        day.Weekday(),
			LeadTimeDays:     lead,
			BookingPaceRatio: paces[lead%len(paces)],
		}
		if ctx.BookingPaceRatio != nil {
			ctx.CurrentOccupancyPct = floatPtr(0.5)
		}

		decision := allocator.Allocate(day, ctx)
		assert.Equal(t, 6, decision.IndividualRoomsAvailable+decision.BuyoutReserved,
			"lead %d on %s", lead, day.Format("2006-01-02"))
		assert.GreaterOrEqual(t, decision.IndividualRoomsAvailable, 0)
		assert.GreaterOrEqual(t, decision.BuyoutReserved, 0)
		assert.NotEmpty(t, decision.Reason)
	}
}

func TestAllocateRange(t *testing.T) {
	allocator := testAllocator(t, &stubProtection{})

	ctxFor := func(d time.Time) models.DemandContext {
		return models.DemandContext{Date: d, DayOfWeek: d.Weekday(), LeadTimeDays: 30}
	}

	decisions := allocator.AllocateRange(date(2026, 10, 1), date(2026, 10, 7), ctxFor)
	require.Len(t, decisions, 7)
	for i, d := range decisions {
		assert.Equal(t, date(2026, 10, 1+i), d.Date)
		assert.Equal(t, 6, d.IndividualRoomsAvailable+d.BuyoutReserved)
	}
}
