package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/allocation"
	"harvesthouse/server/internal/buyout"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/competitor"
	"harvesthouse/server/internal/demand"
	"harvesthouse/server/internal/models"
	"harvesthouse/server/internal/pricing"
	"harvesthouse/server/internal/queue"
	"harvesthouse/server/internal/scheduler"
)

type testServer struct {
	router *gin.Engine
	cache  *buyout.Cache
	queue  *queue.ReservationQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Buyout.HorizonDays = 30

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	property := &models.PropertyConfig{
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

	events := []models.EventWindow{{
		Name:         "Harvest Festival",
		StartDate:    time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC),
		DemandWeight: 0.8,
		Type:         models.EventTypeFestival,
		MinStay:      2,
	}}
	cal := calendar.New(models.SeasonalityTable{time.September: 1.3}, events)

	pricer := pricing.NewEngine(cfg, property, cal, logger)
	demandBuilder := demand.NewBuilder(cal, nil, nil, nil, logger)
	cache := buyout.NewCache()
	allocator := allocation.NewAllocator(cfg, property, pricer, cache, logger)
	buyoutEngine := buyout.NewEngine(cfg, property, cal, pricer, nil, nil, logger)
	feed := competitor.NewFeed(logger, filepath.Join(t.TempDir(), "absent.json"))
	sched := scheduler.NewScheduler(buyoutEngine, cache, feed, cfg, logger)
	reservationQueue := queue.NewReservationQueue(cfg.Ingest.MaxBatchSize, logger)

	handler := NewHandler(cfg, property, cal, pricer, allocator, demandBuilder, cache, feed, sched, reservationQueue, logger)
	router := gin.New()
	SetupRoutes(router, handler)

	return &testServer{router: router, cache: cache, queue: reservationQueue}
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func TestGetQuotes(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/quotes?startDate=2026-09-04&endDate=2026-09-05")
	require.Equal(t, http.StatusOK, resp.Code)

	var nights []struct {
		Date   string              `json:"date"`
		Quotes []models.PriceQuote `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &nights))
	require.Len(t, nights, 2)
	assert.Equal(t, "2026-09-04", nights[0].Date)
	assert.Len(t, nights[0].Quotes, 6)
	// Festival nights carry the event min stay
	assert.Equal(t, 2, nights[0].Quotes[0].MinStay)
}

func TestGetQuotes_SingleRoomType(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/quotes?startDate=2026-09-04&endDate=2026-09-04&roomTypeId=garden-queen")
	require.Equal(t, http.StatusOK, resp.Code)

	var nights []struct {
		Quotes []models.PriceQuote `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &nights))
	require.Len(t, nights, 1)
	require.Len(t, nights[0].Quotes, 1)
	assert.Equal(t, "garden-queen", nights[0].Quotes[0].RoomTypeID)

	resp = server.get(t, "/api/quotes?startDate=2026-09-04&endDate=2026-09-04&roomTypeId=penthouse")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetQuotes_BadRange(t *testing.T) {
	server := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes?startDate=soon&endDate=2026-09-05").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes?startDate=2026-09-05&endDate=2026-09-04").Code)
}

func TestGetQuotes_RangeSpanCapped(t *testing.T) {
	server := newTestServer(t)

	// The test horizon is 30 days; a multi-year range must be rejected
	// before any per-date work happens
	resp := server.get(t, "/api/quotes?startDate=2026-01-01&endDate=2046-01-01")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "30 days")

	// A range exactly at the horizon is still served
	resp = server.get(t, "/api/allocations?startDate=2026-09-01&endDate=2026-10-01")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetStayQuote(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/quotes/stay?checkIn=2026-09-03&checkOut=2026-09-07&roomTypeId=garden-queen")
	require.Equal(t, http.StatusOK, resp.Code)

	var stay models.StayQuote
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stay))
	assert.Equal(t, "garden-queen", stay.RoomTypeID)
	assert.Equal(t, 4, stay.Nights)
	require.Len(t, stay.NightlyQuotes, 4)
	// Four nights earn the 10% length-of-stay tier
	assert.Equal(t, 0.10, stay.StayDiscountPct)
	assert.Equal(t, stay.Subtotal-stay.DiscountAmount, stay.Total)
	// The festival minimum stay governs the whole stay
	assert.Equal(t, 2, stay.MinStay)

	assert.Equal(t, http.StatusNotFound, server.get(t, "/api/quotes/stay?checkIn=2026-09-03&checkOut=2026-09-07&roomTypeId=penthouse").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes/stay?checkIn=2026-09-07&checkOut=2026-09-03&roomTypeId=garden-queen").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes/stay?checkIn=2026-09-03&roomTypeId=garden-queen").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes/stay?checkIn=2026-09-03&checkOut=2036-09-03&roomTypeId=garden-queen").Code)
}

func TestGetRecommendations(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/recommendations?startDate=2026-09-04&endDate=2026-09-06")
	require.Equal(t, http.StatusOK, resp.Code)

	var advice []models.PricingAdvice
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &advice))
	require.Len(t, advice, 3)
	for _, a := range advice {
		assert.NotEmpty(t, a.Strategy)
		assert.NotZero(t, a.SuggestedMultiplier)
	}

	// Festival nights carry an event recommendation
	foundEvent := false
	for _, r := range advice[0].Recommendations {
		if r.Type == "event" {
			foundEvent = true
			assert.Contains(t, r.Message, "Harvest Festival")
		}
	}
	assert.True(t, foundEvent)

	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/recommendations").Code)
}

func TestGetPricingCalendar(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/quotes/calendar?year=2026&month=9&roomTypeId=vineyard-king")
	require.Equal(t, http.StatusOK, resp.Code)

	var cal models.PricingCalendar
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cal))
	assert.Equal(t, "vineyard-king", cal.RoomTypeID)
	assert.Len(t, cal.Days, 30)
	assert.Contains(t, cal.Events, "Harvest Festival")

	assert.Equal(t, http.StatusNotFound, server.get(t, "/api/quotes/calendar?year=2026&month=9&roomTypeId=penthouse").Code)
	assert.Equal(t, http.StatusBadRequest, server.get(t, "/api/quotes/calendar?year=2026&month=13&roomTypeId=vineyard-king").Code)
}

func TestGetAllocations(t *testing.T) {
	server := newTestServer(t)
	server.cache.ReplaceAll([]models.BuyoutProtectionRecord{
		{Date: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), Protected: true, TriggeringRule: "high-demand-event"},
	})

	resp := server.get(t, "/api/allocations?startDate=2026-09-04&endDate=2026-09-06")
	require.Equal(t, http.StatusOK, resp.Code)

	var decisions []models.AllocationDecision
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decisions))
	require.Len(t, decisions, 3)
	for _, d := range decisions {
		assert.Equal(t, 6, d.IndividualRoomsAvailable+d.BuyoutReserved)
	}
	// The protected night is fully reserved
	assert.True(t, decisions[1].ProtectedByBuyoutEngine)
	assert.Zero(t, decisions[1].IndividualRoomsAvailable)
}

func TestGetProtection(t *testing.T) {
	server := newTestServer(t)
	server.cache.ReplaceAll([]models.BuyoutProtectionRecord{
		{Date: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), Protected: true},
		{Date: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), Protected: true},
	})

	resp := server.get(t, "/api/protection?startDate=2026-09-03&endDate=2026-09-06")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Records []models.BuyoutProtectionRecord `json:"records"`
		Periods []models.ProtectionPeriod       `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Records, 4)
	require.Len(t, body.Periods, 1)
	assert.Equal(t, 2, body.Periods[0].Nights)
}

func TestRebuildProtectionEndpoint(t *testing.T) {
	server := newTestServer(t)
	require.Zero(t, server.cache.Len())

	resp := server.post(t, "/api/protection/rebuild", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 31, server.cache.Len())
}

func TestGetEvents(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/calendar/events?startDate=2026-09-01&endDate=2026-09-30")
	require.Equal(t, http.StatusOK, resp.Code)

	var events []models.EventWindow
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Harvest Festival", events[0].Name)
}

func TestGetPropertyConfig(t *testing.T) {
	server := newTestServer(t)

	resp := server.get(t, "/api/config")
	require.Equal(t, http.StatusOK, resp.Code)

	var property models.PropertyConfig
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &property))
	assert.Equal(t, "Test Inn", property.PropertyName)
	assert.Len(t, property.RoomTypes, 6)
}

func TestSyncReservations(t *testing.T) {
	server := newTestServer(t)

	resp := server.post(t, "/api/reservations/sync", `[
		{"reservation_id": "res-001", "room_type_id": "garden-queen", "guest_name": "A Guest",
		 "check_in": "2026-10-09T00:00:00Z", "check_out": "2026-10-11T00:00:00Z",
		 "status": "confirmed", "total_amount": 590}
	]`)
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.Equal(t, 1, server.queue.Len())

	assert.Equal(t, http.StatusBadRequest, server.post(t, "/api/reservations/sync", `[]`).Code)
	assert.Equal(t, http.StatusBadRequest, server.post(t, "/api/reservations/sync", `[{"room_type_id": "x"}]`).Code)
	assert.Equal(t, http.StatusBadRequest, server.post(t, "/api/reservations/sync", `{not json`).Code)
}
