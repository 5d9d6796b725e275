package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

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

type Handler struct {
	logger    *logrus.Logger
	cfg       *config.Config
	property  *models.PropertyConfig
	cal       *calendar.Calendar
	pricer    *pricing.Engine
	allocator *allocation.Allocator
	demand    *demand.Builder
	cache     *buyout.Cache
	feed      *competitor.Feed
	scheduler *scheduler.Scheduler
	queue     *queue.ReservationQueue
}

type DateRange struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

type CalendarRequest struct {
	Year       int    `form:"year" binding:"required"`
	Month      int    `form:"month" binding:"required,min=1,max=12"`
	RoomTypeID string `form:"roomTypeId" binding:"required"`
}

type StayRequest struct {
	CheckIn    string `form:"checkIn" binding:"required"`
	CheckOut   string `form:"checkOut" binding:"required"`
	RoomTypeID string `form:"roomTypeId" binding:"required"`
}

func NewHandler(cfg *config.Config, property *models.PropertyConfig, cal *calendar.Calendar, pricer *pricing.Engine, allocator *allocation.Allocator, demandBuilder *demand.Builder, cache *buyout.Cache, feed *competitor.Feed, sched *scheduler.Scheduler, q *queue.ReservationQueue, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		logger:    logger,
		cfg:       cfg,
		property:  property,
		cal:       cal,
		pricer:    pricer,
		allocator: allocator,
		demand:    demandBuilder,
		cache:     cache,
		feed:      feed,
		scheduler: sched,
		queue:     q,
	}
}

func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	var dateRange DateRange
	if err := c.ShouldBindQuery(&dateRange); err != nil {
		h.logger.WithError(err).Error("Failed to parse date range")
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate and endDate are required"})
		return time.Time{}, time.Time{}, false
	}

	start, err := time.Parse("2006-01-02", dateRange.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", dateRange.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must not be before startDate"})
		return time.Time{}, time.Time{}, false
	}

	// Every range endpoint computes per date, so the span is capped at the
	// buyout horizon to keep a single request bounded.
	maxSpan := h.cfg.Buyout.HorizonDays
	if span := int(end.Sub(start).Hours() / 24); span > maxSpan {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("date range must not exceed %d days", maxSpan)})
		return time.Time{}, time.Time{}, false
	}

	return calendar.Day(start), calendar.Day(end), true
}

// GetQuotes returns nightly quotes for every room type across a date range.
func (h *Handler) GetQuotes(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	roomTypeID := c.Query("roomTypeId")

	type nightly struct {
		Date   string              `json:"date"`
		Quotes []models.PriceQuote `json:"quotes"`
	}

	var out []nightly
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ctx := h.demand.ContextFor(d)
		if roomTypeID != "" {
			quote, err := h.pricer.Quote(d, roomTypeID, ctx)
			if err != nil {
				h.logger.WithError(err).WithField("room_type", roomTypeID).Error("Failed to quote room type")
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown room type"})
				return
			}
			out = append(out, nightly{Date: d.Format("2006-01-02"), Quotes: []models.PriceQuote{quote}})
			continue
		}
		out = append(out, nightly{Date: d.Format("2006-01-02"), Quotes: h.pricer.QuoteAll(d, ctx)})
	}

	c.JSON(http.StatusOK, out)
}

// GetStayQuote prices a multi-night stay for one room type, with the
// length-of-stay discount applied to the total.
func (h *Handler) GetStayQuote(c *gin.Context) {
	var req StayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse stay request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "checkIn, checkOut and roomTypeId are required"})
		return
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkIn, expected YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkOut, expected YYYY-MM-DD"})
		return
	}
	if nights := int(checkOut.Sub(checkIn).Hours() / 24); nights > h.cfg.Buyout.HorizonDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("stay must not exceed %d nights", h.cfg.Buyout.HorizonDays)})
		return
	}

	stay, err := h.pricer.QuoteStay(checkIn, checkOut, req.RoomTypeID, h.demand.ContextFor)
	if err != nil {
		if errors.Is(err, pricing.ErrRoomTypeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown room type"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "checkOut must be after checkIn"})
		return
	}

	c.JSON(http.StatusOK, stay)
}

// GetRecommendations returns per-date pricing advice across a range.
func (h *Handler) GetRecommendations(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	var out []models.PricingAdvice
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, h.pricer.Advise(d, h.demand.ContextFor(d)))
	}

	c.JSON(http.StatusOK, out)
}

// GetPricingCalendar returns the month view for one room type.
func (h *Handler) GetPricingCalendar(c *gin.Context) {
	var req CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse calendar request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "year, month and roomTypeId are required"})
		return
	}

	cal, err := h.pricer.MonthlyCalendar(req.Year, time.Month(req.Month), req.RoomTypeID, h.demand.ContextFor)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build pricing calendar")
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room type"})
		return
	}

	c.JSON(http.StatusOK, cal)
}

// GetAllocations returns the individual/buyout split for each date in range.
func (h *Handler) GetAllocations(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	decisions := h.allocator.AllocateRange(start, end, h.demand.ContextFor)
	c.JSON(http.StatusOK, decisions)
}

// GetProtection returns per-date protection records plus the grouped
// consecutive periods for the requested range.
func (h *Handler) GetProtection(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	records := h.cache.RecordsInRange(start, end)
	c.JSON(http.StatusOK, gin.H{
		"rebuilt_at": h.cache.RebuiltAt(),
		"records":    records,
		"periods":    buyout.GroupProtected(records),
	})
}

// RebuildProtection triggers an immediate recompute of the protection map.
func (h *Handler) RebuildProtection(c *gin.Context) {
	h.scheduler.RebuildProtection()
	c.JSON(http.StatusOK, gin.H{
		"rebuilt_at":       h.cache.RebuiltAt(),
		"dates_evaluated":  h.cache.Len(),
		"protected_dates":  h.cache.ProtectedCount(),
		"competitor_dates": h.feed.Dates(),
	})
}

// GetEvents returns the event windows overlapping a date range.
func (h *Handler) GetEvents(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.cal.EventsInRange(start, end))
}

// GetPropertyConfig exposes the static property setup for dashboards.
func (h *Handler) GetPropertyConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.property)
}

// SyncReservations accepts a batch of reservations from the PMS feed and
// enqueues it for persistence.
func (h *Handler) SyncReservations(c *gin.Context) {
	var batch []*models.Reservation
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.WithError(err).Error("Failed to parse reservation batch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation payload"})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty reservation batch"})
		return
	}
	for _, r := range batch {
		if r.ReservationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id is required"})
			return
		}
	}

	if err := h.queue.Push(batch); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue reservation batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingest queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": len(batch)})
}
