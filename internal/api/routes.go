package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/quotes", handler.GetQuotes)
		api.GET("/quotes/stay", handler.GetStayQuote)
		api.GET("/quotes/calendar", handler.GetPricingCalendar)
		api.GET("/recommendations", handler.GetRecommendations)
		api.GET("/allocations", handler.GetAllocations)
		api.GET("/protection", handler.GetProtection)
		api.POST("/protection/rebuild", handler.RebuildProtection)
		api.GET("/calendar/events", handler.GetEvents)
		api.GET("/config", handler.GetPropertyConfig)
		api.POST("/reservations/sync", handler.SyncReservations)
	}
}
