package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/allocation"
	"harvesthouse/server/internal/api"
	"harvesthouse/server/internal/buyout"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/competitor"
	"harvesthouse/server/internal/database"
	"harvesthouse/server/internal/demand"
	"harvesthouse/server/internal/pricing"
	"harvesthouse/server/internal/processor"
	"harvesthouse/server/internal/queue"
	"harvesthouse/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	property, err := config.LoadPropertyConfig(cfg.Server.PropertyConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load property configuration")
	}
	logger.WithFields(logrus.Fields{
		"property":    property.PropertyName,
		"total_rooms": property.TotalRooms,
		"room_types":  len(property.RoomTypes),
	}).Info("Property configuration loaded")

	seasonality, events, err := config.LoadEventsConfig(cfg.Server.EventsConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load events configuration")
	}
	cal := calendar.New(seasonality, events)
	logger.Infof("Loaded %d event windows", cal.Len())

	// Reservation store backing the occupancy and booking-pace signals
	logger.Infof("Using database at: %s", cfg.Server.DatabasePath)
	db, err := database.NewDatabase(cfg.Server.DatabasePath, property.TotalRooms)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Separate gorm handle for the ingest pipeline writes
	gormDB, err := database.NewGormDB(cfg.Server.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize ingest database handle")
	}

	// Competitor rate snapshot
	feed := competitor.NewFeed(logger, cfg.Server.CompetitorRatesPath)

	// Deciders
	pricer := pricing.NewEngine(cfg, property, cal, logger)
	demandBuilder := demand.NewBuilder(cal, db, feed, time.Now, logger)
	buyoutEngine := buyout.NewEngine(cfg, property, cal, pricer, db, time.Now, logger)
	protectionCache := buyout.NewCache()
	allocator := allocation.NewAllocator(cfg, property, pricer, protectionCache, logger)

	// Reservation ingest pipeline
	reservationQueue := queue.NewReservationQueue(cfg.Ingest.MaxBatchSize, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, reservationQueue, cfg, logger)
	batchProcessor.Start()
	reservationQueue.Start()
	defer func() {
		reservationQueue.Close()
		batchProcessor.Stop()
	}()

	// Nightly protection rebuild
	sched := scheduler.NewScheduler(buyoutEngine, protectionCache, feed, cfg, logger)
	sched.Start()
	defer sched.Stop()

	// HTTP API
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	handler := api.NewHandler(cfg, property, cal, pricer, allocator, demandBuilder, protectionCache, feed, sched, reservationQueue, logger)
	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server stopped")
}
