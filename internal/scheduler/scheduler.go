package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/buyout"
	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/competitor"
)

// Scheduler manages the nightly buyout-protection rebuild. A full pass over
// the horizon is cheap (seconds), so the whole map is recomputed and swapped
// rather than patched incrementally.
type Scheduler struct {
	engine       *buyout.Engine
	cache        *buyout.Cache
	feed         *competitor.Feed
	cfg          *config.Config
	logger       *logrus.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
	jobMutex     sync.Mutex // Ensures sequential job execution
	isStartupRun bool       // Tracks whether we're in startup run
}

// NewScheduler creates a new scheduler
func NewScheduler(engine *buyout.Engine, cache *buyout.Cache, feed *competitor.Feed, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		engine:       engine,
		cache:        cache,
		feed:         feed,
		cfg:          cfg,
		logger:       logger,
		stopChan:     make(chan struct{}),
		isStartupRun: true, // Initialize as true for startup
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	// Run the startup rebuild in a separate goroutine so the server can
	// come up while the first pass is computed
	go func() {
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()
		s.logger.Info("Running startup protection rebuild")
		s.RebuildProtection()
		s.isStartupRun = false // Mark startup as complete
		s.logger.Info("Startup protection rebuild completed")
	}()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

// executeScheduledJobs runs all jobs that are scheduled for the given time
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	// Skip if we're still running startup jobs
	if s.isStartupRun {
		s.logger.Debug("Skipping scheduled jobs while startup is in progress")
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.WithFields(logrus.Fields{
		"hour":   t.Hour(),
		"minute": t.Minute(),
	}).Debug("Checking scheduled jobs")

	// Nightly rebuild at the configured hour
	if t.Hour() == s.cfg.Buyout.RebuildHour && t.Minute() == 0 {
		s.logger.Info("Starting scheduled protection rebuild")
		s.RebuildProtection()
		s.logger.Info("Completed scheduled protection rebuild")
	}
}

// RebuildProtection reloads the competitor snapshot and recomputes the
// protection map over the full horizon, swapping it into the cache.
func (s *Scheduler) RebuildProtection() {
	start := time.Now()

	if err := s.feed.Reload(); err != nil {
		// Stale competitor bands are usable; keep going with the last load
		s.logger.WithError(err).Warn("Competitor rate reload failed, keeping previous snapshot")
	}

	from := calendar.Day(time.Now())
	to := from.AddDate(0, 0, s.cfg.Buyout.HorizonDays)

	records := s.engine.ComputeProtection(from, to)
	s.cache.ReplaceAll(records)

	s.logger.WithFields(logrus.Fields{
		"horizon_days":    s.cfg.Buyout.HorizonDays,
		"dates_evaluated": s.cache.Len(),
		"protected_dates": s.cache.ProtectedCount(),
		"duration":        time.Since(start).String(),
	}).Info("Protection map rebuilt")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
