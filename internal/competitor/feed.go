package competitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
)

// snapshot is the on-disk shape of the scraped competitor rate file. The
// scraping itself happens outside this process; the engine only consumes
// the snapshot as an injected signal.
type snapshot struct {
	ScrapedAt string `json:"scraped_at"`
	Results   []struct {
		Checkin    string  `json:"checkin"`
		Competitor string  `json:"competitor"`
		LowestRate float64 `json:"lowest_rate"`
	} `json:"results"`
}

// Feed serves per-date competitor rate bands from the latest snapshot file.
// The band map is replaced wholesale on reload and read under an RLock, so
// lookups are safe from concurrent request handlers.
type Feed struct {
	logger   *logrus.Logger
	path     string
	mu       sync.RWMutex
	bands    map[string]models.RateBand
	loadedAt time.Time
}

// NewFeed creates a feed and loads the snapshot. A missing snapshot file is
// not an error: quotes simply skip the competitor clamp until one appears.
func NewFeed(logger *logrus.Logger, path string) *Feed {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	f := &Feed{
		logger: logger,
		path:   path,
		bands:  make(map[string]models.RateBand),
	}

	if err := f.Reload(); err != nil {
		f.logger.Warnf("Could not load competitor rates: %v", err)
	}
	return f
}

// Reload re-reads the snapshot file and swaps the band map.
func (f *Feed) Reload() error {
	absPath, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse competitor rates: %v", err)
	}

	bands := make(map[string]models.RateBand)
	for _, r := range snap.Results {
		if r.LowestRate <= 0 {
			continue
		}
		band, ok := bands[r.Checkin]
		if !ok {
			bands[r.Checkin] = models.RateBand{Low: r.LowestRate, High: r.LowestRate}
			continue
		}
		if r.LowestRate < band.Low {
			band.Low = r.LowestRate
		}
		if r.LowestRate > band.High {
			band.High = r.LowestRate
		}
		bands[r.Checkin] = band
	}

	f.mu.Lock()
	f.bands = bands
	f.loadedAt = time.Now()
	f.mu.Unlock()

	f.logger.Infof("Loaded competitor rates for %d dates", len(bands))
	return nil
}

// BandFor returns the low/high competitor band for a date.
func (f *Feed) BandFor(date time.Time) (models.RateBand, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	band, ok := f.bands[calendar.Day(date).Format("2006-01-02")]
	return band, ok
}

// LoadedAt returns when the snapshot was last read.
func (f *Feed) LoadedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loadedAt
}

// Dates returns how many dates the snapshot covers.
func (f *Feed) Dates() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.bands)
}
