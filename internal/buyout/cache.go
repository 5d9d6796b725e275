package buyout

import (
	"sync"
	"time"

	"harvesthouse/server/internal/calendar"
	"harvesthouse/server/internal/models"
)

// Cache is the read-mostly snapshot of protection records. A single writer
// (the nightly batch pass or an operator-triggered rebuild) swaps the whole
// snapshot; many readers look dates up concurrently. A missing record means
// the date is not protected — readers never block waiting for a rebuild.
type Cache struct {
	mu        sync.RWMutex
	records   map[string]models.BuyoutProtectionRecord
	rebuiltAt time.Time
}

func NewCache() *Cache {
	return &Cache{
		records: make(map[string]models.BuyoutProtectionRecord),
	}
}

// ReplaceAll atomically swaps the snapshot for a freshly computed one.
func (c *Cache) ReplaceAll(records []models.BuyoutProtectionRecord) {
	next := make(map[string]models.BuyoutProtectionRecord, len(records))
	for _, r := range records {
		next[r.Date.Format("2006-01-02")] = r
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = next
	c.rebuiltAt = time.Now()
}

// RecordFor returns the protection record for a date, if the snapshot
// covers it.
func (c *Cache) RecordFor(date time.Time) (models.BuyoutProtectionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[calendar.Day(date).Format("2006-01-02")]
	return record, ok
}

// RecordsInRange returns the cached records for [start, end] in date order.
// Dates the snapshot does not cover are returned as unprotected records so
// callers always get one entry per date.
func (c *Cache) RecordsInRange(start, end time.Time) []models.BuyoutProtectionRecord {
	start, end = calendar.Day(start), calendar.Day(end)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.BuyoutProtectionRecord
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if record, ok := c.records[date.Format("2006-01-02")]; ok {
			out = append(out, record)
		} else {
			out = append(out, models.BuyoutProtectionRecord{Date: date})
		}
	}
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// ProtectedCount returns how many cached dates are protected.
func (c *Cache) ProtectedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, r := range c.records {
		if r.Protected {
			count++
		}
	}
	return count
}

// RebuiltAt returns when the snapshot was last replaced.
func (c *Cache) RebuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rebuiltAt
}
