package calendar

import (
	"sort"
	"time"

	"harvesthouse/server/internal/models"
)

// Day truncates a timestamp to its calendar date in UTC. All engine lookups
// operate at day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Calendar is the read-only events/seasonality table. Events are kept sorted
// by start date with a running maximum of end dates, so per-date lookups are
// a binary search plus a short backward walk instead of a linear scan. Safe
// for concurrent readers: nothing is mutated after New.
type Calendar struct {
	seasonality models.SeasonalityTable
	events      []models.EventWindow
	maxEnd      []time.Time
}

// New builds a calendar from a seasonality table and a set of event windows.
// Both may be empty; lookups then return the neutral defaults.
func New(seasonality models.SeasonalityTable, events []models.EventWindow) *Calendar {
	sorted := make([]models.EventWindow, len(events))
	copy(sorted, events)
	for i := range sorted {
		sorted[i].StartDate = Day(sorted[i].StartDate)
		sorted[i].EndDate = Day(sorted[i].EndDate)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	maxEnd := make([]time.Time, len(sorted))
	for i, e := range sorted {
		maxEnd[i] = e.EndDate
		if i > 0 && maxEnd[i-1].After(maxEnd[i]) {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &Calendar{
		seasonality: seasonality,
		events:      sorted,
		maxEnd:      maxEnd,
	}
}

// SeasonalityFor returns the month multiplier, 1.0 when the month is not
// configured.
func (c *Calendar) SeasonalityFor(month time.Month) float64 {
	if mult, ok := c.seasonality[month]; ok {
		return mult
	}
	return 1.0
}

// EventsFor returns every event window covering the given date.
func (c *Calendar) EventsFor(date time.Time) []models.EventWindow {
	date = Day(date)

	// First event starting after the date; nothing to its right can cover it.
	idx := sort.Search(len(c.events), func(i int) bool {
		return c.events[i].StartDate.After(date)
	})

	var active []models.EventWindow
	for i := idx - 1; i >= 0; i-- {
		if c.maxEnd[i].Before(date) {
			break
		}
		if c.events[i].Covers(date) {
			active = append(active, c.events[i])
		}
	}
	return active
}

// MaxDemandFor returns the strongest demand signal among the windows
// covering the date: the maximum demand weight, the name of the window that
// carries it, and the largest minimum stay across all active windows.
// A date with no events yields (0, "", 0).
func (c *Calendar) MaxDemandFor(date time.Time) (weight float64, name string, minStay int) {
	for _, e := range c.EventsFor(date) {
		if e.DemandWeight > weight {
			weight = e.DemandWeight
			name = e.Name
		}
		if e.MinStay > minStay {
			minStay = e.MinStay
		}
	}
	return weight, name, minStay
}

// EventsInRange returns every window overlapping [start, end], for the
// dashboard calendar view.
func (c *Calendar) EventsInRange(start, end time.Time) []models.EventWindow {
	start, end = Day(start), Day(end)
	var out []models.EventWindow
	for _, e := range c.events {
		if e.StartDate.After(end) {
			break
		}
		if !e.EndDate.Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of configured event windows.
func (c *Calendar) Len() int {
	return len(c.events)
}
