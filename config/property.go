package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"harvesthouse/server/internal/models"
)

// LoadPropertyConfig reads and validates the property configuration file.
// The returned value is immutable by convention: it is passed into each
// engine at construction and never mutated afterwards.
func LoadPropertyConfig(path string) (*models.PropertyConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read property config: %v", err)
	}

	var property models.PropertyConfig
	if err := json.Unmarshal(data, &property); err != nil {
		return nil, fmt.Errorf("failed to parse property config: %v", err)
	}

	if err := validateProperty(&property); err != nil {
		return nil, err
	}
	return &property, nil
}

func validateProperty(p *models.PropertyConfig) error {
	if p.TotalRooms <= 0 {
		return fmt.Errorf("property config: total_rooms must be positive, got %d", p.TotalRooms)
	}
	if len(p.RoomTypes) == 0 {
		return fmt.Errorf("property config: at least one room type is required")
	}
	if p.MinRateFloor < 0 || p.MaxRateCap <= 0 || p.MinRateFloor > p.MaxRateCap {
		return fmt.Errorf("property config: invalid rate bounds [%.2f, %.2f]", p.MinRateFloor, p.MaxRateCap)
	}
	if p.BuyoutBaseRate <= 0 {
		return fmt.Errorf("property config: buyout_base_rate must be positive")
	}

	seen := make(map[string]bool, len(p.RoomTypes))
	for _, rt := range p.RoomTypes {
		if rt.ID == "" {
			return fmt.Errorf("property config: room type %q has no id", rt.Name)
		}
		if seen[rt.ID] {
			return fmt.Errorf("property config: duplicate room type id %q", rt.ID)
		}
		seen[rt.ID] = true
		if rt.BaseRate <= 0 {
			return fmt.Errorf("property config: room type %q has non-positive base rate", rt.ID)
		}
	}
	return nil
}

// eventsFile is the on-disk shape of the events/seasonality configuration.
type eventsFile struct {
	// Month number ("1".."12") to multiplier
	Seasonality map[string]float64 `json:"seasonality"`
	Events      []struct {
		Name         string  `json:"name"`
		StartDate    string  `json:"start_date"`
		EndDate      string  `json:"end_date"`
		DemandWeight float64 `json:"demand_weight"`
		Type         string  `json:"type"`
		MinStay      int     `json:"min_stay"`
	} `json:"events"`
}

// LoadEventsConfig reads the events/seasonality table. A missing file is not
// an error: pricing degrades to a flat seasonality of 1.0 with no events.
func LoadEventsConfig(path string) (models.SeasonalityTable, []models.EventWindow, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return models.SeasonalityTable{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read events config: %v", err)
	}

	var file eventsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse events config: %v", err)
	}

	seasonality := make(models.SeasonalityTable, len(file.Seasonality))
	for key, mult := range file.Seasonality {
		month, err := strconv.Atoi(key)
		if err != nil || month < 1 || month > 12 {
			return nil, nil, fmt.Errorf("events config: invalid seasonality month %q", key)
		}
		if mult <= 0 {
			return nil, nil, fmt.Errorf("events config: non-positive multiplier for month %q", key)
		}
		seasonality[time.Month(month)] = mult
	}

	events := make([]models.EventWindow, 0, len(file.Events))
	for _, e := range file.Events {
		start, err := time.Parse("2006-01-02", e.StartDate)
		if err != nil {
			return nil, nil, fmt.Errorf("events config: event %q has invalid start_date: %v", e.Name, err)
		}
		end, err := time.Parse("2006-01-02", e.EndDate)
		if err != nil {
			return nil, nil, fmt.Errorf("events config: event %q has invalid end_date: %v", e.Name, err)
		}
		if end.Before(start) {
			return nil, nil, fmt.Errorf("events config: event %q ends before it starts", e.Name)
		}
		if e.DemandWeight < 0 {
			return nil, nil, fmt.Errorf("events config: event %q has negative demand_weight", e.Name)
		}

		eventType := models.EventType(e.Type)
		switch eventType {
		case models.EventTypeHoliday, models.EventTypeFestival, models.EventTypeOther:
		case "":
			eventType = models.EventTypeOther
		default:
			return nil, nil, fmt.Errorf("events config: event %q has unknown type %q", e.Name, e.Type)
		}

		events = append(events, models.EventWindow{
			Name:         e.Name,
			StartDate:    start,
			EndDate:      end,
			DemandWeight: e.DemandWeight,
			Type:         eventType,
			MinStay:      e.MinStay,
		})
	}

	return seasonality, events, nil
}
