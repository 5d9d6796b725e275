package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"harvesthouse/server/internal/calendar"
)

// Database is the read side of the reservation store: the occupancy and
// booking-pace aggregates the engines consume. Writes arrive through the
// ingest pipeline (queue + processor), not through this type.
type Database struct {
	db         *sql.DB
	totalRooms int
}

func NewDatabase(dbPath string, totalRooms int) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	if totalRooms <= 0 {
		return nil, fmt.Errorf("total rooms must be positive, got %d", totalRooms)
	}

	return &Database{db: db, totalRooms: totalRooms}, nil
}

// OccupancyFor returns the fraction of rooms occupied on the date, 0..1.
// Each room type maps to one physical room.
func (d *Database) OccupancyFor(date time.Time) (float64, error) {
	day := calendar.Day(date)
	query := `
        SELECT COUNT(DISTINCT room_type_id)
        FROM reservations
        WHERE status IN ('confirmed', 'checked_in')
          AND check_in <= ?
          AND check_out > ?
    `
	var occupied int
	if err := d.db.QueryRow(query, day, day).Scan(&occupied); err != nil {
		return 0, fmt.Errorf("failed to query occupancy: %w", err)
	}

	occupancy := float64(occupied) / float64(d.totalRooms)
	if occupancy > 1 {
		occupancy = 1
	}
	return occupancy, nil
}

// BookingPaceFor compares the bookings received so far for a stay date
// against the historical average at the same lead time. A missing baseline
// row yields the neutral pace of 1.0 rather than an error.
func (d *Database) BookingPaceFor(date time.Time) (float64, error) {
	day := calendar.Day(date)

	query := `
        SELECT COUNT(*)
        FROM reservations
        WHERE status IN ('confirmed', 'checked_in')
          AND check_in <= ?
          AND check_out > ?
    `
	var booked int
	if err := d.db.QueryRow(query, day, day).Scan(&booked); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	lead := int(day.Sub(calendar.Day(time.Now())).Hours() / 24)
	if lead < 0 {
		lead = 0
	}

	var baseline float64
	err := d.db.QueryRow(`
        SELECT avg_bookings FROM pace_baselines WHERE lead_bucket = ?
    `, leadBucket(lead)).Scan(&baseline)
	if err == sql.ErrNoRows || baseline <= 0 {
		return 1.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query pace baseline: %w", err)
	}

	return float64(booked) / baseline, nil
}

// leadBucket maps a lead time in days to its historical baseline bucket.
func leadBucket(days int) string {
	switch {
	case days <= 7:
		return "0-7"
	case days <= 14:
		return "8-14"
	case days <= 30:
		return "15-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	case days <= 180:
		return "91-180"
	default:
		return "181+"
	}
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB exposes the raw handle for migrations and tests.
func (d *Database) GetDB() *sql.DB {
	return d.db
}
