package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"harvesthouse/server/internal/models"
)

// NewGormDB opens the write-side handle used by the reservation ingest
// pipeline. It points at the same sqlite file as the read-side Database.
func NewGormDB(dbPath string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// NewTestDB opens an in-memory database for tests.
func NewTestDB() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// MigrateSchema creates the reservation schema on a gorm handle.
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&models.Reservation{})
}

// UpsertReservations inserts a batch, replacing rows the PMS has already
// sent (same reservation_id) with their latest state.
func UpsertReservations(tx *gorm.DB, batch []*models.Reservation) error {
	if len(batch) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"room_type_id", "guest_name", "check_in", "check_out",
			"status", "total_amount", "booked_at",
		}),
	}).Create(batch).Error
}
