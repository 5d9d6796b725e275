package models

import "time"

// Reservation is one booking row synced in from the PMS feed. The engine
// only reads aggregates (occupancy, booking pace) derived from these rows.
type Reservation struct {
	ID            int64     `json:"id" gorm:"primaryKey;column:id"`
	ReservationID string    `json:"reservation_id" gorm:"column:reservation_id;uniqueIndex"`
	RoomTypeID    string    `json:"room_type_id" gorm:"column:room_type_id;index"`
	GuestName     string    `json:"guest_name" gorm:"column:guest_name"`
	CheckIn       time.Time `json:"check_in" gorm:"column:check_in;index"`
	CheckOut      time.Time `json:"check_out" gorm:"column:check_out"`
	Status        string    `json:"status" gorm:"column:status"`
	TotalAmount   float64   `json:"total_amount" gorm:"column:total_amount"`
	BookedAt      time.Time `json:"booked_at" gorm:"column:booked_at"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName keeps gorm on the table the raw-SQL migrations create.
func (Reservation) TableName() string {
	return "reservations"
}

// Reservation statuses considered as occupying a room.
const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCheckedIn = "checked_in"
	ReservationStatusCancelled = "cancelled"
)

// Nights returns the stay length in nights.
func (r *Reservation) Nights() int {
	n := int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}
