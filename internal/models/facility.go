package models

import "time"

// BookingStatus is the lifecycle state of a facility booking.
type BookingStatus string

const (
	BookingPending  BookingStatus = "PENDING"
	BookingApproved BookingStatus = "APPROVED"
	BookingRejected BookingStatus = "REJECTED"
)

// Facility is a bookable shared resource (room, lab, hall).
type Facility struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Department string    `db:"department" json:"department"`
	Available  bool      `db:"available" json:"available"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FacilityBooking reserves a facility for a half-open time range [start, end)
// on a calendar date. Times are minutes since midnight.
type FacilityBooking struct {
	ID         string        `db:"id" json:"id"`
	FacilityID string        `db:"facility_id" json:"facility_id"`
	AccountID  string        `db:"account_id" json:"account_id"`
	Date       string        `db:"date" json:"date"`
	StartMin   int           `db:"start_min" json:"start_min"`
	EndMin     int           `db:"end_min" json:"end_min"`
	Purpose    string        `db:"purpose" json:"purpose"`
	Status     BookingStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
