package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation is one student's claim on the room for a time window on a
// single date. AuthCodeHash is the bcrypt digest of the 4-digit code the
// student chose at booking time; the plaintext is never stored.
type Reservation struct {
	ID              string
	Student         Student
	Date            time.Time
	StartTime       TimeOfDay
	EndTime         TimeOfDay
	Reason          string
	CancelledReason string
	AuthCodeHash    string
	Status          ReservationStatus
	CreatedAt       time.Time
}

// Active reports whether the reservation still blocks its time slot.
// Cancelled reservations are excluded from every conflict check.
func (r Reservation) Active() bool {
	return r.Status != ReservationStatusCancelled
}

// ConflictsWith reports whether two reservations on the same date claim
// overlapping windows. A reservation never conflicts with itself, and
// inactive counterparts never block.
func (r Reservation) ConflictsWith(other Reservation) bool {
	if r.ID == other.ID {
		return false
	}
	if !other.Active() {
		return false
	}
	return Overlaps(r.StartTime, r.EndTime, other.StartTime, other.EndTime)
}
