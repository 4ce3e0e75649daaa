package domain

import "time"

type KeyStatus string

const (
	KeyStatusAvailable   KeyStatus = "available"
	KeyStatusInUse       KeyStatus = "in_use"
	KeyStatusNotReturned KeyStatus = "not_returned"
)

// RoomKey is the single physical key for the room. Exactly one row exists;
// when several were ever created the oldest one is authoritative.
//
// Holder is set while the key is in use and cleared when it is available.
// A key forced to not_returned also has its holder cleared; the history
// trail records who failed to return it.
type RoomKey struct {
	ID        string
	Holder    *Student
	Status    KeyStatus
	CreatedAt time.Time
}

// KeyHistoryEntry is an append-only audit record written on every custody
// transition. Student name and number are denormalized so the trail stays
// meaningful even if the directory record disappears.
type KeyHistoryEntry struct {
	ID            int64
	StudentName   string
	StudentNumber string
	Status        KeyStatus
	OccurredAt    time.Time
}

// BlacklistEntry marks a student who kept the key past the grace period.
// Entries are append-only; expiry is a policy for whoever reads the list.
type BlacklistEntry struct {
	ID        int64
	Student   Student
	CreatedAt time.Time
}
