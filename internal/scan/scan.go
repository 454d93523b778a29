package scan

import "time"

// MaxDataLength is the longest payload accepted for persistence.
const MaxDataLength = 2000

// SortOrder controls how listed scans are ordered by scan time. Ordering is
// applied by the store, not re-sorted by consumers.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Record is one decoded QR capture. Records are immutable once created:
// they are only ever read and listed, and are visible solely to the owner
// that created them.
type Record struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	OwnerEmail string    `json:"owner_email"`
	Data       string    `json:"data"`
	Type       string    `json:"type"` // scanner-reported symbology label
	ScannedAt  time.Time `json:"scanned_at"`
}
