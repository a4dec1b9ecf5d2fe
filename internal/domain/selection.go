package domain

import "time"

// Identity names a voter: a self-reported display name plus the opaque
// device token the browser generated for itself. The pair is the composite
// key scoping selections; the token is a de-duplication heuristic, not an
// authentication mechanism. An absent token is stored as "".
type Identity struct {
	Name     string
	DeviceID string
}

// Selection is a voter identity's current hotel choice for one city.
// At most one exists per (CityID, Identity) at any time; a new choice for
// the same city overwrites the row rather than adding a second one.
type Selection struct {
	ID        int64
	CityID    string
	HotelID   string
	Voter     Identity
	Occupancy int // 2 or 3
	Notes     string
	UpdatedAt time.Time
}

// VoterEntry is one voter's row in the per-hotel tally.
type VoterEntry struct {
	Name      string `json:"name"`
	Occupancy int    `json:"occupancy"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes"`
}

// HotelTally is the derived per-hotel view: how many active selections point
// at the hotel and who made them, most recent first.
type HotelTally struct {
	Count      int          `json:"count"`
	Selections []VoterEntry `json:"selections"`
}

// Aggregate maps cityID -> hotelID -> tally. Every hotel in the catalog is
// present, selected or not.
type Aggregate map[string]map[string]HotelTally
