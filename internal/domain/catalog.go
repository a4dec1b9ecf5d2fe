package domain

// TripConfig is the presentation copy shown above the catalog.
type TripConfig struct {
	Title    string
	CTANote  string
	Currency string
}

type City struct {
	ID     string
	Name   string
	Dates  string
	Hotels []Hotel
}

type Hotel struct {
	ID     string
	CityID string
	Name   string
	Price2 *float64 // nightly, 2 occupants
	Price3 *float64 // nightly, 3 occupants
	Image  string
	Link   string
	Notes  string
}

// Catalog is the full read model served on the browse path: the trip config
// plus every city with its hotels, in stable id order.
type Catalog struct {
	Config TripConfig
	Cities []City
}

// HotelFields is the caller-supplied part of a hotel record (everything
// except the generated id and the owning city).
type HotelFields struct {
	Name   string
	Price2 *float64
	Price3 *float64
	Image  string
	Link   string
	Notes  string
}

// HotelUpdate carries a partial edit; nil fields keep the stored value.
type HotelUpdate struct {
	Name   *string
	Price2 *float64
	Price3 *float64
	Image  *string
	Link   *string
	Notes  *string
}
