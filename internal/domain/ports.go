package domain

import "context"

type CatalogRepository interface {
	// Read paths
	GetCatalog(ctx context.Context) (Catalog, error)
	CityExists(ctx context.Context, cityID string) (bool, error)
	GetHotel(ctx context.Context, cityID, hotelID string) (Hotel, error)

	// Admin write paths
	InsertHotel(ctx context.Context, h Hotel) error
	UpdateHotel(ctx context.Context, h Hotel) error
	// DeleteHotel removes the hotel and, in the same transaction, every
	// selection that references it.
	DeleteHotel(ctx context.Context, cityID, hotelID string) error

	// Seed paths
	UpsertConfig(ctx context.Context, c TripConfig) error
	UpsertCity(ctx context.Context, c City) error
	UpsertHotel(ctx context.Context, h Hotel) error
}

type SelectionRepository interface {
	// UpsertSelection atomically inserts or overwrites the row keyed by
	// (CityID, Voter); the storage layer's unique key makes two concurrent
	// calls collapse into one row. Returns the stored row.
	UpsertSelection(ctx context.Context, s Selection) (Selection, error)
	DeleteByIdentity(ctx context.Context, id Identity) (int64, error)
	DeleteAllSelections(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]Selection, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
