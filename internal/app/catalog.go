package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tripvote/internal/domain"
)

const (
	catalogCacheKey   = "catalog:v1"
	aggregateCacheKey = "selections:agg:v1"
)

func defaultTripConfig() domain.TripConfig {
	return domain.TripConfig{
		Title:    "Group Trip",
		CTANote:  "Pick one stay per city. Your choice replaces any earlier pick.",
		Currency: "₹",
	}
}

// CatalogService serves the browse path through a cache-aside redis layer and
// handles admin hotel CRUD. An optional startup snapshot keeps reads available
// when the store is down.
type CatalogService struct {
	repo     domain.CatalogRepository
	cache    domain.Cache
	cacheTTL time.Duration
	snapshot *domain.Catalog
}

func NewCatalogService(r domain.CatalogRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cache: c, cacheTTL: ttl}
}

// WithSnapshot installs a read-only fallback catalog served when the store is
// unreachable. Write paths never touch it.
func (s *CatalogService) WithSnapshot(cat domain.Catalog) *CatalogService {
	s.snapshot = &cat
	return s
}

func (s *CatalogService) ListAll(ctx context.Context) (domain.Catalog, error) {
	var cat domain.Catalog
	if ok, _ := s.cache.Get(ctx, catalogCacheKey, &cat); ok {
		return cat, nil
	}
	cat, err := s.repo.GetCatalog(ctx)
	if err != nil {
		if s.snapshot != nil {
			log.Warn().Err(err).Msg("catalog store unavailable, serving startup snapshot")
			return *s.snapshot, nil
		}
		return domain.Catalog{}, err
	}
	if cat.Config == (domain.TripConfig{}) {
		cat.Config = defaultTripConfig()
	}
	_ = s.cache.Set(ctx, catalogCacheKey, cat, int(s.cacheTTL.Seconds()))
	return cat, nil
}

func (s *CatalogService) CreateHotel(ctx context.Context, cityID string, f domain.HotelFields) (domain.Hotel, error) {
	ok, err := s.repo.CityExists(ctx, cityID)
	if err != nil {
		return domain.Hotel{}, err
	}
	if !ok {
		return domain.Hotel{}, domain.ErrCityNotFound
	}
	h := domain.Hotel{
		ID:     "hotel_" + uuid.NewString(),
		CityID: cityID,
		Name:   f.Name,
		Price2: f.Price2,
		Price3: f.Price3,
		Image:  f.Image,
		Link:   f.Link,
		Notes:  f.Notes,
	}
	if err := s.repo.InsertHotel(ctx, h); err != nil {
		return domain.Hotel{}, err
	}
	s.invalidate(ctx)
	return h, nil
}

func (s *CatalogService) UpdateHotel(ctx context.Context, cityID, hotelID string, u domain.HotelUpdate) (domain.Hotel, error) {
	h, err := s.repo.GetHotel(ctx, cityID, hotelID)
	if err != nil {
		return domain.Hotel{}, err
	}
	if u.Name != nil {
		h.Name = *u.Name
	}
	if u.Price2 != nil {
		h.Price2 = u.Price2
	}
	if u.Price3 != nil {
		h.Price3 = u.Price3
	}
	if u.Image != nil {
		h.Image = *u.Image
	}
	if u.Link != nil {
		h.Link = *u.Link
	}
	if u.Notes != nil {
		h.Notes = *u.Notes
	}
	if err := s.repo.UpdateHotel(ctx, h); err != nil {
		return domain.Hotel{}, err
	}
	s.invalidate(ctx)
	return h, nil
}

// DeleteHotel removes the hotel and its dependent selections in one store
// transaction, then returns the removed record.
func (s *CatalogService) DeleteHotel(ctx context.Context, cityID, hotelID string) (domain.Hotel, error) {
	h, err := s.repo.GetHotel(ctx, cityID, hotelID)
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := s.repo.DeleteHotel(ctx, cityID, hotelID); err != nil {
		return domain.Hotel{}, err
	}
	s.invalidate(ctx)
	return h, nil
}

// Catalog edits change both the browse view and the zero-filled aggregate.
func (s *CatalogService) invalidate(ctx context.Context) {
	_ = s.cache.Del(ctx, catalogCacheKey)
	_ = s.cache.Del(ctx, aggregateCacheKey)
}
