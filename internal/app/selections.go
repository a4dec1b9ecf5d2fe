package app

import (
	"context"
	"time"

	"tripvote/internal/adapters/observability"
	"tripvote/internal/domain"
)

// aggregateTimeLayout matches ISO-8601 with millisecond precision, which is
// what clients were built against.
const aggregateTimeLayout = "2006-01-02T15:04:05.000Z"

// SelectionService implements the one state machine that matters: per
// (city, identity) a selection is either absent or a single active row.
// Uniqueness is enforced by the storage layer's composite key, not here;
// the handler's read-then-write would race across processes otherwise.
type SelectionService struct {
	catalog  domain.CatalogRepository
	sel      domain.SelectionRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewSelectionService(catalog domain.CatalogRepository, sel domain.SelectionRepository, cache domain.Cache, ttl time.Duration) *SelectionService {
	return &SelectionService{catalog: catalog, sel: sel, cache: cache, cacheTTL: ttl}
}

// Upsert records identity's current choice for cityID, replacing any earlier
// choice for the same city. Two near-simultaneous calls from one identity
// resolve last-write-wins by arrival order at the store; either hotel may win
// but never both.
func (s *SelectionService) Upsert(ctx context.Context, cityID, hotelID string, id domain.Identity, occupancy int, notes string) (domain.Selection, error) {
	if _, err := s.catalog.GetHotel(ctx, cityID, hotelID); err != nil {
		return domain.Selection{}, err
	}
	out, err := s.sel.UpsertSelection(ctx, domain.Selection{
		CityID:    cityID,
		HotelID:   hotelID,
		Voter:     id,
		Occupancy: occupancy,
		Notes:     notes,
	})
	if err != nil {
		return domain.Selection{}, err
	}
	observability.ObserveSelection("upsert")
	_ = s.cache.Del(ctx, aggregateCacheKey)
	return out, nil
}

// Clear deletes every selection held by identity across all cities. Deleting
// nothing is not an error.
func (s *SelectionService) Clear(ctx context.Context, id domain.Identity) (int64, error) {
	n, err := s.sel.DeleteByIdentity(ctx, id)
	if err != nil {
		return 0, err
	}
	observability.ObserveSelection("clear")
	_ = s.cache.Del(ctx, aggregateCacheKey)
	return n, nil
}

// Aggregate derives the per-hotel tallies from the active selections plus the
// current catalog. Every catalog hotel appears, zero-count ones included.
func (s *SelectionService) Aggregate(ctx context.Context) (domain.Aggregate, error) {
	var agg domain.Aggregate
	if ok, _ := s.cache.Get(ctx, aggregateCacheKey, &agg); ok {
		return agg, nil
	}

	cat, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.sel.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	agg = buildAggregate(cat, active)
	_ = s.cache.Set(ctx, aggregateCacheKey, agg, int(s.cacheTTL.Seconds()))
	return agg, nil
}

// buildAggregate zero-fills from the catalog, then folds selections in. The
// input is already newest-first, so appending preserves that order per hotel.
// Selections pointing at hotels no longer in the catalog are skipped; hotel
// deletion reconciles them in-store, so such rows are transient at worst.
func buildAggregate(cat domain.Catalog, active []domain.Selection) domain.Aggregate {
	agg := make(domain.Aggregate, len(cat.Cities))
	for _, c := range cat.Cities {
		hotels := make(map[string]domain.HotelTally, len(c.Hotels))
		for _, h := range c.Hotels {
			hotels[h.ID] = domain.HotelTally{Selections: []domain.VoterEntry{}}
		}
		agg[c.ID] = hotels
	}
	for _, sel := range active {
		hotels, ok := agg[sel.CityID]
		if !ok {
			continue
		}
		tally, ok := hotels[sel.HotelID]
		if !ok {
			continue
		}
		tally.Selections = append(tally.Selections, domain.VoterEntry{
			Name:      sel.Voter.Name,
			Occupancy: sel.Occupancy,
			Timestamp: sel.UpdatedAt.UTC().Format(aggregateTimeLayout),
			Notes:     sel.Notes,
		})
		tally.Count = len(tally.Selections)
		hotels[sel.HotelID] = tally
	}
	return agg
}
