// Package testutil provides in-memory fakes for the storage and cache ports.
// They exist for tests only; the relational store stays the system of record
// everywhere else.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"tripvote/internal/domain"
)

// ErrStoreDown is returned from reads when FailReads is set.
var ErrStoreDown = errors.New("store unavailable")

// MemStore implements domain.CatalogRepository and domain.SelectionRepository
// with the same key semantics as the MySQL schema: selections are unique per
// (cityID, voter name, device id), so an upsert for an existing key overwrites.
type MemStore struct {
	mu         sync.Mutex
	Catalog    domain.Catalog
	selections map[string]domain.Selection
	nextID     int64
	now        time.Time

	FailReads bool // force read errors to exercise fallback paths
}

func NewMemStore(cat domain.Catalog) *MemStore {
	return &MemStore{
		Catalog:    cat,
		selections: map[string]domain.Selection{},
		now:        time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC),
	}
}

func selKey(cityID string, id domain.Identity) string {
	return cityID + "\x00" + id.Name + "\x00" + id.DeviceID
}

// tick advances the fake clock so timestamp ordering is deterministic.
func (m *MemStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

// ---- CatalogRepository ----

func (m *MemStore) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return domain.Catalog{}, ErrStoreDown
	}
	return cloneCatalog(m.Catalog), nil
}

func (m *MemStore) CityExists(ctx context.Context, cityID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Catalog.Cities {
		if c.ID == cityID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) GetHotel(ctx context.Context, cityID, hotelID string) (domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Catalog.Cities {
		if c.ID != cityID {
			continue
		}
		for _, h := range c.Hotels {
			if h.ID == hotelID {
				return h, nil
			}
		}
	}
	return domain.Hotel{}, domain.ErrHotelNotFound
}

func (m *MemStore) InsertHotel(ctx context.Context, h domain.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.Catalog.Cities {
		if c.ID == h.CityID {
			m.Catalog.Cities[i].Hotels = append(m.Catalog.Cities[i].Hotels, h)
			return nil
		}
	}
	return domain.ErrCityNotFound
}

func (m *MemStore) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.Catalog.Cities {
		if c.ID != h.CityID {
			continue
		}
		for j, old := range c.Hotels {
			if old.ID == h.ID {
				m.Catalog.Cities[i].Hotels[j] = h
				return nil
			}
		}
	}
	return domain.ErrHotelNotFound
}

func (m *MemStore) DeleteHotel(ctx context.Context, cityID, hotelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.Catalog.Cities {
		if c.ID != cityID {
			continue
		}
		for j, h := range c.Hotels {
			if h.ID == hotelID {
				m.Catalog.Cities[i].Hotels = append(c.Hotels[:j:j], c.Hotels[j+1:]...)
				for k, s := range m.selections {
					if s.CityID == cityID && s.HotelID == hotelID {
						delete(m.selections, k)
					}
				}
				return nil
			}
		}
	}
	return domain.ErrHotelNotFound
}

func (m *MemStore) UpsertConfig(ctx context.Context, c domain.TripConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Catalog.Config = c
	return nil
}

func (m *MemStore) UpsertCity(ctx context.Context, c domain.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.Catalog.Cities {
		if old.ID == c.ID {
			m.Catalog.Cities[i].Name = c.Name
			m.Catalog.Cities[i].Dates = c.Dates
			return nil
		}
	}
	c.Hotels = []domain.Hotel{}
	m.Catalog.Cities = append(m.Catalog.Cities, c)
	return nil
}

func (m *MemStore) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	if err := m.UpdateHotel(ctx, h); err == nil {
		return nil
	}
	return m.InsertHotel(ctx, h)
}

// ---- SelectionRepository ----

func (m *MemStore) UpsertSelection(ctx context.Context, s domain.Selection) (domain.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := selKey(s.CityID, s.Voter)
	if old, ok := m.selections[key]; ok {
		s.ID = old.ID
	} else {
		m.nextID++
		s.ID = m.nextID
	}
	s.UpdatedAt = m.tick()
	m.selections[key] = s
	return s, nil
}

func (m *MemStore) DeleteByIdentity(ctx context.Context, id domain.Identity) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.selections {
		if s.Voter == id {
			delete(m.selections, k)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) DeleteAllSelections(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.selections))
	m.selections = map[string]domain.Selection{}
	return n, nil
}

func (m *MemStore) ListActive(ctx context.Context) ([]domain.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Selection, 0, len(m.selections))
	for _, s := range m.selections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneCatalog(in domain.Catalog) domain.Catalog {
	out := domain.Catalog{Config: in.Config}
	for _, c := range in.Cities {
		cc := domain.City{ID: c.ID, Name: c.Name, Dates: c.Dates, Hotels: append([]domain.Hotel{}, c.Hotels...)}
		out.Cities = append(out.Cities, cc)
	}
	return out
}
