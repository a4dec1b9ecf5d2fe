package app

import (
	"encoding/json"
	"fmt"
	"os"

	"tripvote/internal/domain"
)

// snapshotFile is the on-disk seed shape, identical to the GET /hotels data
// payload so one file drives both the seeder and the read fallback.
type snapshotFile struct {
	TripTitle string `json:"tripTitle"`
	CTANote   string `json:"ctaNote"`
	Currency  string `json:"currency"`
	Cities    []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Dates  string `json:"dates"`
		Hotels []struct {
			ID     string   `json:"id"`
			Name   string   `json:"name"`
			Price2 *float64 `json:"price2"`
			Price3 *float64 `json:"price3"`
			Image  string   `json:"image"`
			Link   string   `json:"link"`
			Notes  string   `json:"notes"`
		} `json:"hotels"`
	} `json:"cities"`
}

// LoadSnapshot reads a catalog seed file from disk.
func LoadSnapshot(path string) (domain.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, err
	}
	var f snapshotFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	cat := domain.Catalog{
		Config: domain.TripConfig{Title: f.TripTitle, CTANote: f.CTANote, Currency: f.Currency},
	}
	if cat.Config == (domain.TripConfig{}) {
		cat.Config = defaultTripConfig()
	}
	for _, c := range f.Cities {
		city := domain.City{ID: c.ID, Name: c.Name, Dates: c.Dates, Hotels: []domain.Hotel{}}
		for _, h := range c.Hotels {
			city.Hotels = append(city.Hotels, domain.Hotel{
				ID:     h.ID,
				CityID: c.ID,
				Name:   h.Name,
				Price2: h.Price2,
				Price3: h.Price3,
				Image:  h.Image,
				Link:   h.Link,
				Notes:  h.Notes,
			})
		}
		cat.Cities = append(cat.Cities, city)
	}
	return cat, nil
}
