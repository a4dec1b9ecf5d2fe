package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tripvote/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOf(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func f64Of(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		f := nf.Float64
		return &f
	}
	return nil
}

// Repo implements both domain.CatalogRepository and domain.SelectionRepository
// over a single *sql.DB. It is the only writer of shared state.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- catalog writes ----

func (r *Repo) UpsertConfig(ctx context.Context, c domain.TripConfig) error {
	blob, err := json.Marshal(struct {
		TripTitle string `json:"tripTitle"`
		CTANote   string `json:"ctaNote"`
		Currency  string `json:"currency"`
	}{c.Title, c.CTANote, c.Currency})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertConfigSQL, string(blob))
	return err
}

func (r *Repo) UpsertCity(ctx context.Context, c domain.City) error {
	_, err := r.db.ExecContext(ctx, upsertCitySQL, c.ID, c.Name, c.Dates)
	return err
}

func (r *Repo) InsertHotel(ctx context.Context, h domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.ID, h.CityID, h.Name,
		valF64(h.Price2), valF64(h.Price3),
		valStr(h.Image), valStr(h.Link), valStr(h.Notes),
	)
	return err
}

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID, h.CityID, h.Name,
		valF64(h.Price2), valF64(h.Price3),
		valStr(h.Image), valStr(h.Link), valStr(h.Notes),
	)
	return err
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	res, err := r.db.ExecContext(ctx, updateHotelSQL,
		h.Name, valF64(h.Price2), valF64(h.Price3),
		valStr(h.Image), valStr(h.Link), valStr(h.Notes),
		h.CityID, h.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// A no-op edit also reports 0 affected rows; confirm the row exists
		// before calling it missing.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM hotels WHERE city_id = ? AND id = ?`, h.CityID, h.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrHotelNotFound
			}
			return err
		}
	}
	return nil
}

func (r *Repo) DeleteHotel(ctx context.Context, cityID, hotelID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteHotelSelectionsSQL, cityID, hotelID); err != nil {
		return fmt.Errorf("delete dependent selections: %w", err)
	}
	res, err := tx.ExecContext(ctx, deleteHotelSQL, cityID, hotelID)
	if err != nil {
		return fmt.Errorf("delete hotel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrHotelNotFound
	}
	return tx.Commit()
}

// ---- catalog reads ----

func (r *Repo) CityExists(ctx context.Context, cityID string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, cityExistsSQL, cityID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *Repo) GetHotel(ctx context.Context, cityID, hotelID string) (domain.Hotel, error) {
	row := r.db.QueryRowContext(ctx, getHotelSQL, cityID, hotelID)
	h, err := scanHotel(row)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrHotelNotFound
	}
	return h, err
}

func (r *Repo) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	var cat domain.Catalog

	var blob []byte
	switch err := r.db.QueryRowContext(ctx, getConfigSQL).Scan(&blob); err {
	case nil:
		var cfg struct {
			TripTitle string `json:"tripTitle"`
			CTANote   string `json:"ctaNote"`
			Currency  string `json:"currency"`
		}
		if err := json.Unmarshal(blob, &cfg); err != nil {
			return domain.Catalog{}, fmt.Errorf("decode trip config: %w", err)
		}
		cat.Config = domain.TripConfig{Title: cfg.TripTitle, CTANote: cfg.CTANote, Currency: cfg.Currency}
	case sql.ErrNoRows:
		// unseeded config; caller applies defaults
	default:
		return domain.Catalog{}, err
	}

	rows, err := r.db.QueryContext(ctx, listCitiesSQL)
	if err != nil {
		return domain.Catalog{}, err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Dates); err != nil {
			return domain.Catalog{}, err
		}
		c.Hotels = []domain.Hotel{}
		index[c.ID] = len(cat.Cities)
		cat.Cities = append(cat.Cities, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, err
	}

	hrows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return domain.Catalog{}, err
	}
	defer hrows.Close()

	for hrows.Next() {
		h, err := scanHotel(hrows)
		if err != nil {
			return domain.Catalog{}, err
		}
		if i, ok := index[h.CityID]; ok {
			cat.Cities[i].Hotels = append(cat.Cities[i].Hotels, h)
		}
	}
	if err := hrows.Err(); err != nil {
		return domain.Catalog{}, err
	}
	return cat, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var p2, p3 sql.NullFloat64
	var image, link, notes sql.NullString
	if err := row.Scan(&h.ID, &h.CityID, &h.Name, &p2, &p3, &image, &link, &notes); err != nil {
		return domain.Hotel{}, err
	}
	h.Price2 = f64Of(p2)
	h.Price3 = f64Of(p3)
	h.Image = strOf(image)
	h.Link = strOf(link)
	h.Notes = strOf(notes)
	return h, nil
}

// ---- selections ----

func (r *Repo) UpsertSelection(ctx context.Context, s domain.Selection) (domain.Selection, error) {
	_, err := r.db.ExecContext(ctx, upsertSelectionSQL,
		s.CityID, s.HotelID, s.Voter.Name, s.Voter.DeviceID, s.Occupancy, valStr(s.Notes),
	)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("upsert selection: %w", err)
	}
	return r.getSelection(ctx, s.CityID, s.Voter)
}

func (r *Repo) getSelection(ctx context.Context, cityID string, id domain.Identity) (domain.Selection, error) {
	row := r.db.QueryRowContext(ctx, getSelectionSQL, cityID, id.Name, id.DeviceID)
	return scanSelection(row)
}

func (r *Repo) DeleteByIdentity(ctx context.Context, id domain.Identity) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteByIdentitySQL, id.Name, id.DeviceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) DeleteAllSelections(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteAllSelectionsSQL)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) ListActive(ctx context.Context) ([]domain.Selection, error) {
	rows, err := r.db.QueryContext(ctx, listSelectionsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Selection
	for rows.Next() {
		s, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSelection(row rowScanner) (domain.Selection, error) {
	var s domain.Selection
	var notes sql.NullString
	if err := row.Scan(&s.ID, &s.CityID, &s.HotelID, &s.Voter.Name, &s.Voter.DeviceID, &s.Occupancy, &notes, &s.UpdatedAt); err != nil {
		return domain.Selection{}, err
	}
	s.Notes = strOf(notes)
	return s, nil
}
