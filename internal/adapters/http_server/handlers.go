package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tripvote/internal/app"
	"tripvote/internal/domain"
)

type Handlers struct {
	Catalog    *app.CatalogService
	Selections *app.SelectionService
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Post("/", h.createHotel)
		r.Put("/", h.updateHotel)
		r.Delete("/", h.deleteHotel)
	})

	s.mux.Get("/votes", h.getVotes)
	s.mux.Post("/votes", h.postVote)
	s.mux.Post("/votes/reset", h.resetVotes)
}

// ---- response envelope ----

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// ---- wire shapes ----

type hotelJSON struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Price2 *float64 `json:"price2"`
	Price3 *float64 `json:"price3"`
	Image  string   `json:"image"`
	Link   string   `json:"link"`
	Notes  string   `json:"notes"`
}

type cityJSON struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Dates  string      `json:"dates"`
	Hotels []hotelJSON `json:"hotels"`
}

type catalogJSON struct {
	TripTitle string     `json:"tripTitle"`
	CTANote   string     `json:"ctaNote"`
	Currency  string     `json:"currency"`
	Cities    []cityJSON `json:"cities"`
}

type selectionJSON struct {
	Name      string `json:"name"`
	CityID    string `json:"cityId"`
	HotelID   string `json:"hotelId"`
	Occupancy int    `json:"occupancy"`
	Notes     string `json:"notes"`
	Timestamp string `json:"timestamp"`
}

func hotelView(h domain.Hotel) hotelJSON {
	return hotelJSON{
		ID: h.ID, Name: h.Name,
		Price2: h.Price2, Price3: h.Price3,
		Image: h.Image, Link: h.Link, Notes: h.Notes,
	}
}

func catalogView(cat domain.Catalog) catalogJSON {
	out := catalogJSON{
		TripTitle: cat.Config.Title,
		CTANote:   cat.Config.CTANote,
		Currency:  cat.Config.Currency,
		Cities:    []cityJSON{},
	}
	for _, c := range cat.Cities {
		cj := cityJSON{ID: c.ID, Name: c.Name, Dates: c.Dates, Hotels: []hotelJSON{}}
		for _, h := range c.Hotels {
			cj.Hotels = append(cj.Hotels, hotelView(h))
		}
		out.Cities = append(out.Cities, cj)
	}
	return out
}

// ---- catalog handlers ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch hotels")
		return
	}
	writeData(w, http.StatusOK, catalogView(cat))
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"cityId"`
		Hotel  *struct {
			Name   string   `json:"name"`
			Price2 *float64 `json:"price2"`
			Price3 *float64 `json:"price3"`
			Image  string   `json:"image"`
			Link   string   `json:"link"`
			Notes  string   `json:"notes"`
		} `json:"hotel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CityID == "" || req.Hotel == nil || req.Hotel.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	created, err := h.Catalog.CreateHotel(r.Context(), req.CityID, domain.HotelFields{
		Name:   req.Hotel.Name,
		Price2: req.Hotel.Price2,
		Price3: req.Hotel.Price3,
		Image:  req.Hotel.Image,
		Link:   req.Hotel.Link,
		Notes:  req.Hotel.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			writeError(w, http.StatusNotFound, "City not found")
			return
		}
		log.Error().Err(err).Str("city", req.CityID).Msg("create hotel failed")
		writeError(w, http.StatusInternalServerError, "Failed to add hotel")
		return
	}
	writeData(w, http.StatusOK, hotelView(created))
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID  string `json:"cityId"`
		HotelID string `json:"hotelId"`
		Updates *struct {
			Name   *string  `json:"name"`
			Price2 *float64 `json:"price2"`
			Price3 *float64 `json:"price3"`
			Image  *string  `json:"image"`
			Link   *string  `json:"link"`
			Notes  *string  `json:"notes"`
		} `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CityID == "" || req.HotelID == "" || req.Updates == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	upd := req.Updates
	updated, err := h.Catalog.UpdateHotel(r.Context(), req.CityID, req.HotelID, domain.HotelUpdate{
		Name: upd.Name, Price2: upd.Price2, Price3: upd.Price3,
		Image: upd.Image, Link: upd.Link, Notes: upd.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) || errors.Is(err, domain.ErrCityNotFound) {
			writeError(w, http.StatusNotFound, "Hotel not found")
			return
		}
		log.Error().Err(err).Str("hotel", req.HotelID).Msg("update hotel failed")
		writeError(w, http.StatusInternalServerError, "Failed to update hotel")
		return
	}
	writeData(w, http.StatusOK, hotelView(updated))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	cityID := r.URL.Query().Get("cityId")
	hotelID := r.URL.Query().Get("hotelId")
	if cityID == "" || hotelID == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	removed, err := h.Catalog.DeleteHotel(r.Context(), cityID, hotelID)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			writeError(w, http.StatusNotFound, "Hotel not found")
			return
		}
		log.Error().Err(err).Str("hotel", hotelID).Msg("delete hotel failed")
		writeError(w, http.StatusInternalServerError, "Failed to delete hotel")
		return
	}
	writeData(w, http.StatusOK, hotelView(removed))
}

// ---- selection handlers ----

func (h *Handlers) getVotes(w http.ResponseWriter, r *http.Request) {
	agg, err := h.Selections.Aggregate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch votes")
		return
	}
	writeData(w, http.StatusOK, agg)
}

func (h *Handlers) postVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		CityID    string `json:"cityId"`
		HotelID   string `json:"hotelId"`
		Occupancy int    `json:"occupancy"`
		Notes     string `json:"notes"`
		DeviceID  string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.CityID == "" || req.HotelID == "" || req.Occupancy == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Occupancy != 2 && req.Occupancy != 3 {
		writeError(w, http.StatusBadRequest, "Occupancy must be 2 or 3")
		return
	}
	sel, err := h.Selections.Upsert(r.Context(), req.CityID, req.HotelID,
		domain.Identity{Name: req.Name, DeviceID: req.DeviceID}, req.Occupancy, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			writeError(w, http.StatusNotFound, "Hotel not found")
			return
		}
		log.Error().Err(err).Str("city", req.CityID).Str("hotel", req.HotelID).Msg("upsert selection failed")
		writeError(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}
	writeData(w, http.StatusOK, selectionJSON{
		Name:      sel.Voter.Name,
		CityID:    sel.CityID,
		HotelID:   sel.HotelID,
		Occupancy: sel.Occupancy,
		Notes:     sel.Notes,
		Timestamp: sel.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

func (h *Handlers) resetVotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	n, err := h.Selections.Clear(r.Context(), domain.Identity{Name: req.Name, DeviceID: req.DeviceID})
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("reset selections failed")
		writeError(w, http.StatusInternalServerError, "Failed to reset selections")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deletedCount": n})
}
