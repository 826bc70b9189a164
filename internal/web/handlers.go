package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/dashboard"
	"github.com/aerodash/aerodash/internal/logging"
)

// AirportDTO is the JSON form of an airport. Missing numbers are null.
type AirportDTO struct {
	ID        string   `json:"id"`
	OACI      string   `json:"oaci"`
	IATA      string   `json:"iata"`
	Name      string   `json:"name"`
	Province  string   `json:"province"`
	Type      string   `json:"type"`
	Control   string   `json:"control"`
	State     string   `json:"state"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// MovementDTO is the JSON form of a movement.
type MovementDTO struct {
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Class          string   `json:"class"`
	Classification string   `json:"classification"`
	Movement       string   `json:"movement"`
	Airport        string   `json:"airport"`
	Origin         string   `json:"origin"`
	Airline        string   `json:"airline"`
	Aircraft       string   `json:"aircraft"`
	Passengers     *float64 `json:"passengers"`
	PAX            float64  `json:"pax"`
	Quality        string   `json:"quality"`
}

// ListResponse wraps a filtered list. Rows is never null.
type ListResponse[T any] struct {
	Snapshot string `json:"snapshot"`
	Count    int    `json:"count"`
	Rows     []T    `json:"rows"`
}

// HealthResponse reports service state. Snapshot and LoadedAt are absent
// while no snapshot could be loaded.
type HealthResponse struct {
	Status     string     `json:"status"`
	Snapshot   string     `json:"snapshot,omitempty"`
	LoadedAt   *time.Time `json:"loadedAt,omitempty"`
	Airports   int        `json:"airports"`
	Movements  int        `json:"movements"`
	CacheHits  uint64     `json:"cacheHits"`
	CacheMiss  uint64     `json:"cacheMisses"`
	CacheItems int        `json:"cacheEntries"`
}

// DatasetDTO is the JSON form of a dataset schema.
type DatasetDTO struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Delimiter string     `json:"delimiter"`
	Header    bool       `json:"header"`
	Fields    []FieldDTO `json:"fields"`
}

// FieldDTO is the JSON form of one dataset field.
type FieldDTO struct {
	Key      string   `json:"key"`
	Column   string   `json:"column"`
	Aliases  []string `json:"aliases,omitempty"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Label    string   `json:"label"`
}

func toDatasetDTO(d aviation.Dataset) DatasetDTO {
	return DatasetDTO{
		Key:       d.Key,
		Label:     d.Label,
		Delimiter: string(d.Delimiter),
		Header:    d.Header,
		Fields:    mapSlice(d.Fields, toFieldDTO),
	}
}

func toFieldDTO(f aviation.FieldSpec) FieldDTO {
	return FieldDTO{
		Key:      f.Key,
		Column:   f.Name,
		Aliases:  f.Aliases,
		Type:     f.Type.String(),
		Required: f.Required,
		Label:    f.Label,
	}
}

func toAirportDTO(a aviation.AirportRecord) AirportDTO {
	return AirportDTO{
		ID:        a.Identifier,
		OACI:      a.OACI,
		IATA:      a.IATA,
		Name:      a.Name,
		Province:  a.Province,
		Type:      a.Type,
		Control:   a.Control,
		State:     a.State,
		Latitude:  floatPtr(a.Latitude.Float64, a.Latitude.Valid),
		Longitude: floatPtr(a.Longitude.Float64, a.Longitude.Valid),
		Elevation: floatPtr(a.Elevation.Float64, a.Elevation.Valid),
	}
}

func toMovementDTO(m aviation.MovementRecord) MovementDTO {
	return MovementDTO{
		Date:           aviation.FormatDate(m.Date),
		Time:           aviation.FormatClock(m.Time),
		Class:          m.FlightClass,
		Classification: m.Classification,
		Movement:       m.MovementType,
		Airport:        m.Airport,
		Origin:         m.OriginDestination,
		Airline:        m.Airline,
		Aircraft:       m.Aircraft,
		Passengers:     floatPtr(m.Passengers.Float64, m.Passengers.Valid),
		PAX:            m.PAX,
		Quality:        m.Quality,
	}
}

func floatPtr(f float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &f
}

func mapSlice[S, D any](src []S, fn func(S) D) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	return out
}

// snapshot returns the current snapshot, writing the error response when
// there is none.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if snap, err := s.service.Current(r.Context()); err != nil {
		resp.Status = "degraded"
	} else {
		resp.Snapshot = snap.ID.String()
		resp.LoadedAt = &snap.LoadedAt
		resp.Airports = len(snap.Airports)
		resp.Movements = len(snap.Movements)
	}
	if st, ok := s.service.CacheStats(); ok {
		resp.CacheHits = st.Hits
		resp.CacheMiss = st.Misses
		resp.CacheItems = st.Entries
	}
	writeJSON(w, resp)
}

func (s *Server) handleLoadReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, snap.Report)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Reload(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("data reloaded", "snapshot", snap.ID.String())
	writeJSON(w, snap.Report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, mapSlice(aviation.Datasets(), toDatasetDTO))
}

func (s *Server) handleDatasetSchema(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dataset")
	d, ok := aviation.GetDataset(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %q", errUnknownDataset, key))
		return
	}
	writeJSON(w, toDatasetDTO(d))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, snap.Options())
}

func (s *Server) handleAirports(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := snap.FilterAirports(q.Airports)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, ListResponse[AirportDTO]{
		Snapshot: snap.ID.String(),
		Count:    len(rows),
		Rows:     mapSlice(rows, toAirportDTO),
	})
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := snap.FilterMovements(q.Movements)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, ListResponse[MovementDTO]{
		Snapshot: snap.ID.String(),
		Count:    len(rows),
		Rows:     mapSlice(rows, toMovementDTO),
	})
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tr, err := snap.Traffic(q.Movements)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, tr)
}

func (s *Server) handlePaxSeries(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	series, err := snap.PaxSeries(q.Movements)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, series)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	st, err := snap.Stats(q, r.URL.Query().Get("group"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	mq, err := parseMapQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	points, err := snap.Map(mq)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, points)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	airports, err := snap.FilterAirports(q.Airports)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tr, err := snap.Traffic(q.Movements)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := overviewPage(snap, airports, tr).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render overview", "error", err)
	}
}
