package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/skypies/geo"

	"github.com/aerodash/aerodash/internal/aviation"
)

// Snapshot is one load of the dashboard data. It is never modified after
// Load returns it; every query returns new slices.
type Snapshot struct {
	ID        uuid.UUID
	LoadedAt  time.Time
	Airports  []aviation.AirportRecord
	Movements []aviation.MovementRecord
	Report    LoadReport
}

// Query holds the active filters for both datasets.
type Query struct {
	Airports  aviation.Criteria
	Movements aviation.Criteria
}

// FilterAirports applies airport criteria.
func (s *Snapshot) FilterAirports(c aviation.Criteria) ([]aviation.AirportRecord, error) {
	return aviation.ApplyAirports(s.Airports, c)
}

// FilterMovements applies movement criteria. Open date bounds default to
// the snapshot's full date range.
func (s *Snapshot) FilterMovements(c aviation.Criteria) ([]aviation.MovementRecord, error) {
	return aviation.ApplyMovements(s.Movements, c)
}

// Options are the filter choices offered to the user: distinct values per
// field, the display label of each field, the date range of the movements
// and the map extent of the airports.
type Options struct {
	Airports  map[string][]string `json:"airports"`
	Movements map[string][]string `json:"movements"`
	Labels    map[string]string   `json:"labels"`
	DateFrom  string              `json:"dateFrom,omitempty"`
	DateTo    string              `json:"dateTo,omitempty"`
	Extent    *Extent             `json:"extent,omitempty"`
}

// Extent is a bounding box in decimal degrees, in the order the bbox query
// parameter takes.
type Extent struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

var (
	airportOptionFields  = []string{"province", "type", "control", "state"}
	movementOptionFields = []string{"airport", "airline", "class", "classification", "movement", "quality"}
)

// Options lists the filter choices for the whole snapshot.
func (s *Snapshot) Options() Options {
	opts := Options{
		Airports:  make(map[string][]string, len(airportOptionFields)),
		Movements: make(map[string][]string, len(movementOptionFields)),
		Labels:    make(map[string]string, len(airportOptionFields)+len(movementOptionFields)),
	}
	for _, f := range airportOptionFields {
		opts.Airports[f], _ = aviation.DistinctAirports(s.Airports, f)
		opts.Labels[f] = aviation.AirportDataset.FieldLabel(f)
	}
	for _, f := range movementOptionFields {
		opts.Movements[f], _ = aviation.DistinctMovements(s.Movements, f)
		opts.Labels[f] = aviation.MovementDataset.FieldLabel(f)
	}
	if box, ok := s.Bounds(); ok {
		opts.Extent = &Extent{South: box.SW.Lat, West: box.SW.Long, North: box.NE.Lat, East: box.NE.Long}
	}
	if from, to, ok := aviation.DateBounds(s.Movements); ok {
		opts.DateFrom = from.Format(time.DateOnly)
		opts.DateTo = to.Format(time.DateOnly)
	}
	return opts
}

// Traffic is the airport by movement type matrix for filtered movements.
func (s *Snapshot) Traffic(c aviation.Criteria) (aviation.Traffic, error) {
	m, err := s.FilterMovements(c)
	if err != nil {
		return aviation.Traffic{}, err
	}
	return aviation.TrafficSummary(m), nil
}

// PaxSeries is daily PAX for filtered movements.
func (s *Snapshot) PaxSeries(c aviation.Criteria) ([]aviation.PaxPoint, error) {
	m, err := s.FilterMovements(c)
	if err != nil {
		return nil, err
	}
	return aviation.PaxSeries(m), nil
}

// Stats holds descriptive statistics and airport counts for a query.
type Stats struct {
	Airports         []aviation.Summary `json:"airports"`
	Movements        []aviation.Summary `json:"movements"`
	AirportsPerGroup []aviation.Count   `json:"airportsPerGroup"`
	GroupBy          string             `json:"groupBy"`
}

// Stats describes filtered airports and movements and counts airports per
// value of groupBy ("province" when empty).
func (s *Snapshot) Stats(q Query, groupBy string) (Stats, error) {
	if groupBy == "" {
		groupBy = "province"
	}
	airports, err := s.FilterAirports(q.Airports)
	if err != nil {
		return Stats{}, err
	}
	movements, err := s.FilterMovements(q.Movements)
	if err != nil {
		return Stats{}, err
	}
	counts, err := aviation.CountBy(airports, groupBy)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Airports:         aviation.DescribeAirports(airports),
		Movements:        aviation.DescribeMovements(movements),
		AirportsPerGroup: counts,
		GroupBy:          groupBy,
	}, nil
}

// MapQuery narrows the map layer. A nil Box means no box; a nil Near means
// no distance ordering.
type MapQuery struct {
	Criteria aviation.Criteria
	Box      *geo.LatlongBox
	Near     *geo.Latlong
	Limit    int
}

// Map returns the positioned airports for the map layer. With Near set,
// points are ordered by distance and cut to Limit.
func (s *Snapshot) Map(q MapQuery) ([]aviation.MapPoint, error) {
	airports, err := s.FilterAirports(q.Criteria)
	if err != nil {
		return nil, err
	}
	if q.Box != nil {
		airports = aviation.WithinBox(airports, *q.Box)
	}
	if q.Near != nil {
		near := aviation.Nearest(airports, *q.Near, q.Limit)
		airports = make([]aviation.AirportRecord, len(near))
		for i, n := range near {
			airports[i] = n.Airport
		}
	}
	return aviation.MapPoints(airports), nil
}

// Bounds is the box around every positioned airport in the snapshot.
func (s *Snapshot) Bounds() (geo.LatlongBox, bool) {
	return aviation.BoundingBox(s.Airports)
}
