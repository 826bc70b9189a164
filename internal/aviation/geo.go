package aviation

import (
	"sort"

	"github.com/skypies/geo"
)

// MapPoint is an airport positioned for the map layer. Elevation is nil
// when the airport file had none.
type MapPoint struct {
	Identifier string   `json:"id"`
	Name       string   `json:"name"`
	Province   string   `json:"province"`
	Lat        float64  `json:"lat"`
	Long       float64  `json:"lon"`
	Elevation  *float64 `json:"elevation,omitempty"`
}

// MapPoints returns the airports that have both coordinates, in input order.
func MapPoints(airports []AirportRecord) []MapPoint {
	out := make([]MapPoint, 0, len(airports))
	for _, a := range airports {
		ll, ok := a.Position()
		if !ok {
			continue
		}
		p := MapPoint{
			Identifier: a.Identifier,
			Name:       a.Name,
			Province:   a.Province,
			Lat:        ll.Lat,
			Long:       ll.Long,
		}
		if a.Elevation.Valid {
			p.Elevation = ptr(a.Elevation.Float64)
		}
		out = append(out, p)
	}
	return out
}

// WithinBox returns the airports positioned inside box. Airports with no
// position are never inside.
func WithinBox(airports []AirportRecord, box geo.LatlongBox) []AirportRecord {
	out := make([]AirportRecord, 0)
	for _, a := range airports {
		if ll, ok := a.Position(); ok && box.Contains(ll) {
			out = append(out, a)
		}
	}
	return out
}

// Neighbor is an airport and its distance from a reference point.
type Neighbor struct {
	Airport AirportRecord
	DistKM  float64
}

// Nearest returns up to n positioned airports closest to point, nearest
// first. n <= 0 returns all of them.
func Nearest(airports []AirportRecord, point geo.Latlong, n int) []Neighbor {
	out := make([]Neighbor, 0, len(airports))
	for _, a := range airports {
		ll, ok := a.Position()
		if !ok {
			continue
		}
		out = append(out, Neighbor{Airport: a, DistKM: point.DistKM(ll)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistKM < out[j].DistKM })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// BoundingBox returns the smallest box holding every positioned airport.
// ok is false if no airport has a position.
func BoundingBox(airports []AirportRecord) (box geo.LatlongBox, ok bool) {
	for _, a := range airports {
		ll, has := a.Position()
		if !has {
			continue
		}
		if !ok {
			box = geo.LatlongBox{SW: ll, NE: ll}
			ok = true
			continue
		}
		box.SW.Lat = min(box.SW.Lat, ll.Lat)
		box.SW.Long = min(box.SW.Long, ll.Long)
		box.NE.Lat = max(box.NE.Lat, ll.Lat)
		box.NE.Long = max(box.NE.Long, ll.Long)
	}
	return box, ok
}
