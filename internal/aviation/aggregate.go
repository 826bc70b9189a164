package aviation

import (
	"fmt"
	"sort"
	"time"
)

// Traffic is a movement count matrix: Counts[i][j] is the number of
// movements at Airports[i] with movement type MovementTypes[j]. Pairs with
// no movements are zero, so every row has one entry per movement type.
type Traffic struct {
	Airports      []string `json:"airports"`
	MovementTypes []string `json:"movementTypes"`
	Counts        [][]int  `json:"counts"`
}

// Total returns the number of movements counted.
func (t Traffic) Total() int {
	n := 0
	for _, row := range t.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// TrafficSummary groups movements by airport and movement type.
// Movements with no movement type are counted under "".
func TrafficSummary(movements []MovementRecord) Traffic {
	airportIdx := make(map[string]int)
	typeIdx := make(map[string]int)
	var airports, types []string

	for _, m := range movements {
		if _, ok := airportIdx[m.Airport]; !ok {
			airportIdx[m.Airport] = 0
			airports = append(airports, m.Airport)
		}
		if _, ok := typeIdx[m.MovementType]; !ok {
			typeIdx[m.MovementType] = 0
			types = append(types, m.MovementType)
		}
	}

	SortStrings(airports)
	SortStrings(types)
	for i, a := range airports {
		airportIdx[a] = i
	}
	for j, mt := range types {
		typeIdx[mt] = j
	}

	counts := make([][]int, len(airports))
	for i := range counts {
		counts[i] = make([]int, len(types))
	}
	for _, m := range movements {
		counts[airportIdx[m.Airport]][typeIdx[m.MovementType]]++
	}

	if airports == nil {
		airports, types = []string{}, []string{}
	}
	return Traffic{Airports: airports, MovementTypes: types, Counts: counts}
}

// Count is the number of records sharing one field value.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// CountBy counts airports per value of field, largest first. Ties are in
// collation order. Airports with an empty value are not counted.
func CountBy(airports []AirportRecord, field string) ([]Count, error) {
	get, ok := airportText[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	n := make(map[string]int)
	for _, a := range airports {
		if v := get(a); v != "" {
			n[v]++
		}
	}

	values := make([]string, 0, len(n))
	for v := range n {
		values = append(values, v)
	}
	SortStrings(values)

	out := make([]Count, len(values))
	for i, v := range values {
		out[i] = Count{Value: v, N: n[v]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out, nil
}

// PaxPoint is the PAX total for one day.
type PaxPoint struct {
	Date time.Time `json:"date"`
	PAX  float64   `json:"pax"`
	// Movements is the number of records summed into PAX.
	Movements int `json:"movements"`
}

// PaxSeries sums PAX per date, in ascending date order.
func PaxSeries(movements []MovementRecord) []PaxPoint {
	byDay := make(map[time.Time]*PaxPoint)
	for _, m := range movements {
		if !m.Date.Valid {
			continue
		}
		d := day(m.Date.Time)
		p, ok := byDay[d]
		if !ok {
			p = &PaxPoint{Date: d}
			byDay[d] = p
		}
		p.PAX += m.PAX
		p.Movements++
	}

	out := make([]PaxPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
