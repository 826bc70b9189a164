package aviation

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one numeric column.
// Pointer fields are nil when the statistic is undefined: all of them for
// an empty column, Std for a column with fewer than two values.
type Summary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	P25    *float64 `json:"p25"`
	P50    *float64 `json:"p50"`
	P75    *float64 `json:"p75"`
	Max    *float64 `json:"max"`
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max. Quartiles interpolate linearly between order statistics.
// values is not modified.
func Describe(column string, values []float64) Summary {
	s := Summary{Column: column, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = ptr(stat.Mean(sorted, nil))
	if len(sorted) > 1 {
		s.Std = ptr(stat.StdDev(sorted, nil))
	}
	s.Min = ptr(floats.Min(sorted))
	s.P25 = ptr(stat.Quantile(0.25, stat.LinInterp, sorted, nil))
	s.P50 = ptr(stat.Quantile(0.50, stat.LinInterp, sorted, nil))
	s.P75 = ptr(stat.Quantile(0.75, stat.LinInterp, sorted, nil))
	s.Max = ptr(floats.Max(sorted))
	return s
}

// DescribeAirports summarizes the numeric airport fields. Missing values
// are left out of each column's statistics.
func DescribeAirports(airports []AirportRecord) []Summary {
	var lat, lon, elev []float64
	for _, a := range airports {
		if a.Latitude.Valid {
			lat = append(lat, a.Latitude.Float64)
		}
		if a.Longitude.Valid {
			lon = append(lon, a.Longitude.Float64)
		}
		if a.Elevation.Valid {
			elev = append(elev, a.Elevation.Float64)
		}
	}
	return []Summary{
		Describe("latitude", lat),
		Describe("longitude", lon),
		Describe("elevation", elev),
	}
}

// DescribeMovements summarizes passengers and PAX.
func DescribeMovements(movements []MovementRecord) []Summary {
	var passengers []float64
	pax := make([]float64, 0, len(movements))
	for _, m := range movements {
		if m.Passengers.Valid {
			passengers = append(passengers, m.Passengers.Float64)
		}
		pax = append(pax, m.PAX)
	}
	return []Summary{
		Describe("passengers", passengers),
		Describe("pax", pax),
	}
}

func ptr(f float64) *float64 { return &f }
