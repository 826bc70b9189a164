package aviation

import (
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/skypies/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrafficSummary(t *testing.T) {
	movements := []MovementRecord{
		{Airport: "COR", MovementType: "Despegue"},
		{Airport: "COR", MovementType: "Despegue"},
		{Airport: "COR", MovementType: "Aterrizaje"},
		{Airport: "AER", MovementType: "Aterrizaje"},
	}

	got := TrafficSummary(movements)

	assert.Equal(t, []string{"AER", "COR"}, got.Airports)
	assert.Equal(t, []string{"Aterrizaje", "Despegue"}, got.MovementTypes)
	assert.Equal(t, [][]int{{1, 0}, {1, 2}}, got.Counts)
	assert.Equal(t, len(movements), got.Total())
}

func TestTrafficSummary_Empty(t *testing.T) {
	got := TrafficSummary(nil)
	assert.Equal(t, []string{}, got.Airports)
	assert.Empty(t, got.Counts)
	assert.Equal(t, 0, got.Total())
}

func TestCountBy(t *testing.T) {
	got, err := CountBy(sampleAirports(), "province")
	require.NoError(t, err)
	assert.Equal(t, []Count{{"Buenos Aires", 3}, {"Córdoba", 2}}, got)

	got, err = CountBy(sampleAirports(), "type")
	require.NoError(t, err)
	assert.Equal(t, []Count{{"Aeropuerto", 3}, {"Aeródromo", 2}}, got)

	_, err = CountBy(sampleAirports(), "country")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestPaxSeries(t *testing.T) {
	got := PaxSeries(sampleMovements(t))

	require.Len(t, got, 3)
	assert.Equal(t, date(2024, 3, 1), got[0].Date)
	assert.Equal(t, 120.0, got[0].PAX)
	assert.Equal(t, date(2024, 3, 2), got[1].Date)
	assert.Equal(t, 240.0, got[1].PAX)
	assert.Equal(t, 2, got[1].Movements)
	assert.Equal(t, date(2024, 3, 5), got[2].Date)
}

func TestDescribe(t *testing.T) {
	s := Describe("pax", []float64{9, 2, 4, 4, 4, 5, 5, 7})

	assert.Equal(t, "pax", s.Column)
	assert.Equal(t, 8, s.Count)
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 5.0, *s.Mean, 1e-9)
	require.NotNil(t, s.Std)
	assert.InDelta(t, math.Sqrt(32.0/7.0), *s.Std, 1e-9)
	assert.Equal(t, 2.0, *s.Min)
	assert.Equal(t, 9.0, *s.Max)

	assert.LessOrEqual(t, *s.Min, *s.P25)
	assert.LessOrEqual(t, *s.P25, *s.P50)
	assert.LessOrEqual(t, *s.P50, *s.P75)
	assert.LessOrEqual(t, *s.P75, *s.Max)
}

func TestDescribe_Degenerate(t *testing.T) {
	empty := Describe("x", nil)
	assert.Equal(t, 0, empty.Count)
	assert.Nil(t, empty.Mean)
	assert.Nil(t, empty.Max)

	one := Describe("x", []float64{3})
	assert.Equal(t, 1, one.Count)
	assert.Nil(t, one.Std)
	assert.Equal(t, 3.0, *one.P50)
}

func TestDescribeAirports(t *testing.T) {
	airports := []AirportRecord{
		{Latitude: pgtype.Float8{Float64: -31.3, Valid: true}, Longitude: pgtype.Float8{Float64: -64.2, Valid: true}},
		{Elevation: pgtype.Float8{Float64: 474, Valid: true}},
	}

	got := DescribeAirports(airports)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 1, got[2].Count)
	assert.Equal(t, "elevation", got[2].Column)
}

func positioned(id string, lat, long float64) AirportRecord {
	return AirportRecord{
		Identifier: id,
		Latitude:   pgtype.Float8{Float64: lat, Valid: true},
		Longitude:  pgtype.Float8{Float64: long, Valid: true},
	}
}

func TestMapPoints(t *testing.T) {
	airports := []AirportRecord{
		positioned("COR", -31.32, -64.21),
		{Identifier: "NOP"},
		{Identifier: "HALF", Latitude: pgtype.Float8{Float64: -30, Valid: true}},
	}
	airports[0].Elevation = pgtype.Float8{Float64: 474, Valid: true}

	got := MapPoints(airports)

	require.Len(t, got, 1)
	assert.Equal(t, "COR", got[0].Identifier)
	require.NotNil(t, got[0].Elevation)
	assert.Equal(t, 474.0, *got[0].Elevation)
}

func TestWithinBoxAndNearest(t *testing.T) {
	airports := []AirportRecord{
		positioned("AEP", -34.56, -58.42),
		positioned("COR", -31.32, -64.21),
		positioned("EZE", -34.82, -58.54),
		{Identifier: "NOP"},
	}

	box := geo.LatlongBox{
		SW: geo.Latlong{Lat: -35.5, Long: -59.5},
		NE: geo.Latlong{Lat: -34.0, Long: -57.5},
	}
	inBox := WithinBox(airports, box)
	require.Len(t, inBox, 2)
	assert.Equal(t, "AEP", inBox[0].Identifier)
	assert.Equal(t, "EZE", inBox[1].Identifier)

	near := Nearest(airports, geo.Latlong{Lat: -34.60, Long: -58.38}, 2)
	require.Len(t, near, 2)
	assert.Equal(t, "AEP", near[0].Airport.Identifier)
	assert.Equal(t, "EZE", near[1].Airport.Identifier)
	assert.Less(t, near[0].DistKM, near[1].DistKM)

	all := Nearest(airports, geo.Latlong{Lat: -34.60, Long: -58.38}, 0)
	assert.Len(t, all, 3)

	bounds, ok := BoundingBox(airports)
	require.True(t, ok)
	assert.Equal(t, -34.82, bounds.SW.Lat)
	assert.Equal(t, -64.21, bounds.SW.Long)
	assert.Equal(t, -31.32, bounds.NE.Lat)

	_, ok = BoundingBox([]AirportRecord{{Identifier: "NOP"}})
	assert.False(t, ok)
}
