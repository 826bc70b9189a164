package dashboard

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skypies/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/cache"
	"github.com/aerodash/aerodash/internal/table"
)

const airportsCSV = `local;oaci;iata;denominacion;provincia;tipo;control;estado;latitud;longitud;elevacion
EZE;SAEZ;EZE;Ministro Pistarini;Buenos Aires;Aeropuerto;Controlado;Operativo;-34,8222;-58,5358;20
AEP;SABE;AEP;Jorge Newbery;Buenos Aires;Aeropuerto;Controlado;Operativo;-34,5592;-58,4156;5
MOR;SADM;;Morón;Buenos Aires;Aeródromo;No controlado;Operativo;-34,6763;-58,6428;29
COR;SACO;COR;Ingeniero Taravella;Córdoba;Aeropuerto;Controlado;Operativo;-31,3236;-64,2080;474
RCU;SAOC;RCU;Río Cuarto;Córdoba;Aeropuerto;Controlado;Operativo;;;
`

const report2023 = `31/12/2023,23:10,Regular,Doméstico,Aterrizaje,COR,AEP,AEROLINEAS ARGENTINAS SA,EMB-ERJ190,96,96,DEFINITIVO
31/12/2023,23:40,Regular,Doméstico,Despegue,AEP,COR,AEROLINEAS ARGENTINAS SA,EMB-ERJ190,96,96,DEFINITIVO
broken,line
`

const report2024 = `01/03/2024,10:15,Regular,Doméstico,Despegue,COR,AEP,FLYBONDI,B737,180,180,PROVISORIO
02/03/2024,11:00,Regular,Internacional,Aterrizaje,EZE,SCL,JETSMART,A320,170,170,PROVISORIO
99/99/9999,11:00,Regular,Internacional,Aterrizaje,EZE,SCL,JETSMART,A320,170,170,PROVISORIO
03/03/2024,12:00,No Regular,Doméstico,Despegue,AEP,MDZ,,A320,10,N/D,PROVISORIO
`

type fixture struct {
	dir     string
	sources Sources
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return fixture{
		dir: dir,
		sources: Sources{
			Airports:          write("aeropuertos_detalle.csv", airportsCSV),
			Reports:           []string{write("202312_informe-ministerio.csv", report2023), write("202405_informe-ministerio.csv", report2024)},
			AirportsDelimiter: ';',
			ReportDelimiter:   ',',
			Encoding:          table.UTF8,
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, src Sources, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	svc, err := NewService(src, opts...)
	require.NoError(t, err)
	return svc
}

func TestService_Load(t *testing.T) {
	fx := newFixture(t)
	svc := newService(t, fx.sources)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, "", snap.ID.String())
	assert.Len(t, snap.Airports, 5)
	assert.Len(t, snap.Movements, 4)

	// Report files keep file order: 2023 rows come first.
	assert.Equal(t, "2023-12-31", aviation.FormatDate(snap.Movements[0].Date))
	assert.Equal(t, "2024-03-02", aviation.FormatDate(snap.Movements[3].Date))

	r := snap.Report
	require.Len(t, r.Files, 3)
	assert.Equal(t, fx.sources.Airports, r.Files[0].Path)
	assert.Equal(t, 5, r.Files[0].Rows)
	assert.Equal(t, 1, r.Files[1].Skipped)
	assert.Equal(t, 4, r.Files[2].Rows)
	assert.Equal(t, 1, r.Skipped())
	assert.Equal(t, 1, r.Movements.BadDate)
	assert.Equal(t, 1, r.Movements.MissingAirline)
	assert.Equal(t, 0, r.CacheHits)
}

func TestService_MissingFile(t *testing.T) {
	fx := newFixture(t)
	src := fx.sources
	src.Reports = append(src.Reports, filepath.Join(fx.dir, "2019_informe_ministerio.csv"))
	svc := newService(t, src)

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrFileAccess)
}

func TestService_FailedReloadKeepsCurrent(t *testing.T) {
	fx := newFixture(t)
	svc := newService(t, fx.sources)

	first, err := svc.Current(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(fx.sources.Airports))
	_, err = svc.Reload(context.Background())
	require.Error(t, err)

	cur, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, cur)
}

func TestService_CurrentIsMemoized(t *testing.T) {
	fx := newFixture(t)
	svc := newService(t, fx.sources)

	a, err := svc.Current(context.Background())
	require.NoError(t, err)
	b, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestService_CacheServesUntilInvalidated(t *testing.T) {
	fx := newFixture(t)
	c := cache.New[*table.Table]()
	svc := newService(t, fx.sources, WithCache(c))
	ctx := context.Background()

	first, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Report.CacheHits)
	assert.Equal(t, 2, c.Stats().Entries)
	assert.False(t, first.Report.ReadAt.IsZero())

	// Changing a file is not noticed while the cached table is valid.
	require.NoError(t, os.WriteFile(fx.sources.Reports[1], []byte(""), 0o644))

	second, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Report.CacheHits)
	assert.Len(t, second.Movements, len(first.Movements))
	assert.Equal(t, first.Report.ReadAt, second.Report.ReadAt, "cached tables keep their read time")

	third, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, third.Report.CacheHits)
	assert.Len(t, third.Movements, 2)
	assert.False(t, third.Report.ReadAt.Before(second.Report.ReadAt))

	stats, ok := svc.CacheStats()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Entries)
}

func TestService_NoCache(t *testing.T) {
	fx := newFixture(t)
	svc := newService(t, fx.sources)

	_, ok := svc.CacheStats()
	assert.False(t, ok)

	_, err := svc.Load(context.Background())
	require.NoError(t, err)
}

func TestService_CancelledContext(t *testing.T) {
	fx := newFixture(t)
	svc := newService(t, fx.sources)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewService_NoSources(t *testing.T) {
	_, err := NewService(Sources{Airports: "a.csv"})
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestSources_DatasetDefaults(t *testing.T) {
	src := Sources{Airports: "a.csv", Reports: []string{"r.csv"}, Encoding: table.Latin1}

	a := src.airportOptions()
	assert.Equal(t, ';', a.Delimiter)
	assert.Empty(t, a.Columns)
	assert.Equal(t, table.Latin1, a.Encoding)

	r := src.reportOptions()
	assert.Equal(t, ',', r.Delimiter)
	assert.Equal(t, aviation.MovementDataset.Columns(), r.Columns)
}

func TestSources_Keys(t *testing.T) {
	fx := newFixture(t)
	src := fx.sources

	assert.NotEqual(t, src.AirportsKey(), src.ReportsKey())

	reordered := src
	reordered.Reports = []string{src.Reports[1], src.Reports[0]}
	assert.NotEqual(t, src.ReportsKey(), reordered.ReportsKey())
}

func TestService_Clock(t *testing.T) {
	fx := newFixture(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, fx.sources, WithClock(func() time.Time { return at }))

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at, snap.LoadedAt)
	assert.Equal(t, at, snap.Report.ReadAt)
	assert.Equal(t, time.Duration(0), snap.Report.Duration)
}

func loadSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	svc := newService(t, newFixture(t).sources)
	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	return snap
}

func TestSnapshot_ProvinceFilter(t *testing.T) {
	snap := loadSnapshot(t)

	got, err := snap.FilterAirports(aviation.Criteria{aviation.Equals("province", "Córdoba")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, "Córdoba", a.Province)
	}

	none, err := snap.FilterAirports(aviation.Criteria{aviation.Equals("province", "Chubut")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnapshot_Options(t *testing.T) {
	opts := loadSnapshot(t).Options()

	assert.Equal(t, []string{"Buenos Aires", "Córdoba"}, opts.Airports["province"])
	assert.Equal(t, []string{"Aeródromo", "Aeropuerto"}, opts.Airports["type"])
	assert.Equal(t, []string{"AEROLINEAS ARGENTINAS SA", "FLYBONDI", "JETSMART"}, opts.Movements["airline"])
	assert.Equal(t, "2023-12-31", opts.DateFrom)
	assert.Equal(t, "2024-03-02", opts.DateTo)

	assert.Equal(t, "Provincia", opts.Labels["province"])
	assert.Equal(t, "Aerolínea", opts.Labels["airline"])

	require.NotNil(t, opts.Extent)
	assert.InDelta(t, -34.8222, opts.Extent.South, 1e-9)
	assert.InDelta(t, -64.2080, opts.Extent.West, 1e-9)
	assert.InDelta(t, -31.3236, opts.Extent.North, 1e-9)
	assert.InDelta(t, -58.4156, opts.Extent.East, 1e-9)
}

func TestSnapshot_OptionsWithoutPositions(t *testing.T) {
	snap := &Snapshot{Airports: []aviation.AirportRecord{{Identifier: "RCU", Province: "Córdoba"}}}
	opts := snap.Options()
	assert.Nil(t, opts.Extent)
	assert.Empty(t, opts.DateFrom)
}

func TestSnapshot_Traffic(t *testing.T) {
	snap := loadSnapshot(t)

	tr, err := snap.Traffic(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AEP", "COR", "EZE"}, tr.Airports)
	assert.Equal(t, 4, tr.Total())

	tr, err = snap.Traffic(aviation.Criteria{aviation.Between("date", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Total())
}

func TestSnapshot_PaxSeries(t *testing.T) {
	series, err := loadSnapshot(t).PaxSeries(aviation.Criteria{aviation.Equals("airline", "AEROLINEAS ARGENTINAS SA")})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 192.0, series[0].PAX)
}

func TestSnapshot_Stats(t *testing.T) {
	snap := loadSnapshot(t)

	st, err := snap.Stats(Query{}, "")
	require.NoError(t, err)
	assert.Equal(t, "province", st.GroupBy)
	assert.Equal(t, []aviation.Count{{Value: "Buenos Aires", N: 3}, {Value: "Córdoba", N: 2}}, st.AirportsPerGroup)
	require.Len(t, st.Airports, 3)
	assert.Equal(t, 4, st.Airports[0].Count, "one airport has no coordinates")

	_, err = snap.Stats(Query{}, "runway")
	assert.ErrorIs(t, err, aviation.ErrUnknownField)
}

func TestSnapshot_Map(t *testing.T) {
	snap := loadSnapshot(t)

	points, err := snap.Map(MapQuery{})
	require.NoError(t, err)
	assert.Len(t, points, 4)

	near := geo.Latlong{Lat: -34.60, Long: -58.38}
	points, err = snap.Map(MapQuery{Near: &near, Limit: 1})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "AEP", points[0].Identifier)

	box := geo.LatlongBox{SW: geo.Latlong{Lat: -32, Long: -65}, NE: geo.Latlong{Lat: -31, Long: -64}}
	points, err = snap.Map(MapQuery{Box: &box})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "COR", points[0].Identifier)

	bounds, ok := snap.Bounds()
	require.True(t, ok)
	assert.InDelta(t, -34.8222, bounds.SW.Lat, 1e-9)
}
