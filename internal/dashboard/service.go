// Package dashboard wires the loader, the normalizer and the load cache
// into the data service behind the HTTP API.
//
// A Service produces Snapshots. Each Snapshot is one complete, immutable
// load: airports and movements normalized from the configured files, plus a
// report of what was read and dropped. Queries run against a Snapshot and
// never change it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/cache"
	"github.com/aerodash/aerodash/internal/logging"
	"github.com/aerodash/aerodash/internal/table"
)

// ErrNoSources is returned by NewService when no files are configured.
var ErrNoSources = errors.New("no source files configured")

// Sources names the input files and how to read them. Paths are used
// verbatim; report files are concatenated in slice order. A zero delimiter
// means the dataset's own.
type Sources struct {
	Airports          string
	Reports           []string
	AirportsDelimiter rune
	ReportDelimiter   rune
	Encoding          table.Encoding
}

func (s Sources) airportOptions() table.LoadOptions {
	return aviation.AirportDataset.LoadOptions(s.AirportsDelimiter, s.Encoding)
}

func (s Sources) reportOptions() table.LoadOptions {
	return aviation.MovementDataset.LoadOptions(s.ReportDelimiter, s.Encoding)
}

// AirportsKey is the cache key of the airport table.
func (s Sources) AirportsKey() cache.Key {
	o := s.airportOptions()
	return cache.KeyOf([]string{s.Airports}, o.Delimiter, o.Columns)
}

// ReportsKey is the cache key of the concatenated report table.
func (s Sources) ReportsKey() cache.Key {
	o := s.reportOptions()
	return cache.KeyOf(s.Reports, o.Delimiter, o.Columns)
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes loaded tables in c. Without it every load reads the
// files again.
func WithCache(c *cache.Cache[*table.Table]) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger for load events. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now for load timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service loads and serves dashboard snapshots.
type Service struct {
	sources Sources
	cache   *cache.Cache[*table.Table]
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current *Snapshot
}

// NewService creates a Service for src. Nothing is read until the first
// call to Current, Load or Reload.
func NewService(src Sources, opts ...Option) (*Service, error) {
	if src.Airports == "" || len(src.Reports) == 0 {
		return nil, ErrNoSources
	}
	s := &Service{
		sources: src,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sources returns the configured inputs.
func (s *Service) Sources() Sources {
	return s.sources
}

// CacheStats reports load cache activity. ok is false when caching is off.
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// Current returns the last loaded snapshot, loading one if there is none.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Load(ctx)
}

// Reload drops cached tables for the configured sources and loads a fresh
// snapshot from disk.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	if s.cache != nil {
		s.cache.Invalidate(s.sources.AirportsKey())
		s.cache.Invalidate(s.sources.ReportsKey())
	}
	return s.Load(ctx)
}

// Load builds a new snapshot, reading tables through the cache when one is
// configured, and makes it current. A file access error fails the whole
// load and leaves the current snapshot unchanged.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	id := uuid.New()
	logger := logging.WithFields(ctx, s.logger, "snapshot", id.String(), "reports", len(s.sources.Reports))
	start := s.now()

	report := LoadReport{}

	airportTbl, hit, err := s.table(ctx, s.sources.AirportsKey(), func() (*table.Table, error) {
		return s.loadAirports(logger)
	})
	if err != nil {
		logger.Error("airport load failed", "path", s.sources.Airports, "error", err)
		return nil, err
	}
	report.countHit(hit)

	reportTbl, hit, err := s.table(ctx, s.sources.ReportsKey(), func() (*table.Table, error) {
		return s.loadReports(ctx, logger)
	})
	if err != nil {
		logger.Error("report load failed", "files", len(s.sources.Reports), "error", err)
		return nil, err
	}
	report.countHit(hit)

	airports, airportReport := aviation.NormalizeAirports(airportTbl)
	movements, movementReport := aviation.NormalizeMovements(reportTbl)

	report.Airports = airportReport
	report.Movements = movementReport
	report.Files = append(fileReports(airportTbl), fileReports(reportTbl)...)
	report.ReadAt = s.readAt(start)
	report.Duration = s.now().Sub(start)

	if len(movementReport.MissingColumns) > 0 {
		logger.Warn("report columns not found", "columns", movementReport.MissingColumns)
	}
	if len(airportReport.MissingColumns) > 0 {
		logger.Debug("airport columns not found", "columns", airportReport.MissingColumns)
	}

	snap := &Snapshot{
		ID:        id,
		LoadedAt:  start,
		Airports:  airports,
		Movements: movements,
		Report:    report,
	}

	logger.Info("snapshot loaded",
		"airports", len(airports),
		"movements", len(movements),
		"rows_skipped", report.Skipped(),
		"rows_dropped", movementReport.Dropped(),
		"cache_hits", report.CacheHits,
		"duration_ms", report.Duration.Milliseconds(),
	)

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	return snap, nil
}

// readAt returns when the oldest cached table of a load was read from
// disk. Without a cache every table is read by the load itself.
func (s *Service) readAt(start time.Time) time.Time {
	if s.cache == nil {
		return start
	}
	var oldest time.Time
	for _, k := range []cache.Key{s.sources.AirportsKey(), s.sources.ReportsKey()} {
		if at, ok := s.cache.StoredAt(k); ok && (oldest.IsZero() || at.Before(oldest)) {
			oldest = at
		}
	}
	if oldest.IsZero() {
		return start
	}
	return oldest
}

// table returns the table for key, from the cache when possible.
func (s *Service) table(ctx context.Context, key cache.Key, load func() (*table.Table, error)) (*table.Table, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.cache == nil {
		t, err := load()
		return t, false, err
	}
	return s.cache.GetOrLoad(key, load)
}

func (s *Service) loadAirports(logger *slog.Logger) (*table.Table, error) {
	t, err := table.Load(s.sources.Airports, s.sources.airportOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("file loaded", "path", t.Source, "rows", t.Len(), "skipped", t.Skipped)
	return t, nil
}

// loadReports loads every report file and concatenates them in order.
func (s *Service) loadReports(ctx context.Context, logger *slog.Logger) (*table.Table, error) {
	opts := s.sources.reportOptions()
	parts := make([]*table.Table, 0, len(s.sources.Reports))
	for _, path := range s.sources.Reports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := table.Load(path, opts)
		if err != nil {
			return nil, err
		}
		logger.Debug("file loaded", "path", path, "rows", t.Len(), "skipped", t.Skipped)
		parts = append(parts, t)
	}
	return table.Concat(parts...), nil
}

func fileReports(t *table.Table) []FileReport {
	parts := t.Parts()
	out := make([]FileReport, len(parts))
	for i, p := range parts {
		out[i] = FileReport{Path: p.Source, Rows: p.Rows, Skipped: p.Skipped}
	}
	return out
}

// LoadReport describes one snapshot load.
type LoadReport struct {
	Files     []FileReport             `json:"files"`
	Airports  aviation.NormalizeReport `json:"airports"`
	Movements aviation.NormalizeReport `json:"movements"`
	CacheHits int                      `json:"cacheHits"`
	ReadAt    time.Time                `json:"readAt"` // When the files were last read from disk
	Duration  time.Duration            `json:"durationNs"`
}

func (r *LoadReport) countHit(hit bool) {
	if hit {
		r.CacheHits++
	}
}

// Skipped returns malformed lines skipped across all files.
func (r LoadReport) Skipped() int {
	n := 0
	for _, f := range r.Files {
		n += f.Skipped
	}
	return n
}

// FileReport is what the loader did with one file.
type FileReport struct {
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

func (f FileReport) String() string {
	return fmt.Sprintf("%s: %d rows, %d skipped", f.Path, f.Rows, f.Skipped)
}
