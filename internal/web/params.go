package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skypies/geo"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/dashboard"
)

// Query parameters:
//
//	<field>=value         equality on any airport or movement field key;
//	                      repeat the parameter or separate with "|" for
//	                      several accepted values
//	from=YYYY-MM-DD       first movement date, inclusive
//	to=YYYY-MM-DD         last movement date, inclusive
//	bbox=s,w,n,e          map box in decimal degrees
//	near=lat,lon          order map points by distance
//	limit=N               keep the N nearest map points
//	group=field           airport field for per-group counts
//
// Parameters that are not field keys are ignored.

// parseQuery builds airport and movement criteria from r.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	values := r.URL.Query()
	q := dashboard.Query{
		Airports:  equalities(values, aviation.AirportDataset.Keys()),
		Movements: equalities(values, aviation.MovementDataset.Keys()),
	}

	from, err := parseDateParam(values.Get("from"), "from")
	if err != nil {
		return dashboard.Query{}, err
	}
	to, err := parseDateParam(values.Get("to"), "to")
	if err != nil {
		return dashboard.Query{}, err
	}
	if !from.IsZero() || !to.IsZero() {
		q.Movements = q.Movements.And(aviation.Between("date", from, to))
	}
	return q, nil
}

func equalities(values map[string][]string, keys []string) aviation.Criteria {
	var c aviation.Criteria
	for _, key := range keys {
		raw, ok := values[key]
		if !ok {
			continue
		}
		var accepted []string
		for _, v := range raw {
			for _, part := range strings.Split(v, "|") {
				if part = strings.TrimSpace(part); part != "" {
					accepted = append(accepted, part)
				}
			}
		}
		if len(accepted) > 0 {
			c = c.And(aviation.Equals(key, accepted...))
		}
	}
	return c
}

func parseDateParam(s, name string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q", errBadParam, name, s)
	}
	return t, nil
}

// parseMapQuery adds the map parameters to the airport criteria of r.
func parseMapQuery(r *http.Request) (dashboard.MapQuery, error) {
	q, err := parseQuery(r)
	if err != nil {
		return dashboard.MapQuery{}, err
	}
	mq := dashboard.MapQuery{Criteria: q.Airports}
	values := r.URL.Query()

	if s := values.Get("bbox"); s != "" {
		f, err := parseFloats(s, 4, "bbox")
		if err != nil {
			return dashboard.MapQuery{}, err
		}
		mq.Box = &geo.LatlongBox{
			SW: geo.Latlong{Lat: f[0], Long: f[1]},
			NE: geo.Latlong{Lat: f[2], Long: f[3]},
		}
	}
	if s := values.Get("near"); s != "" {
		f, err := parseFloats(s, 2, "near")
		if err != nil {
			return dashboard.MapQuery{}, err
		}
		mq.Near = &geo.Latlong{Lat: f[0], Long: f[1]}
	}
	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return dashboard.MapQuery{}, fmt.Errorf("%w: limit=%q", errBadParam, s)
		}
		mq.Limit = n
	}
	return mq, nil
}

func parseFloats(s string, n int, name string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %s needs %d numbers", errBadParam, name, n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", errBadParam, name, s)
		}
		out[i] = f
	}
	return out, nil
}
