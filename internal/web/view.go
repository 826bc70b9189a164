package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/dashboard"
)

var airportColumns = []string{"id", "oaci", "iata", "name", "province", "type", "latitude", "longitude"}

// overviewPage renders the filtered airports and the traffic matrix. Empty
// tables render a "no data" row instead of an empty body.
func overviewPage(snap *dashboard.Snapshot, airports []aviation.AirportRecord, tr aviation.Traffic) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &htmlWriter{w: w}
		p.raw(`<!DOCTYPE html><html lang="es"><head><meta charset="utf-8"><title>Aeropuertos</title>`)
		p.raw(`<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 6px}.empty{color:#888}</style>`)
		p.raw(`</head><body><h1>`)
		p.text(aviation.AirportDataset.Label)
		p.raw(`</h1>`)
		p.raw(`<p>`)
		p.text(fmt.Sprintf("%d airports, %d movements, loaded %s",
			len(snap.Airports), len(snap.Movements), snap.LoadedAt.Format("2006-01-02 15:04:05")))
		p.raw(`</p>`)

		p.raw(`<h2>Airports</h2><table><thead><tr>`)
		for _, key := range airportColumns {
			p.cell("th", aviation.AirportDataset.FieldLabel(key))
		}
		p.raw(`</tr></thead><tbody>`)
		if len(airports) == 0 {
			p.emptyRow(len(airportColumns))
		}
		for _, a := range airports {
			p.raw(`<tr>`)
			p.cell("td", a.Identifier)
			p.cell("td", a.OACI)
			p.cell("td", a.IATA)
			p.cell("td", a.Name)
			p.cell("td", a.Province)
			p.cell("td", a.Type)
			p.cell("td", aviation.FormatNumber(a.Latitude))
			p.cell("td", aviation.FormatNumber(a.Longitude))
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table>`)

		p.raw(`<h2>`)
		p.text(aviation.MovementDataset.Label)
		p.raw(`</h2><table><thead><tr>`)
		p.cell("th", aviation.MovementDataset.FieldLabel("airport"))
		for _, mt := range tr.MovementTypes {
			p.cell("th", mt)
		}
		p.raw(`</tr></thead><tbody>`)
		if len(tr.Airports) == 0 {
			p.emptyRow(1)
		}
		for i, ap := range tr.Airports {
			p.raw(`<tr>`)
			p.cell("th", ap)
			for _, n := range tr.Counts[i] {
				p.cell("td", strconv.Itoa(n))
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table></body></html>`)
		return p.err
	})
}

// htmlWriter keeps the first write error so rendering reads straight
// through.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (p *htmlWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *htmlWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *htmlWriter) cell(tag, s string) {
	p.raw("<" + tag + ">")
	p.text(s)
	p.raw("</" + tag + ">")
}

func (p *htmlWriter) emptyRow(span int) {
	p.raw(`<tr><td class="empty" colspan="` + strconv.Itoa(span) + `">no data</td></tr>`)
}
