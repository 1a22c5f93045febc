// Package measures computes the scalar performance measures extracted
// from a model run's output tables, and reads and writes the
// ComputedMeasures.json artifact.
package measures

import (
	"fmt"
	"strconv"

	"github.com/nvandessel/vebridge/internal/blend"
)

// Deflators is the currency deflation reference table, keyed by year.
// It is loaded from the model's defs/deflators.csv.
type Deflators struct {
	byYear map[string]float64
}

// LoadDeflators reads a deflators table with Year and Value columns.
func LoadDeflators(path string) (*Deflators, error) {
	t, err := blend.ReadTable(path)
	if err != nil {
		return nil, err
	}
	yearCol, valueCol := -1, -1
	for i, name := range t.Header {
		switch name {
		case "Year":
			yearCol = i
		case "Value":
			valueCol = i
		}
	}
	if yearCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("deflators table %s: need Year and Value columns, have %v", path, t.Header)
	}
	d := &Deflators{byYear: make(map[string]float64, len(t.Rows))}
	for _, row := range t.Rows {
		v, err := strconv.ParseFloat(row[valueCol], 64)
		if err != nil {
			return nil, fmt.Errorf("deflators table %s: bad value for year %s: %w", path, row[yearCol], err)
		}
		d.byYear[row[yearCol]] = v
	}
	return d, nil
}

// Deflate converts currency values from one year's dollars to
// another's. Either year missing from the reference table is a fatal
// error.
func (d *Deflators) Deflate(values []float64, fromYear, toYear string) ([]float64, error) {
	from, ok := d.byYear[fromYear]
	if !ok {
		return nil, fmt.Errorf("invalid FromYear %s", fromYear)
	}
	to, ok := d.byYear[toYear]
	if !ok {
		return nil, fmt.Errorf("invalid ToYear %s", toYear)
	}
	out := make([]float64, len(values))
	factor := to / from
	for i, v := range values {
		out[i] = v * factor
	}
	return out, nil
}
