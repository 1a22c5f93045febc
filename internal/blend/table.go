// Package blend implements the continuous scenario-blending engine.
// Two structurally-identical delimited input files, representing
// opposite endpoints of a policy lever, are combined column-wise into
// a single interpolated file using a scalar weight.
package blend

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Kind is the inferred type of a table column.
type Kind int

const (
	// KindString columns are passed through verbatim.
	KindString Kind = iota
	// KindInt columns hold only integer literals.
	KindInt
	// KindFloat columns hold numeric literals, at least one of which
	// is not a plain integer.
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Table is a small in-memory delimited table with named, type-inferred
// columns. Cell text is preserved verbatim so that columns which are
// not numerically manipulated round-trip byte-identically.
type Table struct {
	Header []string
	Rows   [][]string

	kinds []Kind
	index map[string]int
}

// ReadTable loads a comma-delimited file with a header row and infers
// a kind for every column.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

func readTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty table: no header row")
	}

	t := &Table{
		Header: records[0],
		Rows:   records[1:],
		index:  make(map[string]int, len(records[0])),
	}
	for i, name := range t.Header {
		t.index[name] = i
	}
	t.inferKinds()
	return t, nil
}

func (t *Table) inferKinds() {
	t.kinds = make([]Kind, len(t.Header))
	for col := range t.Header {
		t.kinds[col] = inferKind(t.Rows, col)
	}
}

func inferKind(rows [][]string, col int) Kind {
	if len(rows) == 0 {
		return KindString
	}
	allInt := true
	for _, row := range rows {
		if col >= len(row) {
			return KindString
		}
		cell := row[col]
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return KindString
		}
	}
	if allInt {
		return KindInt
	}
	return KindFloat
}

// KindOf returns the inferred kind of a named column, or KindString if
// the column does not exist.
func (t *Table) KindOf(name string) Kind {
	i, ok := t.index[name]
	if !ok {
		return KindString
	}
	return t.kinds[i]
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// FloatCol parses a named column as float64 values.
func (t *Table) FloatCol(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	vals := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, r, err)
		}
		vals[r] = v
	}
	return vals, nil
}

// setFloatCol overwrites a column with float values formatted at the
// fixed output precision.
func (t *Table) setFloatCol(name string, vals []float64) {
	i := t.index[name]
	for r := range vals {
		if r >= len(t.Rows) {
			break
		}
		t.Rows[r][i] = strconv.FormatFloat(vals[r], 'f', floatPrecision, 64)
	}
}

// setIntCol overwrites a column with integer values.
func (t *Table) setIntCol(name string, vals []int64) {
	i := t.index[name]
	for r := range vals {
		if r >= len(t.Rows) {
			break
		}
		t.Rows[r][i] = strconv.FormatInt(vals[r], 10)
	}
}

// clone returns a deep copy of the table.
func (t *Table) clone() *Table {
	c := &Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, len(t.Rows)),
		kinds:  append([]Kind(nil), t.kinds...),
		index:  make(map[string]int, len(t.index)),
	}
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}

// WriteFile writes the table as a comma-delimited file with a header
// row and no index column.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header); err != nil {
		f.Close()
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
