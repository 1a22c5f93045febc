package blend

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// floatPrecision is the number of decimal places written for blended
// float columns.
const floatPrecision = 5

// Mix combines two endpoint tables into one. Float columns of t1 are
// replaced with t1*(1-weight) + t2*weight per cell; integer columns
// get the same combination rounded to the nearest integer (ties to
// even). Columns named in exclude, and columns that are not numeric in
// t1, pass through from t1 unchanged; t2 is never read for them.
//
// The weight is not range-checked: values outside [0,1] extrapolate.
// Row counts are not reconciled; mismatched tables blend over the
// shorter of the two and silently misalign.
func Mix(t1, t2 *Table, weight float64, exclude []string) (*Table, error) {
	w2 := weight
	w1 := 1.0 - weight
	out := t1.clone()

	for _, name := range t1.Header {
		if slices.Contains(exclude, name) {
			continue
		}
		kind := t1.KindOf(name)
		if kind == KindString {
			continue
		}
		if !t2.HasColumn(name) {
			return nil, fmt.Errorf("endpoint 2 is missing column %q", name)
		}
		c1, err := t1.FloatCol(name)
		if err != nil {
			return nil, err
		}
		c2, err := t2.FloatCol(name)
		if err != nil {
			return nil, err
		}
		n := min(len(c1), len(c2))
		mixed := make([]float64, n)
		floats.ScaleTo(mixed, w1, c1[:n])
		floats.AddScaled(mixed, w2, c2[:n])

		switch kind {
		case KindFloat:
			out.setFloatCol(name, mixed)
		case KindInt:
			ints := make([]int64, n)
			for i, v := range mixed {
				ints[i] = int64(math.RoundToEven(v))
			}
			out.setIntCol(name, ints)
		}
	}
	return out, nil
}
