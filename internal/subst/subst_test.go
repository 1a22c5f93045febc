package subst

import (
	"strings"
	"testing"
)

func TestNumberReplacer_Sub(t *testing.T) {
	r := NewNumberReplacer("x", ":")

	got, n := r.Sub("7", "a: 1\nx: 1.5\nb: 2\n")
	if n != 1 {
		t.Errorf("substitutions = %d, want 1", n)
	}
	if got != "a: 1\nx: 7\nb: 2\n" {
		t.Errorf("Sub() = %q, want %q", got, "a: 1\nx: 7\nb: 2\n")
	}
}

func TestNumberReplacer_PreservesSurroundings(t *testing.T) {
	r := NewNumberReplacer("ValueOfTime", ":")
	in := "  ValueOfTime:   13.5   # dollars per hour\n"
	got, n := r.Sub("21", in)
	if n != 1 {
		t.Fatalf("substitutions = %d, want 1", n)
	}
	want := "  ValueOfTime:   21   # dollars per hour\n"
	if got != want {
		t.Errorf("Sub() = %q, want %q", got, want)
	}
}

func TestNumberReplacer_Forms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"integer", "v: 42", "v: 9"},
		{"negative", "v: -3.5", "v: 9"},
		{"exponent", "v: 1.2e-4", "v: 9"},
	}
	r := NewNumberReplacer("v", ":")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := r.Sub("9", tt.in)
			if n != 1 {
				t.Errorf("substitutions = %d, want 1", n)
			}
			if got != tt.want {
				t.Errorf("Sub(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNumberReplacer_NoMatch(t *testing.T) {
	r := NewNumberReplacer("missing", ":")
	in := "x: 1\ny: 2\n"
	got, n := r.Sub("5", in)
	if n != 0 {
		t.Errorf("substitutions = %d, want 0", n)
	}
	if got != in {
		t.Errorf("Sub() changed text with no match: %q", got)
	}
}

func TestNumberReplacer_AlternateOperator(t *testing.T) {
	r := NewNumberReplacer("speed", "<-")
	got, n := r.Sub("55", "speed <- 65\n")
	if n != 1 {
		t.Fatalf("substitutions = %d, want 1", n)
	}
	if got != "speed <- 55\n" {
		t.Errorf("Sub() = %q, want %q", got, "speed <- 55\n")
	}
}

func TestNumberReplacer_MultipleOccurrences(t *testing.T) {
	r := NewNumberReplacer("w", ":")
	got, n := r.Sub("0", "w: 1\nother: 5\nw: 2\n")
	if n != 2 {
		t.Errorf("substitutions = %d, want 2", n)
	}
	if got != "w: 0\nother: 5\nw: 0\n" {
		t.Errorf("Sub() = %q", got)
	}
}

func TestStringReplacer_KeepsTrailingComment(t *testing.T) {
	r := NewStringReplacer("Region", ":")
	got, n := r.Sub("RVMPO", "Region: Portland # model region\n")
	if n != 1 {
		t.Fatalf("substitutions = %d, want 1", n)
	}
	if !strings.Contains(got, "Region: RVMPO") {
		t.Errorf("Sub() = %q, value not replaced", got)
	}
	if !strings.Contains(got, "# model region") {
		t.Errorf("Sub() = %q, comment not preserved", got)
	}
}

func TestStringReplacer_Multiline(t *testing.T) {
	r := NewStringReplacer("Mode", ":")
	in := "Mode: walk\nYear: 2038\nMode: bike\n"
	got, n := r.Sub("transit", in)
	if n != 2 {
		t.Errorf("substitutions = %d, want 2", n)
	}
	if strings.Contains(got, "walk") || strings.Contains(got, "bike") {
		t.Errorf("Sub() = %q, old values remain", got)
	}
	if !strings.Contains(got, "Year: 2038") {
		t.Errorf("Sub() = %q, unrelated line changed", got)
	}
}

func TestApplyTemplate(t *testing.T) {
	text := "Geo,Year,Income\nRVMPO,2010,__EMAT_PROVIDES_HHIncomePC__\nRVMPO,2038,__EMAT_PROVIDES_GQIncomePC__\n"
	out, counts := ApplyTemplate(text, map[string]string{
		"HHIncomePC": "46300",
		"GQIncomePC": "10684",
	})
	if counts["HHIncomePC"] != 1 || counts["GQIncomePC"] != 1 {
		t.Errorf("counts = %v, want 1 each", counts)
	}
	want := "Geo,Year,Income\nRVMPO,2010,46300\nRVMPO,2038,10684\n"
	if out != want {
		t.Errorf("ApplyTemplate() = %q, want %q", out, want)
	}
	if left := LeftoverMarkers(out); len(left) != 0 {
		t.Errorf("LeftoverMarkers() = %v, want none", left)
	}
}

func TestApplyTemplate_MissingMarker(t *testing.T) {
	out, counts := ApplyTemplate("no markers here\n", map[string]string{"X": "1"})
	if counts["X"] != 0 {
		t.Errorf("counts[X] = %d, want 0", counts["X"])
	}
	if out != "no markers here\n" {
		t.Errorf("ApplyTemplate() = %q, text changed", out)
	}
}

func TestLeftoverMarkers(t *testing.T) {
	left := LeftoverMarkers("a,__EMAT_PROVIDES_FuelCost__,b,__EMAT_PROVIDES_ElectricCost__\n")
	if len(left) != 2 {
		t.Fatalf("LeftoverMarkers() = %v, want 2 names", left)
	}
	if left[0] != "FuelCost" || left[1] != "ElectricCost" {
		t.Errorf("LeftoverMarkers() = %v", left)
	}
}
