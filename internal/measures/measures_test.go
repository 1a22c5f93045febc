package measures

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const testDeflators = "Year,Value\n1999,172.6\n2005,195.3\n2010,218.344\n"

func loadTestDeflators(t *testing.T) *Deflators {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deflators.csv")
	if err := os.WriteFile(path, []byte(testDeflators), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDeflators(path)
	if err != nil {
		t.Fatalf("LoadDeflators() error = %v", err)
	}
	return d
}

func TestDeflate(t *testing.T) {
	d := loadTestDeflators(t)
	got, err := d.Deflate([]float64{1000}, "2010", "2005")
	if err != nil {
		t.Fatalf("Deflate() error = %v", err)
	}
	want := 1000 * 195.3 / 218.344
	if math.Abs(got[0]-want) > 1e-9 {
		t.Errorf("Deflate(1000, 2010->2005) = %v, want %v", got[0], want)
	}
}

func TestDeflate_MissingYears(t *testing.T) {
	d := loadTestDeflators(t)
	if _, err := d.Deflate([]float64{1}, "1850", "2005"); err == nil || !strings.Contains(err.Error(), "FromYear") {
		t.Errorf("Deflate(bad from) error = %v, want invalid FromYear", err)
	}
	if _, err := d.Deflate([]float64{1}, "2010", "2300"); err == nil || !strings.Contains(err.Error(), "ToYear") {
		t.Errorf("Deflate(bad to) error = %v, want invalid ToYear", err)
	}
}

func writeOutputTables(t *testing.T, dir string) {
	t.Helper()
	// Two households: one well below the low-income threshold after
	// deflation to 2005 dollars, one well above.
	household := "HhSize,Dvmt,WalkTrips,DailyCO2e,DailyGGE,AveVehCostPM,OwnCost,Income\n" +
		"2,30.0,1.5,10.0,1.2,0.25,4000,10000\n" +
		"3,50.0,2.5,14.0,2.0,0.30,6000,90000\n"
	marea := "ComSvcUrbanGGE,ComSvcNonUrbanGGE\n100.0,40.0\n"
	if err := os.WriteFile(filepath.Join(dir, householdTable), []byte(household), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, mareaTable), []byte(marea), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	writeOutputTables(t, dir)
	got, err := Compute(dir, loadTestDeflators(t))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	totalCost0 := 4000 + 0.25*30.0
	totalCost1 := 6000 + 0.30*50.0
	want := map[string]float64{
		"GHGReduction":        0,
		"DVMTPerCapita":       80.0 / 5,
		"WalkTravelPerCapita": 4.0 / 5,
		"TruckDelay":          0,
		"AirPollutionEm":      24.0,
		"FuelUse":             (3.2 + 100.0 + 40.0) * 365,
		"VehicleCost":         (totalCost0 + totalCost1) / 100000 * 100,
		"VehicleCostLow":      totalCost0 / 10000 * 100,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-12, 1e-9)); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_NoLowIncomeHouseholds(t *testing.T) {
	dir := t.TempDir()
	household := "HhSize,Dvmt,WalkTrips,DailyCO2e,DailyGGE,AveVehCostPM,OwnCost,Income\n" +
		"2,30.0,1.5,10.0,1.2,0.25,4000,80000\n" +
		"3,50.0,2.5,14.0,2.0,0.30,6000,90000\n"
	marea := "ComSvcUrbanGGE,ComSvcNonUrbanGGE\n100.0,40.0\n"
	if err := os.WriteFile(filepath.Join(dir, householdTable), []byte(household), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, mareaTable), []byte(marea), 0644); err != nil {
		t.Fatal(err)
	}

	// VehicleCostLow would be 0/0; Compute must fail with a named
	// error rather than produce a NaN that Write cannot serialize.
	_, err := Compute(dir, loadTestDeflators(t))
	if err == nil || !strings.Contains(err.Error(), "low-income") {
		t.Errorf("Compute() error = %v, want no-low-income-households error", err)
	}
}

func TestCompute_MissingTable(t *testing.T) {
	if _, err := Compute(t.TempDir(), loadTestDeflators(t)); err == nil {
		t.Error("Compute() error = nil, want missing-table error")
	}
}

func TestFilter(t *testing.T) {
	m := map[string]float64{"a": 1, "b": 2, "c": 3}
	got := Filter(m, []string{"a", "c"})
	if diff := cmp.Diff(map[string]float64{"a": 1, "c": 3}, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if got := Filter(m, nil); len(got) != 3 {
		t.Errorf("Filter(nil) = %v, want all measures", got)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := map[string]float64{"DVMTPerCapita": 16.25, "GHGReduction": 0}
	if err := Write(dir, m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(filepath.Join(dir, ComputedMeasuresFile))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
