package measures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/nvandessel/vebridge/internal/blend"
)

// ComputedMeasuresFile is the name of the flat JSON measures artifact
// written into the model output directory.
const ComputedMeasuresFile = "ComputedMeasures.json"

// Output tables and constants used by the measure formulas, following
// VERSPMResults.R from the VisionEval package.
const (
	mareaTable     = "Marea_2038_1.csv"
	householdTable = "Household_2038_1.csv"

	baseYear           = "2010"
	incomeDeflationTo  = "2005"
	lowIncomeThreshold = 20000.0
)

// Compute derives the performance measures from the fixed-name output
// tables in outputPath. The deflators table converts household income
// to 2005 dollars for the low-income cost measure.
func Compute(outputPath string, defl *Deflators) (map[string]float64, error) {
	marea, err := blend.ReadTable(filepath.Join(outputPath, mareaTable))
	if err != nil {
		return nil, err
	}
	household, err := blend.ReadTable(filepath.Join(outputPath, householdTable))
	if err != nil {
		return nil, err
	}

	col := func(t *blend.Table, name string) ([]float64, error) {
		c, err := t.FloatCol(name)
		if err != nil {
			return nil, fmt.Errorf("output table: %w", err)
		}
		return c, nil
	}

	hhSize, err := col(household, "HhSize")
	if err != nil {
		return nil, err
	}
	dvmt, err := col(household, "Dvmt")
	if err != nil {
		return nil, err
	}
	walkTrips, err := col(household, "WalkTrips")
	if err != nil {
		return nil, err
	}
	dailyCO2e, err := col(household, "DailyCO2e")
	if err != nil {
		return nil, err
	}
	dailyGGE, err := col(household, "DailyGGE")
	if err != nil {
		return nil, err
	}
	aveVehCostPM, err := col(household, "AveVehCostPM")
	if err != nil {
		return nil, err
	}
	ownCost, err := col(household, "OwnCost")
	if err != nil {
		return nil, err
	}
	income, err := col(household, "Income")
	if err != nil {
		return nil, err
	}
	comSvcUrbanGGE, err := col(marea, "ComSvcUrbanGGE")
	if err != nil {
		return nil, err
	}
	comSvcNonUrbanGGE, err := col(marea, "ComSvcNonUrbanGGE")
	if err != nil {
		return nil, err
	}

	population := floats.Sum(hhSize)

	// Per-household vehicle cost: ownership plus per-mile operating
	// cost scaled by daily miles.
	operationCost := make([]float64, len(dvmt))
	floats.MulTo(operationCost, aveVehCostPM, dvmt)
	totalCost := make([]float64, len(ownCost))
	floats.AddTo(totalCost, ownCost, operationCost)

	income2005, err := defl.Deflate(income, baseYear, incomeDeflationTo)
	if err != nil {
		return nil, err
	}
	var lowCost, lowIncome float64
	lowCount := 0
	for i := range income2005 {
		if income2005[i] < lowIncomeThreshold {
			lowCost += totalCost[i]
			lowIncome += income[i]
			lowCount++
		}
	}
	if lowCount == 0 {
		return nil, fmt.Errorf("no households below the low-income threshold (%.0f in %s dollars)",
			lowIncomeThreshold, incomeDeflationTo)
	}

	fuelUse := (floats.Sum(dailyGGE) + floats.Sum(comSvcUrbanGGE) + floats.Sum(comSvcNonUrbanGGE)) * 365

	return map[string]float64{
		"GHGReduction":        0,
		"DVMTPerCapita":       floats.Sum(dvmt) / population,
		"WalkTravelPerCapita": floats.Sum(walkTrips) / population,
		"TruckDelay":          0,
		"AirPollutionEm":      floats.Sum(dailyCO2e),
		"FuelUse":             fuelUse,
		"VehicleCost":         floats.Sum(totalCost) / floats.Sum(income) * 100,
		"VehicleCostLow":      lowCost / lowIncome * 100,
	}, nil
}

// Filter returns the subset of measures named in names, or the full
// map when names is empty.
func Filter(m map[string]float64, names []string) map[string]float64 {
	if len(names) == 0 {
		return m
	}
	out := make(map[string]float64, len(names))
	for name, v := range m {
		if slices.Contains(names, name) {
			out[name] = v
		}
	}
	return out
}

// Write serializes measures as a flat JSON object into dir.
func Write(dir string, m map[string]float64) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ComputedMeasuresFile), data, 0644)
}

// Read loads a ComputedMeasures.json file back as a flat name-to-value
// map.
func Read(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes the flat JSON measures object.
func Parse(data []byte) (map[string]float64, error) {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing computed measures: %w", err)
	}
	m := make(map[string]float64, len(raw))
	for name, num := range raw {
		v, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("measure %q: %w", name, err)
		}
		m[name] = v
	}
	return m, nil
}
