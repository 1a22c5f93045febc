package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/vebridge/internal/fsutil"
	"github.com/nvandessel/vebridge/internal/scenario"
	"github.com/nvandessel/vebridge/internal/scope"
	"github.com/nvandessel/vebridge/internal/subst"
)

// noMixCols are the key columns never blended by mixtures.
var noMixCols = []string{"Year", "Geo"}

// Setup configures the core model for one experiment. It validates
// the parameter set against the scope (filling defaults), optionally
// stages a distributed worker workspace, and applies every input-file
// manipulation. After Setup the prepared inputs can be inspected
// before committing to a potentially expensive Run.
func (m *Model) Setup(params map[string]any) error {
	m.log.Info("setup starting", "scope", m.scope.Name)

	resolved, defaulted, err := m.scope.Resolve(params)
	if err != nil {
		return err
	}
	for _, name := range defaulted {
		m.log.Warn("using default value", "param", name, "value", resolved[name])
	}
	m.newExperiment(resolved)

	if err := m.stageWorkerDir(); err != nil {
		return err
	}

	manipulations := []struct {
		name string
		fn   func(map[string]any) error
	}{
		{"model_parameters", m.manipulateModelParameters},
		{"income", m.manipulateIncome},
		{"bikes", m.manipulateBikes},
		{"land_use", m.manipulateLandUse},
		{"transit", m.manipulateTransit},
		{"fuel_cost", m.manipulateFuelCost},
		{"technology_mix", func(p map[string]any) error { return m.manipulateByMixture(p, "TechMix", "F") }},
		{"parking", func(p map[string]any) error { return m.manipulateByMixture(p, "Parking", "P") }},
		{"demand", func(p map[string]any) error { return m.manipulateByMixture(p, "DemandManagement", "D") }},
		{"vehicle_characteristics", func(p map[string]any) error { return m.manipulateByMixture(p, "VehicleCharacteristics", "V") }},
		{"driving_efficiency", func(p map[string]any) error { return m.manipulateByMixture(p, "DrivingEfficiency", "E") }},
		{"vehicle_travel_cost", m.manipulateVehicleTravelCost},
	}
	for _, man := range manipulations {
		if err := man.fn(resolved); err != nil {
			return fmt.Errorf("setup %s: %w", man.name, err)
		}
	}

	if err := m.writeRprofile(m.modelDir()); err != nil {
		return err
	}

	if err := m.saveState(StateSetupComplete); err != nil {
		return err
	}
	m.log.Info("setup complete", "run_id", m.state.RunID)
	return nil
}

// stageWorkerDir copies the model tree into the configured worker
// directory when this invocation runs on a distributed worker whose
// workspace differs from the master's. Each worker edits its own copy,
// so concurrent experiments sharing a master workspace do not race on
// input files.
func (m *Model) stageWorkerDir() error {
	if m.workerDir == "" || m.workerDir == m.workDir {
		return nil
	}
	src := filepath.Join(m.workDir, m.cfg.ModelPath)
	dst := filepath.Join(m.workerDir, m.cfg.ModelPath)
	m.log.Debug("staging worker workspace", "from", src, "to", dst)
	if err := fsutil.CopyTree(src, dst); err != nil {
		return fmt.Errorf("staging worker workspace: %w", err)
	}
	m.localDir = m.workerDir
	return nil
}

// manipulateModelParameters edits defs/model_parameters.json in place,
// setting the ValueOfTime entry's VALUE field. The file is parsed as
// JSON rather than text-patched, so the edit cannot corrupt
// surrounding entries.
func (m *Model) manipulateModelParameters(params map[string]any) error {
	vot, err := scope.Float(params, "ValueOfTime")
	if err != nil {
		return err
	}
	path := filepath.Join(m.modelDir(), "defs", "model_parameters.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	found := false
	for _, e := range entries {
		if e["NAME"] == "ValueOfTime" {
			e["VALUE"] = formatNumber(vot)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%s: no ValueOfTime entry", path)
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// manipulateIncome renders the per-capita income input from its
// template. GQIncomePC is the group-quarters income, pegged at 3/13 of
// household income.
func (m *Model) manipulateIncome(params map[string]any) error {
	income, err := scope.Float(params, "Income")
	if err != nil {
		return err
	}
	return m.applyTemplate("I", "azone_per_cap_inc.csv", map[string]string{
		"HHIncomePC": strconv.Itoa(int(income)),
		"GQIncomePC": strconv.Itoa(int(income * 3 / 13)),
	})
}

// manipulateBikes renders the SOV-travel bike diversion input.
func (m *Model) manipulateBikes(params map[string]any) error {
	bikes, err := scope.Float(params, "Bicycles")
	if err != nil {
		return err
	}
	return m.applyTemplate("B", "azone_prop_sov_dvmt_diverted.csv", map[string]string{
		"BikeDiversion": formatFixed3(bikes),
	})
}

// manipulateTransit renders the transit revenue-miles input. The
// Transit parameter scales both demand-response and mixed-traffic bus
// service against their base-year revenue miles.
func (m *Model) manipulateTransit(params map[string]any) error {
	transit, err := scope.Float(params, "Transit")
	if err != nil {
		return err
	}
	return m.applyTemplate("T", "marea_transit_service.csv", map[string]string{
		"DRRevMi": formatFixed3(transit * 2381994.664),
		"MBRevMi": formatFixed3(transit * 3580237.203),
	})
}

// manipulateFuelCost renders the fuel and electric power cost input.
func (m *Model) manipulateFuelCost(params map[string]any) error {
	fuel, err := scope.Float(params, "FuelCost")
	if err != nil {
		return err
	}
	electric, err := scope.Float(params, "ElectricCost")
	if err != nil {
		return err
	}
	return m.applyTemplate("G", "azone_fuel_power_cost.csv", map[string]string{
		"FuelCost":     formatFixed3(fuel),
		"ElectricCost": formatFixed3(electric),
	})
}

// manipulateLandUse copies in the land use input files for the chosen
// categorical scenario.
func (m *Model) manipulateLandUse(params map[string]any) error {
	return m.dropIn(params, "LandUse", map[string]string{
		"base":   "1",
		"growth": "2",
	}, "L")
}

// manipulateVehicleTravelCost copies in the vehicle travel cost input
// files for the chosen categorical scenario.
func (m *Model) manipulateVehicleTravelCost(params map[string]any) error {
	return m.dropIn(params, "VehicleTravelCost", map[string]string{
		"base":                                   "1",
		"steady ownership cost":                  "2",
		"pay-per-mile insurance and higher cost": "3",
	}, "C")
}

// applyTemplate renders <letter>/<name>.template from scenario inputs
// into the model's inputs directory. Every provided value must replace
// at least one marker, and no marker may survive in the rendered
// output; either condition fails the setup rather than producing an
// input file with a latent bad literal.
func (m *Model) applyTemplate(letter, name string, values map[string]string) error {
	templatePath := m.scenarioInput(letter, name+".template")
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	rendered, counts := subst.ApplyTemplate(string(data), values)
	for varname, n := range counts {
		m.log.Debug("template substitution", "file", name, "varname", varname, "count", n)
		m.trace.Event("substitution", map[string]any{"file": name, "varname": varname, "count": n})
		if n == 0 {
			return fmt.Errorf("template %s: marker %s not found", templatePath, subst.Marker(varname))
		}
	}
	if left := subst.LeftoverMarkers(rendered); len(left) > 0 {
		return fmt.Errorf("template %s: unreplaced markers %v", templatePath, left)
	}

	outPath := filepath.Join(m.inputsDir(), name)
	m.log.Debug("writing updates", "file", outPath)
	return os.WriteFile(outPath, []byte(rendered), 0644)
}

// dropIn copies the categorical scenario variant's files into the
// model's inputs directory.
func (m *Model) dropIn(params map[string]any, catParam string, mapping map[string]string, letter string) error {
	value, err := scope.String(params, catParam)
	if err != nil {
		return err
	}
	m.trace.Event("drop_in", map[string]any{"param": catParam, "value": value, "dir": letter})
	return scenario.DropIn(value, mapping, m.scenarioInput(letter), m.inputsDir())
}

// manipulateByMixture blends the two endpoint directories for a
// continuous lever and writes the interpolated inputs.
func (m *Model) manipulateByMixture(params map[string]any, weightParam, letter string) error {
	weight, err := scope.Float(params, weightParam)
	if err != nil {
		return err
	}
	files, err := scenario.Mixture(m.scenarioInput(letter), weight, m.inputsDir(), noMixCols)
	if err != nil {
		return err
	}
	m.log.Debug("blended scenario inputs", "param", weightParam, "weight", weight, "files", len(files))
	m.trace.Event("blend", map[string]any{"param": weightParam, "weight": weight, "files": files})
	return nil
}

// writeRprofile points R at the configured library path for any
// process started from dir.
func (m *Model) writeRprofile(dir string) error {
	if m.cfg.RLibraryPath == "" {
		return nil
	}
	content := fmt.Sprintf(".libPaths(%q)\n", m.cfg.RLibraryPath)
	return os.WriteFile(filepath.Join(dir, ".Rprofile"), []byte(content), 0644)
}

// formatFixed3 formats a value the way the templates expect: three
// decimal places.
func formatFixed3(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// formatNumber formats a number compactly for JSON string fields.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
