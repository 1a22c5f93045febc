// Package scope defines the parameter catalog for a model: the named
// exogenous uncertainties and policy levers an experiment may set,
// their defaults, and the performance measures the model produces.
package scope

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Input describes one experiment parameter.
type Input struct {
	// Ptype distinguishes "uncertainty", "lever" and "constant".
	Ptype string `yaml:"ptype"`

	// Dtype is "float", "int", "bool" or "cat".
	Dtype string `yaml:"dtype"`

	// Default is used when an experiment omits the parameter.
	Default any `yaml:"default"`

	Min any `yaml:"min,omitempty"`
	Max any `yaml:"max,omitempty"`

	// Values enumerates the labels of a categorical parameter.
	Values []string `yaml:"values,omitempty"`
}

// Scope is a parsed scope definition file.
type Scope struct {
	Name    string
	Desc    string
	Inputs  map[string]Input
	Outputs []string
}

type scopeFile struct {
	Scope struct {
		Name string `yaml:"name"`
		Desc string `yaml:"desc"`
	} `yaml:"scope"`
	Inputs  map[string]Input `yaml:"inputs"`
	Outputs []string         `yaml:"outputs"`
}

// Load reads a scope definition YAML file.
func Load(path string) (*Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scope: %w", err)
	}
	var sf scopeFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing scope %s: %w", path, err)
	}
	if sf.Scope.Name == "" {
		return nil, fmt.Errorf("scope %s: scope.name must be set", path)
	}
	return &Scope{
		Name:    sf.Scope.Name,
		Desc:    sf.Scope.Desc,
		Inputs:  sf.Inputs,
		Outputs: sf.Outputs,
	}, nil
}

// ParamNames returns the catalog's parameter names in sorted order.
func (s *Scope) ParamNames() []string {
	names := make([]string, 0, len(s.Inputs))
	for name := range s.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates an experiment's parameter set against the catalog
// and fills in defaults. A key not present in the catalog is an error.
// The returned map is a new map; the input is not mutated. The second
// return lists the parameters that fell back to their default, in
// sorted order.
func (s *Scope) Resolve(params map[string]any) (map[string]any, []string, error) {
	for name := range params {
		if _, ok := s.Inputs[name]; !ok {
			return nil, nil, fmt.Errorf("parameter %q is not defined in scope %s", name, s.Name)
		}
	}
	resolved := make(map[string]any, len(s.Inputs))
	var defaulted []string
	for _, name := range s.ParamNames() {
		if v, ok := params[name]; ok {
			resolved[name] = v
			continue
		}
		resolved[name] = s.Inputs[name].Default
		defaulted = append(defaulted, name)
	}
	return resolved, defaulted, nil
}

// Float reads a parameter as a float64, accepting the int and float
// representations YAML produces.
func Float(params map[string]any, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q is not set", name)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("parameter %q is %T, want a number", name, v)
	}
}

// String reads a parameter as its string form (categorical labels).
func String(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("parameter %q is not set", name)
	}
	sv, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is %T, want a string", name, v)
	}
	return sv, nil
}
