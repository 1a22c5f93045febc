package subst

import (
	"regexp"
	"strings"
)

// markerPrefix and markerSuffix delimit the literal tokens that
// template input files use to indicate values provided per experiment.
const (
	markerPrefix = "__EMAT_PROVIDES_"
	markerSuffix = "__"
)

var markerRe = regexp.MustCompile(`__EMAT_PROVIDES_(\w+)__`)

// Marker returns the literal token for a computed-parameter name,
// e.g. Marker("HHIncomePC") == "__EMAT_PROVIDES_HHIncomePC__".
func Marker(name string) string {
	return markerPrefix + name + markerSuffix
}

// ApplyTemplate replaces every marker named in values with its
// already-formatted string value. The returned map carries the
// per-name replacement count; a count of zero means the template did
// not contain that marker at all.
func ApplyTemplate(text string, values map[string]string) (string, map[string]int) {
	counts := make(map[string]int, len(values))
	for name, v := range values {
		marker := Marker(name)
		counts[name] = strings.Count(text, marker)
		text = strings.ReplaceAll(text, marker, v)
	}
	return text, counts
}

// LeftoverMarkers returns the names of any markers remaining in text.
// A non-empty result after ApplyTemplate means the rendered file would
// contain an invalid literal token.
func LeftoverMarkers(text string) []string {
	var names []string
	for _, m := range markerRe.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return names
}
