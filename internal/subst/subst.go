// Package subst provides the text-substitution engines used to prepare
// model input files. Two styles are supported: regex replacement of
// `name: value` assignments in ready-to-use files, and literal marker
// replacement (`__EMAT_PROVIDES_<name>__`) in template files.
package subst

import (
	"fmt"
	"regexp"
)

// numberPattern matches any common numeric representation: optional
// sign, optional decimal point, optional exponent, or a simple
// fraction like 3/4.
const numberPattern = `[-+]?\d*\.?\d*[eE]?[-+]?\d*|\d+/\d+`

// NumberReplacer rewrites the numeric value of a `name: value`
// assignment in a text blob, leaving everything else untouched.
// The assignment operator defaults to ":" but can be "=" or "<-" or
// whatever the target file format uses. It targets ready-made
// configuration files (YAML, R scripts) that carry plain assignments
// rather than template markers, for input edits beyond the built-in
// manipulations.
type NumberReplacer struct {
	varname string
	re      *regexp.Regexp
}

// NewNumberReplacer compiles a replacer for the given variable name
// and assignment operator.
func NewNumberReplacer(varname, operator string) *NumberReplacer {
	re := regexp.MustCompile(fmt.Sprintf(
		`(%s\s*%s\s*)(%s)`,
		regexp.QuoteMeta(varname), regexp.QuoteMeta(operator), numberPattern,
	))
	return &NumberReplacer{varname: varname, re: re}
}

// Varname returns the variable name this replacer targets.
func (r *NumberReplacer) Varname() string { return r.varname }

// Sub replaces every occurrence of the assignment's numeric value with
// value, returning the edited text and the number of substitutions
// made. Zero substitutions is not an error here; callers that require
// at least one match must check the count.
func (r *NumberReplacer) Sub(value, text string) (string, int) {
	n := 0
	out := r.re.ReplaceAllStringFunc(text, func(m string) string {
		sub := r.re.FindStringSubmatch(m)
		n++
		return sub[1] + value
	})
	return out, n
}

// StringReplacer rewrites the free-text value of a `name: value`
// assignment. It matches from the assignment operator to end-of-line
// or a trailing #comment, and re-appends the comment unchanged.
// Operates line-by-line, so repeated assignments are all replaced.
// Like NumberReplacer, it serves assignment-style configuration files
// outside the marker-template manipulations.
type StringReplacer struct {
	varname string
	re      *regexp.Regexp
}

// NewStringReplacer compiles a replacer for the given variable name
// and assignment operator.
func NewStringReplacer(varname, operator string) *StringReplacer {
	re := regexp.MustCompile(fmt.Sprintf(
		`(?m)(%s\s*%s\s*)([^#\n]*)(#.*)?`,
		regexp.QuoteMeta(varname), regexp.QuoteMeta(operator),
	))
	return &StringReplacer{varname: varname, re: re}
}

// Varname returns the variable name this replacer targets.
func (r *StringReplacer) Varname() string { return r.varname }

// Sub replaces every occurrence of the assignment's value with value,
// preserving trailing comments, and returns the edited text and the
// substitution count.
func (r *StringReplacer) Sub(value, text string) (string, int) {
	n := 0
	out := r.re.ReplaceAllStringFunc(text, func(m string) string {
		sub := r.re.FindStringSubmatch(m)
		n++
		return sub[1] + value + "  " + sub[3]
	})
	return out, n
}
