package models

import (
	"fmt"
	"strings"
)

// Constant is a parameter fixed across every run of a sweep.
type Constant struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"` // float64, int64, string or bool
}

// RangeSpec describes an evenly spaced numeric sequence from Start to End.
type RangeSpec struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Step  float64 `json:"step" yaml:"step"`
}

// Variable is a swept parameter. Exactly one of Range or Values is set.
type Variable struct {
	Name   string     `json:"name"`
	Range  *RangeSpec `json:"range,omitempty"`  // start/end/step payload
	Values []any      `json:"values,omitempty"` // explicit list payload, used verbatim
	Format string     `json:"format,omitempty"` // display pattern, e.g. "{:.1f}" or "%.1f"
}

// IsRange reports whether the variable is expanded from a RangeSpec.
func (v Variable) IsRange() bool {
	return v.Range != nil
}

// Assignment binds one parameter name to a concrete value and its formatted text.
type Assignment struct {
	Name      string `json:"name"`
	Value     any    `json:"value"`
	Formatted string `json:"formatted"`
}

// Combination is one assignment of every variable plus all constants.
// Variables are kept in declaration order; identity is the sequence of
// (name, formatted value) pairs.
type Combination struct {
	Index     int          `json:"index"`
	Variables []Assignment `json:"variables"`
	Constants []Assignment `json:"constants,omitempty"`
}

// Bindings merges constants and variables into the name -> formatted value map
// consumed by the template renderer.
func (c Combination) Bindings() map[string]string {
	bindings := make(map[string]string, len(c.Variables)+len(c.Constants))
	for _, a := range c.Constants {
		bindings[a.Name] = a.Formatted
	}
	for _, a := range c.Variables {
		bindings[a.Name] = a.Formatted
	}
	return bindings
}

// Values returns the raw (unformatted) values of constants and variables.
func (c Combination) Values() map[string]any {
	values := make(map[string]any, len(c.Variables)+len(c.Constants))
	for _, a := range c.Constants {
		values[a.Name] = a.Value
	}
	for _, a := range c.Variables {
		values[a.Name] = a.Value
	}
	return values
}

// Key returns the identity of the combination as "name=formatted" pairs.
func (c Combination) Key() string {
	parts := make([]string, len(c.Variables))
	for i, a := range c.Variables {
		parts[i] = fmt.Sprintf("%s=%s", a.Name, a.Formatted)
	}
	return strings.Join(parts, ",")
}

// String renders the variable assignments for log output.
func (c Combination) String() string {
	if len(c.Variables) == 0 {
		return "{}"
	}
	return "{" + c.Key() + "}"
}
