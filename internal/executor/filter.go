package executor

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/harrison/sweeper/internal/models"
)

// Filter selects the combinations that are run. It evaluates a boolean
// expr-lang expression over the raw constant and variable values, for
// example "doping > 1e17 && x <= 0.8".
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source against the bindings of sample, which fixes
// the set of names the expression may reference. An empty source yields a
// nil Filter that matches everything. Compile errors and non-boolean
// expressions are *models.ConfigError.
func CompileFilter(source string, sample models.Combination) (*Filter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(sample.Values()), expr.AsBool())
	if err != nil {
		return nil, models.NewConfigError("filter", fmt.Sprintf("invalid expression %q", source), err)
	}
	return &Filter{source: source, program: program}, nil
}

// Source returns the expression text.
func (f *Filter) Source() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match reports whether c passes the filter. A nil Filter matches everything.
func (f *Filter) Match(c models.Combination) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, c.Values())
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.source, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.source, out)
	}
	return ok, nil
}
