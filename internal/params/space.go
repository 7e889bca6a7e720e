// Package params expands sweep variables into the Cartesian product of their
// values.
//
// Every variable is expanded once into an arena of concrete values; a
// combination is addressed by its row-major index into that arena, with the
// last-declared variable varying fastest. Iteration is therefore restartable
// and the same configuration always yields the same sequence.
package params

import (
	"fmt"
	"iter"
	"math"
	"regexp"
	"strconv"

	"github.com/harrison/sweeper/internal/models"
)

// MaxCombinations bounds the size of a sweep so a mistyped step cannot
// enumerate billions of runs.
const MaxCombinations = 1_000_000

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type dimension struct {
	variable  models.Variable
	values    []any
	formatted []string
}

// Space is the expanded combination space of a sweep.
type Space struct {
	dims      []dimension
	constants []models.Assignment
	shape     []int
	size      int
}

// NewSpace validates constants and variables and expands every variable.
// It fails with *models.ConfigError on a zero step, an empty expansion, a
// duplicate or invalid name, a payload that is neither a range nor a list,
// or a format pattern that cannot render one of the values.
func NewSpace(constants []models.Constant, variables []models.Variable) (*Space, error) {
	seen := make(map[string]string, len(constants)+len(variables))
	claim := func(name, kind string) error {
		if name == "" {
			return models.NewConfigError(kind+"s", "name is required", nil)
		}
		if !namePattern.MatchString(name) {
			return models.NewConfigError(kind+"s", fmt.Sprintf("name %q must be an identifier ([A-Za-z_][A-Za-z0-9_]*)", name), nil)
		}
		if prev, ok := seen[name]; ok {
			return models.NewConfigError(kind+"s", fmt.Sprintf("name %q collides with %s %q", name, prev, name), nil)
		}
		seen[name] = kind
		return nil
	}

	s := &Space{size: 1}

	for _, c := range constants {
		if err := claim(c.Name, "constant"); err != nil {
			return nil, err
		}
		value, err := NormalizeScalar(c.Value)
		if err != nil {
			return nil, models.NewConfigError("constants."+c.Name, "invalid value", err)
		}
		s.constants = append(s.constants, models.Assignment{
			Name:      c.Name,
			Value:     value,
			Formatted: DefaultString(value),
		})
	}

	for _, v := range variables {
		if err := claim(v.Name, "variable"); err != nil {
			return nil, err
		}
		dim, err := expandVariable(v)
		if err != nil {
			return nil, err
		}
		if s.size > MaxCombinations/len(dim.values) {
			return nil, models.NewConfigError("variables", fmt.Sprintf("sweep exceeds %d combinations", MaxCombinations), nil)
		}
		s.size *= len(dim.values)
		s.shape = append(s.shape, len(dim.values))
		s.dims = append(s.dims, dim)
	}

	return s, nil
}

func expandVariable(v models.Variable) (dimension, error) {
	field := "variables." + v.Name
	dim := dimension{variable: v}

	switch {
	case v.IsRange() && len(v.Values) > 0:
		return dim, models.NewConfigError(field, "value must be either a range or a list, not both", nil)
	case v.IsRange():
		values, err := ExpandRange(*v.Range)
		if err != nil {
			return dim, models.NewConfigError(field, "invalid range", err)
		}
		for _, x := range values {
			dim.values = append(dim.values, x)
		}
	case len(v.Values) > 0:
		for i, raw := range v.Values {
			x, err := NormalizeScalar(raw)
			if err != nil {
				return dim, models.NewConfigError(field, fmt.Sprintf("list item %d", i), err)
			}
			dim.values = append(dim.values, x)
		}
	case v.Values != nil:
		return dim, models.NewConfigError(field, "value list is empty", nil)
	default:
		return dim, models.NewConfigError(field, "value must be a range {start, end, step} or a list", nil)
	}

	formatter, err := ParseFormat(v.Format)
	if err != nil {
		return dim, models.NewConfigError(field+".format", "invalid format", err)
	}
	dim.formatted = make([]string, len(dim.values))
	for i, x := range dim.values {
		text, err := formatter.Format(x)
		if err != nil {
			return dim, models.NewConfigError(field+".format", "cannot format value", err)
		}
		dim.formatted[i] = text
	}
	return dim, nil
}

// RangeLength returns round((end-start)/step) + 1, the number of values a
// RangeSpec expands to.
func RangeLength(r models.RangeSpec) (int, error) {
	if r.Step == 0 {
		return 0, fmt.Errorf("step must not be zero")
	}
	for _, x := range []float64{r.Start, r.End, r.Step} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("start, end and step must be finite")
		}
	}
	steps := math.Round((r.End - r.Start) / r.Step)
	if steps < 0 {
		return 0, fmt.Errorf("step %v moves away from end %v", r.Step, r.End)
	}
	if steps >= MaxCombinations {
		return 0, fmt.Errorf("range expands to more than %d values", MaxCombinations)
	}
	return int(steps) + 1, nil
}

// ExpandRange generates start + i*step for i in [0, RangeLength). Values are
// computed by index rather than accumulated, snapped to 12 significant digits
// to drop representation noise, and clamped to [min(start,end),
// max(start,end)].
func ExpandRange(r models.RangeSpec) ([]float64, error) {
	n, err := RangeLength(r)
	if err != nil {
		return nil, err
	}
	lo, hi := math.Min(r.Start, r.End), math.Max(r.Start, r.End)

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		x := snap(r.Start + float64(i)*r.Step)
		values[i] = math.Max(lo, math.Min(hi, x))
	}
	return values, nil
}

func snap(x float64) float64 {
	y, err := strconv.ParseFloat(strconv.FormatFloat(x, 'g', 12, 64), 64)
	if err != nil {
		return x
	}
	return y
}

// Size returns the number of combinations: the product of the expansion
// lengths, 1 when there are no variables.
func (s *Space) Size() int {
	return s.size
}

// Shape returns the expansion length of each variable in declaration order.
func (s *Space) Shape() []int {
	return append([]int(nil), s.shape...)
}

// Variables returns the variable definitions in declaration order.
func (s *Space) Variables() []models.Variable {
	vars := make([]models.Variable, len(s.dims))
	for i, d := range s.dims {
		vars[i] = d.variable
	}
	return vars
}

// Constants returns the constant assignments.
func (s *Space) Constants() []models.Assignment {
	return append([]models.Assignment(nil), s.constants...)
}

// Values returns the expanded values of the named variable.
func (s *Space) Values(name string) ([]any, bool) {
	for _, d := range s.dims {
		if d.variable.Name == name {
			return append([]any(nil), d.values...), true
		}
	}
	return nil, false
}

// Names returns every binding name: constants first, then variables.
func (s *Space) Names() []string {
	names := make([]string, 0, len(s.constants)+len(s.dims))
	for _, c := range s.constants {
		names = append(names, c.Name)
	}
	for _, d := range s.dims {
		names = append(names, d.variable.Name)
	}
	return names
}

// At returns the combination at row-major index i.
func (s *Space) At(i int) models.Combination {
	if i < 0 || i >= s.size {
		panic(fmt.Sprintf("params: combination index %d out of range [0, %d)", i, s.size))
	}
	combo := models.Combination{
		Index:     i,
		Variables: make([]models.Assignment, len(s.dims)),
		Constants: s.constants,
	}
	rem := i
	for d := len(s.dims) - 1; d >= 0; d-- {
		dim := s.dims[d]
		j := rem % len(dim.values)
		rem /= len(dim.values)
		combo.Variables[d] = models.Assignment{
			Name:      dim.variable.Name,
			Value:     dim.values[j],
			Formatted: dim.formatted[j],
		}
	}
	return combo
}

// All yields every combination in order. Each call starts from the first
// combination.
func (s *Space) All() iter.Seq[models.Combination] {
	return func(yield func(models.Combination) bool) {
		for i := 0; i < s.size; i++ {
			if !yield(s.At(i)) {
				return
			}
		}
	}
}
