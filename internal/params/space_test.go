package params

import (
	"errors"
	"math"
	"testing"

	"github.com/harrison/sweeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name string
		spec models.RangeSpec
		want []float64
	}{
		{
			name: "inclusive end with decimal step",
			spec: models.RangeSpec{Start: 0.5, End: 1.0, Step: 0.1},
			want: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		{
			name: "integral step",
			spec: models.RangeSpec{Start: 1, End: 5, Step: 2},
			want: []float64{1, 3, 5},
		},
		{
			name: "negative step",
			spec: models.RangeSpec{Start: 1, End: 0, Step: -0.25},
			want: []float64{1, 0.75, 0.5, 0.25, 0},
		},
		{
			name: "single value when start equals end",
			spec: models.RangeSpec{Start: 3, End: 3, Step: 1},
			want: []float64{3},
		},
		{
			name: "accumulating step stays exact",
			spec: models.RangeSpec{Start: 0, End: 0.3, Step: 0.1},
			want: []float64{0, 0.1, 0.2, 0.3},
		},
		{
			name: "overshoot is clamped to end",
			spec: models.RangeSpec{Start: 0, End: 1.08, Step: 0.3},
			want: []float64{0, 0.3, 0.6, 0.9, 1.08},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.spec)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12, "value %d", i)
			}
		})
	}
}

func TestExpandRange_LengthAndBounds(t *testing.T) {
	specs := []models.RangeSpec{
		{Start: 0, End: 1, Step: 0.1},
		{Start: -2.5, End: 2.5, Step: 0.5},
		{Start: 10, End: -10, Step: -3},
		{Start: 1e-3, End: 2e-3, Step: 1e-4},
		{Start: 0, End: 1, Step: 0.3},
		{Start: 0, End: 100, Step: 7},
	}

	for _, spec := range specs {
		got, err := ExpandRange(spec)
		require.NoError(t, err)

		wantLen := int(math.Round((spec.End-spec.Start)/spec.Step)) + 1
		assert.Len(t, got, wantLen, "spec %+v", spec)

		lo, hi := math.Min(spec.Start, spec.End), math.Max(spec.Start, spec.End)
		for _, x := range got {
			assert.GreaterOrEqual(t, x, lo)
			assert.LessOrEqual(t, x, hi)
		}
	}
}

func TestExpandRange_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec models.RangeSpec
	}{
		{name: "zero step", spec: models.RangeSpec{Start: 0, End: 1, Step: 0}},
		{name: "step away from end", spec: models.RangeSpec{Start: 0, End: 1, Step: -0.1}},
		{name: "infinite end", spec: models.RangeSpec{Start: 0, End: math.Inf(1), Step: 1}},
		{name: "too many values", spec: models.RangeSpec{Start: 0, End: 1, Step: 1e-9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandRange(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestNewSpace_Ordering(t *testing.T) {
	space, err := NewSpace(nil, []models.Variable{
		{Name: "a", Values: []any{1, 2}},
		{Name: "b", Values: []any{"x", "y", "z"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, space.Size())
	assert.Equal(t, []int{2, 3}, space.Shape())

	var keys []string
	for combo := range space.All() {
		keys = append(keys, combo.Key())
	}
	assert.Equal(t, []string{
		"a=1,b=x", "a=1,b=y", "a=1,b=z",
		"a=2,b=x", "a=2,b=y", "a=2,b=z",
	}, keys)
}

func TestNewSpace_Restartable(t *testing.T) {
	space, err := NewSpace(
		[]models.Constant{{Name: "t", Value: 4.2}},
		[]models.Variable{
			{Name: "x", Range: &models.RangeSpec{Start: 0.5, End: 1.0, Step: 0.1}, Format: "{:.1f}"},
			{Name: "n", Values: []any{10.0, 20.0}},
		},
	)
	require.NoError(t, err)

	collect := func() []string {
		var out []string
		for combo := range space.All() {
			out = append(out, combo.Key())
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	assert.Len(t, first, 12)
}

func TestNewSpace_CountIsProductOfExpansions(t *testing.T) {
	tests := []struct {
		name      string
		constants []models.Constant
		variables []models.Variable
		want      int
	}{
		{
			name: "no variables yields one combination",
			constants: []models.Constant{
				{Name: "t", Value: 4.2},
				{Name: "u", Value: 1},
			},
			want: 1,
		},
		{
			name: "constants do not multiply",
			constants: []models.Constant{
				{Name: "t", Value: 4.2},
				{Name: "u", Value: 1},
				{Name: "w", Value: "label"},
			},
			variables: []models.Variable{
				{Name: "x", Range: &models.RangeSpec{Start: 0, End: 1, Step: 0.5}},
			},
			want: 3,
		},
		{
			name: "list times range",
			variables: []models.Variable{
				{Name: "doping", Values: []any{10.0, 20.0, 30.0}},
				{Name: "x", Range: &models.RangeSpec{Start: 0, End: 1, Step: 1}},
			},
			want: 6,
		},
		{
			name: "three dimensions",
			variables: []models.Variable{
				{Name: "a", Values: []any{1, 2}},
				{Name: "b", Values: []any{1, 2, 3}},
				{Name: "c", Range: &models.RangeSpec{Start: 0, End: 3, Step: 1}},
			},
			want: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := NewSpace(tt.constants, tt.variables)
			require.NoError(t, err)
			assert.Equal(t, tt.want, space.Size())

			count := 0
			for range space.All() {
				count++
			}
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestNewSpace_ConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		constants []models.Constant
		variables []models.Variable
		wantMsg   string
	}{
		{
			name:      "zero step",
			variables: []models.Variable{{Name: "x", Range: &models.RangeSpec{Start: 0, End: 1, Step: 0}}},
			wantMsg:   "step must not be zero",
		},
		{
			name: "duplicate variable",
			variables: []models.Variable{
				{Name: "x", Values: []any{1}},
				{Name: "x", Values: []any{2}},
			},
			wantMsg: "collides",
		},
		{
			name:      "variable collides with constant",
			constants: []models.Constant{{Name: "x", Value: 1}},
			variables: []models.Variable{{Name: "x", Values: []any{1}}},
			wantMsg:   "collides",
		},
		{
			name:      "neither range nor list",
			variables: []models.Variable{{Name: "x"}},
			wantMsg:   "range {start, end, step} or a list",
		},
		{
			name: "both range and list",
			variables: []models.Variable{
				{Name: "x", Values: []any{1}, Range: &models.RangeSpec{Start: 0, End: 1, Step: 1}},
			},
			wantMsg: "not both",
		},
		{
			name:      "empty list",
			variables: []models.Variable{{Name: "x", Values: []any{}}},
			wantMsg:   "empty",
		},
		{
			name:      "invalid name",
			variables: []models.Variable{{Name: "1x", Values: []any{1}}},
			wantMsg:   "identifier",
		},
		{
			name:      "unsupported list item",
			variables: []models.Variable{{Name: "x", Values: []any{[]int{1}}}},
			wantMsg:   "unsupported type",
		},
		{
			name:      "format cannot render value",
			variables: []models.Variable{{Name: "x", Values: []any{"abc"}, Format: "{:.2f}"}},
			wantMsg:   "cannot format value",
		},
		{
			name:      "malformed format",
			variables: []models.Variable{{Name: "x", Values: []any{1.0}, Format: "{:.f}"}},
			wantMsg:   "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpace(tt.constants, tt.variables)
			require.Error(t, err)

			var cfgErr *models.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSpace_FormattingIsShared(t *testing.T) {
	space, err := NewSpace(
		[]models.Constant{{Name: "t", Value: 4.2}},
		[]models.Variable{{Name: "x", Range: &models.RangeSpec{Start: 0.5, End: 1.0, Step: 0.1}, Format: "{:.1f}"}},
	)
	require.NoError(t, err)

	var formatted []string
	for combo := range space.All() {
		bindings := combo.Bindings()
		assert.Equal(t, "4.2", bindings["t"])
		assert.Equal(t, combo.Variables[0].Formatted, bindings["x"])
		formatted = append(formatted, bindings["x"])
	}
	assert.Equal(t, []string{"0.5", "0.6", "0.7", "0.8", "0.9", "1.0"}, formatted)
}

func TestSpace_Accessors(t *testing.T) {
	space, err := NewSpace(
		[]models.Constant{{Name: "t", Value: 4.2}},
		[]models.Variable{
			{Name: "x", Values: []any{1, 2}},
			{Name: "y", Range: &models.RangeSpec{Start: 0, End: 1, Step: 1}},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"t", "x", "y"}, space.Names())

	values, ok := space.Values("y")
	require.True(t, ok)
	assert.Equal(t, []any{0.0, 1.0}, values)

	_, ok = space.Values("missing")
	assert.False(t, ok)

	combo := space.At(3)
	assert.Equal(t, 3, combo.Index)
	assert.Equal(t, "x=2,y=1", combo.Key())
	assert.Equal(t, map[string]any{"t": 4.2, "x": int64(2), "y": 1.0}, combo.Values())

	assert.Panics(t, func() { space.At(4) })
}
