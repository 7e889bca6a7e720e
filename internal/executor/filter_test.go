package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sweeper/internal/models"
)

func filterCombo(x float64, material string) models.Combination {
	return models.Combination{
		Variables: []models.Assignment{{Name: "x", Value: x, Formatted: "x"}},
		Constants: []models.Assignment{{Name: "material", Value: material, Formatted: material}},
	}
}

func TestCompileFilter(t *testing.T) {
	sample := filterCombo(0.5, "GaAs")

	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{name: "empty", source: ""},
		{name: "comparison", source: "x <= 0.8"},
		{name: "string constant", source: `material == "GaAs" && x > 0.1`},
		{name: "unknown name", source: "y > 1", wantErr: true},
		{name: "not boolean", source: "x * 2", wantErr: true},
		{name: "syntax error", source: "x <", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.source, sample)
			if tt.wantErr {
				var cfgErr *models.ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "filter", cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.source, f.Source())
		})
	}
}

func TestFilterMatch(t *testing.T) {
	f, err := CompileFilter(`x < 0.8 && material != "AlAs"`, filterCombo(0.5, "GaAs"))
	require.NoError(t, err)

	tests := []struct {
		combo models.Combination
		want  bool
	}{
		{filterCombo(0.5, "GaAs"), true},
		{filterCombo(0.8, "GaAs"), false},
		{filterCombo(0.2, "AlAs"), false},
	}
	for _, tt := range tests {
		got, err := f.Match(tt.combo)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "combo %s", tt.combo)
	}
}

func TestNilFilterMatchesEverything(t *testing.T) {
	var f *Filter
	ok, err := f.Match(filterCombo(1, "GaAs"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.Source())
}
