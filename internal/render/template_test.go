package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/sweeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		bindings map[string]string
		want     string
	}{
		{
			name:     "single placeholder",
			source:   "surface slope {{x}}\n",
			bindings: map[string]string{"x": "0.5"},
			want:     "surface slope 0.5\n",
		},
		{
			name:     "blanks inside braces",
			source:   "temp={{ t }} x={{\tx\t}}",
			bindings: map[string]string{"t": "4.2", "x": "1.0"},
			want:     "temp=4.2 x=1.0",
		},
		{
			name:     "repeated placeholder",
			source:   "{{x}}-{{x}}",
			bindings: map[string]string{"x": "7"},
			want:     "7-7",
		},
		{
			name:     "no placeholders",
			source:   "GaAs 10 nm\nschottky 0.7\n",
			bindings: map[string]string{"x": "1"},
			want:     "GaAs 10 nm\nschottky 0.7\n",
		},
		{
			name:     "unused bindings ignored",
			source:   "{{a}}",
			bindings: map[string]string{"a": "1", "b": "2"},
			want:     "1",
		},
		{
			name:     "stray closing braces are literal",
			source:   "}} {x} {{x}}",
			bindings: map[string]string{"x": "3"},
			want:     "}} {x} 3",
		},
		{
			name:     "bound value is not rescanned",
			source:   "{{a}}",
			bindings: map[string]string{"a": "{{b}}"},
			want:     "{{b}}",
		},
		{
			name:     "empty template",
			source:   "",
			bindings: nil,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse("test", tt.source)
			require.NoError(t, err)

			got, err := tmpl.Render(tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := tmpl.Render(tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantLine int
	}{
		{name: "unterminated", source: "a\nb {{ x", wantLine: 2},
		{name: "empty body", source: "{{}}", wantLine: 1},
		{name: "dotted name", source: "{{ .vars.x }}", wantLine: 1},
		{name: "expression", source: "line1\nline2\n{{ x + 1 }}", wantLine: 3},
		{name: "leading digit", source: "{{ 1x }}", wantLine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("input.tpl", tt.source)
			require.Error(t, err)

			var tmplErr *models.TemplateError
			require.True(t, errors.As(err, &tmplErr))
			assert.Equal(t, tt.wantLine, tmplErr.Line)
			assert.Equal(t, "input.tpl", tmplErr.Template)
		})
	}
}

func TestRender_UnknownPlaceholder(t *testing.T) {
	tmpl, err := Parse("input.tpl", "x={{x}}\ny={{ y }}\n")
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]string{"x": "1"})
	require.Error(t, err)

	var tmplErr *models.TemplateError
	require.True(t, errors.As(err, &tmplErr))
	assert.Equal(t, "y", tmplErr.Placeholder)
	assert.Equal(t, 2, tmplErr.Line)
	assert.Contains(t, err.Error(), "input.tpl:2")
}

func TestPlaceholdersAndCheck(t *testing.T) {
	tmpl, err := Parse("t", "{{ z }} {{a}} {{z}} {{ m }}")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "m", "z"}, tmpl.Placeholders())
	assert.NoError(t, tmpl.Check([]string{"a", "m", "z", "extra"}))

	err = tmpl.Check([]string{"a", "z"})
	require.Error(t, err)
	var tmplErr *models.TemplateError
	require.True(t, errors.As(err, &tmplErr))
	assert.Equal(t, "m", tmplErr.Placeholder)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.tpl")
	require.NoError(t, os.WriteFile(path, []byte("T {{ t }}\n"), 0644))

	tmpl, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Name())

	out, err := tmpl.Render(map[string]string{"t": "4.2"})
	require.NoError(t, err)
	assert.Equal(t, "T 4.2\n", out)

	_, err = ParseFile(filepath.Join(dir, "missing.tpl"))
	require.Error(t, err)
	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
