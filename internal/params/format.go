package params

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Formatter renders parameter values as text. It accepts the
// "{:[[fill]align][sign][#][0][width][.precision][type]}" replacement fields
// used by sweep configuration files as well as Go fmt verbs such as "%.1f".
// An empty pattern uses the default conversion.
type Formatter struct {
	pattern string
	prefix  string
	suffix  string
	goVerb  bool
	spec    formatSpec
}

type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	zero      bool
	width     int
	precision int
	typ       byte
}

// ParseFormat compiles a format pattern.
func ParseFormat(pattern string) (*Formatter, error) {
	f := &Formatter{pattern: pattern, spec: formatSpec{precision: -1}}
	if pattern == "" {
		return f, nil
	}

	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		if !strings.Contains(pattern, "%") {
			return nil, fmt.Errorf("format %q has no replacement field", pattern)
		}
		if strings.Count(strings.ReplaceAll(pattern, "%%", ""), "%") != 1 {
			return nil, fmt.Errorf("format %q must contain exactly one verb", pattern)
		}
		f.goVerb = true
		return f, nil
	}

	end := strings.IndexByte(pattern[open:], '}')
	if end < 0 {
		return nil, fmt.Errorf("format %q has an unterminated replacement field", pattern)
	}
	end += open
	if strings.ContainsAny(pattern[end+1:], "{}") || strings.ContainsAny(pattern[:open], "{}") {
		return nil, fmt.Errorf("format %q must contain exactly one replacement field", pattern)
	}

	f.prefix = pattern[:open]
	f.suffix = pattern[end+1:]

	field := pattern[open+1 : end]
	// Positional index 0 is the only argument there is.
	field = strings.TrimPrefix(field, "0")
	if field == "" {
		return f, nil
	}
	if field[0] != ':' {
		return nil, fmt.Errorf("format %q: unsupported field name %q", pattern, field)
	}

	spec, err := parseSpec(field[1:])
	if err != nil {
		return nil, fmt.Errorf("format %q: %w", pattern, err)
	}
	f.spec = spec
	return f, nil
}

func parseSpec(s string) (formatSpec, error) {
	spec := formatSpec{fill: ' ', precision: -1}
	r := []rune(s)
	i := 0

	isAlign := func(c rune) bool { return c == '<' || c == '>' || c == '^' || c == '=' }
	if len(r) >= 2 && isAlign(r[1]) {
		spec.fill = r[0]
		spec.align = byte(r[1])
		i = 2
	} else if len(r) >= 1 && isAlign(r[0]) {
		spec.align = byte(r[0])
		i = 1
	}
	if i < len(r) && (r[i] == '+' || r[i] == '-' || r[i] == ' ') {
		spec.sign = byte(r[i])
		i++
	}
	if i < len(r) && r[i] == '#' {
		spec.alt = true
		i++
	}
	if i < len(r) && r[i] == '0' {
		spec.zero = true
		i++
	}
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i > start {
		spec.width, _ = strconv.Atoi(string(r[start:i]))
	}
	if i < len(r) && (r[i] == ',' || r[i] == '_') {
		return spec, fmt.Errorf("digit grouping %q is not supported", string(r[i]))
	}
	if i < len(r) && r[i] == '.' {
		i++
		start = i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		if i == start {
			return spec, fmt.Errorf("missing precision after '.'")
		}
		spec.precision, _ = strconv.Atoi(string(r[start:i]))
	}
	if i < len(r) {
		spec.typ = byte(r[i])
		if !strings.ContainsRune("sdbcoxXeEfFgGn%", r[i]) {
			return spec, fmt.Errorf("unknown format type %q", string(r[i]))
		}
		i++
	}
	if i != len(r) {
		return spec, fmt.Errorf("unexpected %q in format spec", string(r[i:]))
	}
	if spec.align == '^' || spec.align == '=' {
		return spec, fmt.Errorf("alignment %q is not supported", string(spec.align))
	}
	if spec.fill != ' ' && spec.fill != '0' {
		return spec, fmt.Errorf("fill character %q is not supported", string(spec.fill))
	}
	return spec, nil
}

// Format renders v. Numbers accept numeric types, strings accept "s".
func (f *Formatter) Format(v any) (string, error) {
	if f.pattern == "" {
		return DefaultString(v), nil
	}
	if f.goVerb {
		out := fmt.Sprintf(f.pattern, v)
		if strings.Contains(out, "%!") {
			return "", fmt.Errorf("format %q cannot render %v (%T)", f.pattern, v, v)
		}
		return out, nil
	}

	body, err := f.formatValue(v)
	if err != nil {
		return "", err
	}
	return f.prefix + body + f.suffix, nil
}

func (f *Formatter) formatValue(v any) (string, error) {
	spec := f.spec
	flags := f.flags()

	switch val := v.(type) {
	case string:
		if spec.typ != 0 && spec.typ != 's' {
			return "", fmt.Errorf("format %q: type %q needs a number, got string %q", f.pattern, string(spec.typ), val)
		}
		if spec.precision >= 0 && len(val) > spec.precision {
			val = val[:spec.precision]
		}
		// Strings are left-aligned unless told otherwise.
		if spec.align != '>' && !strings.Contains(flags, "-") {
			flags += "-"
		}
		return fmt.Sprintf("%"+flags+f.widthString()+"s", val), nil

	case bool:
		if spec.typ != 0 && spec.typ != 's' {
			return "", fmt.Errorf("format %q: type %q needs a number, got bool", f.pattern, string(spec.typ))
		}
		return fmt.Sprintf("%"+flags+f.widthString()+"s", DefaultString(val)), nil

	case int64:
		return f.formatNumber(float64(val), val, true, true)

	case float64:
		return f.formatNumber(val, int64(val), val == math.Trunc(val) && !math.IsInf(val, 0), false)

	default:
		n, err := NormalizeScalar(v)
		if err != nil {
			return "", err
		}
		return f.formatValue(n)
	}
}

func (f *Formatter) formatNumber(fv float64, iv int64, integral, isInt bool) (string, error) {
	spec := f.spec
	flags := f.flags()
	width := f.widthString()
	prec := ""
	if spec.precision >= 0 {
		prec = "." + strconv.Itoa(spec.precision)
	}

	switch spec.typ {
	case 'd', 'n', 'b', 'o', 'x', 'X', 'c':
		if !integral {
			return "", fmt.Errorf("format %q: type %q needs an integral value, got %v", f.pattern, string(spec.typ), fv)
		}
		verb := map[byte]string{'d': "d", 'n': "d", 'b': "b", 'o': "o", 'x': "x", 'X': "X", 'c': "c"}[spec.typ]
		return fmt.Sprintf("%"+flags+width+verb, iv), nil
	case 'e', 'E', 'f', 'F', 'g', 'G':
		verb := string(spec.typ)
		if verb == "F" {
			verb = "f"
		}
		if prec == "" {
			prec = ".6"
		}
		return fmt.Sprintf("%"+flags+width+prec+verb, fv), nil
	case '%':
		if prec == "" {
			prec = ".6"
		}
		return fmt.Sprintf("%"+flags+width+prec+"f%%", fv*100), nil
	case 's':
		return "", fmt.Errorf("format %q: type 's' needs a string, got %v", f.pattern, fv)
	default:
		var text string
		switch {
		case isInt && spec.precision < 0:
			text = strconv.FormatInt(iv, 10)
		case spec.precision >= 0:
			text = generalFloat(fv, spec.precision)
		default:
			text = reprFloat(fv)
		}
		if spec.sign == '+' && fv >= 0 {
			text = "+" + text
		} else if spec.sign == ' ' && fv >= 0 {
			text = " " + text
		}
		return f.pad(text), nil
	}
}

// reprFloat renders fv the way an empty replacement field does: the shortest
// round-tripping form, always with a fractional part in fixed notation
// (10.0 -> "10.0").
func reprFloat(fv float64) string {
	switch {
	case math.IsNaN(fv):
		return "nan"
	case math.IsInf(fv, 1):
		return "inf"
	case math.IsInf(fv, -1):
		return "-inf"
	}
	text := DefaultString(fv)
	if !strings.ContainsAny(text, ".e") {
		text += ".0"
	}
	return text
}

// generalFloat renders fv with precision significant digits and no
// presentation type. Unlike %g it switches to exponent form once the
// exponent reaches precision-1 and keeps ".0" in fixed notation
// ("{:.2}" on 1.0 -> "1.0", on 10.0 -> "1e+01").
func generalFloat(fv float64, precision int) string {
	if math.IsNaN(fv) || math.IsInf(fv, 0) {
		return reprFloat(fv)
	}
	if precision == 0 {
		precision = 1
	}
	sci := strconv.FormatFloat(fv, 'e', precision-1, 64)
	mant, expText, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expText)

	if exp < -4 || exp >= precision-1 {
		sign := byte('+')
		if exp < 0 {
			sign, exp = '-', -exp
		}
		return fmt.Sprintf("%se%c%02d", trimFraction(mant), sign, exp)
	}
	text := trimFraction(strconv.FormatFloat(fv, 'f', precision-1-exp, 64))
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}

func (f *Formatter) flags() string {
	var sb strings.Builder
	switch f.spec.sign {
	case '+':
		sb.WriteByte('+')
	case ' ':
		sb.WriteByte(' ')
	}
	if f.spec.alt {
		sb.WriteByte('#')
	}
	if f.spec.align == '<' {
		sb.WriteByte('-')
	} else if f.spec.zero || f.spec.fill == '0' {
		sb.WriteByte('0')
	}
	return sb.String()
}

func (f *Formatter) widthString() string {
	if f.spec.width == 0 {
		return ""
	}
	return strconv.Itoa(f.spec.width)
}

func (f *Formatter) pad(text string) string {
	if len(text) >= f.spec.width {
		return text
	}
	padding := strings.Repeat(" ", f.spec.width-len(text))
	if f.spec.align == '<' {
		return text + padding
	}
	if f.spec.zero || f.spec.fill == '0' {
		padding = strings.Repeat("0", f.spec.width-len(text))
		if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
			return text[:1] + padding + text[1:]
		}
	}
	return padding + text
}

// DefaultString converts a scalar without a format pattern: the shortest
// decimal form for floats (exponent form outside [1e-4, 1e16)), base 10 for
// integers, "true"/"false" for booleans and strings verbatim.
func DefaultString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		abs := math.Abs(val)
		if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		n, err := NormalizeScalar(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return DefaultString(n)
	}
}

// NormalizeScalar converts the numeric types produced by YAML and JSON
// decoders to float64 or int64. Strings and booleans pass through.
func NormalizeScalar(v any) (any, error) {
	switch val := v.(type) {
	case float64, int64, string, bool:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", val)
		}
		return int64(val), nil
	case nil:
		return nil, fmt.Errorf("value is empty")
	default:
		return nil, fmt.Errorf("value %v has unsupported type %T", v, v)
	}
}
