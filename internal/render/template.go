// Package render substitutes {{ name }} placeholders in solver input templates.
package render

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/harrison/sweeper/internal/models"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	literal string
	name    string // placeholder name, empty for literal segments
	line    int
}

// Template is a parsed input template. It is immutable and safe to render
// any number of times.
type Template struct {
	name     string
	segments []segment
}

// Parse tokenizes source into literal text and placeholders.
// A placeholder is "{{", optional blanks, an identifier, optional blanks, "}}".
// An unterminated "{{" or a placeholder body that is not an identifier is a
// *models.TemplateError.
func Parse(name, source string) (*Template, error) {
	t := &Template{name: name}
	line := 1
	rest := source

	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{literal: rest[:open], line: line})
			line += strings.Count(rest[:open], "\n")
		}

		closeIdx := strings.Index(rest[open+2:], "}}")
		if closeIdx < 0 {
			return nil, &models.TemplateError{Template: name, Line: line, Message: "unterminated placeholder"}
		}
		body := rest[open+2 : open+2+closeIdx]
		ident := strings.Trim(body, " \t")
		if !identPattern.MatchString(ident) {
			return nil, &models.TemplateError{
				Template: name,
				Line:     line,
				Message:  fmt.Sprintf("invalid placeholder {{%s}}", body),
			}
		}
		t.segments = append(t.segments, segment{name: ident, line: line})

		rest = rest[open+2+closeIdx+2:]
	}
	if rest != "" {
		t.segments = append(t.segments, segment{literal: rest, line: line})
	}

	return t, nil
}

// ParseFile reads and parses the template at path. An unreadable file is a
// *models.ConfigError; a malformed template is a *models.TemplateError.
func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigError("file_template", "cannot read template", err)
	}
	return Parse(path, string(data))
}

// Name returns the template name given to Parse.
func (t *Template) Name() string {
	return t.name
}

// Placeholders returns the distinct placeholder names, sorted.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range t.segments {
		if s.name != "" && !seen[s.name] {
			seen[s.name] = true
			names = append(names, s.name)
		}
	}
	sort.Strings(names)
	return names
}

// Check fails with a *models.TemplateError for the first placeholder that is
// not in names.
func (t *Template) Check(names []string) error {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, s := range t.segments {
		if s.name != "" && !known[s.name] {
			return t.unknown(s)
		}
	}
	return nil
}

// Render substitutes every placeholder with its binding. Template content is
// copied verbatim and never evaluated.
func (t *Template) Render(bindings map[string]string) (string, error) {
	var sb strings.Builder
	for _, s := range t.segments {
		if s.name == "" {
			sb.WriteString(s.literal)
			continue
		}
		value, ok := bindings[s.name]
		if !ok {
			return "", t.unknown(s)
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}

func (t *Template) unknown(s segment) error {
	return &models.TemplateError{
		Template:    t.name,
		Placeholder: s.name,
		Line:        s.line,
		Message:     "unknown placeholder",
	}
}
