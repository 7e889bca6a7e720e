package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/harrison/sweeper/internal/models"
)

type historyYAML struct {
	Enabled *bool   `yaml:"enabled"`
	DBPath  *string `yaml:"db_path"`
}

type constantYAML struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// UnmarshalYAML rejects constants whose value is not a scalar.
func (c *constantYAML) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name  string    `yaml:"name"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Name = raw.Name
	if raw.Value.Kind == 0 {
		return fmt.Errorf("line %d: constant %q has no value", node.Line, raw.Name)
	}
	if raw.Value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: constant %q must have a scalar value", raw.Value.Line, raw.Name)
	}
	return raw.Value.Decode(&c.Value)
}

// variableYAML decodes the value of a variable, which is either a mapping
// {start, end, step} or a sequence of scalars.
type variableYAML struct {
	models.Variable
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *variableYAML) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name   string    `yaml:"name"`
		Value  yaml.Node `yaml:"value"`
		Format string    `yaml:"format"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v.Name = raw.Name
	v.Format = raw.Format

	switch raw.Value.Kind {
	case yaml.MappingNode:
		var r struct {
			Start *float64 `yaml:"start"`
			End   *float64 `yaml:"end"`
			Step  *float64 `yaml:"step"`
		}
		if err := raw.Value.Decode(&r); err != nil {
			return fmt.Errorf("variable %q: %w", raw.Name, err)
		}
		if r.Start == nil || r.End == nil || r.Step == nil {
			return fmt.Errorf("line %d: variable %q range needs start, end and step", raw.Value.Line, raw.Name)
		}
		v.Range = &models.RangeSpec{Start: *r.Start, End: *r.End, Step: *r.Step}

	case yaml.SequenceNode:
		v.Values = make([]any, 0, len(raw.Value.Content))
		for _, item := range raw.Value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: variable %q list items must be scalars", item.Line, raw.Name)
			}
			var x any
			if err := item.Decode(&x); err != nil {
				return fmt.Errorf("variable %q: %w", raw.Name, err)
			}
			v.Values = append(v.Values, x)
		}

	case yaml.ScalarNode:
		return models.NewConfigError("variables."+raw.Name,
			fmt.Sprintf("line %d: value must be a range {start, end, step} or a list; use constants for fixed values", raw.Value.Line), nil)

	case 0:
		// Left empty; reported as a ConfigError when the space is built.

	default:
		return fmt.Errorf("line %d: variable %q has an unsupported value", raw.Value.Line, raw.Name)
	}
	return nil
}
