// Package sheet reads YAML or JSON sheets of named time expressions and
// checks them as a batch.
//
// A sheet looks like:
//
//	name: week 42
//	checks:
//	  - name: monday
//	    expression: "17:30 - 8:45"
//	    expect: "8:45"
//	  - name: total
//	    expression: "8:45 + 7:30 = 16:15"
package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxChecks is the maximum number of checks per sheet.
const MaxChecks = 200

// MaxSourceSize is the maximum sheet size in bytes (64 KB).
const MaxSourceSize = 64 * 1024

// Sheet is a named list of checks.
type Sheet struct {
	Name   string  `yaml:"name" json:"name"`
	Checks []Check `yaml:"checks" json:"checks"`
}

// Check is one expression, optionally with the result it should produce.
// Expect is itself an expression; "8:45", "3" and "Correct!" are typical.
type Check struct {
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
	Expect     string `yaml:"expect,omitempty" json:"expect,omitempty"`
	Line       int    `yaml:"-" json:"-"`
}

// ParseError represents an error encountered while reading a sheet.
type ParseError struct {
	Message  string
	Location string // e.g., "check 'monday' (line 4)"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("sheet error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("sheet error: %s", e.Message)
}

// Parse parses a YAML or JSON sheet.
func Parse(source []byte) (*Sheet, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("sheet size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, &ParseError{Message: "empty sheet"}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "sheet must be a mapping with a 'checks' list"}
	}

	var s Sheet
	if err := root.Content[0].Decode(&s); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	s.setLines(root.Content[0])

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// setLines records the source line of every check.
func (s *Sheet) setLines(doc *yaml.Node) {
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "checks" || doc.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		for j, item := range doc.Content[i+1].Content {
			if j < len(s.Checks) {
				s.Checks[j].Line = item.Line
			}
		}
	}
}

func (s *Sheet) validate() error {
	if len(s.Checks) == 0 {
		return &ParseError{Message: "sheet has no checks"}
	}
	if len(s.Checks) > MaxChecks {
		return &ParseError{Message: fmt.Sprintf("sheet has %d checks, maximum is %d", len(s.Checks), MaxChecks)}
	}

	seen := make(map[string]int, len(s.Checks))
	for i := range s.Checks {
		c := &s.Checks[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = fmt.Sprintf("#%d", i+1)
		}
		loc := c.location()
		if prev, dup := seen[c.Name]; dup {
			return &ParseError{Message: fmt.Sprintf("duplicate check name (first used by check %d)", prev+1), Location: loc}
		}
		seen[c.Name] = i
		if strings.TrimSpace(c.Expression) == "" {
			return &ParseError{Message: "expression is required", Location: loc}
		}
	}
	return nil
}

func (c *Check) location() string {
	if c.Line > 0 {
		return fmt.Sprintf("check '%s' (line %d)", c.Name, c.Line)
	}
	return fmt.Sprintf("check '%s'", c.Name)
}
