// Package rules loads rewrite rules from YAML and applies them as a stream
// controller.
package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	yaml "github.com/goccy/go-yaml"

	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// ErrRules is the sentinel error for rule loading and validation failures.
var ErrRules = errors.New("rules error")

// Rule rewrites every element matching Selector.
// Markup fields are inserted verbatim.
type Rule struct {
	Name     string  `yaml:"name,omitempty"`    // Label used in error messages
	Selector string  `yaml:"selector"`          // CSS selector list
	Before   string  `yaml:"before,omitempty"`  // Inserted before the start tag
	After    string  `yaml:"after,omitempty"`   // Inserted after the end tag
	Prepend  string  `yaml:"prepend,omitempty"` // Inserted after the start tag
	Append   string  `yaml:"append,omitempty"`  // Inserted before the end tag
	Inner    *string `yaml:"inner,omitempty"`   // Replaces the element content
	Unwrap   bool    `yaml:"unwrap,omitempty"`  // Drops the tags, keeps the content
	Remove   bool    `yaml:"remove,omitempty"`  // Drops the element and its content
}

// label returns the rule name, or its position when unnamed.
func (r Rule) label(i int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule %d", i+1)
}

// Set is an ordered list of rules. A rule's payload in the compiled program
// is its index.
type Set struct {
	Rules []Rule
}

// Load decodes a YAML list of rules. Unknown fields are rejected and an
// empty document yields an empty set.
func Load(r io.Reader) (Set, error) {
	decoder := yaml.NewDecoder(r, yaml.DisallowUnknownField())
	var rules []Rule
	if err := decoder.Decode(&rules); err != nil {
		if errors.Is(err, io.EOF) {
			return Set{}, nil
		}
		return Set{}, fmt.Errorf("%w: failed to decode YAML: %v", ErrRules, err)
	}
	set := Set{Rules: rules}
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// LoadFile loads rules from path.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrRules, err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that every rule has a selector and a consistent action.
func (s Set) Validate() error {
	for i, rule := range s.Rules {
		if rule.Selector == "" {
			return fmt.Errorf("%w: %s: missing required 'selector' field", ErrRules, rule.label(i))
		}
		if rule.Remove && (rule.Inner != nil || rule.Unwrap) {
			return fmt.Errorf("%w: %s: 'remove' cannot be combined with 'inner' or 'unwrap'", ErrRules, rule.label(i))
		}
	}
	return nil
}

// Program compiles the selectors of every rule.
func (s Set) Program() (*selectorvm.Program[int], error) {
	compiled := make([]selectorvm.Rule[int], 0, len(s.Rules))
	for i, rule := range s.Rules {
		compiled = append(compiled, selectorvm.Rule[int]{Payload: i, Selector: rule.Selector})
	}
	program, err := selectorvm.Compile(compiled)
	if err != nil {
		return nil, err
	}
	return program, nil
}
