// Package programs maps scheduled event names to the program they sell.
package programs

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"coldlead_backend/platform/sanitize"

	"gopkg.in/yaml.v3"
)

// Rule pairs an event-name pattern with the program it selects.
// Patterns are regular expressions written against folded text
// (lowercase, accents removed).
type Rule struct {
	Pattern string `yaml:"pattern"`
	Program string `yaml:"program"`
}

// DefaultRules is the production rule set. Order matters: the first match wins.
var DefaultRules = []Rule{
	{Pattern: `examen.*abogacia`, Program: "Examen de Acceso a la Abogacía"},
	{Pattern: `abogacia.*elite`, Program: "Abogacía Élite"},
	{Pattern: `entrevista.*abogacia`, Program: "Abogacía Élite"},
	{Pattern: `oposiciones.*justicia`, Program: "Oposiciones de Justicia"},
	{Pattern: `orientacion.*justicia`, Program: "Oposiciones de Justicia"},
	{Pattern: `justicia.*express`, Program: "Oposiciones de Justicia"},
	{Pattern: `formacion.*justicia`, Program: "Oposiciones de Justicia"},
	{Pattern: `legal\s*prime`, Program: "Legal Prime"},
}

type compiledRule struct {
	re      *regexp.Regexp
	program string
}

// Matcher classifies event names with a first-match-wins rule list.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles rules in the given order.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Program) == "" {
			return nil, fmt.Errorf("rule %d: program is required", i)
		}
		re, err := regexp.Compile(sanitize.Fold(r.Pattern))
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Program, err)
		}
		compiled = append(compiled, compiledRule{re: re, program: r.Program})
	}
	return &Matcher{rules: compiled}, nil
}

// Default returns a Matcher over DefaultRules.
func Default() *Matcher {
	m, err := NewMatcher(DefaultRules)
	if err != nil {
		panic("programs: invalid default rules: " + err.Error())
	}
	return m
}

// Match returns the program of the first rule matching eventName.
func (m *Matcher) Match(eventName string) (string, bool) {
	folded := sanitize.Fold(strings.TrimSpace(eventName))
	if folded == "" {
		return "", false
	}
	for _, r := range m.rules {
		if r.re.MatchString(folded) {
			return r.program, true
		}
	}
	return "", false
}

// Len reports the number of rules.
func (m *Matcher) Len() int { return len(m.rules) }

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads an ordered rule list from a YAML document of the form
//
//	rules:
//	  - pattern: "examen.*abogacia"
//	    program: "Examen de Acceso a la Abogacía"
func LoadFile(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program rules: %w", err)
	}

	var doc rulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse program rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("program rules file %s has no rules", path)
	}

	return NewMatcher(doc.Rules)
}

// Load returns the rules from path, or the defaults when path is empty.
func Load(path string) (*Matcher, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
