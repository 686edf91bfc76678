// Package classifier provides the policy, diagnostic and groundedness classifiers.
// Clean Architecture: Adapters implementing ports.PolicyClassifier,
// ports.DiagnosticClassifier and ports.GroundednessJudge.
package classifier

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed policy_patterns.yaml
var policyPatterns []byte

// ConfidenceLevel is how sure a pattern match is.
type ConfidenceLevel string

const (
	Low    ConfidenceLevel = "low"
	Medium ConfidenceLevel = "medium"
	High   ConfidenceLevel = "high"
)

// UnmarshalYAML rejects unknown confidence levels.
func (c *ConfidenceLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch level := ConfidenceLevel(s); level {
	case High, Medium, Low:
		*c = level
		return nil
	default:
		return fmt.Errorf("invalid confidence level %q", s)
	}
}

type patternFile struct {
	Classifications []classification `yaml:"classifications"`
}

type classification struct {
	Name     string    `yaml:"name"`
	Priority int       `yaml:"priority"`
	Patterns []pattern `yaml:"patterns"`
}

type pattern struct {
	ID         string          `yaml:"id"`
	Regex      string          `yaml:"regex"`
	Confidence ConfidenceLevel `yaml:"confidence"`
	compiled   *regexp.Regexp
}

// Finding is one pattern match in an answer.
type Finding struct {
	Classification string
	PatternID      string
	Confidence     ConfidenceLevel
}

// PatternPolicyClassifier flags answers that disclose secrets, access material or personal data.
type PatternPolicyClassifier struct {
	classifications []classification
}

// NewPatternPolicyClassifier loads the embedded pattern set.
func NewPatternPolicyClassifier() (*PatternPolicyClassifier, error) {
	return newPatternPolicyClassifier(policyPatterns)
}

func newPatternPolicyClassifier(data []byte) (*PatternPolicyClassifier, error) {
	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshaling policy patterns: %w", err)
	}
	for i := range file.Classifications {
		for j := range file.Classifications[i].Patterns {
			p := &file.Classifications[i].Patterns[j]
			re, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %s: %w", p.ID, err)
			}
			p.compiled = re
		}
	}
	sort.SliceStable(file.Classifications, func(i, j int) bool {
		return file.Classifications[i].Priority > file.Classifications[j].Priority
	})
	return &PatternPolicyClassifier{classifications: file.Classifications}, nil
}

// Violates reports whether any pattern matches. It never errors.
func (c *PatternPolicyClassifier) Violates(_ context.Context, answer string) (bool, error) {
	return len(c.Scan(answer)) > 0, nil
}

// Scan returns every match, highest priority classification first.
func (c *PatternPolicyClassifier) Scan(answer string) []Finding {
	var findings []Finding
	for _, cl := range c.classifications {
		for _, p := range cl.Patterns {
			if p.compiled.MatchString(answer) {
				findings = append(findings, Finding{Classification: cl.Name, PatternID: p.ID, Confidence: p.Confidence})
			}
		}
	}
	return findings
}
