// Package evalset loads golden evaluation datasets. The defaults are embedded
// in the binary; a file path overrides them.
package evalset

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

//go:embed regression.yaml
var defaultRegression []byte

//go:embed groundedness.yaml
var defaultGroundedness []byte

// Regression loads regression cases from path, or the embedded set when path is empty.
func Regression(path string) ([]entities.RegressionCase, error) {
	var cases []entities.RegressionCase
	if err := load(path, defaultRegression, &cases); err != nil {
		return nil, err
	}
	for i, c := range cases {
		if c.Query == "" || len(c.ExpectedKeywords) == 0 {
			return nil, fmt.Errorf("regression case %d: query and expected_keywords are required", i)
		}
	}
	return cases, nil
}

// Groundedness loads grounding cases from path, or the embedded set when path is empty.
func Groundedness(path string) ([]entities.GroundingCase, error) {
	var cases []entities.GroundingCase
	if err := load(path, defaultGroundedness, &cases); err != nil {
		return nil, err
	}
	for i, c := range cases {
		if c.Query == "" {
			return nil, fmt.Errorf("groundedness case %d: query is required", i)
		}
	}
	return cases, nil
}

func load(path string, fallback []byte, out any) error {
	data := fallback
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}
	return nil
}
