package scorer

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/valpere/noveldiff/internal"
)

// GoldenCase pairs known inputs with the markers a correct analysis
// should produce for them.
type GoldenCase struct {
	ID              string           `json:"id"`
	Description     string           `json:"description"`
	AITranslation   string           `json:"aiTranslation"`
	FanTranslation  string           `json:"fanTranslation"`
	RawText         string           `json:"rawText"`
	ExpectedMarkers []ExpectedMarker `json:"expectedMarkers"`
}

// LoadGolden reads and validates a golden dataset file: every chunkId
// and explanationPattern must compile as a regex and every reason must
// belong to the closed vocabulary, so scoring cannot fail halfway
// through a run.
func LoadGolden(path string) ([]GoldenCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden dataset: %w", err)
	}

	var cases []GoldenCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse golden dataset: %w", err)
	}

	for _, c := range cases {
		for i, exp := range c.ExpectedMarkers {
			if _, err := regexp.Compile(exp.ChunkID); err != nil {
				return nil, fmt.Errorf("case %s marker %d: bad chunkId pattern: %w", c.ID, i, err)
			}
			if exp.ExplanationPattern != "" {
				if _, err := regexp.Compile(exp.ExplanationPattern); err != nil {
					return nil, fmt.Errorf("case %s marker %d: bad explanation pattern: %w", c.ID, i, err)
				}
			}
			for _, r := range exp.Reasons {
				if _, ok := internal.ParseReason(string(r)); !ok {
					return nil, fmt.Errorf("case %s marker %d: unknown reason %q", c.ID, i, r)
				}
			}
		}
	}

	return cases, nil
}
