package resolver

import (
	"errors"
	"fmt"
)

// Params are the resolver's calibration knobs.
type Params struct {
	ContentBoost              float64 `yaml:"content_boost"`
	CandidateThreshold        float64 `yaml:"candidate_threshold"`
	HistoricalConfidence      float64 `yaml:"historical_confidence"`
	FuzzyCeiling              float64 `yaml:"fuzzy_ceiling"`
	KeywordMatchThreshold     float64 `yaml:"keyword_match_threshold"`
	DetectionThreshold        float64 `yaml:"detection_threshold"`
	SemanticRuleConfidence    float64 `yaml:"semantic_rule_confidence"`
	SemanticContentConfidence float64 `yaml:"semantic_content_confidence"`
	MaxAlternatives           int     `yaml:"max_alternatives"`
	SampleSize                int     `yaml:"sample_size"`
	MinKeywordLen             int     `yaml:"min_keyword_len"`
	// Workers bounds ResolveAll concurrency. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultParams returns the calibrated defaults.
func DefaultParams() Params {
	return Params{
		ContentBoost:              0.3,
		CandidateThreshold:        0.4,
		HistoricalConfidence:      0.95,
		FuzzyCeiling:              0.99,
		KeywordMatchThreshold:     0.8,
		DetectionThreshold:        0.6,
		SemanticRuleConfidence:    0.5,
		SemanticContentConfidence: 0.3,
		MaxAlternatives:           3,
		SampleSize:                10,
		MinKeywordLen:             3,
	}
}

// Validate reports every out-of-range parameter at once.
func (p Params) Validate() error {
	var errs []error
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s = %v: must be within [0, 1]", name, v))
		}
	}
	unit("content_boost", p.ContentBoost)
	unit("candidate_threshold", p.CandidateThreshold)
	unit("keyword_match_threshold", p.KeywordMatchThreshold)
	unit("detection_threshold", p.DetectionThreshold)
	unit("semantic_rule_confidence", p.SemanticRuleConfidence)
	unit("semantic_content_confidence", p.SemanticContentConfidence)

	if p.HistoricalConfidence < 0.9 || p.HistoricalConfidence > 1 {
		errs = append(errs, fmt.Errorf("historical_confidence = %v: must be within [0.9, 1]", p.HistoricalConfidence))
	}
	if p.FuzzyCeiling <= p.CandidateThreshold || p.FuzzyCeiling > 0.99 {
		errs = append(errs, fmt.Errorf("fuzzy_ceiling = %v: must be above candidate_threshold and at most 0.99", p.FuzzyCeiling))
	}
	if p.SemanticRuleConfidence >= 0.9 || p.SemanticContentConfidence >= 0.9 {
		errs = append(errs, errors.New("semantic confidences must stay below 0.9"))
	}
	if p.MaxAlternatives < 0 {
		errs = append(errs, fmt.Errorf("max_alternatives = %d: must not be negative", p.MaxAlternatives))
	}
	if p.SampleSize < 1 {
		errs = append(errs, fmt.Errorf("sample_size = %d: must be at least 1", p.SampleSize))
	}
	if p.MinKeywordLen < 1 {
		errs = append(errs, fmt.Errorf("min_keyword_len = %d: must be at least 1", p.MinKeywordLen))
	}
	if p.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers = %d: must not be negative", p.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid resolver params: %w", errors.Join(errs...))
	}
	return nil
}
