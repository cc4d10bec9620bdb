// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolveconfig holds the tuning surface for the evidence locator:
// the defaults table in spec.md §4.4, loadable from environment variables
// (prefix EVIDENCE_*) the way the teacher's internal/config loads FERRET_*
// settings, with the same clamp-don't-reject philosophy.
package resolveconfig

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScoreStrategy selects how the Scorer blends partial/token-set/ratio
// similarity. A tagged string, not a type hierarchy — spec.md §9 asks for
// tagged variants over dynamic dispatch.
type ScoreStrategy string

const (
	StrategyWeighted ScoreStrategy = "weighted"
	StrategyMax      ScoreStrategy = "max"
)

// Config is the locator's full tuning surface. Field-for-field, this is
// spec.md §4.4's defaults table.
type Config struct {
	ExactThreshold       float64
	ApproximateThreshold float64
	ClauseBonus          float64
	ContentWeight        float64
	ContextWeight        float64
	ClauseWeight         float64
	ContentMinResolve    float64
	ContentFallbackMin   float64
	CandidateLimit       int
	ScoreStrategy        ScoreStrategy
	WeightPartial        float64
	WeightTokenSet       float64
	WeightRatio          float64
	QueryLimit           int
	QueryMaxLength       int
	SegmentMaxLength     int
	SegmentMinLength     int
	ShortQueryMaxLen     int
	MinTokenOverlapCount int
	MinTokenOverlapRatio float64
	LowOverlapScoreCap   float64
	QuoteMaxLength       int
	PageMin              int
	PageMax              int
}

// Default returns the exact defaults named in spec.md §4.4.
func Default() Config {
	return Config{
		ExactThreshold:       88,
		ApproximateThreshold: 62,
		ClauseBonus:          6,
		ContentWeight:        0.70,
		ContextWeight:        0.20,
		ClauseWeight:         0.10,
		ContentMinResolve:    55,
		ContentFallbackMin:   45,
		CandidateLimit:       120,
		ScoreStrategy:        StrategyWeighted,
		WeightPartial:        0.45,
		WeightTokenSet:       0.45,
		WeightRatio:          0.10,
		QueryLimit:           8,
		QueryMaxLength:       260,
		SegmentMaxLength:     220,
		SegmentMinLength:     18,
		ShortQueryMaxLen:     12,
		MinTokenOverlapCount: 2,
		MinTokenOverlapRatio: 0.2,
		LowOverlapScoreCap:   55,
		QuoteMaxLength:       380,
		PageMin:              1,
		PageMax:              200,
	}
}

// Clamp returns a copy of c with spec.md §4.4's bound rules applied; c
// itself is left unchanged. Safe to call on a Config built any way
// (defaults, YAML, env, or hand-built in a test).
func (c Config) Clamp() Config {
	c.ExactThreshold = clampFloat(c.ExactThreshold, 0, 100)
	c.ApproximateThreshold = clampFloat(c.ApproximateThreshold, 0, c.ExactThreshold)
	c.ClauseBonus = clampFloat(c.ClauseBonus, 0, 20)

	if c.ContentWeight < 0 {
		c.ContentWeight = 0
	}
	if c.ContextWeight < 0 {
		c.ContextWeight = 0
	}
	if c.ClauseWeight < 0 {
		c.ClauseWeight = 0
	}

	c.ContentMinResolve = clampFloat(c.ContentMinResolve, 0, 100)
	c.ContentFallbackMin = clampFloat(c.ContentFallbackMin, 0, c.ContentMinResolve)

	if c.CandidateLimit < 20 {
		c.CandidateLimit = 20
	}

	if c.ScoreStrategy != StrategyWeighted && c.ScoreStrategy != StrategyMax {
		c.ScoreStrategy = StrategyWeighted
	}

	if c.WeightPartial < 0 {
		c.WeightPartial = 0
	}
	if c.WeightTokenSet < 0 {
		c.WeightTokenSet = 0
	}
	if c.WeightRatio < 0 {
		c.WeightRatio = 0
	}
	if c.WeightPartial+c.WeightTokenSet+c.WeightRatio <= 0 {
		d := Default()
		c.WeightPartial, c.WeightTokenSet, c.WeightRatio = d.WeightPartial, d.WeightTokenSet, d.WeightRatio
	}

	if c.PageMin < 1 {
		c.PageMin = 1
	}
	if c.PageMax < c.PageMin {
		c.PageMax = c.PageMin
	}

	if c.QueryLimit < 1 {
		c.QueryLimit = 1
	}
	if c.QueryMaxLength < 32 {
		c.QueryMaxLength = 32
	}
	if c.SegmentMaxLength < 16 {
		c.SegmentMaxLength = 16
	}
	if c.SegmentMinLength < 4 {
		c.SegmentMinLength = 4
	}
	if c.ShortQueryMaxLen < 3 {
		c.ShortQueryMaxLen = 3
	}
	if c.MinTokenOverlapCount < 1 {
		c.MinTokenOverlapCount = 1
	}
	c.MinTokenOverlapRatio = clampFloat(c.MinTokenOverlapRatio, 0, 1)
	c.LowOverlapScoreCap = clampFloat(c.LowOverlapScoreCap, 0, 100)
	if c.QuoteMaxLength < 60 {
		c.QuoteMaxLength = 60
	}

	return c
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// yamlDoc holds the `evidence:` key of an operator-supplied YAML file as a
// name -> value map, following the teacher's gopkg.in/yaml.v3-backed Config
// struct (internal/config/config.go). FromYAML applies only the keys present
// in the map, so a partial override file only changes what it names.
type yamlDoc struct {
	Evidence map[string]any `yaml:"evidence"`
}

// FromYAML layers a YAML override document onto base, returning an
// unclamped Config (the caller is expected to call Clamp once all layers —
// YAML, then env, then any per-call override — have been applied).
func FromYAML(base Config, data []byte) (Config, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return base, err
	}

	for key, raw := range doc.Evidence {
		applyNamedField(&base, strings.ToUpper(key), raw)
	}
	return base, nil
}

// FromEnv layers EVIDENCE_* environment variables onto base, following the
// teacher's _env_float/_env_int pattern: a missing or malformed value is
// silently ignored, leaving the existing (YAML or default) value in place.
func FromEnv(base Config) Config {
	base.ExactThreshold = envFloat("EVIDENCE_EXACT_THRESHOLD", base.ExactThreshold)
	base.ApproximateThreshold = envFloat("EVIDENCE_APPROX_THRESHOLD", base.ApproximateThreshold)
	base.ClauseBonus = envFloat("EVIDENCE_CLAUSE_BONUS", base.ClauseBonus)
	base.ContentWeight = envFloat("EVIDENCE_CONTENT_WEIGHT", base.ContentWeight)
	base.ContextWeight = envFloat("EVIDENCE_CONTEXT_WEIGHT", base.ContextWeight)
	base.ClauseWeight = envFloat("EVIDENCE_CLAUSE_WEIGHT", base.ClauseWeight)
	base.ContentMinResolve = envFloat("EVIDENCE_CONTENT_MIN_RESOLVE", base.ContentMinResolve)
	base.ContentFallbackMin = envFloat("EVIDENCE_CONTENT_FALLBACK_MIN", base.ContentFallbackMin)
	base.CandidateLimit = envInt("EVIDENCE_CANDIDATE_LIMIT", base.CandidateLimit)

	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("EVIDENCE_SCORE_STRATEGY"))); raw != "" {
		base.ScoreStrategy = ScoreStrategy(raw)
	}

	base.WeightPartial = envFloat("EVIDENCE_WEIGHT_PARTIAL", base.WeightPartial)
	base.WeightTokenSet = envFloat("EVIDENCE_WEIGHT_TOKEN_SET", base.WeightTokenSet)
	base.WeightRatio = envFloat("EVIDENCE_WEIGHT_RATIO", base.WeightRatio)

	base.QueryLimit = envInt("EVIDENCE_QUERY_LIMIT", base.QueryLimit)
	base.QueryMaxLength = envInt("EVIDENCE_QUERY_MAX_LENGTH", base.QueryMaxLength)
	base.SegmentMaxLength = envInt("EVIDENCE_SEGMENT_MAX_LENGTH", base.SegmentMaxLength)
	base.SegmentMinLength = envInt("EVIDENCE_SEGMENT_MIN_LENGTH", base.SegmentMinLength)
	base.ShortQueryMaxLen = envInt("EVIDENCE_SHORT_QUERY_MAX_LENGTH", base.ShortQueryMaxLen)
	base.MinTokenOverlapCount = envInt("EVIDENCE_MIN_TOKEN_OVERLAP_COUNT", base.MinTokenOverlapCount)
	base.MinTokenOverlapRatio = envFloat("EVIDENCE_MIN_TOKEN_OVERLAP_RATIO", base.MinTokenOverlapRatio)
	base.LowOverlapScoreCap = envFloat("EVIDENCE_LOW_OVERLAP_SCORE_CAP", base.LowOverlapScoreCap)
	base.QuoteMaxLength = envInt("EVIDENCE_QUOTE_MAX_LENGTH", base.QuoteMaxLength)
	base.PageMin = envInt("EVIDENCE_PAGE_MIN", base.PageMin)
	base.PageMax = envInt("EVIDENCE_PAGE_MAX", base.PageMax)

	return base
}

// Load builds the process config by layering defaults < YAML file (if
// yamlPath is non-empty and readable) < environment variables, then
// clamping once at the end. This is the three-tier precedence SPEC_FULL.md
// §6 adds on top of spec.md's env-only surface.
func Load(yamlPath string) Config {
	cfg := Default()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if layered, err := FromYAML(cfg, data); err == nil {
				cfg = layered
			}
		}
	}

	cfg = FromEnv(cfg)
	return cfg.Clamp()
}

func envFloat(name string, fallback float64) float64 {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envInt(name string, fallback int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

// applyNamedField sets the Config field matching an upper-snake-case key of
// the YAML `evidence:` map. The names are those of the EVIDENCE_*
// environment variables FromEnv reads, without the prefix; YAML also
// accepts APPROXIMATE_THRESHOLD as an alias of APPROX_THRESHOLD.
func applyNamedField(c *Config, name string, raw any) {
	asFloat := func() (float64, bool) {
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
		return 0, false
	}
	asInt := func() (int, bool) {
		switch v := raw.(type) {
		case int:
			return v, true
		case float64:
			return int(v), true
		case string:
			i, err := strconv.Atoi(v)
			return i, err == nil
		}
		return 0, false
	}

	switch name {
	case "EXACT_THRESHOLD":
		if f, ok := asFloat(); ok {
			c.ExactThreshold = f
		}
	case "APPROX_THRESHOLD", "APPROXIMATE_THRESHOLD":
		if f, ok := asFloat(); ok {
			c.ApproximateThreshold = f
		}
	case "CLAUSE_BONUS":
		if f, ok := asFloat(); ok {
			c.ClauseBonus = f
		}
	case "CONTENT_WEIGHT":
		if f, ok := asFloat(); ok {
			c.ContentWeight = f
		}
	case "CONTEXT_WEIGHT":
		if f, ok := asFloat(); ok {
			c.ContextWeight = f
		}
	case "CLAUSE_WEIGHT":
		if f, ok := asFloat(); ok {
			c.ClauseWeight = f
		}
	case "CONTENT_MIN_RESOLVE":
		if f, ok := asFloat(); ok {
			c.ContentMinResolve = f
		}
	case "CONTENT_FALLBACK_MIN":
		if f, ok := asFloat(); ok {
			c.ContentFallbackMin = f
		}
	case "CANDIDATE_LIMIT":
		if i, ok := asInt(); ok {
			c.CandidateLimit = i
		}
	case "SCORE_STRATEGY":
		if s, ok := raw.(string); ok {
			c.ScoreStrategy = ScoreStrategy(strings.ToLower(s))
		}
	case "WEIGHT_PARTIAL":
		if f, ok := asFloat(); ok {
			c.WeightPartial = f
		}
	case "WEIGHT_TOKEN_SET":
		if f, ok := asFloat(); ok {
			c.WeightTokenSet = f
		}
	case "WEIGHT_RATIO":
		if f, ok := asFloat(); ok {
			c.WeightRatio = f
		}
	case "QUERY_LIMIT":
		if i, ok := asInt(); ok {
			c.QueryLimit = i
		}
	case "QUERY_MAX_LENGTH":
		if i, ok := asInt(); ok {
			c.QueryMaxLength = i
		}
	case "SEGMENT_MAX_LENGTH":
		if i, ok := asInt(); ok {
			c.SegmentMaxLength = i
		}
	case "SEGMENT_MIN_LENGTH":
		if i, ok := asInt(); ok {
			c.SegmentMinLength = i
		}
	case "SHORT_QUERY_MAX_LENGTH":
		if i, ok := asInt(); ok {
			c.ShortQueryMaxLen = i
		}
	case "MIN_TOKEN_OVERLAP_COUNT":
		if i, ok := asInt(); ok {
			c.MinTokenOverlapCount = i
		}
	case "MIN_TOKEN_OVERLAP_RATIO":
		if f, ok := asFloat(); ok {
			c.MinTokenOverlapRatio = f
		}
	case "LOW_OVERLAP_SCORE_CAP":
		if f, ok := asFloat(); ok {
			c.LowOverlapScoreCap = f
		}
	case "QUOTE_MAX_LENGTH":
		if i, ok := asInt(); ok {
			c.QuoteMaxLength = i
		}
	case "PAGE_MIN":
		if i, ok := asInt(); ok {
			c.PageMin = i
		}
	case "PAGE_MAX":
		if i, ok := asInt(); ok {
			c.PageMax = i
		}
	}
}
