// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/querybuilder"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

func line18() pdfindex.Line {
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	return pdfindex.Line{
		Page:       18,
		Text:       text,
		Normalized: pdfindex.Normalize(text),
		BBox:       pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
		BlockIndex: 0,
		LineIndex:  0,
	}
}

func TestRank_ExactLineMatch(t *testing.T) {
	cfg := resolveconfig.Default()
	lines := []pdfindex.Line{line18()}
	evidence := "18.3 The Contractor shall finalise the EMP within 45 days."
	bundle := querybuilder.Build(evidence, "", cfg)

	d := Rank(lines, bundle, evidence, cfg)

	require.NotNil(t, d.Candidate)
	assert.Equal(t, StatusResolvedExact, d.Status)
	assert.Equal(t, 18, d.Page)
	assert.GreaterOrEqual(t, d.FinalScore/100, 0.88)
}

func TestRank_ClauseOnlyQueryFailsContentGate(t *testing.T) {
	cfg := resolveconfig.Default()
	cfg.ClauseWeight = 0.9
	cfg.ContentWeight = 0.05
	cfg.ContextWeight = 0.05
	cfg.ExactThreshold = 90
	cfg.ApproximateThreshold = 40
	cfg.ContentMinResolve = 60
	cfg = cfg.Clamp()

	lines := []pdfindex.Line{line18()}
	evidence := "18.3"
	bundle := querybuilder.Build(evidence, "18.3", cfg)

	d := Rank(lines, bundle, evidence, cfg)

	assert.Equal(t, StatusUnresolved, d.Status)
}

func TestRank_ParaphraseWithRelaxedThresholdsResolves(t *testing.T) {
	cfg := resolveconfig.Default()
	cfg.ExactThreshold = 20
	cfg.ApproximateThreshold = 10
	cfg.ContentMinResolve = 5

	lines := []pdfindex.Line{line18()}
	evidence := "The contractor submits final EMP after acceptance within forty five days."
	bundle := querybuilder.Build(evidence, "", cfg)

	d := Rank(lines, bundle, evidence, cfg)

	assert.Contains(t, []Status{StatusResolvedExact, StatusResolvedApproximate}, d.Status)
	assert.Equal(t, 18, d.Page)
}

func TestRank_StrictThresholdsOnParaphraseUnresolved(t *testing.T) {
	cfg := resolveconfig.Default()
	cfg.ExactThreshold = 95
	cfg.ApproximateThreshold = 90

	lines := []pdfindex.Line{line18()}
	evidence := "The contractor submits final EMP after acceptance within forty five days."
	bundle := querybuilder.Build(evidence, "", cfg)

	d := Rank(lines, bundle, evidence, cfg)

	assert.Equal(t, StatusUnresolved, d.Status)
}

func TestRank_EmptyIndexIsUnresolvedAtPageMin(t *testing.T) {
	cfg := resolveconfig.Default()
	bundle := querybuilder.Build("anything at all", "", cfg)

	d := Rank(nil, bundle, "anything at all", cfg)

	assert.Equal(t, StatusUnresolved, d.Status)
	assert.Equal(t, cfg.PageMin, d.Page)
	assert.Nil(t, d.Candidate)
}

func TestRank_ThresholdMonotonicity(t *testing.T) {
	cfg := resolveconfig.Default()
	lines := []pdfindex.Line{line18()}
	evidence := "18.3 The Contractor shall finalise the EMP within 45 days."
	bundle := querybuilder.Build(evidence, "", cfg)

	strict := cfg
	strict.ExactThreshold = 99.9
	strict.ApproximateThreshold = 99.8
	before := Rank(lines, bundle, evidence, strict)

	relaxed := cfg
	relaxed.ExactThreshold = 1
	relaxed.ApproximateThreshold = 0.5
	after := Rank(lines, bundle, evidence, relaxed)

	if before.Status != StatusUnresolved {
		assert.NotEqual(t, StatusUnresolved, after.Status)
	}
}

func TestRank_ContentGateDominatesOtherThresholds(t *testing.T) {
	cfg := resolveconfig.Default()
	cfg.ContentMinResolve = 1000 // unreachable
	lines := []pdfindex.Line{line18()}
	evidence := "18.3 The Contractor shall finalise the EMP within 45 days."
	bundle := querybuilder.Build(evidence, "", cfg)

	d := Rank(lines, bundle, evidence, cfg)

	assert.Equal(t, StatusUnresolved, d.Status)
}

func TestRank_FallbackUsesClauseContainingLineWhenContentWeak(t *testing.T) {
	cfg := resolveconfig.Default()
	weak := pdfindex.Line{
		Page: 3, Text: "irrelevant filler text with no overlap at all",
		Normalized: pdfindex.Normalize("irrelevant filler text with no overlap at all"),
		BBox:       pdfindex.Rect{X0: 1, Y0: 1, X1: 10, Y1: 10},
	}
	clauseLine := pdfindex.Line{
		Page: 7, Text: "9.4 some unrelated sentence about a different matter",
		Normalized: pdfindex.Normalize("9.4 some unrelated sentence about a different matter"),
		BBox:       pdfindex.Rect{X0: 1, Y0: 1, X1: 10, Y1: 10},
	}
	lines := []pdfindex.Line{weak, clauseLine}
	bundle := querybuilder.Bundle{
		ContentQueries:   []string{"a query that matches nothing present in either line text"},
		ContextQueries:   []string{"a query that matches nothing present in either line text"},
		ClauseCandidates: []string{"9.4"},
	}
	cfg.ExactThreshold = 999
	cfg.ApproximateThreshold = 999

	d := Rank(lines, bundle, "9.4 reference", cfg)

	assert.Equal(t, StatusUnresolved, d.Status)
	assert.Equal(t, 7, d.Page)
}
