// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolveconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_MatchesSpecTable(t *testing.T) {
	d := Default()
	assert.Equal(t, 88.0, d.ExactThreshold)
	assert.Equal(t, 62.0, d.ApproximateThreshold)
	assert.Equal(t, 6.0, d.ClauseBonus)
	assert.Equal(t, 120, d.CandidateLimit)
	assert.Equal(t, StrategyWeighted, d.ScoreStrategy)
	assert.Equal(t, 8, d.QueryLimit)
	assert.Equal(t, 380, d.QuoteMaxLength)
	assert.Equal(t, 1, d.PageMin)
	assert.Equal(t, 200, d.PageMax)
}

func TestClamp_ApproximateNeverExceedsExact(t *testing.T) {
	c := Config{ExactThreshold: 50, ApproximateThreshold: 90}.Clamp()
	assert.LessOrEqual(t, c.ApproximateThreshold, c.ExactThreshold)
}

func TestClamp_ContentFallbackNeverExceedsContentMinResolve(t *testing.T) {
	c := Config{ContentMinResolve: 40, ContentFallbackMin: 80}.Clamp()
	assert.LessOrEqual(t, c.ContentFallbackMin, c.ContentMinResolve)
}

func TestClamp_PageMaxNeverBelowPageMin(t *testing.T) {
	c := Config{PageMin: 10, PageMax: 3}.Clamp()
	assert.GreaterOrEqual(t, c.PageMax, c.PageMin)
}

func TestClamp_ZeroWeightSumResetsToDefaults(t *testing.T) {
	c := Config{WeightPartial: 0, WeightTokenSet: 0, WeightRatio: 0}.Clamp()
	d := Default()
	assert.Equal(t, d.WeightPartial, c.WeightPartial)
	assert.Equal(t, d.WeightTokenSet, c.WeightTokenSet)
	assert.Equal(t, d.WeightRatio, c.WeightRatio)
}

func TestClamp_UnknownStrategyFallsBackToWeighted(t *testing.T) {
	c := Config{ScoreStrategy: "bogus"}.Clamp()
	assert.Equal(t, StrategyWeighted, c.ScoreStrategy)
}

func TestFromEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("EVIDENCE_EXACT_THRESHOLD", "77")
	base := Default()
	got := FromEnv(base)
	assert.Equal(t, 77.0, got.ExactThreshold)
	assert.Equal(t, base.ApproximateThreshold, got.ApproximateThreshold)
}

func TestFromEnv_MalformedValueIgnored(t *testing.T) {
	t.Setenv("EVIDENCE_CANDIDATE_LIMIT", "not-a-number")
	base := Default()
	got := FromEnv(base)
	assert.Equal(t, base.CandidateLimit, got.CandidateLimit)
}

func TestFromYAML_OverridesNamedFields(t *testing.T) {
	base := Default()
	got, err := FromYAML(base, []byte("evidence:\n  exact_threshold: 70\n  query_limit: 4\n"))
	assert.NoError(t, err)
	assert.Equal(t, 70.0, got.ExactThreshold)
	assert.Equal(t, 4, got.QueryLimit)
	assert.Equal(t, base.ApproximateThreshold, got.ApproximateThreshold)
}
