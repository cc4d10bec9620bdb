// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

func mkLine(page int, text string, bbox pdfindex.Rect, block, idx int) pdfindex.Line {
	return pdfindex.Line{
		Page: page, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: bbox, BlockIndex: block, LineIndex: idx,
	}
}

func TestResolve_SingleLineFindsItsOwnText(t *testing.T) {
	cfg := resolveconfig.Default()
	lines := []pdfindex.Line{
		mkLine(18, "18.3 The Contractor shall finalise the EMP within 45 days.",
			pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140}, 0, 0),
	}

	rects := Resolve(lines, 0, "18.3 The Contractor shall finalise the EMP within 45 days.", "", cfg)

	assert.NotEmpty(t, rects)
	for _, r := range rects {
		assert.True(t, r.Valid())
	}
}

func TestResolve_MultiLineWrapProducesMultipleRects(t *testing.T) {
	cfg := resolveconfig.Default()
	l0 := mkLine(5, "The Contractor shall submit a draft Design and Works Plan for the",
		pdfindex.Rect{X0: 80, Y0: 200, X1: 520, Y1: 220}, 0, 0)
	l1 := mkLine(5, "certification by the Design Checker and consent by the Supervising Officer.",
		pdfindex.Rect{X0: 80, Y0: 222, X1: 520, Y1: 242}, 0, 1)
	lines := []pdfindex.Line{l0, l1}

	evidence := "From Contract, Section 1.27.2(a): The Contractor shall submit a draft Design and Works Plan for the certification by the Design Checker and consent by the Supervising Officer."

	rects := Resolve(lines, 0, evidence, "", cfg)

	assert.GreaterOrEqual(t, len(rects), 2)
}

func TestResolve_NoNeedleMatchFallsBackToWinningLineBBox(t *testing.T) {
	cfg := resolveconfig.Default()
	bbox := pdfindex.Rect{X0: 10, Y0: 20, X1: 100, Y1: 40}
	lines := []pdfindex.Line{
		// Shorter than minNeedleLength, so the line's own text is not a needle.
		mkLine(1, "short text", bbox, 0, 0),
	}

	rects := Resolve(lines, 0, "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz completely absent words", "", cfg)

	assert.Equal(t, []pdfindex.Rect{bbox}, rects)
}

func TestSearchNeedle_FindsEveryOccurrence(t *testing.T) {
	lines := []pdfindex.Line{
		mkLine(1, "apple banana apple cherry apple", pdfindex.Rect{X0: 0, Y0: 0, X1: 300, Y1: 20}, 0, 0),
	}
	got := searchNeedle(lines, "apple")
	assert.Len(t, got, 3)
}

func TestSearchNeedle_FindsOccurrenceSpanningLineWrap(t *testing.T) {
	a := mkLine(5, "the contractor shall submit a draft design and works plan for the",
		pdfindex.Rect{X0: 80, Y0: 200, X1: 520, Y1: 220}, 0, 0)
	b := mkLine(5, "certification by the design checker.",
		pdfindex.Rect{X0: 80, Y0: 222, X1: 520, Y1: 242}, 0, 1)

	got := searchNeedle([]pdfindex.Line{a, b}, "works plan for the certification by")

	require.Len(t, got, 2)
	assert.Equal(t, a.BBox.Y0, got[0].Y0)
	assert.Equal(t, b.BBox.Y0, got[1].Y0)
}

func TestGroupVertically_SplitsOnLargeGap(t *testing.T) {
	rects := []pdfindex.Rect{
		{X0: 0, Y0: 0, X1: 10, Y1: 10},
		{X0: 0, Y0: 11, X1: 10, Y1: 21},
		{X0: 0, Y0: 500, X1: 10, Y1: 510},
	}
	groups := groupVertically(rects)
	assert.Len(t, groups, 2)
}

func TestCollectNeedles_DiscardsShortAndDuplicates(t *testing.T) {
	cfg := resolveconfig.Default()
	needles := collectNeedles(`"a meaningfully long quoted excerpt here" and more`, "a meaningfully long quoted excerpt here", "short", cfg)
	seen := map[string]bool{}
	for _, n := range needles {
		assert.GreaterOrEqual(t, len(n), minNeedleLength)
		assert.False(t, seen[pdfindex.Normalize(n)], "duplicate needle %q", n)
		seen[pdfindex.Normalize(n)] = true
	}
}
