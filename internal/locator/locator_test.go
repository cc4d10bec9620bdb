// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/ranker"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

type fakeIndex struct {
	lines []pdfindex.Line
	err   error
}

func (f fakeIndex) Get(path string) ([]pdfindex.Line, error) {
	return f.lines, f.err
}

func TestLocate_ExactMatch(t *testing.T) {
	cfg := resolveconfig.Default()
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	idx := fakeIndex{lines: []pdfindex.Line{{
		Page: 18, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
	}}}

	res, err := Locate(context.Background(), idx, "doc.pdf", text, "", cfg)

	require.NoError(t, err)
	assert.Equal(t, ranker.StatusResolvedExact, res.Status)
	assert.Equal(t, 18, res.Page)
	require.NotNil(t, res.BBox)
	require.NotEmpty(t, res.BBoxes)
	assert.GreaterOrEqual(t, res.MatchScore, 0.88)
}

func TestLocate_EmptyIndexIsUnresolved(t *testing.T) {
	cfg := resolveconfig.Default()
	idx := fakeIndex{lines: nil}

	res, err := Locate(context.Background(), idx, "doc.pdf", "some evidence text here", "", cfg)

	require.NoError(t, err)
	assert.Equal(t, ranker.StatusUnresolved, res.Status)
	assert.Equal(t, cfg.PageMin, res.Page)
	assert.Nil(t, res.BBox)
	assert.Nil(t, res.BBoxes)
	assert.Equal(t, 0.0, res.MatchScore)
}

func TestLocate_IndexBuildFailurePropagates(t *testing.T) {
	cfg := resolveconfig.Default()
	idx := fakeIndex{err: errors.New("open failed")}

	_, err := Locate(context.Background(), idx, "missing.pdf", "evidence text", "", cfg)

	require.Error(t, err)
	var locErr *Error
	require.ErrorAs(t, err, &locErr)
	assert.Equal(t, ErrorKindIndexBuildFailure, locErr.Kind)
}

func TestLocate_UnresolvedHasNoBBoxes(t *testing.T) {
	cfg := resolveconfig.Default()
	cfg.ExactThreshold = 999
	cfg.ApproximateThreshold = 999
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	idx := fakeIndex{lines: []pdfindex.Line{{
		Page: 18, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
	}}}

	res, err := Locate(context.Background(), idx, "doc.pdf", text, "", cfg)

	require.NoError(t, err)
	assert.Equal(t, ranker.StatusUnresolved, res.Status)
	assert.Nil(t, res.BBox)
	assert.Nil(t, res.BBoxes)
}

func TestLocate_Idempotent(t *testing.T) {
	cfg := resolveconfig.Default()
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	idx := fakeIndex{lines: []pdfindex.Line{{
		Page: 18, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
	}}}

	r1, err1 := Locate(context.Background(), idx, "doc.pdf", text, "", cfg)
	r2, err2 := Locate(context.Background(), idx, "doc.pdf", text, "", cfg)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
}
