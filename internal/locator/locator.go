// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package locator orchestrates the Evidence Locator pipeline: PDF Line
// Index, Query Builder, Scorer, Ranker & Decision Gate, and Highlight
// Resolver, in that fixed order, per spec.md §5.
package locator

import (
	"context"
	"math"
	"time"

	"github.com/tikcccc/EPD-Tender/internal/highlight"
	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/querybuilder"
	"github.com/tikcccc/EPD-Tender/internal/ranker"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

// ErrorKind tags the locator's own error conditions (spec.md §7); only
// IndexBuildFailure ever escapes as a Go error, the rest degrade in-band.
type ErrorKind string

const (
	ErrorKindIndexBuildFailure ErrorKind = "index_build_failure"
)

// Error wraps an underlying failure with its tagged kind, in the style of
// the teacher's internal/redactors RedactionError.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Result is the LocatorResult envelope described in spec.md §3.
type Result struct {
	Page        int
	Quote       string
	BBox        *pdfindex.Rect
	BBoxes      []pdfindex.Rect
	MatchScore  float64
	MatchMethod ranker.MatchMethod
	Status      ranker.Status
}

// Index supplies cached line data for a PDF path; satisfied by
// *pdfindex.Cache in production and by fakes in tests.
type Index interface {
	Get(path string) ([]pdfindex.Line, error)
}

// Locate runs the full pipeline for one (pdf, evidence) query.
func Locate(ctx context.Context, idx Index, pdfPath, evidenceText, clauseKeyword string, cfg resolveconfig.Config) (Result, error) {
	cfg = cfg.Clamp()

	lines, err := idx.Get(pdfPath)
	if err != nil {
		return Result{}, &Error{Kind: ErrorKindIndexBuildFailure, Message: "building pdf line index", Cause: err}
	}

	select {
	case <-ctx.Done():
		return Result{}, &Error{Kind: ErrorKindIndexBuildFailure, Message: "context cancelled before locate completed", Cause: ctx.Err()}
	default:
	}

	if len(lines) == 0 {
		return Result{
			Page:        cfg.PageMin,
			Quote:       trimQuote(evidenceText, cfg.QuoteMaxLength),
			MatchScore:  0,
			MatchMethod: ranker.MatchFuzzy,
			Status:      ranker.StatusUnresolved,
		}, nil
	}

	bundle := querybuilder.Build(evidenceText, clauseKeyword, cfg)
	decision := ranker.Rank(lines, bundle, evidenceText, cfg)

	result := Result{
		Page:        decision.Page,
		MatchScore:  roundScore(decision.FinalScore / 100),
		MatchMethod: decision.MatchMethod,
		Status:      decision.Status,
	}

	if decision.Candidate == nil {
		result.Quote = trimQuote(evidenceText, cfg.QuoteMaxLength)
		return result, nil
	}

	winning := decision.Candidate.Line
	result.Quote = trimQuote(winning.Text, cfg.QuoteMaxLength)

	rects := highlight.Resolve(lines, decision.Candidate.LineIdx, evidenceText, decision.Candidate.BestQuery, cfg)
	if len(rects) == 0 {
		rects = []pdfindex.Rect{winning.BBox}
	}
	result.BBoxes = rects
	result.BBox = &rects[0]

	return result, nil
}

func trimQuote(text string, max int) string {
	t := text
	if len([]rune(t)) > max {
		t = string([]rune(t)[:max])
	}
	return t
}

func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// NewRequestDeadline returns a context bound by an upstream deadline, if
// any; the locator itself never imposes one (spec.md §5).
func NewRequestDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
