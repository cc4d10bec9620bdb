// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ranker blends content/context/clause scores, applies the
// content-score gate, and selects a resolved candidate or an unresolved
// fallback page, per spec.md §4.4.
package ranker

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/querybuilder"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
	"github.com/tikcccc/EPD-Tender/internal/scorer"
)

// Status is the tagged decision-gate outcome (spec.md §9: tagged variants,
// not dynamic dispatch).
type Status string

const (
	StatusResolvedExact       Status = "resolved_exact"
	StatusResolvedApproximate Status = "resolved_approximate"
	StatusUnresolved          Status = "unresolved"
)

// MatchMethod is the tagged match-method outcome.
type MatchMethod string

const (
	MatchExact  MatchMethod = "exact"
	MatchFuzzy  MatchMethod = "fuzzy"
	MatchManual MatchMethod = "manual"
)

// Candidate pairs an indexed line with its four scores.
type Candidate struct {
	Line      pdfindex.Line
	LineIdx   int
	Content   float64
	Context   float64
	Clause    float64
	Final     float64
	BestQuery string
}

// Decision is the ranker's output: the chosen candidate (if any), the
// decision-gate status, and the fallback page when unresolved.
type Decision struct {
	Status      Status
	MatchMethod MatchMethod
	Candidate   *Candidate // nil when unresolved
	Page        int
	FinalScore  float64 // always set; the losing candidate's final score when unresolved
}

var leadingPageRE = regexp.MustCompile(`(?i)(?:clause\s*)?(\d+)(?:\.\d+)?`)

// Rank scores every indexed line against the bundle, retains the top
// candidate_limit by content score, blends final scores for those, and
// applies the decision gate.
func Rank(lines []pdfindex.Line, bundle querybuilder.Bundle, evidenceText string, cfg resolveconfig.Config) Decision {
	if len(lines) == 0 {
		return Decision{
			Status:      StatusUnresolved,
			MatchMethod: MatchFuzzy,
			Page:        cfg.PageMin,
		}
	}

	contentOnly := make([]Candidate, len(lines))
	for i, l := range lines {
		score, bestQuery := scorer.BestContent(l.Normalized, bundle.ContentQueries, cfg)
		contentOnly[i] = Candidate{Line: l, LineIdx: i, Content: score, BestQuery: bestQuery}
	}

	retained := topByContent(contentOnly, cfg.CandidateLimit)

	for i := range retained {
		c := &retained[i]
		ctxStr := scorer.ContextString(lines, c.LineIdx)
		contextScore, _ := scorer.BestContext(ctxStr, bundle.ContextQueries, cfg)
		clauseScore := scorer.ClauseScore(bundle.ClauseCandidates, c.Line.Normalized, ctxStr)
		c.Context = contextScore
		c.Clause = clauseScore
		c.Final = scorer.Blend(c.Content, c.Context, c.Clause, cfg)
	}

	sort.SliceStable(retained, func(i, j int) bool {
		a, b := retained[i], retained[j]
		if a.Final != b.Final {
			return a.Final > b.Final
		}
		if a.Content != b.Content {
			return a.Content > b.Content
		}
		if a.Context != b.Context {
			return a.Context > b.Context
		}
		return a.Clause > b.Clause
	})

	top := retained[0]

	switch {
	case top.Content >= cfg.ContentMinResolve && top.Final >= cfg.ExactThreshold:
		return Decision{Status: StatusResolvedExact, MatchMethod: MatchExact, Candidate: &top, Page: top.Line.Page, FinalScore: top.Final}
	case top.Content >= cfg.ContentMinResolve && top.Final >= cfg.ApproximateThreshold:
		return Decision{Status: StatusResolvedApproximate, MatchMethod: MatchFuzzy, Candidate: &top, Page: top.Line.Page, FinalScore: top.Final}
	default:
		page := fallbackPage(contentOnly, lines, bundle.ClauseCandidates, evidenceText, cfg)
		return Decision{Status: StatusUnresolved, MatchMethod: MatchFuzzy, Page: page, FinalScore: top.Final}
	}
}

// topByContent keeps the top `limit` candidates by content score, ties
// broken by original document order (stable sort preserves it).
func topByContent(all []Candidate, limit int) []Candidate {
	ranked := make([]Candidate, len(all))
	copy(ranked, all)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Content > ranked[j].Content })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// fallbackPage implements spec.md §4.4's three-step unresolved fallback
// chain.
func fallbackPage(contentOnly []Candidate, lines []pdfindex.Line, clauseCandidates []string, evidenceText string, cfg resolveconfig.Config) int {
	best := contentOnly[0]
	for _, c := range contentOnly[1:] {
		if c.Content > best.Content {
			best = c
		}
	}
	if best.Content >= cfg.ContentFallbackMin {
		return clampPage(best.Line.Page, cfg)
	}

	for _, l := range lines {
		if scorer.ClauseScore(clauseCandidates, l.Normalized, "") == 100 {
			return clampPage(l.Page, cfg)
		}
	}

	if m := leadingPageRE.FindStringSubmatch(evidenceText); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return clampPage(n, cfg)
		}
	}

	return clampPage(cfg.PageMin, cfg)
}

func clampPage(page int, cfg resolveconfig.Config) int {
	if page < cfg.PageMin {
		return cfg.PageMin
	}
	if page > cfg.PageMax {
		return cfg.PageMax
	}
	return page
}
