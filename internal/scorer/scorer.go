// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scorer computes content, context, and clause similarity scores
// for indexed PDF lines against a QueryBundle, per spec.md §4.3. The
// similarity primitives are edit-distance and set-overlap measures in the
// style of the teacher's internal/redactors/position/fuzzy.go, adapted to
// the 0-100 scale and the partial/token-set/ratio vocabulary this spec
// names.
package scorer

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

// Tokenize splits normalised text into lowercase alphanumeric tokens.
func Tokenize(normalized string) []string {
	return tokenRE.FindAllString(normalized, -1)
}

// Score computes the blended content/context similarity between a query
// and a candidate text, both expected already normalised, per spec.md
// §4.3's score_strategy rule plus the token-overlap penalty.
func Score(queryNorm, textNorm string, cfg resolveconfig.Config) float64 {
	if queryNorm == "" || textNorm == "" {
		return 0
	}

	var raw float64
	if len([]rune(queryNorm)) <= cfg.ShortQueryMaxLen {
		raw = ratio(queryNorm, textNorm)
	} else {
		switch cfg.ScoreStrategy {
		case resolveconfig.StrategyMax:
			raw = max3(partialRatio(queryNorm, textNorm), tokenSetRatio(queryNorm, textNorm), ratio(queryNorm, textNorm))
		default:
			wSum := cfg.WeightPartial + cfg.WeightTokenSet + cfg.WeightRatio
			if wSum <= 0 {
				raw = max3(partialRatio(queryNorm, textNorm), tokenSetRatio(queryNorm, textNorm), ratio(queryNorm, textNorm))
			} else {
				raw = (cfg.WeightPartial*partialRatio(queryNorm, textNorm) +
					cfg.WeightTokenSet*tokenSetRatio(queryNorm, textNorm) +
					cfg.WeightRatio*ratio(queryNorm, textNorm)) / wSum
			}
		}
	}

	return applyTokenOverlapPenalty(raw, queryNorm, textNorm, cfg)
}

// applyTokenOverlapPenalty implements spec.md §4.3's token-overlap cap: a
// query with many distinctive tokens but little lexical overlap with the
// candidate text cannot score above a configured ceiling, regardless of
// how similar the raw string metrics think it is.
func applyTokenOverlapPenalty(score float64, queryNorm, textNorm string, cfg resolveconfig.Config) float64 {
	q := distinctTokensAtLeast(queryNorm, 3)
	if len(q) == 0 {
		return score
	}
	e := tokenSet(textNorm)

	overlap := 0
	for t := range q {
		if _, ok := e[t]; ok {
			overlap++
		}
	}

	if len(q) >= 4 && overlap < cfg.MinTokenOverlapCount {
		return minF(score, cfg.LowOverlapScoreCap)
	}

	ratioOverlap := float64(overlap) / float64(len(q))
	if ratioOverlap < cfg.MinTokenOverlapRatio {
		return minF(score, minF(100, cfg.LowOverlapScoreCap+10))
	}

	return score
}

func distinctTokensAtLeast(normalized string, minLen int) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range Tokenize(normalized) {
		if len([]rune(tok)) >= minLen {
			out[tok] = struct{}{}
		}
	}
	return out
}

func tokenSet(normalized string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range Tokenize(normalized) {
		out[tok] = struct{}{}
	}
	return out
}

// BestContent returns the highest content score among queries against a
// single line's normalised text, and the query that produced it.
func BestContent(lineNormalized string, queries []string, cfg resolveconfig.Config) (float64, string) {
	best := 0.0
	bestQuery := ""
	for _, q := range queries {
		qn := pdfindex.Normalize(q)
		s := Score(qn, lineNormalized, cfg)
		if s > best {
			best = s
			bestQuery = q
		}
	}
	return best, bestQuery
}

// ContextString concatenates the normalised text of every line sharing the
// candidate's page and block whose line_index is within ±1 of it.
func ContextString(lines []pdfindex.Line, candidateIdx int) string {
	c := lines[candidateIdx]
	var parts []string
	for _, l := range lines {
		if l.Page != c.Page || l.BlockIndex != c.BlockIndex {
			continue
		}
		if absInt(l.LineIndex-c.LineIndex) > 1 {
			continue
		}
		parts = append(parts, l.Text)
	}
	return pdfindex.Normalize(strings.Join(parts, " "))
}

// BestContext returns the highest context score among queries against a
// context string, and the query that produced it.
func BestContext(contextNormalized string, queries []string, cfg resolveconfig.Config) (float64, string) {
	return BestContent(contextNormalized, queries, cfg)
}

// clauseMatcherCache memoises the boundary-aware regexp built for each
// clause token; tokens repeat heavily across a single request's candidate
// set. Go's regexp has no lookaround, so the boundary is expressed by
// consuming a non-digit/non-dot character (or the string edge) on each
// side instead.
var clauseMatcherCache = struct {
	mu sync.Mutex
	m  map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

func clauseMatcher(token string) *regexp.Regexp {
	clauseMatcherCache.mu.Lock()
	defer clauseMatcherCache.mu.Unlock()
	if re, ok := clauseMatcherCache.m[token]; ok {
		return re
	}
	pattern := `(?:^|[^0-9.])` + regexp.QuoteMeta(strings.ToLower(token)) + `(?:[^0-9.]|$)`
	re := regexp.MustCompile(pattern)
	clauseMatcherCache.m[token] = re
	return re
}

// ClauseScore returns 100 if any clause candidate appears as a whole
// dotted-number token in either the line's normalised text or its context
// string, else 0.
func ClauseScore(clauseCandidates []string, lineNormalized, contextNormalized string) float64 {
	for _, token := range clauseCandidates {
		if token == "" {
			continue
		}
		re := clauseMatcher(token)
		if re.MatchString(" " + lineNormalized + " ") {
			return 100
		}
		if contextNormalized != "" && re.MatchString(" "+contextNormalized+" ") {
			return 100
		}
	}
	return 0
}

// Blend combines content/context/clause scores per spec.md §4.3.
func Blend(content, context, clause float64, cfg resolveconfig.Config) float64 {
	wSum := cfg.ContentWeight + cfg.ContextWeight + cfg.ClauseWeight
	if wSum <= 0 {
		return content
	}
	return (content*cfg.ContentWeight + context*cfg.ContextWeight + clause*cfg.ClauseWeight) / wSum
}

// ratio is a plain normalised edit-distance similarity on the 0-100 scale.
func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein(ra, rb)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// partialRatio slides the shorter string across the longer one and keeps
// the best windowed ratio, the same sliding-window shape as the teacher's
// findBestFuzzyMatch, simplified to fixed-width windows since we only need
// the best alignment score, not the matched span.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(long) == len(short) {
		return ratio(string(short), string(long))
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		window := long[i : i+len(short)]
		if s := ratio(string(short), string(window)); s > best {
			best = s
		}
	}
	return best
}

// tokenSetRatio compares the sorted-token-intersection form of a and b
// against each side's remaining diff, the classic token-set-ratio shape:
// the intersection plus one side's unmatched tokens is compared to the
// intersection plus the other side's, and to the intersection alone.
func tokenSetRatio(a, b string) float64 {
	ta := uniqueSortedTokens(a)
	tb := uniqueSortedTokens(b)

	inter, onlyA, onlyB := partitionTokens(ta, tb)

	interStr := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(strings.Join(append(append([]string{}, inter...), onlyA...), " "))
	combinedB := strings.TrimSpace(strings.Join(append(append([]string{}, inter...), onlyB...), " "))

	return max3(
		ratio(interStr, combinedA),
		ratio(interStr, combinedB),
		ratio(combinedA, combinedB),
	)
}

func uniqueSortedTokens(s string) []string {
	set := map[string]struct{}{}
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func partitionTokens(a, b []string) (inter, onlyA, onlyB []string) {
	setB := map[string]struct{}{}
	for _, t := range b {
		setB[t] = struct{}{}
	}
	setA := map[string]struct{}{}
	for _, t := range a {
		setA[t] = struct{}{}
	}
	for _, t := range a {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range b {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	return
}

// levenshtein computes rune-wise edit distance via dynamic programming, in
// the style of the teacher's calculateEditDistance.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(
				prev[j]+1,
				cur[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
