// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package querybuilder derives a QueryBundle — content queries, context
// queries, and clause candidates — from a raw evidence excerpt, per
// spec.md §4.2.
package querybuilder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

// Compiled once, shared immutably across calls (spec.md §9 "regex reuse").
var (
	doubleQuoteRE  = regexp.MustCompile(`"([^"]{20,})"`)
	smartQuoteRE   = regexp.MustCompile(`“([^”]{20,})”`)
	fromPreambleRE = regexp.MustCompile(`(?i)^from\s+[^:]{0,240}:\s*`)
	sectionDecorRE = regexp.MustCompile(`(?i)^(?:section|clause)\s*\d+(?:\.\d+)*(?:\([a-z]\))?\s*[:\-]\s*`)
	numColonDashRE = regexp.MustCompile(`^\d+(?:\.\d+)*(?:\([a-z]\))?\s*[:\-]\s*`)
	numSpaceRE     = regexp.MustCompile(`^\d+(?:\.\d+)*(?:\([a-z]\))?\s+`)
	letterParenRE  = regexp.MustCompile(`(?i)^\([a-z]\)\s*`)

	segmentSplitRE = regexp.MustCompile(`[,.;\n]`)

	leadingClauseRE  = regexp.MustCompile(`(?i)^(?:\([a-z]\)\s*)?(\d{1,3}(?:\.\d+)+)`)
	labelledClauseRE = regexp.MustCompile(`(?i)clause\s+(\d{1,3}(?:\.\d+){1,3})`)
	dottedNumberRE   = regexp.MustCompile(`\d{1,3}(?:\.\d{1,3}){1,3}`)
	clauseTokenRE    = regexp.MustCompile(`^\d{1,3}(?:\.\d+){0,3}$`)

	trimCutset = " \t\r\n\"'“”.;:"
)

// Bundle is the QueryBundle named in spec.md §3.
type Bundle struct {
	ContentQueries   []string
	ContextQueries   []string
	ClauseCandidates []string
}

// Build derives a Bundle from the raw evidence text and an optional clause
// hint, per spec.md §4.2.
func Build(evidenceText, clauseKeyword string, cfg resolveconfig.Config) Bundle {
	quoted := extractQuotedSegments(evidenceText)

	body := StripDecorations(StripFromPreamble(evidenceText))
	contextBase := trimToLength(StripFromPreamble(evidenceText), cfg.QuoteMaxLength)

	content := dedupCap(buildCandidates(quoted, body, cfg), cfg.QueryLimit)
	context := dedupCap(buildCandidates(quoted, contextBase, cfg), cfg.QueryLimit)

	content, context = crossFallback(content, context, evidenceText, cfg)

	return Bundle{
		ContentQueries:   content,
		ContextQueries:   context,
		ClauseCandidates: buildClauseCandidates(evidenceText, clauseKeyword),
	}
}

// buildCandidates implements the shared "content candidates" / "context
// candidates" construction: quoted segments first, then the (body or
// context-base) text capped at query_max_length, then its
// comma/period/semicolon/newline-split segments.
func buildCandidates(quoted []string, text string, cfg resolveconfig.Config) []string {
	var out []string
	out = append(out, quoted...)

	if text != "" {
		out = append(out, trimToLength(text, cfg.QueryMaxLength))
	}

	for _, seg := range segmentSplitRE.Split(text, -1) {
		seg = strings.TrimSpace(seg)
		if len(seg) >= cfg.SegmentMinLength {
			out = append(out, trimToLength(seg, cfg.SegmentMaxLength))
		}
	}

	return out
}

func extractQuotedSegments(evidenceText string) []string {
	var segments []string
	for _, m := range doubleQuoteRE.FindAllStringSubmatch(evidenceText, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			segments = append(segments, s)
		}
	}
	for _, m := range smartQuoteRE.FindAllStringSubmatch(evidenceText, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			segments = append(segments, s)
		}
	}

	sort.SliceStable(segments, func(i, j int) bool { return len(segments[i]) > len(segments[j]) })
	return segments
}

// StripFromPreamble removes a leading "From <doc>, Section X:"-style
// preamble. Exported so the highlight resolver can sanitise needles with
// the same strip rules body/context query derivation uses.
func StripFromPreamble(text string) string {
	return fromPreambleRE.ReplaceAllString(text, "")
}

// StripDecorations removes, in order, a section/clause label, a bare
// dotted-number label, a bare dotted-number followed by a space, and a
// lettered sub-clause marker, then trims surrounding quotes/punctuation and
// returns the result in pdfindex.Normalize form. Exported for the same reason as StripFromPreamble.
func StripDecorations(text string) string {
	text = sectionDecorRE.ReplaceAllString(text, "")
	text = numColonDashRE.ReplaceAllString(text, "")
	text = numSpaceRE.ReplaceAllString(text, "")
	text = letterParenRE.ReplaceAllString(text, "")
	text = strings.Trim(text, trimCutset)
	return pdfindex.Normalize(text) // collapses whitespace and lowercases
}

func trimToLength(text string, max int) string {
	t := strings.TrimSpace(text)
	if len(t) > max {
		t = t[:max]
	}
	return t
}

func dedupCap(candidates []string, limit int) []string {
	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		norm := pdfindex.Normalize(c)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func crossFallback(content, context []string, evidenceText string, cfg resolveconfig.Config) ([]string, []string) {
	if len(content) == 0 && len(context) > 0 {
		content = capSlice(context, cfg.QueryLimit)
	}
	if len(context) == 0 && len(content) > 0 {
		context = capSlice(content, cfg.QueryLimit)
	}
	if len(content) == 0 && len(context) == 0 {
		whole := trimToLength(evidenceText, cfg.QuoteMaxLength)
		if whole != "" {
			content = []string{whole}
			context = []string{whole}
		}
	}
	return content, context
}

func capSlice(s []string, limit int) []string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// buildClauseCandidates implements spec.md §4.2's clause extraction,
// including the narrow major-clause inference heuristic.
func buildClauseCandidates(evidenceText, clauseKeyword string) []string {
	var raw []string

	if clauseKeyword != "" {
		raw = append(raw, clauseKeyword)
	}

	stripped := stripFromPreambleRaw(evidenceText)
	var leadingToken string
	if m := leadingClauseRE.FindStringSubmatch(stripped); m != nil {
		leadingToken = m[1]
		raw = append(raw, leadingToken)
	}

	var labelled []string
	for _, m := range labelledClauseRE.FindAllStringSubmatch(evidenceText, -1) {
		labelled = append(labelled, m[1])
		raw = append(raw, m[1])
	}

	raw = append(raw, findBareDottedNumbers(evidenceText)...)

	if leadingToken != "" {
		if corrected, ok := inferMajorClause(leadingToken, labelled); ok {
			raw = append(raw, corrected)
		}
	}

	return normalizeClauseTokens(raw)
}

// stripFromPreambleRaw strips only the "from <source>:" preamble, without
// the whitespace normalisation StripDecorations applies — the leading
// clause token regex needs the original casing/spacing intact.
func stripFromPreambleRaw(text string) string {
	return strings.TrimSpace(fromPreambleRE.ReplaceAllString(text, ""))
}

// findBareDottedNumbers finds every N[.n]* token (>=1 dot) in text that is
// not embedded inside a longer digit run. Go's regexp (RE2) has no
// lookaround, so the boundary check is done by hand against the characters
// immediately surrounding each match.
func findBareDottedNumbers(text string) []string {
	var out []string
	for _, loc := range dottedNumberRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isDigit(text[start-1]) {
			continue
		}
		if end < len(text) && (isDigit(text[end]) || text[end] == '.') {
			continue
		}
		out = append(out, text[start:end])
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// inferMajorClause implements the narrow single-digit-major correction
// named in spec.md §4.2 and flagged as deliberately narrow in §9.
func inferMajorClause(leadingToken string, labelledTokens []string) (string, bool) {
	dot := strings.IndexByte(leadingToken, '.')
	if dot < 0 {
		return "", false
	}
	leadingMajor := leadingToken[:dot]
	rest := leadingToken[dot:]
	if len(leadingMajor) != 1 {
		return "", false
	}

	for _, labelled := range labelledTokens {
		ldot := strings.IndexByte(labelled, '.')
		if ldot < 0 {
			continue
		}
		contextMajor := labelled[:ldot]
		if len(contextMajor) > 1 && contextMajor != leadingMajor {
			return contextMajor + rest, true
		}
	}
	return "", false
}

func normalizeClauseTokens(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, token := range raw {
		t := strings.Trim(strings.TrimSpace(token), trimCutset)
		if !clauseTokenRE.MatchString(t) {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
