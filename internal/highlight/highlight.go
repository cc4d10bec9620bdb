// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package highlight re-searches a PDF page for a sequence of "needles"
// derived from the evidence, producing one or more rectangles that
// precisely delimit the matched text, per spec.md §4.5.
//
// A second PDF-engine call (a whole-page text search) is not available
// from github.com/ledongthuc/pdf, so the search is run against the
// already-built pdfindex.Line data for the winning page instead: each
// line's normalised text is scanned for a needle, and a character-offset
// interpolation over the line's bbox stands in for the rectangle the
// reference engine's native search would have returned.
package highlight

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/querybuilder"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

const minNeedleLength = 12

// Resolve returns the highlight rectangles for the winning line, searching
// the page's lines for the needles derived from the evidence.
func Resolve(lines []pdfindex.Line, winningLineIdx int, evidenceText, bestContentQuery string, cfg resolveconfig.Config) (rects []pdfindex.Rect) {
	winning := lines[winningLineIdx]

	defer func() {
		if r := recover(); r != nil {
			rects = []pdfindex.Rect{winning.BBox}
		}
	}()

	needles := collectNeedles(evidenceText, bestContentQuery, winning.Text, cfg)
	if len(needles) == 0 {
		return []pdfindex.Rect{winning.BBox}
	}

	pageLines := linesOnPage(lines, winning.Page)

	var bestOverall []pdfindex.Rect
	var bestKey groupKey
	haveBest := false

	for _, needle := range needles {
		matches := searchNeedle(pageLines, needle)
		if len(matches) == 0 {
			continue
		}
		groups := groupVertically(matches)
		group, key := bestGroup(groups, len(needle), winning.BBox.CenterY())
		if group == nil {
			continue
		}
		if !haveBest || keyLess(bestKey, key) {
			bestOverall = group
			bestKey = key
			haveBest = true
		}
	}

	if !haveBest || len(bestOverall) == 0 {
		return []pdfindex.Rect{winning.BBox}
	}
	return bestOverall
}

func linesOnPage(lines []pdfindex.Line, page int) []pdfindex.Line {
	var out []pdfindex.Line
	for _, l := range lines {
		if l.Page == page {
			out = append(out, l)
		}
	}
	return out
}

// collectNeedles implements spec.md §4.5's priority-ordered, deduplicated,
// sanitised needle list.
func collectNeedles(evidenceText, bestContentQuery, winningLineText string, cfg resolveconfig.Config) []string {
	var raw []string
	raw = append(raw, extractQuoted(evidenceText)...)
	if bestContentQuery != "" {
		raw = append(raw, bestContentQuery)
	}
	raw = append(raw, colonSplitSubstrings(evidenceText)...)
	raw = append(raw, evidenceText, winningLineText)

	maxLen := cfg.QueryMaxLength * 2
	if maxLen < 220 {
		maxLen = 220
	}

	seen := map[string]struct{}{}
	var out []string
	for _, n := range raw {
		s := sanitizeNeedle(n)
		if len(s) > maxLen {
			s = s[:maxLen]
		}
		if len([]rune(s)) < minNeedleLength {
			continue
		}
		norm := pdfindex.Normalize(s)
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sanitizeNeedle applies the same strip rules querybuilder uses to derive
// the body query — a needle built from a quoted/colon-split substring of a
// preamble-prefixed evidence string must never retain that preamble, since
// the PDF text it's meant to match never contains it either.
func sanitizeNeedle(s string) string {
	stripped := querybuilder.StripFromPreamble(s)
	trimmed := strings.Trim(strings.TrimSpace(stripped), " \t\r\n\"'“”.;:")
	return querybuilder.StripDecorations(trimmed)
}

var (
	doubleQuoteRE = regexp.MustCompile(`"([^"]{20,})"`)
	smartQuoteRE  = regexp.MustCompile(`“([^”]{20,})”`)
)

// extractQuoted mirrors querybuilder's quoted-segment extraction (ASCII and
// typographic quotes, longest first); kept local because querybuilder does
// not export it.
func extractQuoted(text string) []string {
	var segs []string
	for _, m := range doubleQuoteRE.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			segs = append(segs, s)
		}
	}
	for _, m := range smartQuoteRE.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			segs = append(segs, s)
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return len(segs[i]) > len(segs[j]) })
	return segs
}

func colonSplitSubstrings(text string) []string {
	idx := strings.IndexByte(text, ':')
	if idx < 0 {
		return nil
	}
	last := strings.LastIndexByte(text, ':')
	var out []string
	out = append(out, strings.TrimSpace(text[idx+1:]))
	if last != idx {
		out = append(out, strings.TrimSpace(text[last+1:]))
	}
	return out
}

// searchNeedle finds every occurrence of needle's normalised form, both
// within a single page line and straddling the wrap between two adjacent
// lines of the same block, and interpolates a rectangle (or a pair of
// rectangles, for a wrap-spanning match) from the line's bbox proportionally
// by character offset — analogous to the teacher's position/fuzzy.go
// estimating a match position from a character index rather than font
// metrics.
func searchNeedle(pageLines []pdfindex.Line, needle string) []pdfindex.Rect {
	needleNorm := pdfindex.Normalize(needle)
	if needleNorm == "" {
		return nil
	}

	var rects []pdfindex.Rect
	for _, line := range pageLines {
		rects = append(rects, searchWithinLine(line, needleNorm)...)
	}
	for i := 0; i+1 < len(pageLines); i++ {
		a, b := pageLines[i], pageLines[i+1]
		if a.Normalized == "" || b.Normalized == "" {
			continue
		}
		if b.BlockIndex != a.BlockIndex || b.LineIndex != a.LineIndex+1 {
			continue
		}
		rects = append(rects, searchAcrossBoundary(a, b, needleNorm)...)
	}
	return rects
}

func searchWithinLine(line pdfindex.Line, needleNorm string) []pdfindex.Rect {
	text := line.Normalized
	if text == "" {
		return nil
	}
	var rects []pdfindex.Rect
	start := 0
	for {
		idx := strings.Index(text[start:], needleNorm)
		if idx < 0 {
			break
		}
		matchStart := start + idx
		matchEnd := matchStart + len(needleNorm)
		rects = append(rects, interpolateRect(line, matchStart, matchEnd))
		start = matchEnd
		if start >= len(text) {
			break
		}
	}
	return rects
}

// searchAcrossBoundary joins two adjacent same-block lines with a single
// space and searches for needle occurrences that straddle that join,
// splitting each into one rectangle per contributing line — this is what
// lets a sentence that wraps across a visual line break still resolve to
// multiple highlight rectangles (spec.md §4.5 scenario for a multi-line
// sentence). Matches wholly inside one line are left to searchWithinLine.
func searchAcrossBoundary(a, b pdfindex.Line, needleNorm string) []pdfindex.Rect {
	aLen := len(a.Normalized)
	joined := a.Normalized + " " + b.Normalized
	bStartOffset := aLen + 1

	var rects []pdfindex.Rect
	start := 0
	for {
		idx := strings.Index(joined[start:], needleNorm)
		if idx < 0 {
			break
		}
		matchStart := start + idx
		matchEnd := matchStart + len(needleNorm)
		start = matchEnd

		if matchStart < aLen && matchEnd > bStartOffset {
			bEnd := matchEnd - bStartOffset
			if bEnd > len(b.Normalized) {
				bEnd = len(b.Normalized)
			}
			rects = append(rects, interpolateRect(a, matchStart, aLen))
			rects = append(rects, interpolateRect(b, 0, bEnd))
		}

		if start >= len(joined) {
			break
		}
	}
	return rects
}

func interpolateRect(line pdfindex.Line, charStart, charEnd int) pdfindex.Rect {
	total := len(line.Normalized)
	if total == 0 {
		return line.BBox
	}
	width := line.BBox.X1 - line.BBox.X0
	fracStart := float64(charStart) / float64(total)
	fracEnd := float64(charEnd) / float64(total)

	x0 := line.BBox.X0 + width*fracStart
	x1 := line.BBox.X0 + width*fracEnd
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return pdfindex.Rect{X0: x0, Y0: line.BBox.Y0, X1: x1, Y1: line.BBox.Y1}
}

// groupVertically groups rectangles sorted by (y0, x0) into vertical runs,
// starting a new group whenever the vertical gap exceeds 1.8x the taller
// of the two adjacent rectangles' heights.
func groupVertically(rects []pdfindex.Rect) [][]pdfindex.Rect {
	sorted := make([]pdfindex.Rect, len(rects))
	copy(sorted, rects)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var groups [][]pdfindex.Rect
	var current []pdfindex.Rect
	for _, r := range sorted {
		if !r.Valid() {
			continue
		}
		if len(current) == 0 {
			current = []pdfindex.Rect{r}
			continue
		}
		prev := current[len(current)-1]
		gap := r.Y0 - prev.Y1
		threshold := 1.8 * maxF(prev.Height(), r.Height())
		if gap > threshold {
			groups = append(groups, current)
			current = []pdfindex.Rect{r}
		} else {
			current = append(current, r)
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// groupKey is the lexicographic selection key: more matched rectangles
// first, then longer needles, then vertical proximity to the anchor line.
type groupKey struct {
	count        int
	needleLenCap int
	negDeltaY    float64
}

func keyLess(a, b groupKey) bool {
	if a.count != b.count {
		return a.count < b.count
	}
	if a.needleLenCap != b.needleLenCap {
		return a.needleLenCap < b.needleLenCap
	}
	return a.negDeltaY < b.negDeltaY
}

func bestGroup(groups [][]pdfindex.Rect, needleLen int, anchorCenterY float64) ([]pdfindex.Rect, groupKey) {
	lenCap := needleLen
	if lenCap > 600 {
		lenCap = 600
	}

	var best []pdfindex.Rect
	var bestKey groupKey
	have := false

	for _, g := range groups {
		centerY := pdfindex.Union(g).CenterY()
		key := groupKey{count: len(g), needleLenCap: lenCap, negDeltaY: -absF(centerY - anchorCenterY)}
		if !have || keyLess(bestKey, key) {
			best = g
			bestKey = key
			have = true
		}
	}
	return best, bestKey
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
