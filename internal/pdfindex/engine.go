// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pdfindex

import (
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// defaultPageHeight is used when a page's MediaBox can't be read (inherited
// from an ancestor Pages node that ledongthuc/pdf doesn't resolve for us).
// US Letter in points; wrong for A4 documents but only shifts the vertical
// origin, never the relative ordering of lines on a page.
const defaultPageHeight = 792.0

// ascentFraction approximates a glyph run's cap height as a fraction of its
// font size, the same kind of font-metric-free approximation the teacher's
// row reconstruction uses for inter-glyph spacing (spaceThreshold = fontSize
// * 0.2 in text-extract-pdftextlib/pdf-text-extractor.go).
const ascentFraction = 0.92

// blockGapFactor: a new block starts when the gap between consecutive rows
// exceeds this multiple of the taller row's height.
const blockGapFactor = 1.6

// LedongthucEngine builds IndexedLines with github.com/ledongthuc/pdf and
// validates the file first with github.com/pdfcpu/pdfcpu, mirroring the
// two-library split in the teacher's internal/redactors/pdf/redactor.go
// (pdfcpu for structural validation, a content-level reader for text).
type LedongthucEngine struct {
	// SkipValidation disables the pdfcpu pre-validation pass.
	SkipValidation bool
}

// NewEngine returns the default PDF line-index engine.
func NewEngine() *LedongthucEngine {
	return &LedongthucEngine{}
}

// BuildIndex implements Engine.
func (e *LedongthucEngine) BuildIndex(path string) ([]Line, error) {
	if !e.SkipValidation {
		if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
			return nil, fmt.Errorf("invalid pdf file: %w", err)
		}
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var lines []Line
	pageCount := r.NumPage()

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageHeight := mediaBoxHeight(page)
		rows, err := page.GetTextByRow()
		if err != nil {
			// A single unreadable page degrades to "no lines on this page",
			// not a whole-document failure.
			continue
		}

		lines = append(lines, linesFromRows(pageNum, pageHeight, rows)...)
	}

	return lines, nil
}

// linesFromRows converts one page's rows into IndexedLines, grouping rows
// into blocks by vertical gap and assigning block/line indices the way
// spec.md §4.1 requires (block_index = position within page, line_index =
// position within block).
func linesFromRows(pageNum int, pageHeight float64, rows pdf.Rows) []Line {
	type rowRect struct {
		text string
		rect Rect
	}

	built := make([]rowRect, 0, len(rows))
	for _, row := range rows {
		if len(row.Content) == 0 {
			continue
		}

		text, rect, ok := rowTextAndRect(row.Content, pageHeight)
		if !ok {
			continue
		}

		normalized := Normalize(text)
		if normalized == "" {
			continue
		}

		built = append(built, rowRect{text: text, rect: rect})
	}

	sort.Slice(built, func(i, j int) bool {
		if built[i].rect.Y0 != built[j].rect.Y0 {
			return built[i].rect.Y0 < built[j].rect.Y0
		}
		return built[i].rect.X0 < built[j].rect.X0
	})

	lines := make([]Line, 0, len(built))
	blockIndex := -1
	lineIndex := 0
	var prevRect Rect
	havePrev := false

	for _, br := range built {
		if !havePrev {
			blockIndex++
			lineIndex = 0
		} else {
			gap := br.rect.Y0 - prevRect.Y1
			threshold := blockGapFactor * max2(prevRect.Height(), br.rect.Height())
			if gap > threshold {
				blockIndex++
				lineIndex = 0
			} else {
				lineIndex++
			}
		}

		lines = append(lines, Line{
			Page:       pageNum,
			Text:       br.text,
			Normalized: Normalize(br.text),
			BBox:       br.rect,
			BlockIndex: blockIndex,
			LineIndex:  lineIndex,
		})

		prevRect = br.rect
		havePrev = true
	}

	return lines
}

// rowTextAndRect reconstructs a row's visible text left-to-right (as the
// teacher's reconstructRowText does) and computes the row's bounding
// rectangle as the min/max envelope of its glyph runs, converted from PDF's
// bottom-left origin to the top-left origin spec.md §3 requires at the API
// boundary.
func rowTextAndRect(content []pdf.Text, pageHeight float64) (string, Rect, bool) {
	sorted := make([]pdf.Text, len(content))
	copy(sorted, content)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var text string
	var x0, x1 float64
	var rawY0, rawY1 float64
	first := true

	for i, elem := range sorted {
		text += elem.S

		if i < len(sorted)-1 {
			next := sorted[i+1]
			fontSize := elem.FontSize
			if fontSize <= 0 {
				fontSize = 12
			}
			gap := next.X - (elem.X + elem.W)
			if gap > fontSize*0.2 {
				text += " "
			}
		}

		fontSize := elem.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		elemX0, elemX1 := elem.X, elem.X+elem.W
		elemY0, elemY1 := elem.Y, elem.Y+fontSize*ascentFraction

		if first {
			x0, x1 = elemX0, elemX1
			rawY0, rawY1 = elemY0, elemY1
			first = false
			continue
		}
		if elemX0 < x0 {
			x0 = elemX0
		}
		if elemX1 > x1 {
			x1 = elemX1
		}
		if elemY0 < rawY0 {
			rawY0 = elemY0
		}
		if elemY1 > rawY1 {
			rawY1 = elemY1
		}
	}

	if first {
		return "", Rect{}, false
	}

	rect := Rect{
		X0: x0,
		Y0: pageHeight - rawY1,
		X1: x1,
		Y1: pageHeight - rawY0,
	}
	if !rect.Valid() {
		return "", Rect{}, false
	}

	return text, rect, true
}

// mediaBoxHeight reads a page's /MediaBox to find its height in points,
// falling back to US Letter when the box isn't directly present on the page
// dictionary (ledongthuc/pdf does not walk the Pages tree for inherited
// attributes).
func mediaBoxHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return defaultPageHeight
	}

	lly := box.Index(1).Float64()
	ury := box.Index(3).Float64()
	height := ury - lly
	if height <= 0 {
		return defaultPageHeight
	}
	return height
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
