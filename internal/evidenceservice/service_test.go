// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package evidenceservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikcccc/EPD-Tender/internal/document"
	"github.com/tikcccc/EPD-Tender/internal/evidenceapi"
	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

type fakeIndex struct{ lines []pdfindex.Line }

func (f fakeIndex) Get(path string) ([]pdfindex.Line, error) { return f.lines, nil }

func newTestRegistry() *document.Registry {
	reg := document.NewRegistry()
	reg.PutDocument(document.Record{DocumentID: "doc-1", FileName: "contract.pdf", Path: "contract.pdf"})
	return reg
}

func TestResolve_MissingDocumentIsValidationError(t *testing.T) {
	svc := New(newTestRegistry(), fakeIndex{}, resolveconfig.Default())

	_, err := svc.Resolve(context.Background(), evidenceapi.EvidenceResolveRequest{
		DocumentID:   "does-not-exist",
		EvidenceText: "some text",
	})

	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrorKindValidation, svcErr.Kind)
}

type failingIndex struct{ err error }

func (f failingIndex) Get(path string) ([]pdfindex.Line, error) { return nil, f.err }

func TestResolve_IndexBuildFailureIsDocumentUnreadable(t *testing.T) {
	svc := New(newTestRegistry(), failingIndex{err: assert.AnError}, resolveconfig.Default())

	_, err := svc.Resolve(context.Background(), evidenceapi.EvidenceResolveRequest{
		DocumentID:   "doc-1",
		EvidenceText: "some text",
	})

	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrorKindDocumentUnreadable, svcErr.Kind)
	assert.Equal(t, "DOCUMENT_UNREADABLE", svcErr.Code)
}

func TestResolve_EmptyDocumentIDIsValidationError(t *testing.T) {
	svc := New(newTestRegistry(), fakeIndex{}, resolveconfig.Default())

	_, err := svc.Resolve(context.Background(), evidenceapi.EvidenceResolveRequest{EvidenceText: "x"})

	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrorKindValidation, svcErr.Kind)
}

func TestResolve_ProducesAnchorWithGeneratedID(t *testing.T) {
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	idx := fakeIndex{lines: []pdfindex.Line{{
		Page: 18, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
	}}}
	svc := New(newTestRegistry(), idx, resolveconfig.Default())

	data, err := svc.Resolve(context.Background(), evidenceapi.EvidenceResolveRequest{
		DocumentID:   "doc-1",
		ItemID:       "item-1",
		EvidenceText: text,
	})

	require.NoError(t, err)
	require.Len(t, data.Anchors, 1)
	assert.Contains(t, data.Anchors[0].AnchorID, "anc_")
	assert.Equal(t, 18, data.Anchors[0].Page)
	assert.Equal(t, "resolved_exact", data.Anchors[0].Status)
}

func TestResolve_FallsBackToSeededReportItemWhenTextOmitted(t *testing.T) {
	reg := newTestRegistry()
	reg.IngestReport("rep-1", []document.ReportItem{
		{ReportID: "rep-1", ItemID: "item-1", DocumentID: "doc-1", EvidenceText: "18.3 The Contractor shall finalise the EMP within 45 days."},
	})
	text := "18.3 The Contractor shall finalise the EMP within 45 days."
	idx := fakeIndex{lines: []pdfindex.Line{{
		Page: 18, Text: text, Normalized: pdfindex.Normalize(text),
		BBox: pdfindex.Rect{X0: 82, Y0: 112, X1: 520, Y1: 140},
	}}}
	svc := New(reg, idx, resolveconfig.Default())

	data, err := svc.Resolve(context.Background(), evidenceapi.EvidenceResolveRequest{
		DocumentID: "doc-1",
		ReportID:   "rep-1",
		ItemID:     "item-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 18, data.Anchors[0].Page)
}
