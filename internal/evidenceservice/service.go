// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package evidenceservice bridges an EvidenceResolveRequest to the locator
// core: it looks up the document and report item, invokes locator.Locate,
// and assembles the EvidenceAnchor envelope, mirroring the original
// resolve_evidence orchestration function.
package evidenceservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tikcccc/EPD-Tender/internal/document"
	"github.com/tikcccc/EPD-Tender/internal/evidenceapi"
	"github.com/tikcccc/EPD-Tender/internal/locator"
	"github.com/tikcccc/EPD-Tender/internal/observability"
	"github.com/tikcccc/EPD-Tender/internal/pdfindex"
	"github.com/tikcccc/EPD-Tender/internal/resolveconfig"
)

// ErrorKind tags a service-level failure with the HTTP status it maps to.
type ErrorKind string

const (
	// ErrorKindValidation is SPEC_FULL.md §4.6/§4.7's InputShape: missing
	// evidence text or an unresolvable document_id, both 400 VALIDATION_ERROR.
	ErrorKindValidation ErrorKind = "validation_error"
	// ErrorKindDocumentUnreadable mirrors locator.ErrorKindIndexBuildFailure,
	// mapped to 422 DOCUMENT_UNREADABLE per SPEC_FULL.md §4.7.
	ErrorKindDocumentUnreadable ErrorKind = "document_unreadable"
	ErrorKindInternal           ErrorKind = "internal_error"
)

// Error is a tagged service error, in the style of the teacher's
// internal/redactors RedactionError and the original ApiError dataclass.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Service wires the document registry and the PDF line index to the
// locator core.
type Service struct {
	Registry *document.Registry
	Index    locator.Index
	Config   resolveconfig.Config
	observer *observability.StandardObserver
}

// New returns a Service with the given collaborators.
func New(reg *document.Registry, idx locator.Index, cfg resolveconfig.Config) *Service {
	return &Service{Registry: reg, Index: idx, Config: cfg, observer: observability.FromEnv()}
}

// Resolve implements the resolve_evidence orchestration: validate input,
// resolve the document path, run the locator, and assemble the anchor.
func (s *Service) Resolve(ctx context.Context, req evidenceapi.EvidenceResolveRequest) (_ evidenceapi.EvidenceResolveData, resolveErr error) {
	done := s.observer.StartTiming(observability.ComponentEvidenceSvc, "resolve", req.DocumentID)
	defer func() { done(resolveErr == nil, map[string]interface{}{"report_id": req.ReportID, "item_id": req.ItemID}) }()

	if req.DocumentID == "" {
		return evidenceapi.EvidenceResolveData{}, &Error{Kind: ErrorKindValidation, Code: "VALIDATION_ERROR", Message: "document_id is required"}
	}

	evidenceText := req.EvidenceText
	var clauseKeyword string
	if req.Hints != nil {
		clauseKeyword = req.Hints.ClauseKeyword
	}

	if evidenceText == "" {
		item, ok := s.Registry.Item(req.ReportID, req.ItemID)
		if !ok || item.EvidenceText == "" {
			return evidenceapi.EvidenceResolveData{}, &Error{
				Kind: ErrorKindValidation, Code: "VALIDATION_ERROR",
				Message: "evidence_text is required when no stored report item supplies it",
			}
		}
		evidenceText = item.EvidenceText
		if clauseKeyword == "" {
			clauseKeyword = item.ClauseKeyword
		}
	}

	doc, ok := s.Registry.Document(req.DocumentID)
	if !ok {
		return evidenceapi.EvidenceResolveData{}, &Error{
			Kind: ErrorKindValidation, Code: "VALIDATION_ERROR",
			Message: fmt.Sprintf("document_id not found: %s", req.DocumentID),
		}
	}

	located, err := locator.Locate(ctx, s.Index, doc.Path, evidenceText, clauseKeyword, s.Config)
	if err != nil {
		return evidenceapi.EvidenceResolveData{}, wrapLocatorError(err)
	}

	anchor := evidenceapi.EvidenceAnchor{
		AnchorID:    newAnchorID(),
		DocumentID:  req.DocumentID,
		Page:        located.Page,
		Quote:       located.Quote,
		MatchMethod: string(located.MatchMethod),
		MatchScore:  located.MatchScore,
		Status:      string(located.Status),
	}
	if located.BBox != nil {
		anchor.BBox = toWireBBox(*located.BBox)
	}
	if located.BBoxes != nil {
		anchor.BBoxes = toWireBBoxes(located.BBoxes)
	}

	return evidenceapi.EvidenceResolveData{
		ItemID:     req.ItemID,
		DocumentID: req.DocumentID,
		FileName:   doc.FileName,
		Anchors:    []evidenceapi.EvidenceAnchor{anchor},
	}, nil
}

// wrapLocatorError preserves locator.ErrorKindIndexBuildFailure as
// ErrorKindDocumentUnreadable so it reaches the web layer as 422, rather
// than flattening every locator failure into a generic internal error.
func wrapLocatorError(err error) *Error {
	var locErr *locator.Error
	if errors.As(err, &locErr) && locErr.Kind == locator.ErrorKindIndexBuildFailure {
		return &Error{
			Kind: ErrorKindDocumentUnreadable, Code: "DOCUMENT_UNREADABLE",
			Message: "failed to build pdf line index", Cause: err,
		}
	}
	return &Error{
		Kind: ErrorKindInternal, Code: "INTERNAL_ERROR",
		Message: "failed to locate evidence", Cause: err,
	}
}

func newAnchorID() string {
	return "anc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func toWireBBox(r pdfindex.Rect) *evidenceapi.BBox {
	return &evidenceapi.BBox{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1, Unit: "pt", Origin: "top-left"}
}

func toWireBBoxes(rs []pdfindex.Rect) []evidenceapi.BBox {
	out := make([]evidenceapi.BBox, len(rs))
	for i, r := range rs {
		out[i] = *toWireBBox(r)
	}
	return out
}
