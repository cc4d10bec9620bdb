// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package evidenceapi defines the evidence-resolve request/response wire
// types and the {code, message, request_id, data|details} envelope format,
// per spec.md §6. It is the thin glue layer around the locator core.
package evidenceapi

// BBox is a PDF-points rectangle on the wire, top-left origin.
type BBox struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Unit string  `json:"unit"`
	// Origin is always "top-left" at the API boundary.
	Origin string `json:"origin"`
}

// EvidenceAnchor is the located reference returned to a caller.
type EvidenceAnchor struct {
	AnchorID    string  `json:"anchor_id"`
	DocumentID  string  `json:"document_id"`
	Page        int     `json:"page"`
	Quote       string  `json:"quote"`
	BBox        *BBox   `json:"bbox"`
	BBoxes      []BBox  `json:"bboxes"`
	MatchMethod string  `json:"match_method"`
	MatchScore  float64 `json:"match_score"`
	Status      string  `json:"status"`
}

// EvidenceResolveHints carries the optional clause hint.
type EvidenceResolveHints struct {
	ClauseKeyword string `json:"clause_keyword,omitempty"`
}

// EvidenceResolveRequest is the inbound resolve payload.
type EvidenceResolveRequest struct {
	ReportID     string                `json:"report_id"`
	ItemID       string                `json:"item_id"`
	DocumentID   string                `json:"document_id"`
	EvidenceText string                `json:"evidence_text"`
	Hints        *EvidenceResolveHints `json:"hints,omitempty"`
}

// EvidenceResolveData is the resolve endpoint's data payload.
type EvidenceResolveData struct {
	ItemID     string           `json:"item_id"`
	DocumentID string           `json:"document_id"`
	FileName   string           `json:"file_name"`
	Anchors    []EvidenceAnchor `json:"anchors"`
}

// Envelope is the uniform response wrapper for both success and error.
type Envelope struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id"`
	Data      interface{} `json:"data,omitempty"`
	Details   []Detail    `json:"details,omitempty"`
}

// Detail is one structured error detail entry.
type Detail struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// OKResponse builds a success envelope.
func OKResponse(requestID string, data interface{}) Envelope {
	return Envelope{Code: "OK", Message: "success", RequestID: requestID, Data: data}
}

// ErrorResponse builds an error envelope.
func ErrorResponse(requestID, code, message string, details []Detail) Envelope {
	return Envelope{Code: code, Message: message, RequestID: requestID, Details: details}
}
