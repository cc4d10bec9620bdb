// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_reports.json
var seedReportsJSON []byte

// seedDocument and seedReport mirror seed_reports.json's snake_case shape,
// a simplified stand-in for the original's ReportItem/ReportIngestRequest
// schema (backend/app/schemas/reports.py) collapsed to the single
// document_id per item this registry models.
type seedDocument struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Path       string `json:"path"`
}

type seedReportItem struct {
	ItemID        string `json:"item_id"`
	DocumentID    string `json:"document_id"`
	EvidenceText  string `json:"evidence_text"`
	ClauseKeyword string `json:"clause_keyword"`
}

type seedReport struct {
	ReportID string           `json:"report_id"`
	Items    []seedReportItem `json:"items"`
}

type seedFixture struct {
	Documents []seedDocument `json:"documents"`
	Reports   []seedReport   `json:"reports"`
}

// SeedEmbedded populates reg from the embedded fixture, standing in for the
// original's SEED_REPORT_PATH JSON file (report_service.py::_read_seed_items)
// the way a real deployment would load operator-supplied report cards.
func SeedEmbedded(reg *Registry) error {
	var fixture seedFixture
	if err := json.Unmarshal(seedReportsJSON, &fixture); err != nil {
		return fmt.Errorf("parse embedded seed fixture: %w", err)
	}

	for _, d := range fixture.Documents {
		reg.PutDocument(Record{DocumentID: d.DocumentID, FileName: d.FileName, Path: d.Path})
	}

	for _, r := range fixture.Reports {
		items := make([]ReportItem, len(r.Items))
		for i, it := range r.Items {
			items[i] = ReportItem{
				ReportID:      r.ReportID,
				ItemID:        it.ItemID,
				DocumentID:    it.DocumentID,
				EvidenceText:  it.EvidenceText,
				ClauseKeyword: it.ClauseKeyword,
			}
		}
		reg.IngestReport(r.ReportID, items)
	}

	return nil
}
