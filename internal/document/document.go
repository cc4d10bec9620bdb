// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package document is the locator's external collaborator stand-in named
// in spec.md §1: a process-local registry mapping document_id to a PDF
// path, and report_id/item_id to a seeded evidence excerpt. Persistence,
// CRUD, and export rendering are out of scope (spec.md §1's Non-goals);
// this package exists only to give the locator something to resolve
// against end to end.
package document

import (
	"fmt"
	"sync"
)

// Record maps a document_id to the PDF file backing it.
type Record struct {
	DocumentID string
	FileName   string
	Path       string
}

// ReportItem is one evidence excerpt within a report card, the unit the
// locator actually resolves.
type ReportItem struct {
	ReportID      string
	ItemID        string
	DocumentID    string
	EvidenceText  string
	ClauseKeyword string
}

// Registry is a process-local, mutex-guarded store of documents and
// report items, standing in for the persistence layer spec.md §1 excludes.
type Registry struct {
	mu        sync.RWMutex
	documents map[string]Record
	items     map[string]map[string]ReportItem // reportID -> itemID -> item
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		documents: make(map[string]Record),
		items:     make(map[string]map[string]ReportItem),
	}
}

// PutDocument registers or replaces a document mapping.
func (r *Registry) PutDocument(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[rec.DocumentID] = rec
}

// Document looks up a document by id.
func (r *Registry) Document(documentID string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.documents[documentID]
	return rec, ok
}

// IngestReport stores a batch of report items under reportID, replacing any
// items previously stored under that id.
func (r *Registry) IngestReport(reportID string, items []ReportItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byItem := make(map[string]ReportItem, len(items))
	for _, it := range items {
		byItem[it.ItemID] = it
	}
	r.items[reportID] = byItem
}

// Item looks up a single report item.
func (r *Registry) Item(reportID, itemID string) (ReportItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byItem, ok := r.items[reportID]
	if !ok {
		return ReportItem{}, false
	}
	item, ok := byItem[itemID]
	return item, ok
}

// NotFoundError reports a missing document or report item lookup.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
