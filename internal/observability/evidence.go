// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"os"
)

// Component name constants for the five locator stages plus the service
// layer, used as the `component` argument to StartTiming/StartStep.
const (
	ComponentIndex        = "pdf_line_index"
	ComponentQueryBuilder = "query_builder"
	ComponentScorer       = "scorer"
	ComponentRanker       = "ranker"
	ComponentHighlight    = "highlight_resolver"
	ComponentEvidenceSvc  = "evidence_service"
)

// FromEnv builds an observer from EVIDENCE_DEBUG: "1"/"true"/"TRUE" selects
// a DebugObserver writing JSON lines to stderr, anything else yields an
// ObservabilityMetrics-level StandardObserver (which writes nothing, since
// LogOperation only emits at the debug level), and an unset/empty value
// disables observability entirely.
func FromEnv() *StandardObserver {
	switch os.Getenv("EVIDENCE_DEBUG") {
	case "1", "true", "TRUE":
		return NewDebugObserver(os.Stderr).StandardObserver
	case "":
		return NewStandardObserver(ObservabilityOff, os.Stderr)
	default:
		return NewStandardObserver(ObservabilityMetrics, os.Stderr)
	}
}
