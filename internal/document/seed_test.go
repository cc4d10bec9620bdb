// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedEmbedded_PopulatesDocumentsAndItems(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, SeedEmbedded(reg))

	doc, ok := reg.Document("doc-sample-contract")
	require.True(t, ok)
	assert.Equal(t, "sample-contract.pdf", doc.FileName)

	item, ok := reg.Item("rep-seed-001", "item-001")
	require.True(t, ok)
	assert.Equal(t, "doc-sample-contract", item.DocumentID)
	assert.Equal(t, "18.3", item.ClauseKeyword)
	assert.NotEmpty(t, item.EvidenceText)
}

func TestSeedEmbedded_IsIdempotent(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, SeedEmbedded(reg))
	require.NoError(t, SeedEmbedded(reg))

	_, ok := reg.Item("rep-seed-001", "item-002")
	assert.True(t, ok)
}
