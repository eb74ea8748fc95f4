// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperxai/pkg/types"
)

func TestWriteReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arxiv", "base_papers.csv")
	in := []types.Paper{
		{
			ID:        "2401.00001v1",
			Title:     "Commas, \"quotes\" and\nnewlines",
			URL:       "http://arxiv.org/abs/2401.00001v1",
			Abstract:  "Line one.\nLine two.",
			Authors:   []string{"Ada Lovelace", "Alan Turing"},
			Published: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Category:  "cs.AI",
		},
		{
			ID:        "2401.00002v2",
			Title:     "No authors",
			Published: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for i := range in {
		in[i].StringRepresentation = types.BuildStringRepresentation(in[i])
	}

	require.NoError(t, WriteCSV(path, in))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestWriteCSV_Header(t *testing.T) {
	var b strings.Builder
	require.NoError(t, EncodeCSV(&b, nil))
	assert.Equal(t,
		"Paper ID,Title,URL,Abstract,Authors,Published Date,Category,String_representation\n",
		b.String())
}

func TestReadCSV_Missing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeCSV_LegacyDateAndColumnOrder(t *testing.T) {
	data := "Title,Paper ID,Published Date,Authors\n" +
		"Old paper,1234.5678v1,2024-02-01 10:00:00+00:00,Grace Hopper\n"

	got, err := DecodeCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "1234.5678v1", got[0].ID)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), got[0].Published)
	assert.Equal(t, []string{"Grace Hopper"}, got[0].Authors)
	assert.Contains(t, got[0].StringRepresentation, "First Author: Grace Hopper")
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{"missing id column", "Title,Published Date\nx,2024-01-01T00:00:00Z\n", "missing column"},
		{"bad date", "Paper ID,Published Date\nx,yesterday\n", "line 2"},
		{"empty id", "Paper ID,Published Date\na,2024-01-01T00:00:00Z\n,2024-01-02T00:00:00Z\n", `line 3: empty "Paper ID"`},
		{"blank id", "Paper ID,Published Date\n  ,2024-01-01T00:00:00Z\n", `line 2: empty "Paper ID"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDecodeCSV_Empty(t *testing.T) {
	got, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
