// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one archived report flattened for export.
type ExportEntry struct {
	ID              string          `json:"id" yaml:"id"`
	CreatedAt       string          `json:"created_at" yaml:"created_at"`
	OldestPaperDate string          `json:"oldest_paper_date" yaml:"oldest_paper_date"`
	Sections        []ExportSection `json:"sections" yaml:"sections"`
}

// ExportSection holds the answers of one report section.
type ExportSection struct {
	Title   string         `json:"title" yaml:"title"`
	Answers []ExportAnswer `json:"answers" yaml:"answers"`
}

// ExportAnswer is a question with its response and cited papers.
type ExportAnswer struct {
	Question  string   `json:"question" yaml:"question"`
	Response  string   `json:"response" yaml:"response"`
	Citations []string `json:"citations" yaml:"citations"`
}

const exportLimit = 100000

// ExportYAML writes the report with the given id, or every archived report
// when id is empty, to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, id string) error {
	entries, err := s.exportEntries(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON is ExportYAML with JSON output.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, id string) error {
	entries, err := s.exportEntries(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) exportEntries(ctx context.Context, id string) ([]ExportEntry, error) {
	var ids []string
	if id != "" {
		ids = []string{id}
	} else {
		sums, err := s.List(ctx, exportLimit)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
		for _, sum := range sums {
			ids = append(ids, sum.ID)
		}
	}

	entries := make([]ExportEntry, 0, len(ids))
	for _, rid := range ids {
		rec, err := s.Show(ctx, rid)
		if err != nil {
			return nil, err
		}
		entries = append(entries, toExport(rec))
	}
	return entries, nil
}

func toExport(rec *Record) ExportEntry {
	e := ExportEntry{
		ID:              rec.ID,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		OldestPaperDate: rec.OldestPaperDate,
	}
	for _, sec := range rec.Report.Sections {
		es := ExportSection{Title: sec.Title}
		for i, q := range sec.Questions {
			a := ExportAnswer{Question: q, Response: sec.ChatResponses[i], Citations: []string{}}
			if i < len(sec.Papers) {
				for _, p := range sec.Papers[i] {
					a.Citations = append(a.Citations, p.Citation())
				}
			}
			es.Answers = append(es.Answers, a)
		}
		e.Sections = append(e.Sections, es)
	}
	return e
}
