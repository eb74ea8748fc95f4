// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/paperxai/internal/fileutil"
	"github.com/pdiddy/paperxai/pkg/types"
)

// CSV column names, in file order.
const (
	colID        = "Paper ID"
	colTitle     = "Title"
	colURL       = "URL"
	colAbstract  = "Abstract"
	colAuthors   = "Authors"
	colPublished = "Published Date"
	colCategory  = "Category"
	colRepr      = "String_representation"
)

var csvHeader = []string{colID, colTitle, colURL, colAbstract, colAuthors, colPublished, colCategory, colRepr}

// authorSeparator joins author names inside a single CSV cell.
const authorSeparator = "; "

// WriteCSV writes papers to path atomically.
func WriteCSV(path string, papers []types.Paper) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return EncodeCSV(w, papers)
	})
}

// EncodeCSV writes the header row followed by one row per paper.
func EncodeCSV(w io.Writer, papers []types.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range papers {
		row := []string{
			p.ID,
			p.Title,
			p.URL,
			p.Abstract,
			strings.Join(p.Authors, authorSeparator),
			p.Published.UTC().Format(time.RFC3339),
			p.Category,
			p.StringRepresentation,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads papers from path. A missing file returns an error matching
// os.ErrNotExist.
func ReadCSV(path string) ([]types.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	papers, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return papers, nil
}

// DecodeCSV parses papers written by EncodeCSV. Columns are located by
// header name so extra or reordered columns are tolerated.
func DecodeCSV(r io.Reader) ([]types.Paper, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colID, colPublished} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var papers []types.Paper
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id := strings.TrimSpace(field(row, colID))
		if id == "" {
			return nil, fmt.Errorf("line %d: empty %q", line, colID)
		}
		published, err := parsePublished(field(row, colPublished))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		p := types.Paper{
			ID:                   id,
			Title:                field(row, colTitle),
			URL:                  field(row, colURL),
			Abstract:             field(row, colAbstract),
			Authors:              splitAuthors(field(row, colAuthors)),
			Published:            published,
			Category:             field(row, colCategory),
			StringRepresentation: field(row, colRepr),
		}
		if p.StringRepresentation == "" {
			p.StringRepresentation = types.BuildStringRepresentation(p)
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// parsePublished accepts RFC 3339 and the "YYYY-MM-DD HH:MM:SS+00:00" form
// produced by older store files.
func parsePublished(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05-07:00", types.DateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid published date %q", s)
}

func splitAuthors(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, strings.TrimSpace(authorSeparator))
	authors := make([]string, 0, len(parts))
	for _, a := range parts {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}
