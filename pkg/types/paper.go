// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the day-resolution layout used in string representations,
// report headers, and report file names.
const DateFormat = "2006-01-02"

// Paper holds the normalized metadata for one fetched research article.
// Papers are identified by ID and never modified after they are fetched.
type Paper struct {
	// ID is the source identifier (e.g. "2310.01234v1" for arXiv).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with surrounding whitespace removed.
	Title string `json:"title" yaml:"title"`

	// URL is the landing page of the paper.
	URL string `json:"url" yaml:"url"`

	// Abstract is the paper summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the first-submission timestamp in UTC.
	Published time.Time `json:"published" yaml:"published"`

	// Category is the primary subject category (e.g. "cs.AI").
	Category string `json:"category" yaml:"category"`

	// StringRepresentation is the single text block that gets embedded and
	// quoted in prompts. See BuildStringRepresentation.
	StringRepresentation string `json:"string_representation" yaml:"string_representation"`
}

// FirstAuthor returns the first listed author, or "" when there are none.
func (p Paper) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// FirstAuthorLastName returns the last whitespace-separated token of the
// first author's name, or "Unknown" when the paper has no authors.
func (p Paper) FirstAuthorLastName() string {
	fields := strings.Fields(p.FirstAuthor())
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[len(fields)-1]
}

// Citation formats the paper as "<Title>. <LastName> et al. <Year>".
func (p Paper) Citation() string {
	return fmt.Sprintf("%s. %s et al. %d", p.Title, p.FirstAuthorLastName(), p.Published.Year())
}

// BuildStringRepresentation derives the text block used for embedding.
func BuildStringRepresentation(p Paper) string {
	var b strings.Builder
	b.WriteString("Title: " + p.Title + "\n")
	b.WriteString("Abstract: " + p.Abstract + "\n")
	b.WriteString("First Author: " + p.FirstAuthor() + "\n")
	b.WriteString("Published Date: " + p.Published.UTC().Format(DateFormat) + "\n")
	return b.String()
}
