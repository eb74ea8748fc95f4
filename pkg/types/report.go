// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SectionConfig is one entry of the report configuration: a titled group of
// questions, in the order they appear in the config file.
type SectionConfig struct {
	// ID is the mapping key used for the section in the config file.
	ID string `json:"id" yaml:"id"`

	// Title is the section heading shown in the report.
	Title string `json:"title" yaml:"title" validate:"required"`

	// Questions are asked in order.
	Questions []string `json:"questions" yaml:"questions" validate:"dive,required"`
}

// ReportConfig declares what a report asks. Sections keep config order.
type ReportConfig struct {
	Sections []SectionConfig `json:"sections" yaml:"sections" validate:"dive"`
}

// ReportSection holds the answers for one configured section. Questions,
// ChatResponses, and Papers are index-aligned.
type ReportSection struct {
	Title         string    `json:"title" yaml:"title"`
	Questions     []string  `json:"questions" yaml:"questions"`
	ChatResponses []string  `json:"chat_responses" yaml:"chat_responses"`
	Papers        [][]Paper `json:"papers" yaml:"papers"`
}

// Add appends one answered question to the section.
func (s *ReportSection) Add(question, response string, papers []Paper) {
	s.Questions = append(s.Questions, question)
	s.ChatResponses = append(s.ChatResponses, response)
	s.Papers = append(s.Papers, papers)
}

// Report is the finished artifact: sections in config order plus the union
// of every paper cited anywhere in the report.
type Report struct {
	Sections    []ReportSection `json:"sections" yaml:"sections"`
	CitedPapers []Paper         `json:"cited_papers" yaml:"cited_papers"`
}

// IsEmpty reports whether the report has no sections.
func (r *Report) IsEmpty() bool {
	return r == nil || len(r.Sections) == 0
}

// Section returns the section with the given title.
func (r *Report) Section(title string) (*ReportSection, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Sections {
		if r.Sections[i].Title == title {
			return &r.Sections[i], true
		}
	}
	return nil, false
}

// OldestPaperDate returns the earliest publication date among cited papers.
// The boolean is false when no papers were cited.
func (r *Report) OldestPaperDate() (time.Time, bool) {
	if r == nil || len(r.CitedPapers) == 0 {
		return time.Time{}, false
	}
	oldest := r.CitedPapers[0].Published
	for _, p := range r.CitedPapers[1:] {
		if p.Published.Before(oldest) {
			oldest = p.Published
		}
	}
	return oldest, true
}
