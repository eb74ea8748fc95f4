// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the question prompt sent to the chat model.
package prompt

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/paperxai/pkg/types"
)

// DefaultPersona instructs the model to answer from the supplied papers and
// cite them by author and date.
const DefaultPersona = "You are an expert researcher in the field of artificial intelligence. " +
	"You can accurately summarize a complex scientific abstract into a single sentence and use it " +
	"to answer larger scientific questions. You should cite the papers in your answer to the question. " +
	"When citing a paper, use the name of the author given to you as well as the date. "

// questionTmpl is persona, question, label, then each paper's string
// representation in retrieval order. Representations end in a newline.
var questionTmpl = template.Must(template.New("question").Parse(
	"{{.Persona}}\n" +
		"Question: {{.Question}}\n" +
		"The top 3 papers that are relevant to this question are: \n" +
		"{{range .Papers}}{{.}}{{end}}" +
		"Answer: "))

// Builder renders prompts with a fixed persona.
type Builder struct {
	Persona string
}

// New returns a Builder. An empty persona selects DefaultPersona.
func New(persona string) *Builder {
	if persona == "" {
		persona = DefaultPersona
	}
	return &Builder{Persona: persona}
}

// Build renders the prompt for question and its retrieved papers. The
// prompt is not truncated.
func (b *Builder) Build(question string, papers []types.Paper) (string, error) {
	reprs := make([]string, len(papers))
	for i, p := range papers {
		reprs[i] = p.StringRepresentation
		if reprs[i] == "" {
			reprs[i] = types.BuildStringRepresentation(p)
		}
	}

	var buf bytes.Buffer
	err := questionTmpl.Execute(&buf, struct {
		Persona  string
		Question string
		Papers   []string
	}{b.Persona, question, reprs})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
