// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report answers the configured questions against the paper
// collection and renders the result.
package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperxai/internal/fileutil"
	"github.com/pdiddy/paperxai/internal/llm"
	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/prompt"
	"github.com/pdiddy/paperxai/internal/retrieve"
	"github.com/pdiddy/paperxai/pkg/types"
)

// State is the assembler lifecycle stage.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateComplete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Retriever selects the papers most relevant to a query.
type Retriever interface {
	TopK(ctx context.Context, query string, embeddings [][]float32, papers []types.Paper, k int) ([]types.Paper, error)
}

// Assembler builds a report from a ReportConfig. It moves from empty to
// building to complete; a failed build returns it to empty, and a partially
// built report is never exposed.
type Assembler struct {
	Config     types.ReportConfig
	Retriever  Retriever
	Chat       llm.Chatter
	Prompts    *prompt.Builder
	Embeddings [][]float32
	Papers     []types.Paper

	// K is the number of papers retrieved per question.
	K int

	// TemplatePath overrides the built-in HTML template.
	TemplatePath string

	// MarkdownResponses renders HTML responses through goldmark.
	MarkdownResponses bool

	// Now is the clock used for output file names. Nil uses time.Now.
	Now func() time.Time

	Logger  zerolog.Logger
	Metrics *observability.Metrics

	state  State
	report *types.Report
}

// NewAssembler returns an empty assembler over papers and their
// index-aligned embeddings.
func NewAssembler(cfg types.ReportConfig, r Retriever, chat llm.Chatter, embeddings [][]float32, papers []types.Paper) *Assembler {
	return &Assembler{
		Config:     cfg,
		Retriever:  r,
		Chat:       chat,
		Prompts:    prompt.New(""),
		Embeddings: embeddings,
		Papers:     papers,
		K:          retrieve.DefaultK,
		Logger:     zerolog.Nop(),
	}
}

// State returns the current lifecycle stage.
func (a *Assembler) State() State { return a.state }

// Report returns the finished report, or nil before Create succeeds.
func (a *Assembler) Report() *types.Report {
	if a.state != StateComplete {
		return nil
	}
	return a.report
}

// Create answers every question of every section in config order. For each
// question it retrieves the top K papers, builds the prompt, and asks the
// chat model. The first failure aborts the whole report.
func (a *Assembler) Create(ctx context.Context) (*types.Report, error) {
	a.state = StateBuilding
	a.report = nil

	r, err := a.build(ctx)
	if err != nil {
		a.state = StateEmpty
		return nil, err
	}

	a.report = r
	a.state = StateComplete
	return r, nil
}

func (a *Assembler) build(ctx context.Context) (*types.Report, error) {
	builder := a.Prompts
	if builder == nil {
		builder = prompt.New("")
	}

	r := &types.Report{}
	cited := map[string]struct{}{}

	for _, sc := range a.Config.Sections {
		log := a.Logger.With().Str("section", sc.Title).Logger()
		log.Info().Int("questions", len(sc.Questions)).Msg("getting responses for section")

		section := types.ReportSection{Title: sc.Title}
		for _, q := range sc.Questions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			log.Info().Str("question", q).Msg("answering question")

			papers, err := a.Retriever.TopK(ctx, q, a.Embeddings, a.Papers, a.K)
			if err != nil {
				return nil, fmt.Errorf("section %q: retrieving papers for %q: %w", sc.Title, q, err)
			}
			p, err := builder.Build(q, papers)
			if err != nil {
				return nil, fmt.Errorf("section %q: building prompt: %w", sc.Title, err)
			}
			resp, err := a.Chat.Chat(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("section %q: answering %q: %w", sc.Title, q, err)
			}

			section.Add(q, resp, papers)
			a.Metrics.RecordQuestion()

			for _, paper := range papers {
				if _, ok := cited[paper.ID]; ok {
					continue
				}
				cited[paper.ID] = struct{}{}
				r.CitedPapers = append(r.CitedPapers, paper)
			}
		}
		r.Sections = append(r.Sections, section)
	}
	return r, nil
}

// Render renders the built report. It fails with ErrReportEmpty before a
// successful Create.
func (a *Assembler) Render(format string) (string, error) {
	r := a.Report()
	if strings.EqualFold(format, FormatHTML) && !r.IsEmpty() {
		return RenderHTML(r, HTMLOptions{Markdown: a.MarkdownResponses})
	}
	return Render(r, format)
}

// WriteHTML fills the HTML template and writes <outDir>/<date>-report.html.
// It returns the written path.
func (a *Assembler) WriteHTML(outDir string) (string, error) {
	r := a.Report()
	body, err := a.Render(FormatHTML)
	if err != nil {
		return "", err
	}
	tmpl, err := LoadTemplate(a.TemplatePath)
	if err != nil {
		return "", err
	}
	page := FillTemplate(tmpl, body, OldestDateString(r))
	return a.writeDated(outDir, "report.html", page)
}

// WriteMarkdown writes <outDir>/<date>-report.md and returns its path.
func (a *Assembler) WriteMarkdown(outDir string) (string, error) {
	r := a.Report()
	body, err := Render(r, FormatMarkdown)
	if err != nil {
		return "", err
	}
	doc := "# Research report\n\nPapers published since " + OldestDateString(r) + ".\n\n" + body
	return a.writeDated(outDir, "report.md", doc)
}

func (a *Assembler) writeDated(outDir, suffix, content string) (string, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	path := filepath.Join(outDir, now().UTC().Format(types.DateFormat)+"-"+suffix)
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, strings.NewReader(content))
		return err
	})
	if err != nil {
		return "", err
	}
	a.Logger.Info().Str("path", path).Msg("report written")
	return path, nil
}
