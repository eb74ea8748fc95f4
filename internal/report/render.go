// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/paperxai/pkg/types"
)

// Output formats.
const (
	FormatConsole  = "console"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Template markers replaced by WriteHTML.
const (
	MarkerReport     = "{report_string}"
	MarkerOldestDate = "{oldest_paper_date_string}"
)

// ErrReportEmpty is returned when rendering a report that was never built.
var ErrReportEmpty = errors.New("report is empty; create the report first")

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported report format")

//go:embed template.html
var defaultTemplate string

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render renders r in the given format.
func Render(r *types.Report, format string) (string, error) {
	if r.IsEmpty() {
		return "", ErrReportEmpty
	}
	switch strings.ToLower(format) {
	case FormatConsole:
		return RenderConsole(r), nil
	case FormatHTML:
		return RenderHTML(r, HTMLOptions{})
	case FormatMarkdown, "md":
		return RenderMarkdown(r), nil
	default:
		return "", fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// RenderConsole lists each section title followed by its questions and
// responses.
func RenderConsole(r *types.Report) string {
	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString("Section: " + s.Title + "\n\n")
		for i, q := range s.Questions {
			b.WriteString("Question: " + q + "\n")
			b.WriteString("LLM response: " + s.ChatResponses[i] + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTMLOptions adjust RenderHTML.
type HTMLOptions struct {
	// Markdown converts responses from Markdown to HTML with goldmark and
	// escapes titles, questions, and citations. Without it every text is
	// written verbatim.
	Markdown bool
}

// RenderHTML renders the report body as an HTML fragment nesting section,
// question, response, and the cited papers.
func RenderHTML(r *types.Report, opts HTMLOptions) (string, error) {
	text := func(s string) string { return s }
	if opts.Markdown {
		text = html.EscapeString
	}

	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString("<h2> Section: " + text(s.Title) + "</h2>\n")
		for i, q := range s.Questions {
			b.WriteString("<h3> Question: " + text(q) + "</h3>\n")

			if opts.Markdown {
				var resp bytes.Buffer
				if err := markdown.Convert([]byte(s.ChatResponses[i]), &resp); err != nil {
					return "", fmt.Errorf("converting response to HTML: %w", err)
				}
				b.WriteString(`<div class="response">` + "\n")
				b.Write(resp.Bytes())
				b.WriteString("</div>\n")
			} else {
				b.WriteString("<p>" + s.ChatResponses[i] + "</p>\n")
			}

			b.WriteString("<h4> Papers </h4>")
			b.WriteString(citationList(s.Papers[i], text))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func citationList(papers []types.Paper, text func(string) string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, p := range papers {
		b.WriteString("<li> " + text(p.Citation()) + "</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// RenderMarkdown renders the report as a Markdown document body.
func RenderMarkdown(r *types.Report) string {
	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString("## Section: " + s.Title + "\n\n")
		for i, q := range s.Questions {
			b.WriteString("### Question: " + q + "\n\n")
			b.WriteString(strings.TrimSpace(s.ChatResponses[i]) + "\n\n")
			b.WriteString("#### Papers\n\n")
			for _, p := range s.Papers[i] {
				b.WriteString("- " + p.Citation() + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// OldestDateString formats the oldest cited paper date, or "n/a" when no
// papers were cited.
func OldestDateString(r *types.Report) string {
	if d, ok := r.OldestPaperDate(); ok {
		return d.UTC().Format(types.DateFormat)
	}
	return "n/a"
}

// LoadTemplate reads the HTML template at path, or returns the built-in
// template when path is empty.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(data), nil
}

// FillTemplate substitutes both markers in tmpl.
func FillTemplate(tmpl, body, oldestDate string) string {
	return strings.NewReplacer(
		MarkerReport, body,
		MarkerOldestDate, oldestDate,
	).Replace(tmpl)
}
