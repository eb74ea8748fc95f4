// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperxai/internal/llm/llmtest"
	"github.com/pdiddy/paperxai/internal/retrieve"
	"github.com/pdiddy/paperxai/pkg/types"
)

func corpus() ([][]float32, []types.Paper) {
	papers := []types.Paper{
		{ID: "1", Title: "Policy Gradients", Authors: []string{"Richard S. Sutton"}, Published: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Title: "Q-Learning Revisited", Authors: []string{"Chris Watkins", "Peter Dayan"}, Published: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "3", Title: "Vision Transformers", Authors: []string{"Alexey Dosovitskiy"}, Published: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "4", Title: "Untitled", Published: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i := range papers {
		papers[i].StringRepresentation = types.BuildStringRepresentation(papers[i])
	}
	emb := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}, {0, 0, 1}}
	return emb, papers
}

func oneSectionConfig() types.ReportConfig {
	return types.ReportConfig{Sections: []types.SectionConfig{
		{ID: "intro", Title: "Intro", Questions: []string{"What is reinforcement learning?"}},
	}}
}

func newTestAssembler(cfg types.ReportConfig, fake *llmtest.Fake) *Assembler {
	emb, papers := corpus()
	return NewAssembler(cfg, retrieve.New(fake), fake, emb, papers)
}

func rlFake() *llmtest.Fake {
	return &llmtest.Fake{
		Vectors: map[string][]float32{
			"What is reinforcement learning?": {1, 0, 0},
			"What about vision?":              {0, 1, 0},
		},
		Reply: func(string) (string, error) {
			return "Reinforcement learning trains agents from rewards (Sutton, 2024).", nil
		},
	}
}

func TestRenderBeforeCreate(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())

	for _, f := range []string{FormatConsole, FormatHTML, FormatMarkdown} {
		_, err := a.Render(f)
		assert.ErrorIs(t, err, ErrReportEmpty, f)
	}
	_, err := a.WriteHTML(t.TempDir())
	assert.ErrorIs(t, err, ErrReportEmpty)
	assert.Equal(t, StateEmpty, a.State())
}

func TestCreate_OneSectionOneQuestion(t *testing.T) {
	fake := rlFake()
	a := newTestAssembler(oneSectionConfig(), fake)

	r, err := a.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateComplete, a.State())

	require.Len(t, r.Sections, 1)
	s, ok := r.Section("Intro")
	require.True(t, ok)
	require.Len(t, s.Questions, 1)
	require.Len(t, s.ChatResponses, 1)
	require.Len(t, s.Papers, 1)
	require.Len(t, s.Papers[0], 3)
	assert.Equal(t, "1", s.Papers[0][0].ID)
	assert.Equal(t, "2", s.Papers[0][1].ID)

	prompts := fake.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Question: What is reinforcement learning?\n")
	assert.True(t, strings.HasSuffix(prompts[0], "Answer: "))
	assert.Len(t, r.CitedPapers, 3)
}

func TestRenderHTML_ContainsContentAndCitations(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	out, err := a.Render(FormatHTML)
	require.NoError(t, err)

	assert.Contains(t, out, "<h2> Section: Intro</h2>")
	assert.Contains(t, out, "What is reinforcement learning?")
	assert.Contains(t, out, "Reinforcement learning trains agents from rewards (Sutton, 2024).")
	assert.Equal(t, 3, strings.Count(out, "<li> "))
	assert.Contains(t, out, "<li> Policy Gradients. Sutton et al. 2024</li>")
	assert.Contains(t, out, "<li> Q-Learning Revisited. Watkins et al. 2024</li>")
}

func TestRenderHTML_WritesTextVerbatim(t *testing.T) {
	response := `Sutton et al. (2024) call RL "learning from interaction" & use *reward*_signals.`
	question := "What's new in RL & control?"
	r := &types.Report{Sections: []types.ReportSection{{
		Title:         "Agents & Rewards",
		Questions:     []string{question},
		ChatResponses: []string{response},
		Papers:        [][]types.Paper{{{Title: "T & U", Published: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}}},
	}}}

	out, err := RenderHTML(r, HTMLOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "<h2> Section: Agents & Rewards</h2>")
	assert.Contains(t, out, "<h3> Question: "+question+"</h3>")
	assert.Contains(t, out, "<p>"+response+"</p>")
	assert.Contains(t, out, "<li> T & U. Unknown et al. 2023</li>")

	viaFormat, err := Render(r, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, out, viaFormat)
}

func TestRenderHTML_MarkdownEscapesAndConverts(t *testing.T) {
	r := &types.Report{Sections: []types.ReportSection{{
		Title:         "A <b> & B",
		Questions:     []string{"x < y?"},
		ChatResponses: []string{"**bold** answer"},
		Papers:        [][]types.Paper{{{Title: "T & U", Published: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}}},
	}}}

	out, err := RenderHTML(r, HTMLOptions{Markdown: true})
	require.NoError(t, err)
	assert.Contains(t, out, "Section: A &lt;b&gt; &amp; B")
	assert.Contains(t, out, "Question: x &lt; y?")
	assert.Contains(t, out, `<div class="response">`)
	assert.Contains(t, out, "<strong>bold</strong> answer")
	assert.Contains(t, out, "<li> T &amp; U. Unknown et al. 2023</li>")
}

func TestAssembler_MarkdownResponses(t *testing.T) {
	fake := rlFake()
	fake.Reply = func(string) (string, error) { return "RL is *trial & error*.", nil }

	plain := newTestAssembler(oneSectionConfig(), fake)
	_, err := plain.Create(context.Background())
	require.NoError(t, err)
	out, err := plain.Render(FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>RL is *trial & error*.</p>")

	md := newTestAssembler(oneSectionConfig(), fake)
	md.MarkdownResponses = true
	_, err = md.Create(context.Background())
	require.NoError(t, err)
	out, err = md.Render(FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, out, "<em>trial &amp; error</em>")
}

func TestRenderConsole(t *testing.T) {
	r := &types.Report{Sections: []types.ReportSection{
		{Title: "One", Questions: []string{"q1", "q2"}, ChatResponses: []string{"r1", "r2"}, Papers: [][]types.Paper{nil, nil}},
		{Title: "Two", Questions: []string{"q3"}, ChatResponses: []string{"r3"}, Papers: [][]types.Paper{nil}},
	}}
	want := "Section: One\n\n" +
		"Question: q1\nLLM response: r1\n" +
		"Question: q2\nLLM response: r2\n" +
		"\n" +
		"Section: Two\n\n" +
		"Question: q3\nLLM response: r3\n" +
		"\n"
	got, err := Render(r, "console")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenderMarkdown(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	out, err := a.Render("markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Section: Intro\n")
	assert.Contains(t, out, "### Question: What is reinforcement learning?\n")
	assert.Contains(t, out, "#### Papers\n\n- Policy Gradients. Sutton et al. 2024\n")
}

func TestRender_UnsupportedFormat(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	_, err = a.Render("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCreate_MultipleSectionsKeepOrderAndUnion(t *testing.T) {
	cfg := types.ReportConfig{Sections: []types.SectionConfig{
		{ID: "b", Title: "Second", Questions: []string{"What is reinforcement learning?"}},
		{ID: "a", Title: "First", Questions: []string{"What about vision?", "What is reinforcement learning?"}},
	}}
	a := newTestAssembler(cfg, rlFake())

	r, err := a.Create(context.Background())
	require.NoError(t, err)
	require.Len(t, r.Sections, 2)
	assert.Equal(t, "Second", r.Sections[0].Title)
	assert.Equal(t, "First", r.Sections[1].Title)
	assert.Len(t, r.Sections[1].ChatResponses, 2)

	var citedIDs []string
	for _, p := range r.CitedPapers {
		citedIDs = append(citedIDs, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, citedIDs)

	oldest, ok := r.OldestPaperDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), oldest)
}

func TestCreate_FailureResetsToEmpty(t *testing.T) {
	fake := rlFake()
	fake.ChatErr = errors.New("provider down")
	a := newTestAssembler(oneSectionConfig(), fake)

	_, err := a.Create(context.Background())
	assert.ErrorContains(t, err, "provider down")
	assert.Equal(t, StateEmpty, a.State())
	assert.Nil(t, a.Report())

	_, err = a.Render(FormatConsole)
	assert.ErrorIs(t, err, ErrReportEmpty)
}

func TestCreate_NoSectionsStaysEmpty(t *testing.T) {
	a := newTestAssembler(types.ReportConfig{}, rlFake())
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	_, err = a.Render(FormatHTML)
	assert.ErrorIs(t, err, ErrReportEmpty)
}

func TestWriteHTML(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())
	a.Now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := a.WriteHTML(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-10-19-report.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "Papers published since 2024-01-15.")
	assert.Contains(t, page, "<h2> Section: Intro</h2>")
	assert.NotContains(t, page, MarkerReport)
	assert.NotContains(t, page, MarkerOldestDate)
}

func TestWriteHTML_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<body>{oldest_paper_date_string}|{report_string}</body>"), 0o644))

	a := newTestAssembler(oneSectionConfig(), rlFake())
	a.TemplatePath = tmpl
	a.Now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	path, err := a.WriteHTML(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<body>2024-01-15|<h2> Section: Intro</h2>"))
}

func TestWriteMarkdown(t *testing.T) {
	a := newTestAssembler(oneSectionConfig(), rlFake())
	a.Now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	_, err := a.Create(context.Background())
	require.NoError(t, err)

	path, err := a.WriteMarkdown(t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "2026-10-19-report.md"))
}

func TestOldestDateString_NoPapers(t *testing.T) {
	r := &types.Report{Sections: []types.ReportSection{{Title: "x"}}}
	assert.Equal(t, "n/a", OldestDateString(r))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "building", StateBuilding.String())
	assert.Equal(t, "complete", StateComplete.String())
}
