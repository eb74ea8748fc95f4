// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the paperxai stages end to end: fetch and persist
// papers, embed the current papers, answer the configured questions, and
// write the rendered report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperxai/internal/archive"
	"github.com/pdiddy/paperxai/internal/embed"
	"github.com/pdiddy/paperxai/internal/llm"
	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/papers"
	"github.com/pdiddy/paperxai/internal/prompt"
	"github.com/pdiddy/paperxai/internal/report"
	"github.com/pdiddy/paperxai/internal/retrieve"
	"github.com/pdiddy/paperxai/internal/retry"
	"github.com/pdiddy/paperxai/pkg/types"
)

// SourceDir is the store directory under data_dir for arXiv artifacts.
const SourceDir = "arxiv"

// Options adjust a single report run.
type Options struct {
	// SkipFetch reports on the existing current_papers.csv.
	SkipFetch bool

	// ReuseEmbeddings reads the cached matrix instead of embedding again.
	// The cache is ignored unless it was computed from the same papers in
	// the same order.
	ReuseEmbeddings bool

	// Formats overrides report.formats from the config.
	Formats []string
}

// FetchResult summarizes a fetch run.
type FetchResult struct {
	Fetched int
	Persist papers.PersistResult
}

// ReportResult summarizes a report run.
type ReportResult struct {
	Fetch     *FetchResult
	Papers    int
	Report    *types.Report
	Paths     []string
	ArchiveID string
}

// Pipeline holds the components of one configured paperxai instance.
type Pipeline struct {
	Config   *types.Config
	Source   papers.Source
	Store    *papers.Store
	Provider llm.Provider
	Archive  *archive.Store
	Prompts  *prompt.Builder

	// Out receives console-format reports.
	Out io.Writer

	// Now is the clock shared by the store and report file names.
	Now func() time.Time

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewProvider builds the configured language-model provider wrapped in the
// retry policy from cfg.
func NewProvider(ctx context.Context, cfg *types.Config, creds llm.Credentials, logger zerolog.Logger, metrics *observability.Metrics) (llm.Provider, error) {
	p, err := llm.New(ctx, cfg.LanguageModel, creds)
	if err != nil {
		return nil, err
	}
	log := observability.WithProviderContext(logger, p.Name(), cfg.LanguageModel.InitArgs.ChatModel)
	return llm.NewRetrying(p, retry.FromConfig(cfg.Retry), log, metrics), nil
}

// New wires the arXiv source, paper store, and optional archive around
// provider. Close releases the archive.
func New(cfg *types.Config, provider llm.Provider, logger zerolog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	p := &Pipeline{
		Config:   cfg,
		Provider: provider,
		Prompts:  prompt.New(""),
		Out:      os.Stdout,
		Now:      time.Now,
		Logger:   logger,
		Metrics:  metrics,
	}

	p.Store = papers.NewStore(filepath.Join(cfg.DataDir, SourceDir), logger)
	p.Store.Metrics = metrics
	p.Store.Now = func() time.Time { return p.Now() }

	p.Source = papers.NewArxiv(cfg.Fetch, p.Store, retry.FromConfig(cfg.Retry), logger, metrics)

	if cfg.Archive.Enabled {
		a, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("opening report archive: %w", err)
		}
		p.Archive = a
	}
	return p, nil
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p.Archive != nil {
		return p.Archive.Close()
	}
	return nil
}

// MatrixPath returns the cached embedding matrix location.
func (p *Pipeline) MatrixPath() string {
	return filepath.Join(p.Store.Dir, embed.FileName)
}

// Fetch pulls up to maxResults papers and merges them into the store.
// Zero uses max_results from the config.
func (p *Pipeline) Fetch(ctx context.Context, maxResults int) (res *FetchResult, err error) {
	defer p.track("fetch", time.Now(), &err)

	if maxResults <= 0 {
		maxResults = p.Config.MaxResults
	}
	return p.fetch(ctx, maxResults)
}

func (p *Pipeline) fetch(ctx context.Context, maxResults int) (*FetchResult, error) {
	fetched, err := p.Source.Fetch(ctx, p.Config.Categories, maxResults)
	if err != nil {
		return nil, fmt.Errorf("fetching papers: %w", err)
	}
	persisted, err := p.Source.Persist(fetched)
	if err != nil {
		return nil, fmt.Errorf("persisting papers: %w", err)
	}
	return &FetchResult{Fetched: len(fetched), Persist: persisted}, nil
}

// Report runs the full pipeline: fetch (unless skipped), embed the current
// papers, build the report, and emit every configured format.
func (p *Pipeline) Report(ctx context.Context, opts Options) (res *ReportResult, err error) {
	defer p.track("report", time.Now(), &err)

	log := observability.WithRunContext(p.Logger, uuid.NewString())
	res = &ReportResult{}

	var current []types.Paper
	if opts.SkipFetch {
		current, err = p.Store.LoadCurrent()
		if err != nil {
			return nil, fmt.Errorf("loading current papers: %w", err)
		}
		log.Info().Int("papers", len(current)).Msg("using stored current papers")
	} else {
		fr, err := p.fetch(ctx, p.Config.ReportMaxPapers())
		if err != nil {
			return nil, err
		}
		res.Fetch = fr
		current = fr.Persist.New
	}
	res.Papers = len(current)
	if len(current) == 0 {
		log.Warn().Msg("no current papers; the report will cite nothing")
	}

	matrix, err := p.embeddings(ctx, log, current, opts.ReuseEmbeddings)
	if err != nil {
		return nil, err
	}

	a := report.NewAssembler(p.Config.Report, retrieve.New(p.Provider), p.Provider, matrix, current)
	a.Prompts = p.Prompts
	a.K = p.Config.Output.TopK
	a.TemplatePath = p.Config.Output.Template
	a.MarkdownResponses = p.Config.Output.MarkdownResponses
	a.Now = p.Now
	a.Logger = log
	a.Metrics = p.Metrics

	r, err := a.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}
	res.Report = r

	formats := opts.Formats
	if len(formats) == 0 {
		formats = p.Config.Output.Formats
	}
	for _, f := range formats {
		path, err := p.emit(a, f)
		if err != nil {
			return nil, err
		}
		if path != "" {
			res.Paths = append(res.Paths, path)
		}
	}

	if p.Archive != nil {
		id, err := p.Archive.Save(ctx, r)
		if err != nil {
			log.Error().Err(err).Msg("archiving report failed")
		} else {
			res.ArchiveID = id
			log.Info().Str("archive_id", id).Msg("report archived")
		}
	}
	return res, nil
}

func (p *Pipeline) embeddings(ctx context.Context, log zerolog.Logger, current []types.Paper, reuse bool) (embed.Matrix, error) {
	path := p.MatrixPath()
	if reuse {
		m, err := embed.Load(path, current)
		switch {
		case err == nil:
			log.Info().Str("path", path).Int("rows", len(m)).Msg("reusing cached embeddings")
			return m, nil
		case errors.Is(err, embed.ErrStale):
			log.Warn().Int("papers", len(current)).Msg("cached embeddings were computed from other papers; recomputing")
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", path).Msg("no cached embeddings; computing")
		default:
			log.Warn().Err(err).Msg("cached embeddings unreadable; recomputing")
		}
	}

	m, err := embed.Compute(ctx, p.Provider, current, log)
	if err != nil {
		return nil, fmt.Errorf("computing embeddings: %w", err)
	}
	if err := embed.Write(path, m, current); err != nil {
		return nil, fmt.Errorf("caching embeddings: %w", err)
	}
	return m, nil
}

// emit renders one format. Console output goes to Out; files return their path.
func (p *Pipeline) emit(a *report.Assembler, format string) (string, error) {
	switch format {
	case report.FormatConsole:
		text, err := a.Render(report.FormatConsole)
		if err != nil {
			return "", err
		}
		_, err = io.WriteString(p.Out, text)
		return "", err
	case report.FormatHTML:
		return a.WriteHTML(p.Config.Output.OutputDir)
	case report.FormatMarkdown, "md":
		return a.WriteMarkdown(p.Config.Output.OutputDir)
	default:
		return "", fmt.Errorf("%q: %w", format, report.ErrUnsupportedFormat)
	}
}

// track records the run outcome and refreshes the metrics textfile.
func (p *Pipeline) track(command string, began time.Time, errp *error) {
	p.Metrics.RecordRun(command, time.Since(began), *errp)
	if err := p.Metrics.WriteTextfile(p.Config.MetricsFile); err != nil {
		p.Logger.Warn().Err(err).Str("path", p.Config.MetricsFile).Msg("writing metrics textfile failed")
	}
}
