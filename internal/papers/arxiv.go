// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperxai/internal/httputil"
	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/retry"
	"github.com/pdiddy/paperxai/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arXiv paging and politeness defaults.
const (
	DefaultPageSize        = 500
	MaxPageSize            = 2000
	DefaultRequestInterval = 3 * time.Second
	defaultTimeout         = 60 * time.Second
	defaultUserAgent       = "paperxai/0.1"
)

// Arxiv fetches papers from the arXiv API and persists them in Store.
type Arxiv struct {
	Client  *http.Client
	Config  types.FetchConfig
	Store   *Store
	Retry   retry.Policy
	Limiter *rate.Limiter
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewArxiv builds an arXiv source from the fetch configuration. The limiter
// allows RequestsPerSecond (default one request every three seconds) with a
// burst of one.
func NewArxiv(cfg types.FetchConfig, store *Store, policy retry.Policy, logger zerolog.Logger, metrics *observability.Metrics) *Arxiv {
	limit := rate.Every(DefaultRequestInterval)
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Arxiv{
		Client:  &http.Client{Timeout: timeout},
		Config:  cfg,
		Store:   store,
		Retry:   policy,
		Limiter: rate.NewLimiter(limit, 1),
		Logger:  observability.WithSourceContext(logger, "arxiv"),
		Metrics: metrics,
	}
}

// Name returns the source identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Persist merges fetched papers into the arXiv store.
func (a *Arxiv) Persist(fetched []types.Paper) (PersistResult, error) {
	if a.Store == nil {
		return PersistResult{}, errors.New("arxiv source has no store")
	}
	return a.Store.Persist(fetched)
}

// Fetch queries the arXiv API for the newest submissions in categories,
// paging until maxResults papers are gathered or the feed runs out.
func (a *Arxiv) Fetch(ctx context.Context, categories []string, maxResults int) ([]types.Paper, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories given")
	}
	if maxResults < 1 || maxResults > MaxResultsLimit {
		return nil, fmt.Errorf("max results %d out of range [1, %d]", maxResults, MaxResultsLimit)
	}

	query := BuildCategoryQuery(categories)
	pageSize := a.pageSize()
	log := a.Logger.With().Str("query", query).Int("max_results", maxResults).Logger()

	var papers []types.Paper
	for start := 0; len(papers) < maxResults; {
		n := min(pageSize, maxResults-len(papers))

		if a.Limiter != nil {
			if err := a.Limiter.Wait(ctx); err != nil {
				return papers, err
			}
		}

		page, entries, err := a.fetchPage(ctx, query, start, n)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return papers, ctxErr
			}
			log.Error().Err(err).Int("start", start).Msg("failed to fetch data from arXiv API")
			break
		}

		papers = append(papers, page...)
		a.Metrics.RecordFetched(len(page))
		log.Debug().Int("start", start).Int("entries", entries).Msg("fetched page")

		if entries < n {
			break
		}
		start += entries
	}

	if len(papers) > maxResults {
		papers = papers[:maxResults]
	}
	log.Info().Int("papers", len(papers)).Msg("fetch complete")
	return papers, nil
}

func (a *Arxiv) pageSize() int {
	switch {
	case a.Config.PageSize <= 0:
		return DefaultPageSize
	case a.Config.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return a.Config.PageSize
	}
}

func (a *Arxiv) baseURL() string {
	if a.Config.BaseURL != "" {
		return a.Config.BaseURL
	}
	return arxivAPIBase
}

// fetchPage requests one page and returns the parsed papers together with
// the raw entry count, which drives paging.
func (a *Arxiv) fetchPage(ctx context.Context, query string, start, n int) ([]types.Paper, int, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	ua := a.Config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	began := time.Now()
	resp, err := httputil.DoWithRetry(ctx, client, req, a.Retry)
	if err != nil {
		a.Metrics.RecordSourceRequest(0, time.Since(began))
		return nil, 0, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()
	a.Metrics.RecordSourceRequest(resp.StatusCode, time.Since(began))

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, 0, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if strings.Contains(entry.ID, "/api/errors") {
			return nil, 0, fmt.Errorf("arXiv API error: %s", strings.TrimSpace(entry.Summary))
		}
		p, err := entry.paper()
		if err != nil {
			a.Logger.Warn().Err(err).Str("entry", entry.ID).Msg("skipping entry")
			continue
		}
		papers = append(papers, p)
	}
	return papers, len(feed.Entries), nil
}

// BuildCategoryQuery ORs category filters: "cat:cs.AI OR cat:cs.LG".
func BuildCategoryQuery(categories []string) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, "cat:"+c)
		}
	}
	return strings.Join(parts, " OR ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Authors         []arxivAuthor   `xml:"author"`
	Links           []arxivLink     `xml:"link"`
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

func (e arxivEntry) paper() (types.Paper, error) {
	id := extractArxivID(e.ID)
	if id == "" {
		return types.Paper{}, fmt.Errorf("missing id")
	}
	published, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	if err != nil {
		return types.Paper{}, fmt.Errorf("invalid published date: %w", err)
	}

	p := types.Paper{
		ID:        id,
		Title:     strings.Join(strings.Fields(e.Title), " "),
		URL:       e.landingPage(),
		Abstract:  strings.TrimSpace(e.Summary),
		Published: published.UTC(),
		Category:  e.PrimaryCategory.Term,
	}
	if p.Category == "" && len(e.Categories) > 0 {
		p.Category = e.Categories[0].Term
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	p.StringRepresentation = types.BuildStringRepresentation(p)
	return p, nil
}

func (e arxivEntry) landingPage() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return strings.TrimSpace(e.ID)
}

// extractArxivID returns everything after "/abs/" in the entry's <id> URL,
// version suffix included, so old-style ids keep their archive
// ("http://arxiv.org/abs/hep-th/9901001v1" gives "hep-th/9901001v1"). URLs
// without "/abs/" fall back to the last path segment.
func extractArxivID(idURL string) string {
	idURL = strings.TrimRight(strings.TrimSpace(idURL), "/")
	if i := strings.Index(idURL, "/abs/"); i >= 0 {
		return idURL[i+len("/abs/"):]
	}
	return idURL[strings.LastIndex(idURL, "/")+1:]
}
