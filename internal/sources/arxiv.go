// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"

	"github.com/pdiddy/paperfuse/internal/httputil"
	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource queries the arXiv Atom API.
type ArxivSource struct {
	base
}

// NewArxiv returns an arXiv adapter.
func NewArxiv(cfg types.Config) *ArxivSource {
	return &ArxivSource{base: newBase(cfg)}
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return Arxiv }

// Search queries arXiv, sorted by relevance.
func (s *ArxivSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(Arxiv, start, papers, err)
}

func (s *ArxivSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"search_query": {buildArxivQuery(query, f.StartYear, f.EndYear)},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(s.max)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	body, err := s.client.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}

	if t := gofeed.DetectFeedType(bytes.NewReader(body)); t != gofeed.FeedTypeAtom {
		return nil, &httputil.DecodeError{Err: fmt.Errorf("parsing arXiv feed: not an Atom feed")}
	}
	// The Atom parser keeps every link's rel and type; the universal
	// translator drops rel="related", which is where arXiv puts the PDF.
	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &httputil.DecodeError{Err: fmt.Errorf("parsing arXiv feed: %w", err)}
	}

	var papers []*types.Paper
	for _, entry := range feed.Entries {
		p := arxivPaper(entry)
		if p.ID == "" {
			continue
		}
		if f.RequirePDF && !p.HasPDF() {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// buildArxivQuery searches all fields and restricts submittedDate to the
// year bounds when given.
func buildArxivQuery(query string, startYear, endYear int) string {
	q := "all:" + query
	if startYear <= 0 && endYear <= 0 {
		return q
	}
	from, to := "000001010000", "999912312359"
	if startYear > 0 {
		from = fmt.Sprintf("%04d01010000", startYear)
	}
	if endYear > 0 {
		to = fmt.Sprintf("%04d12312359", endYear)
	}
	return fmt.Sprintf("(%s) AND submittedDate:[%s TO %s]", q, from, to)
}

func arxivPaper(entry *atom.Entry) *types.Paper {
	p := &types.Paper{
		ID:         ident.ArxivIDFromURL(entry.ID),
		Title:      strings.Join(strings.Fields(entry.Title), " "),
		Abstract:   strings.Join(strings.Fields(entry.Summary), " "),
		Venue:      "arXiv",
		OpenAccess: true,
	}
	for _, link := range entry.Links {
		if link == nil {
			continue
		}
		switch {
		case link.Type == "application/pdf" || link.Title == "pdf":
			p.PDFURL = link.Href
		case link.Rel == "" || link.Rel == "alternate":
			if p.URL == "" {
				p.URL = link.Href
			}
		}
	}
	if p.ID == "" {
		p.ID = ident.ArxivIDFromURL(p.URL)
	}
	// Every arXiv abstract page has a PDF rendition at the parallel path.
	if p.PDFURL == "" && strings.Contains(p.URL, "/abs/") {
		p.PDFURL = strings.Replace(p.URL, "/abs/", "/pdf/", 1)
	}
	for _, a := range entry.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
	}
	if entry.PublishedParsed != nil {
		p.Year = entry.PublishedParsed.Year()
	} else {
		p.Year = leadingYear(entry.Published)
	}
	if exts, ok := entry.Extensions["arxiv"]; ok {
		if dois := exts["doi"]; len(dois) > 0 {
			p.DOI = ident.NormalizeDOI(dois[0].Value)
		}
		if refs := exts["journal_ref"]; len(refs) > 0 && strings.TrimSpace(refs[0].Value) != "" {
			p.Venue = strings.TrimSpace(refs[0].Value)
		}
	}
	return p
}
