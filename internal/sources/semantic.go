// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields   = "paperId,title,abstract,authors,year,venue,externalIds,url,openAccessPdf,citationCount,isOpenAccess"
	semanticPageSize = 100
)

// SemanticScholarSource queries the Semantic Scholar graph API.
type SemanticScholarSource struct {
	base
	APIKey string
}

// NewSemanticScholar returns a Semantic Scholar adapter.
func NewSemanticScholar(cfg types.Config) *SemanticScholarSource {
	return &SemanticScholarSource{base: newBase(cfg), APIKey: cfg.Sources.SemanticScholarAPIKey}
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return SemanticScholar }

// Search pages through results by offset.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(SemanticScholar, start, papers, err)
}

func (s *SemanticScholarSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	limit := min(semanticPageSize, s.max)
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(f.StartYear, f.EndYear); yr != "" {
		params.Set("year", yr)
	}
	if len(f.Venues) > 0 {
		params.Set("venue", strings.Join(f.Venues, ","))
	}
	if f.RequirePDF {
		params.Set("openAccessPdf", "")
	}

	header := http.Header{}
	if s.APIKey != "" {
		header.Set("x-api-key", s.APIKey)
	}

	var papers []*types.Paper
	for offset := 0; len(papers) < s.max; offset += limit {
		params.Set("offset", strconv.Itoa(offset))
		var sr semanticResponse
		if err := s.client.GetJSON(ctx, semanticAPIBase+"?"+params.Encode(), header, &sr); err != nil {
			return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
		}
		if len(sr.Data) == 0 {
			break
		}
		for _, sp := range sr.Data {
			p := sp.paper()
			if f.OpenAccessOnly && !p.OpenAccess {
				continue
			}
			papers = append(papers, p)
			if len(papers) >= s.max {
				break
			}
		}
		if sr.Next == 0 {
			break
		}
	}
	return papers, nil
}

// buildYearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

func (sp semanticPaper) paper() *types.Paper {
	p := &types.Paper{
		ID:         sp.PaperID,
		Title:      sp.Title,
		Abstract:   sp.Abstract,
		Year:       sp.Year,
		Venue:      sp.Venue,
		DOI:        ident.NormalizeDOI(sp.ExternalIDs.DOI),
		URL:        sp.URL,
		Citations:  sp.CitationCount,
		OpenAccess: sp.IsOpenAccess,
	}
	for _, a := range sp.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	if sp.OpenAccessPDF != nil && sp.OpenAccessPDF.URL != "" {
		p.PDFURL = sp.OpenAccessPDF.URL
		p.OpenAccess = true
	}
	return p
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Next  int             `json:"next"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          int    `json:"year"`
	Venue         string `json:"venue"`
	URL           string `json:"url"`
	CitationCount int    `json:"citationCount"`
	IsOpenAccess  bool   `json:"isOpenAccess"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}
