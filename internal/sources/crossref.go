// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

const crossrefSelect = "title,author,issued,container-title,DOI,URL,abstract,is-referenced-by-count,link,license"

// CrossrefSource queries the Crossref REST API.
type CrossrefSource struct {
	base
	// Mailto joins the Crossref polite pool.
	Mailto string
}

// NewCrossref returns a Crossref adapter.
func NewCrossref(cfg types.Config) *CrossrefSource {
	return &CrossrefSource{base: newBase(cfg), Mailto: cfg.Sources.OpenAlexEmail}
}

// Name returns the source identifier.
func (s *CrossrefSource) Name() string { return Crossref }

// Search queries Crossref sorted by relevance.
func (s *CrossrefSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(Crossref, start, papers, err)
}

func (s *CrossrefSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"query":  {query},
		"select": {crossrefSelect},
		"rows":   {strconv.Itoa(s.max)},
		"sort":   {"relevance"},
		"order":  {"desc"},
	}
	var filters []string
	if f.StartYear > 0 {
		filters = append(filters, fmt.Sprintf("from-pub-date:%d-01-01", f.StartYear))
	}
	if f.EndYear > 0 {
		filters = append(filters, fmt.Sprintf("until-pub-date:%d-12-31", f.EndYear))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}
	if s.Mailto != "" {
		params.Set("mailto", s.Mailto)
	}

	var cr crossrefResponse
	if err := s.client.GetJSON(ctx, crossrefAPIBase+"?"+params.Encode(), nil, &cr); err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}

	var papers []*types.Paper
	for _, it := range cr.Message.Items {
		p := it.paper()
		if p.Title == "" {
			continue
		}
		if f.RequirePDF && !p.HasPDF() {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (it crossrefItem) paper() *types.Paper {
	p := &types.Paper{
		Title:     plainText(first(it.Title)),
		Abstract:  plainText(it.Abstract),
		Venue:     first(it.ContainerTitle),
		DOI:       ident.NormalizeDOI(it.DOI),
		URL:       it.URL,
		Citations: it.ReferencedBy,
	}
	p.ID = p.DOI
	if len(it.Issued.DateParts) > 0 && len(it.Issued.DateParts[0]) > 0 {
		p.Year = it.Issued.DateParts[0][0]
	}
	for _, a := range it.Author {
		if name := strings.TrimSpace(a.Given + " " + a.Family); name != "" {
			p.Authors = append(p.Authors, name)
		} else if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	for _, l := range it.Link {
		if l.ContentType == "application/pdf" {
			p.PDFURL = l.URL
			break
		}
	}
	for _, l := range it.License {
		if strings.Contains(l.URL, "creativecommons.org") {
			p.OpenAccess = true
			break
		}
	}
	return p
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	DOI            string   `json:"DOI"`
	URL            string   `json:"URL"`
	Abstract       string   `json:"abstract"`
	ReferencedBy   int      `json:"is-referenced-by-count"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		Name   string `json:"name"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	Link []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
	License []struct {
		URL string `json:"URL"`
	} `json:"license"`
}
