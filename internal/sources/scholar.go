// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Google Scholar proxy endpoints. Declared as vars so tests can substitute
// an httptest server.
var (
	serpAPIBase = "https://serpapi.com/search"
	serperBase  = "https://google.serper.dev/scholar"
)

// Scholar providers.
const (
	ProviderSerpAPI = "serpapi"
	ProviderSerper  = "serper"
)

// scholarMaxResults keeps paid proxy usage bounded.
const scholarMaxResults = 20

// ScholarSource queries Google Scholar through SerpAPI or Serper.
type ScholarSource struct {
	base
	Provider   string
	SerpAPIKey string
	SerperKey  string
}

// NewScholar returns a Scholar adapter. The provider is taken from
// configuration; when unset, SerpAPI is used if it has a key, else Serper.
func NewScholar(cfg types.Config) *ScholarSource {
	return &ScholarSource{
		base:       newBase(cfg),
		Provider:   cfg.Sources.ScholarProvider,
		SerpAPIKey: cfg.Sources.SerpAPIKey,
		SerperKey:  cfg.Sources.SerperKey,
	}
}

// Name returns the source identifier.
func (s *ScholarSource) Name() string { return Scholar }

// Search runs the query through the configured provider.
func (s *ScholarSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	var papers []*types.Paper
	var err error
	switch s.provider() {
	case ProviderSerpAPI:
		papers, err = s.searchSerpAPI(ctx, query, f)
	case ProviderSerper:
		papers, err = s.searchSerper(ctx, query)
	default:
		err = fmt.Errorf("%w: no SerpAPI or Serper key", errNotConfigured)
	}
	if err == nil {
		papers = filterYears(papers, f)
	}
	return finish(Scholar, start, papers, err)
}

func (s *ScholarSource) provider() string {
	switch {
	case s.Provider == ProviderSerpAPI && s.SerpAPIKey != "":
		return ProviderSerpAPI
	case s.Provider == ProviderSerper && s.SerperKey != "":
		return ProviderSerper
	case s.Provider == "" && s.SerpAPIKey != "":
		return ProviderSerpAPI
	case s.Provider == "" && s.SerperKey != "":
		return ProviderSerper
	}
	return ""
}

func (s *ScholarSource) limit() int { return min(scholarMaxResults, s.max) }

func (s *ScholarSource) searchSerpAPI(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"engine":  {"google_scholar"},
		"q":       {query},
		"api_key": {s.SerpAPIKey},
		"num":     {strconv.Itoa(s.limit())},
	}
	if f.StartYear > 0 {
		params.Set("as_ylo", strconv.Itoa(f.StartYear))
	}
	if f.EndYear > 0 {
		params.Set("as_yhi", strconv.Itoa(f.EndYear))
	}
	var sr serpAPIResponse
	if err := s.client.GetJSON(ctx, serpAPIBase+"?"+params.Encode(), nil, &sr); err != nil {
		return nil, fmt.Errorf("SerpAPI request: %w", err)
	}

	var papers []*types.Paper
	for _, r := range sr.OrganicResults {
		venue, year := parsePublicationInfo(r.PublicationInfo.Summary)
		p := &types.Paper{
			ID:        scholarID(r.Link),
			Title:     r.Title,
			Abstract:  r.Snippet,
			Venue:     venue,
			Year:      year,
			URL:       r.Link,
			Citations: r.InlineLinks.CitedBy.Total,
		}
		for _, res := range r.Resources {
			if strings.EqualFold(res.FileFormat, "PDF") {
				p.PDFURL = res.Link
				break
			}
		}
		linkIdentifiers(p)
		papers = append(papers, p)
	}
	return papers, nil
}

func (s *ScholarSource) searchSerper(ctx context.Context, query string) ([]*types.Paper, error) {
	body, err := json.Marshal(map[string]any{"q": query, "num": s.limit()})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.SerperKey)
	req.Header.Set("Content-Type", "application/json")

	var sr serperResponse
	if err := s.client.DoJSON(ctx, req, &sr); err != nil {
		return nil, fmt.Errorf("Serper request: %w", err)
	}

	var papers []*types.Paper
	for _, r := range sr.Organic {
		venue, year := parsePublicationInfo(r.PublicationInfo)
		if r.Year > 0 {
			year = r.Year
		}
		p := &types.Paper{
			ID:        scholarID(r.Link),
			Title:     r.Title,
			Abstract:  r.Snippet,
			Venue:     venue,
			Year:      year,
			URL:       r.Link,
			PDFURL:    r.PDFURL,
			Citations: r.CitedBy,
		}
		linkIdentifiers(p)
		papers = append(papers, p)
	}
	return papers, nil
}

// scholarID derives a stable identifier from the result link.
func scholarID(link string) string {
	sum := sha1.Sum([]byte(link))
	return "scholar_" + hex.EncodeToString(sum[:8])
}

// linkIdentifiers fills the DOI, or the arXiv ID and PDF link, of a result
// whose link points straight at a DOI resolver or an arXiv abstract.
func linkIdentifiers(p *types.Paper) {
	if typ, doi := ident.Classify(p.URL); typ == ident.TypeDOI {
		p.DOI = doi
		return
	}
	if typ, id := ident.Classify(ident.ArxivIDFromURL(p.URL)); typ == ident.TypeArxiv {
		p.ID = id
		p.OpenAccess = true
		if p.PDFURL == "" {
			p.PDFURL = "https://arxiv.org/pdf/" + id
		}
	}
}

// parsePublicationInfo extracts venue and year from a Scholar summary
// line such as "A Smith, B Jones - Nature Medicine, 2021 - nature.com".
func parsePublicationInfo(summary string) (string, int) {
	parts := strings.Split(summary, " - ")
	if len(parts) < 2 {
		return "", 0
	}
	var venue string
	var year int
	for _, field := range strings.Split(parts[1], ",") {
		field = strings.TrimSpace(field)
		if len(field) == 4 {
			if y := leadingYear(field); y > 0 {
				year = y
				continue
			}
		}
		if venue == "" {
			venue = field
		}
	}
	return venue, year
}

func filterYears(papers []*types.Paper, f types.FilterSpec) []*types.Paper {
	var out []*types.Paper
	for _, p := range papers {
		if withinYears(p.Year, f.StartYear, f.EndYear) {
			out = append(out, p)
		}
	}
	return out
}

// Scholar proxy JSON structures.
type serpAPIResponse struct {
	OrganicResults []struct {
		Title           string `json:"title"`
		Link            string `json:"link"`
		Snippet         string `json:"snippet"`
		PublicationInfo struct {
			Summary string `json:"summary"`
		} `json:"publication_info"`
		Resources []struct {
			FileFormat string `json:"file_format"`
			Link       string `json:"link"`
		} `json:"resources"`
		InlineLinks struct {
			CitedBy struct {
				Total int `json:"total"`
			} `json:"cited_by"`
		} `json:"inline_links"`
	} `json:"organic_results"`
}

type serperResponse struct {
	Organic []struct {
		Title           string `json:"title"`
		Link            string `json:"link"`
		Snippet         string `json:"snippet"`
		PublicationInfo string `json:"publicationInfo"`
		Year            int    `json:"year"`
		CitedBy         int    `json:"citedBy"`
		PDFURL          string `json:"pdfUrl"`
	} `json:"organic"`
}
