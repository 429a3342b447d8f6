// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexPageSize is the largest page OpenAlex serves.
const openAlexPageSize = 200

// OpenAlexSource queries the OpenAlex works API.
type OpenAlexSource struct {
	base
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// NewOpenAlex returns an OpenAlex adapter.
func NewOpenAlex(cfg types.Config) *OpenAlexSource {
	return &OpenAlexSource{base: newBase(cfg), Email: cfg.Sources.OpenAlexEmail}
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return OpenAlex }

// Search pages through OpenAlex relevance-sorted results until the
// per-source maximum is reached or a page comes back empty.
func (s *OpenAlexSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(OpenAlex, start, papers, err)
}

func (s *OpenAlexSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(min(openAlexPageSize, s.max))},
		"sort":     {"relevance_score:desc"},
	}
	if filter := openAlexFilter(f); filter != "" {
		params.Set("filter", filter)
	}
	if s.Email != "" {
		params.Set("mailto", s.Email)
	}

	var papers []*types.Paper
	for page := 1; len(papers) < s.max; page++ {
		params.Set("page", strconv.Itoa(page))
		var oar openAlexResponse
		if err := s.client.GetJSON(ctx, openAlexSearchBase+"?"+params.Encode(), nil, &oar); err != nil {
			return nil, fmt.Errorf("OpenAlex API request: %w", err)
		}
		if len(oar.Results) == 0 {
			break
		}
		for _, work := range oar.Results {
			p := work.paper()
			if f.RequirePDF && !p.HasPDF() {
				continue
			}
			papers = append(papers, p)
			if len(papers) >= s.max {
				break
			}
		}
	}
	return papers, nil
}

// openAlexFilter renders the year, venue, and open-access constraints in
// OpenAlex filter syntax.
func openAlexFilter(f types.FilterSpec) string {
	var filters []string
	if f.StartYear > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", f.StartYear))
	}
	if f.EndYear > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", f.EndYear))
	}
	if len(f.Venues) > 0 {
		filters = append(filters, "primary_location.source.display_name.search:"+strings.Join(f.Venues, "|"))
	}
	if f.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}
	return strings.Join(filters, ",")
}

func (w openAlexWork) paper() *types.Paper {
	p := &types.Paper{
		ID:         strings.TrimPrefix(w.ID, "https://openalex.org/"),
		Title:      w.Title,
		Abstract:   reconstructAbstract(w.AbstractInvertedIndex),
		Year:       w.PublicationYear,
		DOI:        ident.NormalizeDOI(w.DOI),
		URL:        w.ID,
		Citations:  w.CitedByCount,
		OpenAccess: w.OpenAccess.IsOA,
	}
	if p.Year == 0 {
		p.Year = leadingYear(w.PublicationDate)
	}
	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName != "" {
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
		}
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		p.Venue = w.PrimaryLocation.Source.DisplayName
	}
	for _, loc := range w.Locations {
		if loc.PDFURL != "" {
			p.PDFURL = loc.PDFURL
			break
		}
	}
	return p
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	Locations             []openAlexLocation   `json:"locations"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

type openAlexLocation struct {
	PDFURL string `json:"pdf_url"`
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
