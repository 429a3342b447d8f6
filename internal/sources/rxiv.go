// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Search endpoints for the Cold Spring Harbor preprint servers. Declared
// as vars so tests can substitute an httptest server.
var (
	biorxivSearchBase = "https://www.biorxiv.org/search"
	medrxivSearchBase = "https://www.medrxiv.org/search"
)

const rxivPageSize = 50

// RxivSource queries bioRxiv or medRxiv; the two servers share one API.
type RxivSource struct {
	base
	name    string
	venue   string
	site    string
	baseURL *string
}

// NewBioRxiv returns a bioRxiv adapter.
func NewBioRxiv(cfg types.Config) *RxivSource {
	return &RxivSource{base: newBase(cfg), name: BioRxiv, venue: "bioRxiv", site: "https://www.biorxiv.org", baseURL: &biorxivSearchBase}
}

// NewMedRxiv returns a medRxiv adapter.
func NewMedRxiv(cfg types.Config) *RxivSource {
	return &RxivSource{base: newBase(cfg), name: MedRxiv, venue: "medRxiv", site: "https://www.medrxiv.org", baseURL: &medrxivSearchBase}
}

// Name returns the source identifier.
func (s *RxivSource) Name() string { return s.name }

// Search runs a relevance-ranked full-text search on the server.
func (s *RxivSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(s.name, start, papers, err)
}

func (s *RxivSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"content":    {"articlesChapters"},
		"searchText": {query},
		"pageSize":   {strconv.Itoa(min(rxivPageSize, s.max))},
		"sort":       {"relevance-rank"},
		"format":     {"json"},
	}
	if f.StartYear > 0 {
		params.Set("fromDate", fmt.Sprintf("%d-01-01", f.StartYear))
	}
	if f.EndYear > 0 {
		params.Set("toDate", fmt.Sprintf("%d-12-31", f.EndYear))
	}

	var rr rxivResponse
	if err := s.client.GetJSON(ctx, *s.baseURL+"?"+params.Encode(), nil, &rr); err != nil {
		return nil, fmt.Errorf("%s API request: %w", s.venue, err)
	}

	var papers []*types.Paper
	for _, it := range rr.Collection {
		p := s.paper(it)
		if p.Title == "" || !withinYears(p.Year, f.StartYear, f.EndYear) {
			continue
		}
		papers = append(papers, p)
		if len(papers) >= s.max {
			break
		}
	}
	return papers, nil
}

func (s *RxivSource) paper(it rxivItem) *types.Paper {
	doi := ident.NormalizeDOI(it.DOI)
	p := &types.Paper{
		ID:         doi,
		Title:      plainText(it.Title),
		Abstract:   plainText(it.Abstract),
		Authors:    it.Authors,
		Year:       leadingYear(it.Date),
		Venue:      s.venue,
		DOI:        doi,
		URL:        it.URI,
		OpenAccess: true,
	}
	if p.Year == 0 {
		p.Year = leadingYear(it.Published)
	}
	if p.URL == "" && doi != "" {
		p.URL = s.site + "/content/" + doi
	}
	switch {
	case it.PDF != "":
		p.PDFURL = it.PDF
	case doi != "" && it.Version != "":
		p.PDFURL = fmt.Sprintf("%s/content/%sv%s.full.pdf", s.site, doi, it.Version)
	}
	return p
}

type rxivResponse struct {
	Collection []rxivItem `json:"collection"`
}

type rxivItem struct {
	DOI       string      `json:"doi"`
	Title     string      `json:"title"`
	Abstract  string      `json:"abstract"`
	Authors   rxivAuthors `json:"authors"`
	Date      string      `json:"date"`
	Published string      `json:"published"`
	Version   string      `json:"version"`
	URI       string      `json:"uri"`
	PDF       string      `json:"pdf"`
}

// rxivAuthors accepts either a "Last, F.; Other, G." string or a list of
// {"name": ...} objects.
type rxivAuthors []string

func (a *rxivAuthors) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		for _, name := range strings.Split(s, ";") {
			if name = strings.TrimSpace(name); name != "" {
				*a = append(*a, name)
			}
		}
		return nil
	}
	var list []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	for _, x := range list {
		if x.Name != "" {
			*a = append(*a, x.Name)
		}
	}
	return nil
}
