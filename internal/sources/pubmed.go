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

	"github.com/pdiddy/paperfuse/internal/httputil"
	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// NCBI E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMedSource queries PubMed through esearch followed by esummary.
type PubMedSource struct {
	base
	APIKey string
}

// NewPubMed returns a PubMed adapter.
func NewPubMed(cfg types.Config) *PubMedSource {
	return &PubMedSource{base: newBase(cfg), APIKey: cfg.Sources.PubMedAPIKey}
}

// Name returns the source identifier.
func (s *PubMedSource) Name() string { return PubMed }

// Search resolves matching PMIDs and fetches their summaries.
func (s *PubMedSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(PubMed, start, papers, err)
}

func (s *PubMedSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {pubmedTerm(query, f.StartYear, f.EndYear)},
		"retmax":  {strconv.Itoa(s.max)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}
	var sr pubmedSearchResponse
	if err := s.client.GetJSON(ctx, pubmedSearchBase+"?"+params.Encode(), nil, &sr); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	ids := sr.Result.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	params = url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}
	var sum pubmedSummaryResponse
	if err := s.client.GetJSON(ctx, pubmedSummaryBase+"?"+params.Encode(), nil, &sum); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	// esummary keys documents by PMID; "uids" carries the order.
	var uids []string
	if raw, ok := sum.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, &httputil.DecodeError{Err: err}
		}
	}
	var papers []*types.Paper
	for _, uid := range uids {
		raw, ok := sum.Result[uid]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &httputil.DecodeError{Err: err}
		}
		if p := doc.paper(uid); p.Title != "" {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// pubmedTerm appends a publication-date range in PubMed's [dp] syntax.
func pubmedTerm(query string, startYear, endYear int) string {
	if startYear <= 0 && endYear <= 0 {
		return query
	}
	from, to := 1800, 3000
	if startYear > 0 {
		from = startYear
	}
	if endYear > 0 {
		to = endYear
	}
	return fmt.Sprintf("%s AND (%d:%d[dp])", query, from, to)
}

func (d pubmedDoc) paper(uid string) *types.Paper {
	p := &types.Paper{
		ID:    uid,
		Title: plainText(d.Title),
		Year:  leadingYear(d.PubDate),
		Venue: d.FullJournalName,
		URL:   "https://pubmed.ncbi.nlm.nih.gov/" + uid + "/",
	}
	if p.Venue == "" {
		p.Venue = d.Source
	}
	for _, a := range d.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	for _, id := range d.ArticleIDs {
		switch id.IDType {
		case "doi":
			p.DOI = ident.NormalizeDOI(id.Value)
		case "pmc":
			p.OpenAccess = true
		}
	}
	return p
}

// E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	Source          string `json:"source"`
	FullJournalName string `json:"fulljournalname"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}
