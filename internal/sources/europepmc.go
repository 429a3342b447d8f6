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

// europePMCAPIBase is the Europe PMC REST search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

const europePMCPageSize = 100

// EuropePMCSource queries Europe PMC.
type EuropePMCSource struct {
	base
}

// NewEuropePMC returns a Europe PMC adapter.
func NewEuropePMC(cfg types.Config) *EuropePMCSource {
	return &EuropePMCSource{base: newBase(cfg)}
}

// Name returns the source identifier.
func (s *EuropePMCSource) Name() string { return EuropePMC }

// Search pages through Europe PMC core results.
func (s *EuropePMCSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(EuropePMC, start, papers, err)
}

func (s *EuropePMCSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"query":      {europePMCQuery(query, f)},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(min(europePMCPageSize, s.max))},
		"resultType": {"core"},
		"sort":       {"RELEVANCE"},
		"cursorMark": {"*"},
	}

	var papers []*types.Paper
	for len(papers) < s.max {
		var er europePMCResponse
		if err := s.client.GetJSON(ctx, europePMCAPIBase+"?"+params.Encode(), nil, &er); err != nil {
			return nil, fmt.Errorf("Europe PMC API request: %w", err)
		}
		if len(er.ResultList.Result) == 0 {
			break
		}
		for _, it := range er.ResultList.Result {
			p := it.paper()
			if f.RequirePDF && !p.HasPDF() {
				continue
			}
			papers = append(papers, p)
			if len(papers) >= s.max {
				break
			}
		}
		if er.NextCursorMark == "" || er.NextCursorMark == params.Get("cursorMark") {
			break
		}
		params.Set("cursorMark", er.NextCursorMark)
	}
	return papers, nil
}

// europePMCQuery appends year, journal, and open-access clauses in Europe
// PMC query syntax.
func europePMCQuery(query string, f types.FilterSpec) string {
	q := query
	switch {
	case f.StartYear > 0 && f.EndYear > 0:
		q += fmt.Sprintf(" AND PUB_YEAR:[%d TO %d]", f.StartYear, f.EndYear)
	case f.StartYear > 0:
		q += fmt.Sprintf(" AND PUB_YEAR:[%d TO 3000]", f.StartYear)
	case f.EndYear > 0:
		q += fmt.Sprintf(" AND PUB_YEAR:[1800 TO %d]", f.EndYear)
	}
	if len(f.Venues) > 0 {
		journals := make([]string, len(f.Venues))
		for i, v := range f.Venues {
			journals[i] = fmt.Sprintf("JOURNAL:%q", v)
		}
		q += " AND (" + strings.Join(journals, " OR ") + ")"
	}
	if f.OpenAccessOnly {
		q += " AND OPEN_ACCESS:y"
	}
	return q
}

func (it europePMCResult) paper() *types.Paper {
	p := &types.Paper{
		ID:         it.ID,
		Title:      plainText(it.Title),
		Abstract:   plainText(it.AbstractText),
		Year:       leadingYear(it.PubYear),
		Venue:      it.JournalTitle,
		DOI:        ident.NormalizeDOI(it.DOI),
		Citations:  it.CitedByCount,
		OpenAccess: it.IsOpenAccess == "Y",
	}
	if p.Venue == "" {
		p.Venue = it.JournalInfo.Journal.Title
	}
	for _, a := range it.AuthorList.Author {
		if a.FullName != "" {
			p.Authors = append(p.Authors, a.FullName)
		}
	}
	switch {
	case it.PMID != "":
		p.URL = "https://europepmc.org/article/MED/" + it.PMID
	case p.DOI != "":
		p.URL = ident.DOIURL(p.DOI)
	}
	for _, link := range it.FullTextURLList.FullTextURL {
		if link.DocumentStyle == "pdf" && strings.EqualFold(link.Availability, "Open access") {
			p.PDFURL = link.URL
			break
		}
	}
	return p
}

// Europe PMC JSON structures.
type europePMCResponse struct {
	NextCursorMark string `json:"nextCursorMark"`
	ResultList     struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID           string `json:"id"`
	PMID         string `json:"pmid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	PubYear      string `json:"pubYear"`
	JournalTitle string `json:"journalTitle"`
	CitedByCount int    `json:"citedByCount"`
	IsOpenAccess string `json:"isOpenAccess"`
	JournalInfo  struct {
		Journal struct {
			Title string `json:"title"`
		} `json:"journal"`
	} `json:"journalInfo"`
	AuthorList struct {
		Author []struct {
			FullName string `json:"fullName"`
		} `json:"author"`
	} `json:"authorList"`
	FullTextURLList struct {
		FullTextURL []struct {
			Availability  string `json:"availability"`
			DocumentStyle string `json:"documentStyle"`
			URL           string `json:"url"`
		} `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}
