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

// dblpAPIBase is the DBLP publication search endpoint. Declared as a var
// so tests can substitute an httptest server.
var dblpAPIBase = "https://dblp.org/search/publ/api"

// dblpMaxHits is the largest hit count the adapter requests.
const dblpMaxHits = 50

// DBLPSource queries the DBLP computer science bibliography.
type DBLPSource struct {
	base
}

// NewDBLP returns a DBLP adapter.
func NewDBLP(cfg types.Config) *DBLPSource {
	return &DBLPSource{base: newBase(cfg)}
}

// Name returns the source identifier.
func (s *DBLPSource) Name() string { return DBLP }

// Search queries DBLP. DBLP carries no abstracts or citation counts.
func (s *DBLPSource) Search(ctx context.Context, query string, f types.FilterSpec) Result {
	start := time.Now()
	papers, err := s.search(ctx, query, f)
	return finish(DBLP, start, papers, err)
}

func (s *DBLPSource) search(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"h":      {strconv.Itoa(min(dblpMaxHits, s.max))},
	}
	var dr dblpResponse
	if err := s.client.GetJSON(ctx, dblpAPIBase+"?"+params.Encode(), nil, &dr); err != nil {
		return nil, fmt.Errorf("DBLP API request: %w", err)
	}

	var papers []*types.Paper
	for _, hit := range dr.Result.Hits.Hit {
		p := hit.Info.paper()
		if p.Title == "" || !withinYears(p.Year, f.StartYear, f.EndYear) {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (info dblpInfo) paper() *types.Paper {
	p := &types.Paper{
		ID:    info.Key,
		Title: strings.TrimSuffix(strings.TrimSpace(info.Title), "."),
		Venue: string(info.Venue),
		DOI:   ident.NormalizeDOI(info.DOI),
		URL:   info.EE,
		Year:  leadingYear(info.Year),
	}
	if p.URL == "" {
		p.URL = info.URL
	}
	if p.Year == 0 {
		p.Year = yearFromKey(info.Key)
	}
	if p.Venue == "" {
		p.Venue = venueFromKey(info.Key)
	}
	if info.Access == "open" {
		p.OpenAccess = true
	}
	p.Authors = info.Authors.Author
	return p
}

// yearFromKey finds a four-digit path segment in a DBLP key such as
// "journals/corr/2023".
func yearFromKey(key string) int {
	for _, part := range strings.Split(key, "/") {
		if len(part) == 4 {
			if y := leadingYear(part); y > 0 {
				return y
			}
		}
	}
	return 0
}

// venueFromKey turns "conf/neurips/Smith23" into "Neurips".
func venueFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[1] == "" {
		return ""
	}
	v := strings.ReplaceAll(parts[1], "_", " ")
	return strings.ToUpper(v[:1]) + v[1:]
}

// DBLP JSON structures.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpInfo struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Venue   dblpVenue   `json:"venue"`
	Year    string      `json:"year"`
	DOI     string      `json:"doi"`
	EE      string      `json:"ee"`
	URL     string      `json:"url"`
	Access  string      `json:"access"`
	Authors dblpAuthors `json:"authors"`
}

type dblpAuthors struct {
	Author dblpAuthorList `json:"author"`
}

// dblpAuthorList decodes DBLP's author field, which is a single object for
// one author and a list otherwise.
type dblpAuthorList []string

func (l *dblpAuthorList) UnmarshalJSON(b []byte) error {
	type author struct {
		Text string `json:"text"`
	}
	var many []author
	if err := json.Unmarshal(b, &many); err == nil {
		for _, a := range many {
			*l = append(*l, a.Text)
		}
		return nil
	}
	var one author
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = dblpAuthorList{one.Text}
	return nil
}

// dblpVenue decodes a venue given as a string or a list of strings.
type dblpVenue string

func (v *dblpVenue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = dblpVenue(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*v = dblpVenue(strings.Join(list, ", "))
	return nil
}
