package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders accepted by Params.SortBy.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortYear      = "year"
	SortRecent    = "recent"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	facetSize    = 20
)

// Params configures a catalog search.
type Params struct {
	Query     string
	Platforms []string // OR across values
	Genres    []string // OR across values
	MinYear   int
	MaxYear   int

	TeamChoiceOnly bool
	IncludePending bool // admins only; pending games are hidden otherwise

	Limit  int
	Offset int
	SortBy string
}

// Result is one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
}

// Hit is a single matching game.
type Hit struct {
	GameID      int64             `json:"game_id"`
	Score       float64           `json:"score"`
	Title       string            `json:"title"`
	Platforms   []string          `json:"platforms,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	ReleaseYear int               `json:"release_year,omitempty"`
	TeamChoice  bool              `json:"team_choice"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Facets holds value counts for the filterable keyword fields.
type Facets struct {
	Platforms []FacetCount `json:"platforms,omitempty"`
	Genres    []FacetCount `json:"genres,omitempty"`
}

// FacetCount is a facet value and how many hits carry it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query against the catalog index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = defaultLimit
	}
	params.Limit = min(params.Limit, maxLimit)
	params.Offset = max(params.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)
	req.AddFacet("platforms", bleve.NewFacetRequest("platforms", facetSize))
	req.AddFacet("genres", bleve.NewFacetRequest("genres", facetSize))
	req.Fields = []string{"title", "platforms", "genres", "release_year", "team_choice"}
	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with malformed id", "id", h.ID)
			continue
		}
		hit := Hit{GameID: id, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		hit.Platforms = stringList(h.Fields["platforms"])
		hit.Genres = stringList(h.Fields["genres"])
		if y, ok := h.Fields["release_year"].(float64); ok {
			hit.ReleaseYear = int(y)
		}
		if tc, ok := h.Fields["team_choice"].(bool); ok {
			hit.TeamChoice = tc
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	out.Facets.Platforms = facetCounts(res, "platforms")
	out.Facets.Genres = facetCounts(res, "genres")
	return out, nil
}

func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		desc := bleve.NewMatchQuery(q)
		desc.SetField("description")

		dev := bleve.NewMatchQuery(q)
		dev.SetField("developer")
		dev.SetBoost(1.5)

		text := []query.Query{title, fuzzy, desc, dev}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if !params.IncludePending {
		status := bleve.NewTermQuery("published")
		status.SetField("status")
		queries = append(queries, status)
	}

	if q := anyTerm("platforms", params.Platforms); q != nil {
		queries = append(queries, q)
	}
	if q := anyTerm("genres", params.Genres); q != nil {
		queries = append(queries, q)
	}

	if params.TeamChoiceOnly {
		tc := bleve.NewBoolFieldQuery(true)
		tc.SetField("team_choice")
		queries = append(queries, tc)
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		lo := float64(params.MinYear)
		hi := float64(params.MaxYear)
		if params.MaxYear == 0 {
			hi = 9999
		}
		inclusive := true
		years := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		years.SetField("release_year")
		queries = append(queries, years)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func anyTerm(field string, values []string) query.Query {
	if len(values) == 0 {
		return nil
	}
	terms := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms[i] = tq
	}
	return bleve.NewDisjunctionQuery(terms...)
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortTitle:
		req.SortBy([]string{"title_sort"})
	case SortYear:
		req.SortBy([]string{"-release_year", "title_sort"})
	case SortRecent:
		req.SortBy([]string{"-updated_at"})
	default:
		req.SortBy([]string{"-_score", "title_sort"})
	}
}

func facetCounts(res *bleve.SearchResult, name string) []FacetCount {
	facet, ok := res.Facets[name]
	if !ok || facet.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, term := range facet.Terms.Terms() {
		out = append(out, FacetCount{Value: term.Term, Count: term.Count})
	}
	return out
}

// stringList reads a stored multi-value field, which Bleve returns as a
// plain string when only one value was indexed.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
