package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/queries"
)

// Compile-time interface check.
var _ Searcher = (*GraphQLSearchManager)(nil)

// GraphQLSearchManager implements Searcher by querying the Harmonic GraphQL
// API. Every method performs at most one request.
type GraphQLSearchManager struct {
	client graphql.Client
}

// NewGraphQLSearchManager returns a new GraphQLSearchManager that uses the
// provided GraphQL client.
func NewGraphQLSearchManager(client graphql.Client) *GraphQLSearchManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLSearchManager{client: client}
}

// savedSearchResponse mirrors the getSavedSearch payload.
type savedSearchResponse struct {
	GetSavedSearch *struct {
		Name    string `json:"name"`
		Results struct {
			TotalCount int `json:"totalCount"`
			PageInfo   struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node *struct {
					Entity json.RawMessage `json:"entity"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"results"`
	} `json:"getSavedSearch"`
}

// RunSavedSearch returns the company records of the saved search searchID
// exactly as Harmonic sends them. Only the first page, sized by Harmonic, is
// fetched.
func (m *GraphQLSearchManager) RunSavedSearch(ctx context.Context, searchID string) ([]json.RawMessage, error) {
	page, err := m.RunSavedSearchPage(ctx, searchID, "", 0)
	if err != nil {
		return nil, err
	}
	return page.Companies, nil
}

// RunSavedSearchPage fetches one page of searchID starting after the cursor
// after. A size of zero or less lets Harmonic pick the page size.
func (m *GraphQLSearchManager) RunSavedSearchPage(ctx context.Context, searchID, after string, size int) (*SavedSearchPage, error) {
	searchID = strings.TrimSpace(searchID)
	if searchID == "" {
		return nil, fmt.Errorf("run saved search: search id must not be empty")
	}

	query, err := queries.Load(queries.SavedSearchResults)
	if err != nil {
		return nil, fmt.Errorf("run saved search %s: %w", searchID, err)
	}

	vars := map[string]any{"idOrUrn": searchID}
	if size > 0 {
		vars["first"] = size
	}
	if after != "" {
		vars["after"] = after
	}

	data, err := m.client.Execute(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("run saved search %s: %w", searchID, err)
	}

	var resp savedSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("run saved search %s: decode response: %w", searchID, err)
	}
	if resp.GetSavedSearch == nil {
		return nil, fmt.Errorf("run saved search %s: %w", searchID, ErrSearchNotFound)
	}

	res := resp.GetSavedSearch.Results
	page := &SavedSearchPage{
		SearchID:    searchID,
		Name:        resp.GetSavedSearch.Name,
		TotalCount:  res.TotalCount,
		EndCursor:   res.PageInfo.EndCursor,
		HasNextPage: res.PageInfo.HasNextPage,
		Companies:   make([]json.RawMessage, 0, len(res.Edges)),
	}
	for _, edge := range res.Edges {
		if edge.Node == nil || isNull(edge.Node.Entity) {
			continue
		}
		page.Companies = append(page.Companies, edge.Node.Entity)
	}
	return page, nil
}

// CompaniesByIDs returns the company records for ids. Duplicate IDs are sent
// once; an empty ids returns no records without a request.
func (m *GraphQLSearchManager) CompaniesByIDs(ctx context.Context, ids []int) ([]json.RawMessage, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return []json.RawMessage{}, nil
	}

	query, err := queries.Load(queries.CompaniesByIDs)
	if err != nil {
		return nil, fmt.Errorf("get companies by ids: %w", err)
	}

	data, err := m.client.Execute(ctx, query, map[string]any{"ids": unique})
	if err != nil {
		return nil, fmt.Errorf("get companies by ids: %w", err)
	}

	var resp struct {
		Companies []json.RawMessage `json:"getCompaniesByIds"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("get companies by ids: decode response: %w", err)
	}
	return dropNulls(resp.Companies), nil
}

// Typeahead runs Harmonic's free-text search across people, companies, and
// investors.
func (m *GraphQLSearchManager) Typeahead(ctx context.Context, q string) (*TypeaheadResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("typeahead search: query must not be empty")
	}

	query, err := queries.Load(queries.TypeaheadSearch)
	if err != nil {
		return nil, fmt.Errorf("typeahead search: %w", err)
	}

	data, err := m.client.Execute(ctx, query, map[string]any{"query": q})
	if err != nil {
		return nil, fmt.Errorf("typeahead search %q: %w", q, err)
	}

	var resp struct {
		People    []json.RawMessage `json:"getPeopleWithTypeahead"`
		Companies []json.RawMessage `json:"getCompaniesWithTypeahead"`
		Investors *struct {
			Investors []json.RawMessage `json:"investors"`
		} `json:"getInvestorsWithTypeahead"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("typeahead search %q: decode response: %w", q, err)
	}

	result := &TypeaheadResult{
		People:    dropNulls(resp.People),
		Companies: dropNulls(resp.Companies),
		Investors: []json.RawMessage{},
	}
	if resp.Investors != nil {
		result.Investors = dropNulls(resp.Investors.Investors)
	}
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// dropNulls returns records without null entries. The result is never nil.
func dropNulls(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		if !isNull(r) {
			out = append(out, r)
		}
	}
	return out
}

func dedupeIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
