// Package search runs Harmonic saved searches and company lookups.
//
// Company and person records are returned as the raw JSON objects Harmonic
// sends. FlattenCompany turns a company record into a fixed set of columns
// for export.
package search

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrSearchNotFound is returned when Harmonic has no saved search with the
// requested ID or URN, or the token cannot see it.
var ErrSearchNotFound = errors.New("saved search not found")

// SavedSearchPage is one page of saved search results.
type SavedSearchPage struct {
	SearchID    string            `json:"searchId"`
	Name        string            `json:"name,omitempty"`
	TotalCount  int               `json:"totalCount"`
	EndCursor   string            `json:"endCursor,omitempty"`
	HasNextPage bool              `json:"hasNextPage"`
	Companies   []json.RawMessage `json:"companies"`
}

// TypeaheadResult holds the matches of a free-text search, one slice per
// entity kind.
type TypeaheadResult struct {
	People    []json.RawMessage `json:"people"`
	Companies []json.RawMessage `json:"companies"`
	Investors []json.RawMessage `json:"investors"`
}

// Searcher defines the company search operations.
type Searcher interface {
	RunSavedSearch(ctx context.Context, searchID string) ([]json.RawMessage, error)
	RunSavedSearchPage(ctx context.Context, searchID, after string, size int) (*SavedSearchPage, error)
	CompaniesByIDs(ctx context.Context, ids []int) ([]json.RawMessage, error)
	Typeahead(ctx context.Context, query string) (*TypeaheadResult, error)
}
