// Package queries bundles the static GraphQL documents sent to Harmonic.
//
// Documents live in documents/<name>.graphql and are embedded at compile
// time. They are immutable for the life of the process, so loaded text is
// cached.
package queries

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// Names of the bundled documents.
const (
	FullProfile        = "full_profile"
	PersonHighlights   = "person_highlights"
	PersonEducation    = "person_education"
	PersonExperience   = "person_experience"
	SavedSearchResults = "saved_search_results"
	CompaniesByIDs     = "companies_by_ids"
	TypeaheadSearch    = "typeahead_search"
)

const (
	documentDir = "documents"
	documentExt = ".graphql"
)

// ErrNotFound is returned when no document with the requested name is bundled.
var ErrNotFound = errors.New("query document not found")

//go:embed documents/*.graphql
var documents embed.FS

var (
	mu    sync.RWMutex
	cache = make(map[string]string)
)

// Load returns the literal contents of the bundled document called name.
// Repeated calls return identical text.
func Load(name string) (string, error) {
	mu.RLock()
	doc, ok := cache[name]
	mu.RUnlock()
	if ok {
		return doc, nil
	}

	if name == "" || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name) {
		return "", fmt.Errorf("load %q: %w", name, ErrNotFound)
	}

	data, err := documents.ReadFile(path.Join(documentDir, name+documentExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("load %q: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("load %q: %w", name, err)
	}

	doc = string(data)
	mu.Lock()
	cache[name] = doc
	mu.Unlock()
	return doc, nil
}

// MustLoad is like Load but panics when the document is missing. It is meant
// for package-level initialisation with the constants above.
func MustLoad(name string) string {
	doc, err := Load(name)
	if err != nil {
		panic(err)
	}
	return doc
}

// Names returns the sorted names of every bundled document.
func Names() []string {
	entries, err := fs.ReadDir(documents, documentDir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), documentExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), documentExt))
	}
	sort.Strings(names)
	return names
}
