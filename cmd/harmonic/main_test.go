package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/config"
	"github.com/jamesprial/harmonic-mcp/internal/export"
	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/profile"
	"github.com/jamesprial/harmonic-mcp/internal/search"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[int]*profile.Profile
	err      error
	calls    []int
}

func (f *fakeProfiles) lookup(id int) (*profile.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("person %d not found", id)
	}
	return p, nil
}

func (f *fakeProfiles) GetFullProfile(_ context.Context, id int) (*profile.Profile, error) {
	return f.lookup(id)
}

func (f *fakeProfiles) GetPersonHighlights(_ context.Context, id int) ([]string, error) {
	p, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.Highlights, nil
}

func (f *fakeProfiles) GetEducation(_ context.Context, id int) ([]profile.Education, error) {
	p, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.Education, nil
}

func (f *fakeProfiles) GetExperience(_ context.Context, id int) ([]profile.Experience, error) {
	p, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.Experience, nil
}

type fakeSearches struct {
	page      *search.SavedSearchPage
	companies []json.RawMessage
	typeahead *search.TypeaheadResult

	gotSearchID string
	gotAfter    string
	gotSize     int
	gotIDs      []int
	gotQuery    string
}

func (f *fakeSearches) RunSavedSearch(ctx context.Context, id string) ([]json.RawMessage, error) {
	page, err := f.RunSavedSearchPage(ctx, id, "", 0)
	if err != nil {
		return nil, err
	}
	return page.Companies, nil
}

func (f *fakeSearches) RunSavedSearchPage(_ context.Context, id, after string, size int) (*search.SavedSearchPage, error) {
	f.gotSearchID, f.gotAfter, f.gotSize = id, after, size
	if f.page == nil {
		return nil, search.ErrSearchNotFound
	}
	return f.page, nil
}

func (f *fakeSearches) CompaniesByIDs(_ context.Context, ids []int) ([]json.RawMessage, error) {
	f.gotIDs = ids
	return f.companies, nil
}

func (f *fakeSearches) Typeahead(_ context.Context, q string) (*search.TypeaheadResult, error) {
	f.gotQuery = q
	return f.typeahead, nil
}

var (
	_ profile.ProfileFetcher = (*fakeProfiles)(nil)
	_ search.Searcher        = (*fakeSearches)(nil)
)

func headcount(n int) *int { return &n }

func samplePeople() *fakeProfiles {
	return &fakeProfiles{profiles: map[int]*profile.Profile{
		179915866: {
			PersonID:   179915866,
			FullName:   "Ada Lovelace",
			Highlights: []string{"Top University", "Current Student"},
			Education: []profile.Education{{
				School:    &profile.School{Name: "Stanford University"},
				Degree:    "BS",
				Field:     "Computer Science",
				StartDate: "2021-09-01T00:00:00Z",
				EndDate:   "2025-06-01T00:00:00Z",
			}},
			Experience: []profile.Experience{{
				Title:             "Founder",
				Company:           &profile.Company{Name: "Acme", FundingStage: "SEED", Headcount: headcount(12)},
				StartDate:         "2024-01-01T00:00:00Z",
				IsCurrentPosition: true,
			}},
		},
		42: {PersonID: 42, Highlights: []string{}, Education: []profile.Education{}, Experience: []profile.Experience{}},
	}}
}

func newTestApp(p *fakeProfiles, s *fakeSearches) (*app, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	if p == nil {
		p = samplePeople()
	}
	if s == nil {
		s = &fakeSearches{}
	}
	return &app{profiles: p, searches: s, stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// Usage errors
// ---------------------------------------------------------------------------

func Test_Run_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"delete"}},
		{name: "profile without id", args: []string{"profile"}},
		{name: "profile with two ids", args: []string{"profile", "1", "2"}},
		{name: "profiles without ids", args: []string{"profiles"}},
		{name: "profiles with zero parallelism", args: []string{"profiles", "-parallel", "0", "1"}},
		{name: "search without text", args: []string{"search"}},
		{name: "saved-search without id", args: []string{"saved-search"}},
		{name: "saved-search negative size", args: []string{"saved-search", "-size", "-1", "149709"}},
		{name: "companies without ids", args: []string{"companies"}},
		{name: "token without value", args: []string{"token"}},
		{name: "unknown flag", args: []string{"profile", "-bogus", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newTestApp(nil, nil)
			if err := a.run(context.Background(), tt.args); !errors.Is(err, errUsage) {
				t.Errorf("run(%q) error = %v, want errUsage", tt.args, err)
			}
		})
	}
}

func Test_Run_InvalidPersonID(t *testing.T) {
	for _, arg := range []string{"abc", "0", "-5"} {
		t.Run(arg, func(t *testing.T) {
			p := samplePeople()
			a, _, _ := newTestApp(p, nil)
			err := a.run(context.Background(), []string{"highlights", arg})
			if err == nil || !strings.Contains(err.Error(), "invalid person id") {
				t.Fatalf("error = %v, want invalid person id", err)
			}
			if len(p.calls) != 0 {
				t.Errorf("fetcher called %v, want no calls", p.calls)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

func Test_Run_ProfileText(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	if err := a.run(context.Background(), []string{"profile", "179915866"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"Ada Lovelace\n",
		"Highlights: Top University, Current Student\n",
		"Education (1):\n  Stanford University (2021-2025)\n    BS in Computer Science\n",
		"Experience (1):\n  Founder at Acme (2024-Present) [CURRENT]\n    Stage: SEED, Headcount: 12\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, out)
		}
	}
}

func Test_Run_ProfileTextWithoutName(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	if err := a.run(context.Background(), []string{"profile", "42"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Person 42\n") {
		t.Errorf("output = %q, want Person 42 heading", out)
	}
	if strings.Contains(out, "Highlights:") {
		t.Errorf("empty highlights should be omitted:\n%s", out)
	}
}

func Test_Run_ProfileJSON(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	if err := a.run(context.Background(), []string{"profile", "-json", "179915866"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var p profile.Profile
	if err := json.Unmarshal(stdout.Bytes(), &p); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if p.PersonID != 179915866 || len(p.Education) != 1 || len(p.Experience) != 1 {
		t.Errorf("profile = %+v", p)
	}
}

func Test_Run_Highlights(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	if err := a.run(context.Background(), []string{"highlights", "179915866"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got, want := stdout.String(), "Top University\nCurrent Student\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func Test_Run_ProfileErrorPropagates(t *testing.T) {
	p := samplePeople()
	p.err = fmt.Errorf("get full profile 1: %w", graphql.ErrNotConfigured)
	a, _, _ := newTestApp(p, nil)

	err := a.run(context.Background(), []string{"profile", "1"})
	if !errors.Is(err, graphql.ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
	if !strings.Contains(graphql.Describe(err), "HARMONIC_API_TOKEN") {
		t.Errorf("Describe() = %q, want token hint", graphql.Describe(err))
	}
}

func Test_Run_ProfilesKeepsArgumentOrder(t *testing.T) {
	p := samplePeople()
	a, stdout, _ := newTestApp(p, nil)
	if err := a.run(context.Background(), []string{"profiles", "-parallel", "2", "42", "179915866", "42"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var got []profile.Profile
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	ids := make([]int, len(got))
	for i, g := range got {
		ids[i] = g.PersonID
	}
	if fmt.Sprint(ids) != "[42 179915866 42]" {
		t.Errorf("ids = %v, want [42 179915866 42]", ids)
	}
	if len(p.calls) != 3 {
		t.Errorf("fetcher called %d times, want 3", len(p.calls))
	}
}

// boundedProfiles records the peak number of concurrent fetches.
type boundedProfiles struct {
	*fakeProfiles
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (b *boundedProfiles) GetFullProfile(ctx context.Context, id int) (*profile.Profile, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return b.fakeProfiles.GetFullProfile(ctx, id)
}

func Test_Run_ProfilesHonoursParallelLimit(t *testing.T) {
	b := &boundedProfiles{fakeProfiles: samplePeople()}
	var stdout bytes.Buffer
	a := &app{profiles: b, searches: &fakeSearches{}, stdout: &stdout, stderr: &bytes.Buffer{}}

	args := []string{"profiles", "-parallel", "2", "42", "42", "42", "42", "42", "42"}
	if err := a.run(context.Background(), args); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if peak := b.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if len(b.calls) != 6 {
		t.Errorf("fetcher called %d times, want 6", len(b.calls))
	}
}

func Test_Run_ProfilesStopsOnError(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	err := a.run(context.Background(), []string{"profiles", "42", "7"})
	if err == nil || !strings.Contains(err.Error(), "person 7 not found") {
		t.Fatalf("error = %v, want person 7 not found", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing on failure", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// Searches
// ---------------------------------------------------------------------------

var sampleCompanies = []json.RawMessage{
	json.RawMessage(`{"id":101,"name":"Acme","headcount":12,"funding":{"fundingStage":"SEED"}}`),
	json.RawMessage(`{"id":202,"name":"Globex","website":{"url":"https://globex.test","domain":"globex.test"}}`),
}

func Test_Run_SearchJoinsWords(t *testing.T) {
	s := &fakeSearches{typeahead: &search.TypeaheadResult{
		People:    []json.RawMessage{},
		Companies: []json.RawMessage{json.RawMessage(`{"id":1,"name":"Acme"}`)},
		Investors: []json.RawMessage{},
	}}
	a, stdout, _ := newTestApp(nil, s)
	if err := a.run(context.Background(), []string{"search", "acme", "robotics"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if s.gotQuery != "acme robotics" {
		t.Errorf("query = %q, want %q", s.gotQuery, "acme robotics")
	}
	if !strings.Contains(stdout.String(), `"name": "Acme"`) {
		t.Errorf("output missing company:\n%s", stdout.String())
	}
}

func Test_Run_SavedSearchJSON(t *testing.T) {
	s := &fakeSearches{page: &search.SavedSearchPage{
		SearchID:    "149709",
		TotalCount:  2,
		EndCursor:   "cursor-2",
		HasNextPage: true,
		Companies:   sampleCompanies,
	}}
	a, stdout, stderr := newTestApp(nil, s)
	args := []string{"saved-search", "-after", "cursor-1", "-size", "50", "149709"}
	if err := a.run(context.Background(), args); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if s.gotSearchID != "149709" || s.gotAfter != "cursor-1" || s.gotSize != 50 {
		t.Errorf("request = (%q, %q, %d)", s.gotSearchID, s.gotAfter, s.gotSize)
	}
	var page search.SavedSearchPage
	if err := json.Unmarshal(stdout.Bytes(), &page); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(page.Companies) != 2 {
		t.Errorf("companies = %d, want 2", len(page.Companies))
	}
	if !strings.Contains(stderr.String(), "-after cursor-2") {
		t.Errorf("stderr = %q, want next cursor hint", stderr.String())
	}
}

func Test_Run_SavedSearchIDs(t *testing.T) {
	s := &fakeSearches{page: &search.SavedSearchPage{SearchID: "149709", Companies: sampleCompanies}}
	a, stdout, stderr := newTestApp(nil, s)
	if err := a.run(context.Background(), []string{"saved-search", "-ids", "149709"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := stdout.String(); got != "101\n202\n" {
		t.Errorf("output = %q, want %q", got, "101\n202\n")
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty on last page", stderr.String())
	}
}

func Test_Run_SavedSearchNotFound(t *testing.T) {
	a, _, _ := newTestApp(nil, &fakeSearches{})
	err := a.run(context.Background(), []string{"saved-search", "urn:harmonic:saved_search:1"})
	if !errors.Is(err, search.ErrSearchNotFound) {
		t.Errorf("error = %v, want ErrSearchNotFound", err)
	}
}

func Test_Run_SavedSearchXLSX(t *testing.T) {
	s := &fakeSearches{page: &search.SavedSearchPage{SearchID: "149709", TotalCount: 2, Companies: sampleCompanies}}
	a, stdout, stderr := newTestApp(nil, s)
	path := filepath.Join(t.TempDir(), "companies.xlsx")

	if err := a.run(context.Background(), []string{"saved-search", "-xlsx", path, "149709"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty when writing a workbook", stdout.String())
	}
	if !strings.Contains(stderr.String(), "wrote 2 of 2 companies") {
		t.Errorf("stderr = %q", stderr.String())
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.CompanySheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
	if rows[1][0] != "101" || rows[2][2] != "Globex" {
		t.Errorf("rows = %v", rows[1:])
	}
}

func Test_Run_Companies(t *testing.T) {
	s := &fakeSearches{companies: sampleCompanies}
	a, stdout, _ := newTestApp(nil, s)
	if err := a.run(context.Background(), []string{"companies", "101,202"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if fmt.Sprint(s.gotIDs) != "[101 202]" {
		t.Errorf("ids = %v, want [101 202]", s.gotIDs)
	}
	var got []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("companies = %d, want 2", len(got))
	}
}

func Test_Run_CompaniesInvalidID(t *testing.T) {
	s := &fakeSearches{}
	a, _, _ := newTestApp(nil, s)
	err := a.run(context.Background(), []string{"companies", "101,abc"})
	if err == nil || !strings.Contains(err.Error(), `invalid company id "abc"`) {
		t.Fatalf("error = %v", err)
	}
	if s.gotIDs != nil {
		t.Errorf("CompaniesByIDs called with %v", s.gotIDs)
	}
}

// ---------------------------------------------------------------------------
// Token
// ---------------------------------------------------------------------------

func Test_Run_TokenPrints(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	if err := a.run(context.Background(), []string{"token", "eyJa.eyJb.sig"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got, want := stdout.String(), "HARMONIC_API_TOKEN=Bearer eyJa.eyJb.sig\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func Test_Run_TokenInvalid(t *testing.T) {
	a, _, _ := newTestApp(nil, nil)
	err := a.run(context.Background(), []string{"token", "hunter2"})
	if !errors.Is(err, config.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func Test_Run_TokenWrite(t *testing.T) {
	a, stdout, _ := newTestApp(nil, nil)
	a.envPath = filepath.Join(t.TempDir(), ".env")

	if err := a.run(context.Background(), []string{"token", "-write", "Bearer eyJa.eyJb.sig"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want token kept off stdout", stdout.String())
	}
	env, err := godotenv.Read(a.envPath)
	if err != nil {
		t.Fatalf("godotenv.Read() error = %v", err)
	}
	if env[config.EnvAPIToken] != "Bearer eyJa.eyJb.sig" {
		t.Errorf("%s = %q", config.EnvAPIToken, env[config.EnvAPIToken])
	}
}
