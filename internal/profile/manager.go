package profile

import (
	"context"
	"fmt"

	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/queries"
)

// Compile-time interface check.
var _ ProfileFetcher = (*GraphQLProfileManager)(nil)

// GraphQLProfileManager implements ProfileFetcher by querying the Harmonic
// GraphQL API. Every method performs exactly one request.
type GraphQLProfileManager struct {
	client graphql.Client
}

// NewGraphQLProfileManager returns a new GraphQLProfileManager that uses the
// provided GraphQL client.
func NewGraphQLProfileManager(client graphql.Client) *GraphQLProfileManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLProfileManager{client: client}
}

// fetch runs the named document for personID and normalizes the result.
func (m *GraphQLProfileManager) fetch(ctx context.Context, document string, personID int) (*Profile, error) {
	if personID <= 0 {
		return nil, fmt.Errorf("invalid person id %d", personID)
	}

	query, err := queries.Load(document)
	if err != nil {
		return nil, err
	}

	data, err := m.client.Execute(ctx, query, map[string]any{"id": personID})
	if err != nil {
		return nil, err
	}

	p, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	if p.PersonID == 0 {
		p.PersonID = personID
	}
	return p, nil
}

// GetFullProfile fetches highlights, education, and experience for personID
// in a single request.
func (m *GraphQLProfileManager) GetFullProfile(ctx context.Context, personID int) (*Profile, error) {
	p, err := m.fetch(ctx, queries.FullProfile, personID)
	if err != nil {
		return nil, fmt.Errorf("get full profile %d: %w", personID, err)
	}
	return p, nil
}

// GetPersonHighlights returns the highlight categories of personID, such as
// "Top University" or "Current Student".
func (m *GraphQLProfileManager) GetPersonHighlights(ctx context.Context, personID int) ([]string, error) {
	p, err := m.fetch(ctx, queries.PersonHighlights, personID)
	if err != nil {
		return nil, fmt.Errorf("get person highlights %d: %w", personID, err)
	}
	return p.Highlights, nil
}

// GetEducation returns the education history of personID.
func (m *GraphQLProfileManager) GetEducation(ctx context.Context, personID int) ([]Education, error) {
	p, err := m.fetch(ctx, queries.PersonEducation, personID)
	if err != nil {
		return nil, fmt.Errorf("get education %d: %w", personID, err)
	}
	return p.Education, nil
}

// GetExperience returns the work experience of personID.
func (m *GraphQLProfileManager) GetExperience(ctx context.Context, personID int) ([]Experience, error) {
	p, err := m.fetch(ctx, queries.PersonExperience, personID)
	if err != nil {
		return nil, fmt.Errorf("get experience %d: %w", personID, err)
	}
	return p.Experience, nil
}
