// Package profile fetches Harmonic person profiles and normalizes them into
// plain Go structures.
package profile

import "context"

// Profile is the normalized view of a Harmonic person. Slices are never nil;
// attributes missing from the upstream response are empty.
type Profile struct {
	PersonID   int          `json:"personId"`
	FullName   string       `json:"fullName,omitempty"`
	Highlights []string     `json:"highlights"`
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
}

// School identifies the institution of an education entry.
type School struct {
	Name        string `json:"name"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

// Education is a single education entry. Dates are passed through as the
// upstream ISO-8601 strings.
type Education struct {
	School    *School `json:"school,omitempty"`
	Degree    string  `json:"degree,omitempty"`
	Field     string  `json:"field,omitempty"`
	Grade     string  `json:"grade,omitempty"`
	StartDate string  `json:"startDate,omitempty"`
	EndDate   string  `json:"endDate,omitempty"`
}

// Company is the employer attached to an experience entry.
type Company struct {
	ID           int      `json:"id,omitempty"`
	Name         string   `json:"name"`
	LogoURL      string   `json:"logoUrl,omitempty"`
	Headcount    *int     `json:"headcount,omitempty"`
	FundingStage string   `json:"fundingStage,omitempty"`
	FundingTotal *float64 `json:"fundingTotal,omitempty"`
}

// Experience is a single work experience entry.
type Experience struct {
	Title             string   `json:"title,omitempty"`
	Department        string   `json:"department,omitempty"`
	Description       string   `json:"description,omitempty"`
	Company           *Company `json:"company,omitempty"`
	StartDate         string   `json:"startDate,omitempty"`
	EndDate           string   `json:"endDate,omitempty"`
	IsCurrentPosition bool     `json:"isCurrentPosition"`
}

// ProfileFetcher defines the person profile operations.
type ProfileFetcher interface {
	GetFullProfile(ctx context.Context, personID int) (*Profile, error)
	GetPersonHighlights(ctx context.Context, personID int) ([]string, error)
	GetEducation(ctx context.Context, personID int) ([]Education, error)
	GetExperience(ctx context.Context, personID int) ([]Experience, error)
}
