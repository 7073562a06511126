package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CompanyRow is a flat view of a Harmonic company record with one column per
// field. Absent values are zero; pointer fields distinguish zero from absent.
type CompanyRow struct {
	CompanyID           int      `json:"company_id"`
	EntityURN           string   `json:"entity_urn"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	ShortDescription    string   `json:"short_description"`
	Headcount           *int     `json:"headcount"`
	FundingStage        string   `json:"funding_stage"`
	FundingTotal        *float64 `json:"funding_total"`
	LastFundingType     string   `json:"last_funding_type"`
	LastFundingDate     string   `json:"last_funding_date"`
	FoundingDate        string   `json:"founding_date"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
	LogoURL             string   `json:"logo_url"`
	WebsiteURL          string   `json:"website_url"`
	WebsiteDomain       string   `json:"website_domain"`
	RedirectURN         string   `json:"redirect_urn"`
	UserNotes           string   `json:"user_notes"`
	TeamNotes           string   `json:"team_notes"`
	LegalName           string   `json:"legal_name"`
	ExternalDescription string   `json:"external_description"`
	City                string   `json:"city"`
	State               string   `json:"state"`
	Country             string   `json:"country"`
	CEOIDs              []int    `json:"ceo_ids"`
	CEOLinkedinURLs     []string `json:"ceo_linkedin_urls"`
	CEONames            []string `json:"ceo_names"`
}

// CompanyColumns are the column names of CompanyRow.Values, in order.
var CompanyColumns = []string{
	"company_id", "entity_urn", "name", "description", "short_description",
	"headcount", "funding_stage", "funding_total", "last_funding_type",
	"last_funding_date", "founding_date", "created_at", "updated_at",
	"logo_url", "website_url", "website_domain", "redirect_urn",
	"user_notes", "team_notes", "legal_name", "external_description",
	"city", "state", "country", "ceo_ids", "ceo_linkedin_urls", "ceo_names",
}

// companyWire mirrors the BaseCompany fragment.
type companyWire struct {
	ID               int    `json:"id"`
	EntityURN        string `json:"entityUrn"`
	Name             string `json:"name"`
	LogoURL          string `json:"logoUrl"`
	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription"`
	UserNotes        string `json:"userNotes"`
	TeamNotes        string `json:"teamNotes"`
	Website          *struct {
		URL    string `json:"url"`
		Domain string `json:"domain"`
	} `json:"website"`
	Location *struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"location"`
	FoundingDate *struct {
		Date string `json:"date"`
	} `json:"foundingDate"`
	Funding *struct {
		LastFundingType string   `json:"lastFundingType"`
		LastFundingAt   string   `json:"lastFundingAt"`
		FundingStage    string   `json:"fundingStage"`
		FundingTotal    *float64 `json:"fundingTotal"`
	} `json:"funding"`
	Headcount           *int   `json:"headcount"`
	InitializedDate     string `json:"initializedDate"`
	UpdatedAt           string `json:"updatedAt"`
	LegalName           string `json:"legal_name"`
	ExternalDescription string `json:"external_description"`
	RedirectURN         string `json:"redirectUrn"`
	Founders            []*struct {
		ID       *int   `json:"id"`
		FullName string `json:"fullName"`
		Socials  *struct {
			Linkedin *struct {
				URL string `json:"url"`
			} `json:"linkedin"`
		} `json:"socials"`
	} `json:"person_relationships_founders_and_ceos"`
}

// FlattenCompany converts a company record from RunSavedSearch or
// CompaniesByIDs into a CompanyRow. Founder and CEO lists only carry the
// values that are present, so their lengths may differ.
func FlattenCompany(raw json.RawMessage) (CompanyRow, error) {
	var w companyWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return CompanyRow{}, fmt.Errorf("flatten company: %w", err)
	}

	row := CompanyRow{
		CompanyID:           w.ID,
		EntityURN:           w.EntityURN,
		Name:                w.Name,
		Description:         w.Description,
		ShortDescription:    w.ShortDescription,
		Headcount:           w.Headcount,
		CreatedAt:           w.InitializedDate,
		UpdatedAt:           w.UpdatedAt,
		LogoURL:             w.LogoURL,
		RedirectURN:         w.RedirectURN,
		UserNotes:           w.UserNotes,
		TeamNotes:           w.TeamNotes,
		LegalName:           w.LegalName,
		ExternalDescription: w.ExternalDescription,
		CEOIDs:              []int{},
		CEOLinkedinURLs:     []string{},
		CEONames:            []string{},
	}
	if f := w.Funding; f != nil {
		row.FundingStage = f.FundingStage
		row.FundingTotal = f.FundingTotal
		row.LastFundingType = f.LastFundingType
		row.LastFundingDate = f.LastFundingAt
	}
	if w.FoundingDate != nil {
		row.FoundingDate = w.FoundingDate.Date
	}
	if w.Website != nil {
		row.WebsiteURL = w.Website.URL
		row.WebsiteDomain = w.Website.Domain
	}
	if w.Location != nil {
		row.City = w.Location.City
		row.State = w.Location.State
		row.Country = w.Location.Country
	}
	for _, p := range w.Founders {
		if p == nil {
			continue
		}
		if p.ID != nil {
			row.CEOIDs = append(row.CEOIDs, *p.ID)
		}
		if p.FullName != "" {
			row.CEONames = append(row.CEONames, p.FullName)
		}
		if p.Socials != nil && p.Socials.Linkedin != nil && p.Socials.Linkedin.URL != "" {
			row.CEOLinkedinURLs = append(row.CEOLinkedinURLs, p.Socials.Linkedin.URL)
		}
	}
	return row, nil
}

// FlattenCompanies flattens every record, stopping at the first failure.
func FlattenCompanies(records []json.RawMessage) ([]CompanyRow, error) {
	rows := make([]CompanyRow, 0, len(records))
	for i, raw := range records {
		row, err := FlattenCompany(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CompanyIDs returns the non-zero "id" of each record in order.
func CompanyIDs(records []json.RawMessage) []int {
	ids := make([]int, 0, len(records))
	for _, raw := range records {
		var rec struct {
			ID int `json:"id"`
		}
		if json.Unmarshal(raw, &rec) != nil || rec.ID == 0 {
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids
}

// Values returns the row as cells matching CompanyColumns. Absent numbers are
// nil; lists are joined with ", ".
func (r CompanyRow) Values() []any {
	var headcount, fundingTotal any
	if r.Headcount != nil {
		headcount = *r.Headcount
	}
	if r.FundingTotal != nil {
		fundingTotal = *r.FundingTotal
	}
	ceoIDs := make([]string, len(r.CEOIDs))
	for i, id := range r.CEOIDs {
		ceoIDs[i] = fmt.Sprint(id)
	}

	return []any{
		r.CompanyID, r.EntityURN, r.Name, r.Description, r.ShortDescription,
		headcount, r.FundingStage, fundingTotal, r.LastFundingType,
		r.LastFundingDate, r.FoundingDate, r.CreatedAt, r.UpdatedAt,
		r.LogoURL, r.WebsiteURL, r.WebsiteDomain, r.RedirectURN,
		r.UserNotes, r.TeamNotes, r.LegalName, r.ExternalDescription,
		r.City, r.State, r.Country,
		strings.Join(ceoIDs, ", "), strings.Join(r.CEOLinkedinURLs, ", "), strings.Join(r.CEONames, ", "),
	}
}
