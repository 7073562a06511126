package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseError reports a response whose shape does not match what Normalize
// expects, such as a scalar where a list of objects belongs. Index is the
// offending element, or -1 when the field itself is malformed.
type ParseError struct {
	Field string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("parse profile: %s[%d]: %v", e.Field, e.Index, e.Err)
	}
	return fmt.Sprintf("parse profile: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(field string, index int, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Index: index, Err: fmt.Errorf(format, args...)}
}

// jsonKind names the JSON type of raw from its first significant byte.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// experienceWire mirrors the upstream ExperienceMetadata shape.
type experienceWire struct {
	Title             string `json:"title"`
	Department        string `json:"department"`
	Description       string `json:"description"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate"`
	IsCurrentPosition bool   `json:"isCurrentPosition"`
	Company           *struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		LogoURL   string `json:"logoUrl"`
		Headcount *int   `json:"headcount"`
		Funding   *struct {
			FundingStage string   `json:"fundingStage"`
			FundingTotal *float64 `json:"fundingTotal"`
		} `json:"funding"`
	} `json:"company"`
}

// highlightWire mirrors the upstream PersonHighlight shape.
type highlightWire struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// personWire is the person object with each attribute left raw so that
// missing, null, and malformed values can be told apart.
type personWire struct {
	ID         json.RawMessage `json:"id"`
	FullName   json.RawMessage `json:"fullName"`
	Highlights json.RawMessage `json:"highlights"`
	Education  json.RawMessage `json:"education"`
	Experience json.RawMessage `json:"experience"`
}

// Normalize converts the data payload of a person query into a Profile.
//
// raw may be the data object ({"person": {...}}) or a full response envelope
// ({"data": {"person": {...}}}). A missing or null person, highlights,
// education, or experience yields an empty slice for that attribute. A value
// of the wrong JSON type yields a *ParseError.
func Normalize(raw []byte) (*Profile, error) {
	p := &Profile{
		Highlights: []string{},
		Education:  []Education{},
		Experience: []Experience{},
	}

	personRaw, err := locatePerson(raw)
	if err != nil {
		return nil, err
	}
	if kind := jsonKind(personRaw); kind == "null" {
		return p, nil
	} else if kind != "object" {
		return nil, parseErr("person", -1, "expected object, got %s", kind)
	}

	var person personWire
	if err := json.Unmarshal(personRaw, &person); err != nil {
		return nil, &ParseError{Field: "person", Index: -1, Err: err}
	}

	if jsonKind(person.ID) == "number" {
		_ = json.Unmarshal(person.ID, &p.PersonID)
	}
	if jsonKind(person.FullName) == "string" {
		_ = json.Unmarshal(person.FullName, &p.FullName)
	}

	if p.Highlights, err = normalizeHighlights(person.Highlights); err != nil {
		return nil, err
	}
	if p.Education, err = normalizeEducation(person.Education); err != nil {
		return nil, err
	}
	if p.Experience, err = normalizeExperience(person.Experience); err != nil {
		return nil, err
	}
	return p, nil
}

// locatePerson returns the raw person value, unwrapping an optional "data"
// envelope.
func locatePerson(raw []byte) (json.RawMessage, error) {
	kind := jsonKind(raw)
	if kind == "null" {
		return nil, nil
	}
	if kind != "object" {
		return nil, parseErr("data", -1, "expected object, got %s", kind)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &ParseError{Field: "data", Index: -1, Err: err}
	}

	if data, ok := top["data"]; ok {
		if _, hasPerson := top["person"]; !hasPerson {
			return locatePerson(data)
		}
	}
	return top["person"], nil
}

// elements splits a raw list attribute into its elements. Absent and null
// values yield no elements.
func elements(field string, raw json.RawMessage) ([]json.RawMessage, error) {
	switch kind := jsonKind(raw); kind {
	case "null":
		return nil, nil
	case "array":
	default:
		return nil, parseErr(field, -1, "expected array, got %s", kind)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &ParseError{Field: field, Index: -1, Err: err}
	}
	return elems, nil
}

// normalizeHighlights returns the ordered, de-duplicated highlight
// categories. Elements may be {category, text} objects or plain strings.
func normalizeHighlights(raw json.RawMessage) ([]string, error) {
	elems, err := elements("highlights", raw)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for i, elem := range elems {
		var label string
		switch kind := jsonKind(elem); kind {
		case "string":
			if err := json.Unmarshal(elem, &label); err != nil {
				return nil, &ParseError{Field: "highlights", Index: i, Err: err}
			}
		case "object":
			var h highlightWire
			if err := json.Unmarshal(elem, &h); err != nil {
				return nil, &ParseError{Field: "highlights", Index: i, Err: err}
			}
			label = h.Category
		case "null":
			continue
		default:
			return nil, parseErr("highlights", i, "expected object or string, got %s", kind)
		}

		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out, nil
}

func normalizeEducation(raw json.RawMessage) ([]Education, error) {
	elems, err := elements("education", raw)
	if err != nil {
		return nil, err
	}

	out := make([]Education, 0, len(elems))
	for i, elem := range elems {
		if kind := jsonKind(elem); kind != "object" {
			return nil, parseErr("education", i, "expected object, got %s", kind)
		}
		var e Education
		if err := json.Unmarshal(elem, &e); err != nil {
			return nil, &ParseError{Field: "education", Index: i, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

func normalizeExperience(raw json.RawMessage) ([]Experience, error) {
	elems, err := elements("experience", raw)
	if err != nil {
		return nil, err
	}

	out := make([]Experience, 0, len(elems))
	for i, elem := range elems {
		if kind := jsonKind(elem); kind != "object" {
			return nil, parseErr("experience", i, "expected object, got %s", kind)
		}
		var w experienceWire
		if err := json.Unmarshal(elem, &w); err != nil {
			return nil, &ParseError{Field: "experience", Index: i, Err: err}
		}

		exp := Experience{
			Title:             w.Title,
			Department:        w.Department,
			Description:       w.Description,
			StartDate:         w.StartDate,
			EndDate:           w.EndDate,
			IsCurrentPosition: w.IsCurrentPosition,
		}
		if w.Company != nil {
			exp.Company = &Company{
				ID:        w.Company.ID,
				Name:      w.Company.Name,
				LogoURL:   w.Company.LogoURL,
				Headcount: w.Company.Headcount,
			}
			if w.Company.Funding != nil {
				exp.Company.FundingStage = w.Company.Funding.FundingStage
				exp.Company.FundingTotal = w.Company.Funding.FundingTotal
			}
		}
		out = append(out, exp)
	}
	return out, nil
}
