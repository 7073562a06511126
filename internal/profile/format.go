package profile

import (
	"fmt"
	"strings"
)

// year returns the leading YYYY of an ISO-8601 date, or "" when too short.
func year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// FormatEducation renders e as two indented lines for terminal output.
func FormatEducation(e Education) string {
	school := "Unknown School"
	if e.School != nil && e.School.Name != "" {
		school = e.School.Name
	}

	var dates string
	start, end := year(e.StartDate), year(e.EndDate)
	switch {
	case start != "" && end != "":
		dates = fmt.Sprintf(" (%s-%s)", start, end)
	case end != "":
		dates = fmt.Sprintf(" (%s)", end)
	}

	var parts []string
	if e.Degree != "" {
		parts = append(parts, e.Degree)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	desc := "No degree info"
	if len(parts) > 0 {
		desc = strings.Join(parts, " in ")
	}

	return fmt.Sprintf("  %s%s\n    %s", school, dates, desc)
}

// FormatExperience renders e for terminal output, with a second line for
// funding stage and headcount when known.
func FormatExperience(e Experience) string {
	company := "Unknown Company"
	if e.Company != nil && e.Company.Name != "" {
		company = e.Company.Name
	}
	title := e.Title
	if title == "" {
		title = "Unknown Title"
	}

	start, end := year(e.StartDate), year(e.EndDate)
	if end == "" && e.IsCurrentPosition {
		end = "Present"
	}
	var dates string
	switch {
	case start != "" && end != "":
		dates = fmt.Sprintf(" (%s-%s)", start, end)
	case start != "":
		dates = fmt.Sprintf(" (%s-)", start)
	}

	var current string
	if e.IsCurrentPosition {
		current = " [CURRENT]"
	}

	line := fmt.Sprintf("  %s at %s%s%s", title, company, dates, current)

	var details []string
	if e.Company != nil {
		if e.Company.FundingStage != "" {
			details = append(details, "Stage: "+e.Company.FundingStage)
		}
		if e.Company.Headcount != nil && *e.Company.Headcount > 0 {
			details = append(details, fmt.Sprintf("Headcount: %d", *e.Company.Headcount))
		}
	}
	if len(details) > 0 {
		line += "\n    " + strings.Join(details, ", ")
	}
	return line
}
