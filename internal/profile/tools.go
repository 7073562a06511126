package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/jamesprial/harmonic-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameProfile    = "person_profile"
	toolNameHighlights = "person_highlights"
	toolNameEducation  = "person_education"
	toolNameExperience = "person_experience"
)

// ProfileTools returns the read-only person tools.
func ProfileTools(f ProfileFetcher, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		personTool(toolNameProfile,
			"Get a Harmonic person's highlights, education, and work experience in one call.",
			audit, func(ctx context.Context, id int) (any, error) { return f.GetFullProfile(ctx, id) }),
		personTool(toolNameHighlights,
			"List a Harmonic person's highlight categories, such as \"Top University\" or \"Prior Exit\".",
			audit, func(ctx context.Context, id int) (any, error) { return f.GetPersonHighlights(ctx, id) }),
		personTool(toolNameEducation,
			"List a Harmonic person's education history with school, degree, field, and dates.",
			audit, func(ctx context.Context, id int) (any, error) { return f.GetEducation(ctx, id) }),
		personTool(toolNameExperience,
			"List a Harmonic person's work experience with title, company, funding stage, and dates.",
			audit, func(ctx context.Context, id int) (any, error) { return f.GetExperience(ctx, id) }),
	}
}

// personTool builds a tool taking a single person_id argument.
func personTool(name, description string, audit *safety.AuditLogger, fetch func(context.Context, int) (any, error)) tools.Registration {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithNumber("person_id",
			mcp.Required(),
			mcp.Description("Numeric Harmonic person ID, as in https://console.harmonic.ai/dashboard/person/<id>."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		personID := req.GetInt("person_id", 0)
		params := map[string]any{"person_id": personID}

		if personID <= 0 {
			msg := fmt.Sprintf("person_id must be a positive integer, got %d", personID)
			tools.LogAudit(audit, name, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		result, err := fetch(ctx, personID)
		if err != nil {
			tools.LogAudit(audit, name, params, "error: "+err.Error(), start)
			return tools.ErrorResult(graphql.Describe(err)), nil
		}

		tools.LogAudit(audit, name, params, "ok", start)
		return tools.JSONResult(result), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
