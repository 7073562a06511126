package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/jamesprial/harmonic-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameSavedSearchRun = "saved_search_run"
	toolNameCompaniesByID  = "companies_by_id"
	toolNameSearch         = "harmonic_search"

	// maxPageSize bounds the page size MCP callers may request.
	maxPageSize = 200
)

// SearchTools returns the company search tools. filter restricts which saved
// searches saved_search_run may run; nil allows all.
func SearchTools(s Searcher, filter *safety.Filter, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		savedSearchRun(s, filter, audit),
		companiesByID(s, audit),
		typeaheadSearch(s, audit),
	}
}

func savedSearchRun(s Searcher, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameSavedSearchRun,
		mcp.WithDescription("Run a Harmonic saved company search and return one page of company records. Pass end_cursor from a previous call as after to get the next page."),
		mcp.WithString("search_id",
			mcp.Required(),
			mcp.Description("Saved search ID or URN, e.g. \"149709\" or \"urn:harmonic:saved_search:149709\"."),
		),
		mcp.WithString("after",
			mcp.Description("Cursor to continue from (endCursor of the previous page)."),
		),
		mcp.WithNumber("size",
			mcp.Description(fmt.Sprintf("Page size, 1-%d. Omit to let Harmonic choose.", maxPageSize)),
		),
		mcp.WithBoolean("flatten",
			mcp.Description("Return flattened company rows instead of raw records."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		searchID := strings.TrimSpace(req.GetString("search_id", ""))
		after := req.GetString("after", "")
		size := req.GetInt("size", 0)
		flatten := req.GetBool("flatten", false)
		params := map[string]any{"search_id": searchID, "after": after, "size": size, "flatten": flatten}

		fail := func(msg string) (*mcp.CallToolResult, error) {
			tools.LogAudit(audit, toolNameSavedSearchRun, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		if searchID == "" {
			return fail("search_id is required")
		}
		if !filter.IsAllowed(searchID) {
			return fail(fmt.Sprintf("saved search %q is not allowed by the server's filter", searchID))
		}
		if size < 0 || size > maxPageSize {
			return fail(fmt.Sprintf("size must be between 1 and %d", maxPageSize))
		}

		page, err := s.RunSavedSearchPage(ctx, searchID, after, size)
		if err != nil {
			return fail(graphql.Describe(err))
		}

		if !flatten {
			tools.LogAudit(audit, toolNameSavedSearchRun, params, "ok", start)
			return tools.JSONResult(page), nil
		}

		rows, err := FlattenCompanies(page.Companies)
		if err != nil {
			return fail(err.Error())
		}
		tools.LogAudit(audit, toolNameSavedSearchRun, params, "ok", start)
		return tools.JSONResult(map[string]any{
			"searchId":    page.SearchID,
			"name":        page.Name,
			"totalCount":  page.TotalCount,
			"endCursor":   page.EndCursor,
			"hasNextPage": page.HasNextPage,
			"companies":   rows,
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func companiesByID(s Searcher, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameCompaniesByID,
		mcp.WithDescription("Fetch Harmonic company records by numeric company ID."),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated company IDs, e.g. \"62363328,1234\"."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		raw := req.GetString("ids", "")
		params := map[string]any{"ids": raw}

		ids, err := ParseIDs(raw)
		if err == nil && len(ids) == 0 {
			err = fmt.Errorf("ids must list at least one company id")
		}
		if err != nil {
			tools.LogAudit(audit, toolNameCompaniesByID, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		companies, err := s.CompaniesByIDs(ctx, ids)
		if err != nil {
			tools.LogAudit(audit, toolNameCompaniesByID, params, "error: "+err.Error(), start)
			return tools.ErrorResult(graphql.Describe(err)), nil
		}

		tools.LogAudit(audit, toolNameCompaniesByID, params, "ok", start)
		return tools.JSONResult(companies), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func typeaheadSearch(s Searcher, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameSearch,
		mcp.WithDescription("Search Harmonic by name for people, companies, and investors. Use the returned IDs with person_profile or companies_by_id."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text name to search for."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		query := req.GetString("query", "")
		params := map[string]any{"query": query}

		result, err := s.Typeahead(ctx, query)
		if err != nil {
			tools.LogAudit(audit, toolNameSearch, params, "error: "+err.Error(), start)
			return tools.ErrorResult(graphql.Describe(err)), nil
		}

		tools.LogAudit(audit, toolNameSearch, params, "ok", start)
		return tools.JSONResult(result), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// ParseIDs parses a comma or whitespace separated list of positive company
// IDs.
func ParseIDs(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid company id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
