package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/jamesprial/harmonic-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameGraphQLQuery = "graphql_query"

// GraphQLTools returns the graphql_query escape hatch, which runs an arbitrary
// read-only document against the Harmonic API.
func GraphQLTools(client Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, audit),
	}
}

func toolGraphQLQuery(client Client, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQLQuery,
		mcp.WithDescription("Execute an arbitrary GraphQL query against the Harmonic API. Use when the data needed is not covered by the person and search tools. Mutations are rejected."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query document. Name the operation (query GetFoo { ... }) so it shows up in Harmonic's request log."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the query."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")
		params := map[string]any{
			"operation": OperationName(query),
			"variables": variablesStr,
		}

		fail := func(msg string) (*mcp.CallToolResult, error) {
			tools.LogAudit(audit, toolNameGraphQLQuery, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		if strings.TrimSpace(query) == "" {
			return fail("query must not be empty")
		}
		for _, op := range Operations(query) {
			if op.Type != "query" {
				return fail(fmt.Sprintf("%s operations are not allowed", op.Type))
			}
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				return fail(fmt.Sprintf("parse variables JSON: %v", err))
			}
		}

		data, err := client.Execute(ctx, query, parsedVars)
		if err != nil {
			return fail(Describe(err))
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fail(err.Error())
		}

		tools.LogAudit(audit, toolNameGraphQLQuery, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
