package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// ---------------------------------------------------------------------------
// Mock Client
// ---------------------------------------------------------------------------

// mockClient implements the Client interface for testing tool handlers.
type mockClient struct {
	executeFunc func(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

func (m *mockClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	return m.executeFunc(ctx, query, variables)
}

var _ Client = (*mockClient)(nil)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newCallToolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = toolNameGraphQLQuery
	req.Params.Arguments = args
	return req
}

func extractResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content entries")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is not TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func okClient() *mockClient {
	return &mockClient{
		executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
			return []byte(`{}`), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func Test_GraphQLTools_Registration(t *testing.T) {
	regs := GraphQLTools(okClient(), nil)
	if len(regs) != 1 {
		t.Fatalf("GraphQLTools() returned %d registrations, want 1", len(regs))
	}
	tool := regs[0].Tool
	if tool.Name != "graphql_query" {
		t.Errorf("tool name = %q, want %q", tool.Name, "graphql_query")
	}
	if regs[0].Handler == nil {
		t.Error("tool handler is nil")
	}

	for _, param := range []string{"query", "variables"} {
		prop, ok := tool.InputSchema.Properties[param]
		if !ok {
			t.Fatalf("input schema is missing %q", param)
		}
		propMap, ok := prop.(map[string]any)
		if !ok {
			t.Fatalf("%s property is %T, want map[string]any", param, prop)
		}
		if propMap["type"] != "string" {
			t.Errorf("%s property type = %v, want string", param, propMap["type"])
		}
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "query" {
		t.Errorf("required = %v, want [query]", tool.InputSchema.Required)
	}
}

// ---------------------------------------------------------------------------
// graphql_query handler
// ---------------------------------------------------------------------------

func Test_GraphQLQueryHandler_Cases(t *testing.T) {
	tests := []struct {
		name          string
		args          map[string]any
		executeFunc   func(ctx context.Context, query string, variables map[string]any) ([]byte, error)
		wantResultErr bool
		wantContains  string
	}{
		{
			name: "query without variables returns JSON result",
			args: map[string]any{"query": "query GetTeam { getCurrentUser { name } }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				if variables != nil {
					return nil, errors.New("expected nil variables")
				}
				return []byte(`{"getCurrentUser":{"name":"Ada"}}`), nil
			},
			wantContains: `"name": "Ada"`,
		},
		{
			name: "variables JSON is decoded",
			args: map[string]any{
				"query":     "query GetPersonById($id: Int!) { getPersonById(id: $id) { fullName } }",
				"variables": `{"id":179915866}`,
			},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				if variables["id"] != float64(179915866) {
					return nil, errors.New("expected id=179915866 in variables")
				}
				return []byte(`{"getPersonById":{"fullName":"Ada Lovelace"}}`), nil
			},
			wantContains: "Ada Lovelace",
		},
		{
			name: "invalid variables JSON is rejected before execution",
			args: map[string]any{"query": "{ a }", "variables": "not json"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called when variables JSON is invalid")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "parse variables JSON",
		},
		{
			name: "mutation is rejected before execution",
			args: map[string]any{"query": "mutation DeleteSavedSearch { a }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called for a mutation")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "mutation operations are not allowed",
		},
		{
			name: "comma-prefixed mutation is rejected",
			args: map[string]any{"query": ",mutation DeleteList { deleteCompanyWatchlist(id: 1) }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called for a mutation")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "mutation operations are not allowed",
		},
		{
			name: "mutation after fragment on the same line is rejected",
			args: map[string]any{"query": "fragment F on Company { id } mutation M { deleteCompanyWatchlist(id: 1) }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called for a mutation")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "mutation operations are not allowed",
		},
		{
			name: "subscription after a query is rejected",
			args: map[string]any{"query": "query A { a }\nsubscription Watch { b }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called for a subscription")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "subscription operations are not allowed",
		},
		{
			name: "empty query is rejected",
			args: map[string]any{"query": "  "},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				t.Error("Execute should not be called for an empty query")
				return nil, nil
			},
			wantResultErr: true,
			wantContains:  "must not be empty",
		},
		{
			name: "graphql error is reported",
			args: map[string]any{"query": "{ a }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				return nil, &GraphQLError{Errors: []ErrorEntry{{Message: "Cannot query field a"}}}
			},
			wantResultErr: true,
			wantContains:  "Cannot query field a",
		},
		{
			name: "missing token carries a hint",
			args: map[string]any{"query": "{ a }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				return nil, ErrNotConfigured
			},
			wantResultErr: true,
			wantContains:  "HARMONIC_API_TOKEN",
		},
		{
			name: "undecodable data produces error result",
			args: map[string]any{"query": "{ a }"},
			executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				return []byte("not valid json"), nil
			},
			wantResultErr: true,
			wantContains:  "invalid character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			regs := GraphQLTools(&mockClient{executeFunc: tt.executeFunc}, safety.NewAuditLogger(&buf))

			result, err := regs[0].Handler(context.Background(), newCallToolRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned non-nil error: %v", err)
			}
			text := extractResultText(t, result)

			if got := strings.HasPrefix(text, "error: "); got != tt.wantResultErr {
				t.Errorf("error result = %v, want %v (text %q)", got, tt.wantResultErr, text)
			}
			if !strings.Contains(text, tt.wantContains) {
				t.Errorf("result text = %q, want it to contain %q", text, tt.wantContains)
			}

			var entry safety.AuditEntry
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("audit output is not valid JSON: %v\n%s", err, buf.String())
			}
			if entry.Tool != toolNameGraphQLQuery {
				t.Errorf("audit tool = %q, want %q", entry.Tool, toolNameGraphQLQuery)
			}
			if wantOK := !tt.wantResultErr; (entry.Result == "ok") != wantOK {
				t.Errorf("audit result = %q, want ok=%v", entry.Result, wantOK)
			}
		})
	}
}

func Test_GraphQLQueryHandler_AuditRecordsOperationName(t *testing.T) {
	var buf bytes.Buffer
	regs := GraphQLTools(okClient(), safety.NewAuditLogger(&buf))

	_, _ = regs[0].Handler(context.Background(), newCallToolRequest(map[string]any{
		"query": "query GetCurrentUser { getCurrentUser { id } }",
	}))

	if !strings.Contains(buf.String(), `"operation":"GetCurrentUser"`) {
		t.Errorf("audit line %q does not record the operation name", buf.String())
	}
	if strings.Contains(buf.String(), "getCurrentUser { id }") {
		t.Error("audit line should not contain the full document")
	}
}

func Test_GraphQLQueryHandler_NilAuditLogger_NoPanic(t *testing.T) {
	regs := GraphQLTools(okClient(), nil)
	result, err := regs[0].Handler(context.Background(), newCallToolRequest(map[string]any{"query": "{ a }"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if text := extractResultText(t, result); text != "{}" {
		t.Errorf("result text = %q, want %q", text, "{}")
	}
}
