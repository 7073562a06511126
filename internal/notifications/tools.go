package notifications

import (
	"context"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/jamesprial/harmonic-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameAlerts = "api_alerts"

// NotificationTools returns the api_alerts tool, which lists recent Harmonic
// API failures seen by n.
func NotificationTools(n *Notifier, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolAlerts(n, audit),
	}
}

func toolAlerts(n *Notifier, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameAlerts,
		mcp.WithDescription("List recent Harmonic API failures, newest first. Kind \"auth\" means the API token is missing, rejected, or expired."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of failures to return (default: 20)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		limit := req.GetInt("limit", 20)
		params := map[string]any{"limit": limit}

		notices := n.Recent(limit)

		tools.LogAudit(audit, toolNameAlerts, params, "ok", start)
		return tools.JSONResult(notices), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
