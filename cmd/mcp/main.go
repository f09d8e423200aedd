package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/voxrag/voxrag/internal/bootstrap"
	"github.com/voxrag/voxrag/internal/config"
	"github.com/voxrag/voxrag/internal/core/ports"
	"github.com/voxrag/voxrag/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the MCP stream, logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	s := server.NewMCPServer("voxrag", "1.0.0", server.WithToolCapabilities(false))

	askTool := mcp.NewTool("ask_documents",
		mcp.WithDescription("Answer a question using the indexed document corpus. Keeps per-session conversation context for follow-up questions."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation session identifier. Reuse the same value for follow-up questions."),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer from the documents."),
		),
	)
	s.AddTool(askTool, askDocumentsHandler(app.QueryUC))

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}

func askDocumentsHandler(query ports.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		question, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := query.HandleQuery(ctx, sessionID, question, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var b strings.Builder
		b.WriteString(result.Response)
		if len(result.Sources) > 0 {
			b.WriteString("\n\nSources:\n")
			for _, src := range result.Sources {
				fmt.Fprintf(&b, "- document %s, page %d\n", src.DocumentID, src.Page)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
