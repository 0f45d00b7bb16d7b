package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/tfstudio/internal/library"
	"github.com/kalambet/tfstudio/internal/tsf"
)

// resourceListLimit caps the transformations listed by tsf://transformations.
const resourceListLimit = 50

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Library *library.Manager
	Version string
}

// NewMCPServer creates an MCP server with the codec tools and the library
// resource registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"tfstudio",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("tfstudio: encode, decode and store transformation strings (TSF)."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("encode_tsf",
			mcp.WithDescription("Encode a transformation profile (JSON object) as a version 2 TSF string."),
			mcp.WithString("profile", mcp.Description("Profile as a JSON object"), mcp.Required()),
		),
		mcpEncode(),
	)

	s.AddTool(
		mcp.NewTool("decode_tsf",
			mcp.WithDescription("Decode a TSF string of version 1, 2 or 15 into a profile."),
			mcp.WithString("tsf", mcp.Description("TSF text"), mcp.Required()),
		),
		mcpDecode(),
	)

	s.AddTool(
		mcp.NewTool("upgrade_tsf",
			mcp.WithDescription("Rewrite a legacy TSF string as version 2."),
			mcp.WithString("tsf", mcp.Description("TSF text"), mcp.Required()),
		),
		mcpUpgrade(),
	)

	s.AddTool(
		mcp.NewTool("save_transformation",
			mcp.WithDescription("Store a TSF string in the transformation library."),
			mcp.WithString("tsf", mcp.Description("TSF text"), mcp.Required()),
		),
		mcpSaveTransformation(deps),
	)

	s.AddTool(
		mcp.NewTool("get_transformation",
			mcp.WithDescription("Fetch a stored transformation by ID."),
			mcp.WithString("id", mcp.Description("Transformation ID"), mcp.Required()),
		),
		mcpGetTransformation(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"tsf://transformations",
			"Transformation Library",
			mcp.WithResourceDescription("Most recently updated transformations as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTransformations(deps),
	)

	return s
}

func mcpEncode() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("profile")
		if err != nil {
			return mcpError("profile is required"), nil
		}

		var p tsf.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return mcpError(fmt.Sprintf("invalid profile: %v", err)), nil
		}

		return mcpText(tsf.Encode(p)), nil
	}
}

func mcpDecode() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("tsf")
		if err != nil {
			return mcpError("tsf is required"), nil
		}

		p, err := tsf.Parse(text)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		return mcpJSON(DecodeResponse{Version: tsf.Sniff(text).Version, Profile: p})
	}
}

func mcpUpgrade() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("tsf")
		if err != nil {
			return mcpError("tsf is required"), nil
		}

		out, version, err := tsf.Upgrade(text)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		return mcpJSON(UpgradeResponse{TSF: out, SourceVersion: version})
	}
}

func mcpSaveTransformation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("tsf")
		if err != nil {
			return mcpError("tsf is required"), nil
		}

		t, err := deps.Library.Import(text, "mcp")
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Saved transformation %s (%s)", t.ID, t.Name)), nil
	}
}

func mcpGetTransformation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		t, err := deps.Library.Get(id)
		if errors.Is(err, library.ErrNotFound) {
			return mcpError(fmt.Sprintf("transformation %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get transformation: %v", err)), nil
		}

		return mcpJSON(t)
	}
}

func mcpResourceTransformations(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		items, _, err := deps.Library.List(resourceListLimit, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list transformations: %w", err)
		}

		type summary struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			TSF           string `json:"tsf"`
			SourceVersion int    `json:"source_version"`
			UpdatedAt     string `json:"updated_at"`
		}

		summaries := make([]summary, len(items))
		for i, t := range items {
			summaries[i] = summary{
				ID:            t.ID,
				Name:          t.Name,
				TSF:           t.TSF,
				SourceVersion: t.SourceVersion,
				UpdatedAt:     t.UpdatedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transformations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
