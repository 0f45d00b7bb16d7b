package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/tfstudio/internal/library"
	"github.com/kalambet/tfstudio/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return MCPDeps{Library: library.NewManager(store, library.DefaultCacheTTL)}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestNewMCPServer(t *testing.T) {
	s := NewMCPServer(newTestMCPDeps(t))
	require.NotNil(t, s)
}

func TestMCPTool_Encode(t *testing.T) {
	result, err := mcpEncode()(context.Background(), makeCallToolRequest("encode_tsf", map[string]interface{}{
		"profile": catProfileJSON,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))
	assert.True(t, strings.HasPrefix(toolText(t, result), "2.0;%Cat;%"))
}

func TestMCPTool_Encode_InvalidProfile(t *testing.T) {
	result, err := mcpEncode()(context.Background(), makeCallToolRequest("encode_tsf", map[string]interface{}{
		"profile": "{broken",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPTool_MissingArgument(t *testing.T) {
	deps := newTestMCPDeps(t)
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"encode_tsf":          mcpEncode(),
		"decode_tsf":          mcpDecode(),
		"upgrade_tsf":         mcpUpgrade(),
		"save_transformation": mcpSaveTransformation(deps),
		"get_transformation":  mcpGetTransformation(deps),
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := h(context.Background(), makeCallToolRequest(name, map[string]interface{}{}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, toolText(t, result), "is required")
		})
	}
}

func TestMCPTool_Decode(t *testing.T) {
	result, err := mcpDecode()(context.Background(), makeCallToolRequest("decode_tsf", map[string]interface{}{
		"tsf": "2.0;%Cat;%img.png;%1;%0;%;%a|%1,%b|%2;%;%;%;%;%",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var got DecodeResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &got))
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.Profile.Flags.Big)
	require.Len(t, got.Profile.Prefixes, 2)
	assert.Equal(t, "b", got.Profile.Prefixes[1].Content)
}

func TestMCPTool_Decode_Invalid(t *testing.T) {
	result, err := mcpDecode()(context.Background(), makeCallToolRequest("decode_tsf", map[string]interface{}{
		"tsf": "hello",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "unrecognized version")
}

func TestMCPTool_Upgrade(t *testing.T) {
	result, err := mcpUpgrade()(context.Background(), makeCallToolRequest("upgrade_tsf", map[string]interface{}{
		"tsf": "1;Cat;img.png;2;7;Px;Sx;bio;0;;0;;0;;0;;0;;0;",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var got UpgradeResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &got))
	assert.Equal(t, 1, got.SourceVersion)
	assert.Equal(t, "2.0;%Cat;%img.png;%2;%7;%bio;%;%;%;%;%;%", got.TSF)
}

func TestMCPTool_SaveAndGet(t *testing.T) {
	deps := newTestMCPDeps(t)

	result, err := mcpSaveTransformation(deps)(context.Background(), makeCallToolRequest("save_transformation", map[string]interface{}{
		"tsf": "2.0;%Cat;%img.png;%0;%0;%;%;%;%;%;%;%",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	items, total, err := deps.Library.List(10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "mcp", items[0].Source)
	assert.Contains(t, toolText(t, result), items[0].ID)

	result, err = mcpGetTransformation(deps)(context.Background(), makeCallToolRequest("get_transformation", map[string]interface{}{
		"id": items[0].ID,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var got library.Transformation
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &got))
	assert.Equal(t, "Cat", got.Name)
}

func TestMCPTool_Save_Invalid(t *testing.T) {
	deps := newTestMCPDeps(t)

	result, err := mcpSaveTransformation(deps)(context.Background(), makeCallToolRequest("save_transformation", map[string]interface{}{
		"tsf": "2.0;%too;%few",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "invalid or unreadable TSF")
}

func TestMCPTool_Get_NotFound(t *testing.T) {
	deps := newTestMCPDeps(t)

	result, err := mcpGetTransformation(deps)(context.Background(), makeCallToolRequest("get_transformation", map[string]interface{}{
		"id": "nope",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "not found")
}

func TestMCPResource_Transformations(t *testing.T) {
	deps := newTestMCPDeps(t)
	_, err := deps.Library.Import("2.0;%Cat;%img.png;%0;%0;%;%;%;%;%;%;%", "cli")
	require.NoError(t, err)

	contents, err := mcpResourceTransformations(deps)(context.Background(), makeReadResourceRequest("tsf://transformations"))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "got %T", contents[0])
	assert.Equal(t, "tsf://transformations", tc.URI)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Cat", items[0]["name"])
}
