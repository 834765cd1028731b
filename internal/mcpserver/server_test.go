package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/postindex/internal/artifact"
	"github.com/starford/postindex/internal/catalog"
	"github.com/starford/postindex/internal/category"
	"github.com/starford/postindex/internal/metadata"
	"github.com/starford/postindex/internal/pipeline"
	"github.com/starford/postindex/internal/postservice"
	"github.com/starford/postindex/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, content := testutil.TestDir(t)
	_, out := testutil.TestDir(t)
	testutil.WritePost(t, content, "alpha.md", testutil.PostSpec{
		Title: "Alpha", Date: "2024-02-01", Category: "CS", Subcategory: "algorithms",
		Tags: []string{"graphs"}, Body: "Dijkstra walks the frontier.\n",
	})
	testutil.WritePost(t, content, "beta.md", testutil.PostSpec{
		Title: "Beta", Date: "2024-01-01", Category: "Life", Body: "Coffee.\n",
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := artifact.NewWriter(out)
	b := &pipeline.Builder{
		Content:    content,
		Extractor:  metadata.NewExtractor(content, testutil.Clock()),
		Writer:     writer,
		Categories: category.Defaults,
		Logger:     logger,
	}
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	db, err := catalog.Open(catalog.MemoryDSN)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := postservice.NewService(content, writer, db, logger)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "get_post_format":
		result, err = srv.getPostFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPosts(t *testing.T) {
	srv := testServer(t)

	var body struct {
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_posts", map[string]any{}))), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 || body.Posts[0].Slug != "alpha" {
		t.Fatalf("body = %+v", body)
	}

	r := callTool(t, srv, "list_posts", map[string]any{"category": "Life", "limit": float64(5)})
	if !strings.Contains(resultText(r), `"beta"`) || strings.Contains(resultText(r), `"alpha"`) {
		t.Errorf("filtered = %s", resultText(r))
	}
}

func TestSearchPosts(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_posts", map[string]any{"query": "Dijkstra"})
	if !strings.Contains(resultText(r), `"slug": "alpha"`) {
		t.Errorf("search = %s", resultText(r))
	}

	r = callTool(t, srv, "search_posts", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestReadPost(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "read_post", map[string]any{"slug": "alpha"}))
	if !strings.Contains(text, `"title": "Alpha"`) || !strings.Contains(text, "Dijkstra walks the frontier.") {
		t.Errorf("read = %q", text)
	}
}

func TestReadPostMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestListCategories(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "list_categories", map[string]any{}))
	if !strings.Contains(text, `"name": "Algorithms"`) || !strings.Contains(text, `"id": "Platform"`) {
		t.Errorf("categories = %s", text)
	}
}

func TestGetPostFormat(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "get_post_format", map[string]any{})); text != PostFormat {
		t.Error("format text mismatch")
	}
}
