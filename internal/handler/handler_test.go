package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"docshelf/internal/config"
	"docshelf/internal/domain/models"
	"docshelf/internal/engine"
	"docshelf/internal/kv"
	"docshelf/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := kv.NewMemory()
	t.Cleanup(func() { mem.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(context.Background(), store.NewKVNodeStore(mem), config.DefaultSettings(), logger)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	folderHandler := NewFolderHandler(eng, logger)
	docHandler := NewDocumentHandler(eng, logger)
	nodeHandler := NewNodeHandler(eng, logger)
	treeHandler := NewTreeHandler(eng, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}/contents", folderHandler.ListContents)
	mux.HandleFunc("POST /api/folders/{id}/toggle", folderHandler.ToggleExpand)
	mux.HandleFunc("GET /api/contents", folderHandler.ListRoot)
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("PUT /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("GET /api/nodes/{id}", nodeHandler.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	mux.HandleFunc("POST /api/nodes/{id}/move", nodeHandler.MoveNode)
	mux.HandleFunc("GET /api/search", treeHandler.Search)
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestFolderLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var folder models.Node
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{
		"name": "Projects",
		"tags": []string{"workspace"},
	}, &folder)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create folder status = %d, want 201", resp.StatusCode)
	}
	if folder.ID == "" || folder.Kind != models.KindFolder {
		t.Fatalf("create folder = %+v", folder)
	}

	var doc models.Node
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/documents", map[string]any{
		"name":      "Roadmap",
		"parent_id": folder.ID,
		"file_type": "md",
		"byte_size": 1024,
	}, &doc)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create document status = %d, want 201", resp.StatusCode)
	}
	if doc.Version != "v1" {
		t.Fatalf("document version = %q, want v1", doc.Version)
	}

	var listing struct {
		Contents []*models.Node `json:"contents"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/folders/"+folder.ID+"/contents", nil, &listing)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	if len(listing.Contents) != 1 || listing.Contents[0].ID != doc.ID {
		t.Fatalf("listing = %+v, want the document", listing.Contents)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/nodes/"+folder.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Cascade took the document with it.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/nodes/"+doc.ID, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted document status = %d, want 404", resp.StatusCode)
	}
}

func TestValidationProblems(t *testing.T) {
	srv := newTestServer(t)

	var problem struct {
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{
		"name": "a/b",
	}, &problem)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("slash name status = %d, want 400", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type = %q, want application/problem+json", ct)
	}
	if problem.Status != http.StatusBadRequest || problem.Detail == "" {
		t.Fatalf("problem body = %+v", problem)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/nodes/ghost", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown node status = %d, want 404", resp.StatusCode)
	}
}

func TestMoveSemantics(t *testing.T) {
	srv := newTestServer(t)

	var a, b models.Node
	doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": "A"}, &a)
	doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": "B", "parent_id": a.ID}, &b)

	// Moving A under its own child is a conflict.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/nodes/"+a.ID+"/move", map[string]any{
		"parent_id": b.ID,
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cycle move status = %d, want 409", resp.StatusCode)
	}

	// Explicit null parent_id moves to the top level.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/nodes/"+b.ID+"/move",
		bytes.NewReader([]byte(`{"parent_id": null}`)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	rawResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	defer rawResp.Body.Close()
	if rawResp.StatusCode != http.StatusOK {
		t.Fatalf("move to root status = %d, want 200", rawResp.StatusCode)
	}
	var moved models.Node
	if err := json.NewDecoder(rawResp.Body).Decode(&moved); err != nil {
		t.Fatalf("decode moved: %v", err)
	}
	if moved.ParentID != nil {
		t.Fatalf("ParentID = %v, want nil", *moved.ParentID)
	}

	// Omitting parent_id entirely is rejected.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/nodes/"+b.ID+"/move", map[string]any{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing parent_id status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var f models.Node
	doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": "Reports"}, &f)
	for i := 0; i < 3; i++ {
		doJSON(t, http.MethodPost, srv.URL+"/api/documents", map[string]any{
			"name":      fmt.Sprintf("Report %d", i),
			"parent_id": f.ID,
			"file_type": "pdf",
		}, nil)
	}

	var results models.SearchResults
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/search?q=report&kind=document&limit=2", nil, &results)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d, want 200", resp.StatusCode)
	}
	if len(results.Results) != 2 || !results.Truncated || results.TotalCount != 3 {
		t.Fatalf("search = %d results, truncated=%v, total=%d; want 2/true/3",
			len(results.Results), results.Truncated, results.TotalCount)
	}

	// A criteria-less search is not an error; it just matches nothing.
	var empty models.SearchResults
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/search", nil, &empty)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty search status = %d, want 200", resp.StatusCode)
	}
	if empty.TotalCount != 0 || len(empty.Results) != 0 {
		t.Fatalf("empty search = %d results, want none", len(empty.Results))
	}
}
