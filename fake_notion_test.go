package notionpub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/eringen/notionpub/notion"
)

const (
	testBaseID  = "11111111-1111-4111-8111-111111111111"
	testPageID  = "22222222-2222-4222-8222-222222222222"
	testImageID = "33333333-3333-4333-8333-333333333333"
	testUserID  = "44444444-4444-4444-8444-444444444444"
)

// fakeNotion serves a base database with one published article.
type fakeNotion struct {
	t    *testing.T
	srv  *httptest.Server
	down atomic.Bool

	mu    sync.Mutex
	calls map[string]int
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()
	f := &fakeNotion{t: t, calls: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNotion) client() *notion.Client {
	return notion.NewClient("secret_test",
		notion.WithBaseURL(f.srv.URL),
		notion.WithRateLimit(rate.Inf, 1),
		notion.WithMaxTries(1),
	)
}

func (f *fakeNotion) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func richText(s string) []notion.RichText {
	return []notion.RichText{{Type: "text", Text: &notion.Text{Content: s}, PlainText: s}}
}

func testDatabase() notion.Database {
	return notion.Database{
		Object: "database",
		ID:     testBaseID,
		Title:  richText("Articles"),
		Properties: map[string]notion.PropertySchema{
			"title":       {Name: "title", Type: "title"},
			"slug":        {Name: "slug", Type: "rich_text"},
			"category":    {Name: "category", Type: "select"},
			"tags":        {Name: "tags", Type: "multi_select"},
			"isPublished": {Name: "isPublished", Type: "checkbox"},
		},
	}
}

func testArticle() notion.Page {
	published := true
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return notion.Page{
		Object:         "page",
		ID:             testPageID,
		CreatedTime:    created,
		LastEditedTime: created.Add(48 * time.Hour),
		CreatedBy:      &notion.User{Object: "user", ID: testUserID},
		Parent:         notion.Parent{Type: "database_id", DatabaseID: testBaseID},
		Properties: map[string]notion.PropertyValue{
			"title":       {Type: "title", Title: richText("Hello World")},
			"slug":        {Type: "rich_text", RichText: richText("hello-world")},
			"category":    {Type: "select", Select: &notion.SelectOption{Name: "Go"}},
			"tags":        {Type: "multi_select", MultiSelect: []notion.SelectOption{{Name: "echo", Color: "blue"}}},
			"description": {Type: "rich_text", RichText: richText("A first post")},
			"isPublished": {Type: "checkbox", Checkbox: &published},
		},
	}
}

func testBlocks() notion.BlockList {
	return notion.BlockList{
		Object: "list",
		Results: []notion.Block{
			{
				Object:    "block",
				ID:        "55555555-5555-4555-8555-555555555555",
				Type:      notion.TypeParagraph,
				Paragraph: &notion.TextBlock{RichText: richText("Hello from Notion")},
			},
		},
	}
}

func (f *fakeNotion) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	route := r.Method + " /" + parts[0]
	if len(parts) > 2 {
		route += "/" + parts[2]
	}
	f.mu.Lock()
	f.calls[route]++
	f.mu.Unlock()

	if f.down.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": 503, "code": "service_unavailable", "message": "down"})
		return
	}

	id := ""
	if len(parts) > 1 {
		id = notion.CompactID(parts[1])
	}
	switch route {
	case "GET /databases":
		if id != notion.CompactID(testBaseID) {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, testDatabase())
	case "POST /databases/query":
		if id != notion.CompactID(testBaseID) {
			notFound(w)
			return
		}
		var q notion.Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			f.t.Errorf("decode query: %v", err)
		}
		results := []notion.Page{testArticle()}
		if rt, ok := q.Filter["rich_text"].(map[string]any); ok && rt["equals"] != "hello-world" {
			results = nil
		}
		writeJSON(w, http.StatusOK, notion.DatabaseQuery{Object: "list", Results: results})
	case "GET /pages":
		if id != notion.CompactID(testPageID) {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, testArticle())
	case "GET /blocks/children":
		if id != notion.CompactID(testPageID) {
			writeJSON(w, http.StatusOK, notion.BlockList{Object: "list"})
			return
		}
		writeJSON(w, http.StatusOK, testBlocks())
	case "GET /blocks":
		if id != notion.CompactID(testImageID) {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, notion.Block{
			Object: "block",
			ID:     testImageID,
			Type:   notion.TypeImage,
			Image: &notion.FileObject{
				Type: "file",
				File: &notion.FileRef{URL: "https://prod-files-secure.s3.us-west-2.amazonaws.com/a/b/photo.png?X-Amz-Signature=fresh"},
			},
		})
	case "POST /search":
		var req struct {
			Filter map[string]any `json:"filter"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		result := notion.Object{Kind: "page"}
		if req.Filter["value"] == "database" {
			db := testDatabase()
			result = notion.Object{Kind: "database", Database: &db}
		} else {
			a := testArticle()
			result.Page = &a
		}
		writeJSON(w, http.StatusOK, notion.SearchResults{
			Object:  "list",
			Results: []notion.Object{result},
		})
	default:
		// Users are not shared with the integration.
		notFound(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"object": "error", "status": 404, "code": "object_not_found", "message": "Could not find object",
	})
}
