package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL + "/", APIKey: "key", APIVersion: "2023-11-01"}, nil)
}

func TestCreateOrUpdateIndex(t *testing.T) {
	var got IndexSchema
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/indexes/semiconductor-knowledge" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("api-key") != "key" {
			t.Error("api-key header missing")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})

	if err := c.CreateOrUpdateIndex(context.Background(), KnowledgeIndexSchema("semiconductor-knowledge", 1536)); err != nil {
		t.Fatalf("CreateOrUpdateIndex() error = %v", err)
	}
	if len(got.Fields) != 11 {
		t.Errorf("fields = %d, want 11", len(got.Fields))
	}
	p := got.VectorSearch.Algorithms[0].Parameters
	if p.M != 4 || p.EfConstruction != 400 || p.EfSearch != 500 || p.Metric != "cosine" {
		t.Errorf("hnsw params = %+v", p)
	}
	var vec *Field
	for i := range got.Fields {
		if got.Fields[i].Name == VectorField {
			vec = &got.Fields[i]
		}
	}
	if vec == nil || vec.Dimensions != 1536 || vec.VectorProfile != vectorProfileName {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestUploadCountsStatuses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value []map[string]any `json:"value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Value) != 3 || body.Value[0]["@search.action"] != "mergeOrUpload" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusMultiStatus)
		fmt.Fprint(w, `{"value":[{"key":"1","status":true},{"key":"2","status":false,"errorMessage":"bad"},{"key":"3","status":true}]}`)
	})

	docs := []Document{{"id": "1"}, {"id": "2"}, {"id": "3"}}
	res, err := c.Upload(context.Background(), "interview-questions", docs)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res != (UploadResult{Success: 2, Failed: 1, Total: 3}) {
		t.Errorf("result = %+v", res)
	}
	if _, ok := docs[0]["@search.action"]; ok {
		t.Error("Upload must not mutate caller documents")
	}
}

func TestSearchHybridRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["search"] != "CVD" || body["filter"] != "difficulty eq '중급'" || body["select"] != "id,question" {
			t.Errorf("unexpected body %+v", body)
		}
		vq := body["vectorQueries"].([]any)[0].(map[string]any)
		if vq["fields"] != VectorField || vq["k"] != float64(3) {
			t.Errorf("vector query = %+v", vq)
		}
		fmt.Fprint(w, `{"value":[{"@search.score":1.5,"id":"7","question":"What is CVD?","keywords":["cvd","film"]}]}`)
	})

	f := (&Filter{}).Eq("process_category", AllValue).Eq("difficulty", "중급")
	docs, err := c.Search(context.Background(), "k", Query{
		Text:   "CVD",
		Vector: []float32{0.1, 0.2},
		Filter: f.String(),
		Select: []string{"id", "question"},
		Top:    3,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Score() != 1.5 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].String("Question", "question") != "What is CVD?" {
		t.Error("lenient field lookup failed")
	}
	if kw := docs[0].Strings("keywords"); len(kw) != 2 {
		t.Errorf("keywords = %v", kw)
	}
}

func TestNextID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":[{"id":"3"},{"id":"12"},{"id":"abc"},{"id":"9"}]}`)
	})
	if got := c.NextID(context.Background(), "q"); got != 13 {
		t.Errorf("NextID() = %d, want 13", got)
	}

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if got := failing.NextID(context.Background(), "q"); got != 1 {
		t.Errorf("NextID() on failure = %d, want 1", got)
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.Enabled() {
		t.Fatal("client without endpoint should be disabled")
	}
	if _, err := c.Search(context.Background(), "q", Query{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFilterEscaping(t *testing.T) {
	f := (&Filter{}).Eq("position", "O'Brien team").Eq("x", " all ").Eq("y", "")
	if got := f.String(); got != "position eq 'O''Brien team'" {
		t.Errorf("filter = %q", got)
	}
	if !(&Filter{}).Empty() || f.Empty() {
		t.Error("Empty() mismatch")
	}
	if !strings.Contains((&Filter{}).Eq("a", "1").Eq("b", "2").String(), " and ") {
		t.Error("clauses should be joined with and")
	}
}
