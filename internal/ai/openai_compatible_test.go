package ai

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

func TestCompleteOpenAIMode(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	cfg := ChatConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4"}
	out, err := c.Complete(context.Background(), cfg, []ChatMessage{UserMessage("hi")},
		WithTemperature(0.3), WithJSONResponse(), WithMaxTokens(100))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("out = %q", out)
	}
	if gotBody["model"] != "gpt-4" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.3 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
	if gotBody["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
	rf, _ := gotBody["response_format"].(map[string]interface{})
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
}

func TestCompleteAzureMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/gpt4o/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("api-version") != "2024-02-15-preview" {
			t.Errorf("api-version = %q", r.URL.Query().Get("api-version"))
		}
		if r.Header.Get("api-key") != "azure-key" {
			t.Errorf("api-key header missing")
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["model"]; ok {
			t.Errorf("azure request should not carry a model field")
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "azure-key", Model: "gpt4o", Azure: true, APIVersion: "2024-02-15-preview"}
	if _, err := c.Complete(context.Background(), cfg, []ChatMessage{UserMessage("hi")}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestCompleteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "empty") {
			fmt.Fprint(w, `{"choices":[]}`)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `rate limited`)
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	msgs := []ChatMessage{UserMessage("hi")}

	_, err := c.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, msgs)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}

	_, err = c.Complete(context.Background(), ChatConfig{BaseURL: srv.URL + "/empty"}, msgs)
	if !errors.Is(err, ErrEmptyChoices) {
		t.Errorf("expected ErrEmptyChoices, got %v", err)
	}

	_, err = c.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestStreamComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	var chunks []string
	full, err := c.StreamComplete(context.Background(), ChatConfig{BaseURL: srv.URL}, []ChatMessage{UserMessage("hi")},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
	if err != nil {
		t.Fatalf("StreamComplete() error = %v", err)
	}
	if full != "Hello" || len(chunks) != 2 {
		t.Errorf("full = %q chunks = %v", full, chunks)
	}
}

func TestEmbedAndBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if list, ok := body["input"].([]interface{}); ok {
			if len(list) != 2 {
				t.Errorf("blank inputs should be dropped, got %d", len(list))
			}
			fmt.Fprint(w, `{"data":[{"index":1,"embedding":[0.2]},{"index":0,"embedding":[0.1]}]}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.5,0.25]}]}`)
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	cfg := ChatConfig{BaseURL: srv.URL, Model: "text-embedding-ada-002"}

	vec, err := c.Embed(context.Background(), cfg, "  text ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vec = %v", vec)
	}

	if _, err := c.Embed(context.Background(), cfg, "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	batch, err := c.EmbedBatch(context.Background(), cfg, []string{"a", " ", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(batch) != 3 || batch[0][0] != 0.1 || batch[1] != nil || batch[2][0] != 0.2 {
		t.Errorf("batch should line up with the inputs, got %v", batch)
	}

	if _, err := c.EmbedBatch(context.Background(), cfg, []string{" ", ""}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for all-blank batch, got %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":[{"url":"https://img.example/1.png"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClientWithHTTP(srv.Client())
	got, err := c.GenerateImage(context.Background(), ChatConfig{BaseURL: srv.URL, Model: "dall-e-3"}, "a wafer", "")
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if got != "https://img.example/1.png" {
		t.Errorf("url = %q", got)
	}
}
