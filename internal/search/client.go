// Package search is a REST client for the managed hybrid text and vector
// search service that holds the question and knowledge indexes.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("search service is not configured")

const nextIDScanLimit = 1000

type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-11-01"
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != "" && c.apiKey != ""
}

// Document is one search hit or upload payload.
type Document map[string]any

func (d Document) Score() float64 {
	if v, ok := d["@search.score"].(float64); ok {
		return v
	}
	return 0
}

// String returns the first non-empty string value among keys.
func (d Document) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := d[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Strings returns the first list value among keys.
func (d Document) Strings(keys ...string) []string {
	for _, k := range keys {
		switch v := d[k].(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

type Query struct {
	Text        string
	Vector      []float32
	VectorField string
	K           int
	Filter      string
	Select      []string
	Top         int
}

type UploadResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

func (c *Client) CreateOrUpdateIndex(ctx context.Context, schema IndexSchema) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if err := c.do(ctx, http.MethodPut, c.indexURL(schema.Name, ""), schema, nil); err != nil {
		return fmt.Errorf("create index %s failed: %w", schema.Name, err)
	}
	c.logger.Info("search index ready", "index", schema.Name, "fields", len(schema.Fields))
	return nil
}

// Upload merges or inserts docs and counts per-document outcomes.
func (c *Client) Upload(ctx context.Context, index string, docs []Document) (UploadResult, error) {
	result := UploadResult{Total: len(docs)}
	if len(docs) == 0 {
		return result, nil
	}
	if !c.Enabled() {
		return result, ErrNotConfigured
	}

	actions := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		action := make(map[string]any, len(d)+1)
		for k, v := range d {
			action[k] = v
		}
		action["@search.action"] = "mergeOrUpload"
		actions = append(actions, action)
	}

	var resp struct {
		Value []struct {
			Key          string `json:"key"`
			Status       bool   `json:"status"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, c.indexURL(index, "/docs/index"), map[string]any{"value": actions}, &resp); err != nil {
		return result, fmt.Errorf("upload documents to %s failed: %w", index, err)
	}
	for _, v := range resp.Value {
		if v.Status {
			result.Success++
			continue
		}
		c.logger.Warn("search document rejected", "index", index, "key", v.Key, "error", v.ErrorMessage)
	}
	result.Failed = len(resp.Value) - result.Success
	return result, nil
}

func (c *Client) Search(ctx context.Context, index string, q Query) ([]Document, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	body := map[string]any{}
	text := q.Text
	if text == "" {
		text = "*"
	}
	body["search"] = text
	if q.Top > 0 {
		body["top"] = q.Top
	}
	if q.Filter != "" {
		body["filter"] = q.Filter
	}
	if len(q.Select) > 0 {
		body["select"] = strings.Join(q.Select, ",")
	}
	if len(q.Vector) > 0 {
		field := q.VectorField
		if field == "" {
			field = VectorField
		}
		k := q.K
		if k <= 0 {
			k = 3
		}
		body["vectorQueries"] = []map[string]any{{
			"kind":   "vector",
			"vector": q.Vector,
			"fields": field,
			"k":      k,
		}}
	}

	var resp struct {
		Value []Document `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, c.indexURL(index, "/docs/search"), body, &resp); err != nil {
		return nil, fmt.Errorf("search %s failed: %w", index, err)
	}
	return resp.Value, nil
}

// NextID scans existing ids and returns max+1. It is a read then write with no
// coordination, so concurrent uploads can collide. Any failure yields 1.
func (c *Client) NextID(ctx context.Context, index string) int {
	docs, err := c.Search(ctx, index, Query{Text: "*", Select: []string{"id"}, Top: nextIDScanLimit})
	if err != nil {
		c.logger.Warn("read max id failed, starting at 1", "index", index, "error", err)
		return 1
	}
	maxID := 0
	for _, d := range docs {
		id, err := strconv.Atoi(d.String("id"))
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func (c *Client) indexURL(index, suffix string) string {
	return fmt.Sprintf("%s/indexes/%s%s?api-version=%s",
		c.endpoint, url.PathEscape(index), suffix, url.QueryEscape(c.apiVersion))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal search request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build search request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read search response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("search response status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse search json failed: %w", err)
	}
	return nil
}
