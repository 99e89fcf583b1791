package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg ChatConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	vectors, err := c.embed(ctx, cfg, text, "embedding")
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request. The result lines up with texts;
// blank entries are not sent and come back as nil vectors.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, cfg ChatConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		inputs []string
		slots  []int
	)
	for i, t := range texts {
		if s := strings.TrimSpace(t); s != "" {
			inputs = append(inputs, s)
			slots = append(slots, i)
		}
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := c.embed(ctx, cfg, inputs, "embedding batch")
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d inputs", len(vectors), len(inputs))
	}
	out := make([][]float32, len(texts))
	for j, slot := range slots {
		out[slot] = vectors[j]
	}
	return out, nil
}

func (c *OpenAICompatibleClient) embed(ctx context.Context, cfg ChatConfig, input interface{}, label string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"input": input,
	}
	if !cfg.Azure {
		reqBody["model"] = cfg.Model
	}

	raw, err := c.postJSON(ctx, cfg, endpointURL(cfg, "embeddings"), reqBody, label)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s json failed: %w", label, err)
	}
	result := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		pos := i
		if d.Index >= 0 && d.Index < len(result) {
			pos = d.Index
		}
		result[pos] = d.Embedding
	}
	return result, nil
}
