package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateImage returns the URL of one generated image.
func (c *OpenAICompatibleClient) GenerateImage(ctx context.Context, cfg ChatConfig, prompt, size string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyInput
	}
	if size == "" {
		size = "1024x1024"
	}

	reqBody := map[string]interface{}{
		"prompt":  prompt,
		"size":    size,
		"quality": "standard",
		"n":       1,
	}
	if !cfg.Azure {
		reqBody["model"] = cfg.Model
	}

	raw, err := c.postJSON(ctx, cfg, endpointURL(cfg, "images/generations"), reqBody, "image")
	if err != nil {
		return "", err
	}

	var parsed struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse image json failed: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("empty image in response")
	}
	return parsed.Data[0].URL, nil
}
