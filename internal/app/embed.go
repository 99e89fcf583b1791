package app

import (
	"context"
	"fmt"

	"gopherai-interview/internal/ai"
)

// embedBatchSize keeps each embeddings request within the per-call input
// limit of Azure deployments.
const embedBatchSize = 16

// embedAll embeds texts in batches. The result lines up with texts.
func embedAll(ctx context.Context, llm LLM, cfg ai.ChatConfig, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vectors, err := llm.EmbedBatch(ctx, cfg, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed items %d-%d failed: %w", start+1, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
