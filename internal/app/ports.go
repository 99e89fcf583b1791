package app

import (
	"context"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
)

// LLM is the hosted model surface the services use.
type LLM interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, opts ...ai.CompletionOption) (string, error)
	StreamComplete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(chunk string) error, opts ...ai.CompletionOption) (string, error)
	Embed(ctx context.Context, cfg ai.ChatConfig, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, cfg ai.ChatConfig, texts []string) ([][]float32, error)
	GenerateImage(ctx context.Context, cfg ai.ChatConfig, prompt, size string) (string, error)
}

// Models addresses the chat, embedding and image deployments.
type Models struct {
	Chat      ai.ChatConfig
	Embedding ai.ChatConfig
	Image     ai.ChatConfig
	MaxTokens int
}

type SearchIndex interface {
	Enabled() bool
	CreateOrUpdateIndex(ctx context.Context, schema search.IndexSchema) error
	Upload(ctx context.Context, index string, docs []search.Document) (search.UploadResult, error)
	Search(ctx context.Context, index string, q search.Query) ([]search.Document, error)
	NextID(ctx context.Context, index string) int
}

type Speech interface {
	Enabled() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Recognize(ctx context.Context, audio []byte) (string, error)
}

type ProfileStore interface {
	Upsert(userID uint, profile model.StudentProfile, partial bool) error
	GetByUserID(userID uint) (*model.StudentProfile, error)
}

type ArchivePublisher interface {
	Publish(ctx context.Context, event model.ArchiveEvent) error
}

type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	UpdateDisplayName(id uint, name string) error
}
