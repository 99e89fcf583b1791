package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
)

type llmCall struct {
	System string
	User   string
	Msgs   []ai.ChatMessage
}

// fakeLLM answers every completion through reply, keyed on the prompts.
type fakeLLM struct {
	mu    sync.Mutex
	reply func(system, user string) (string, error)
	calls []llmCall

	embedErr     error
	embedInputs  []string
	embedBatches int
	imageURL     string
	imageErr     error
	imagePrompts []string
}

func (f *fakeLLM) Complete(_ context.Context, _ ai.ChatConfig, msgs []ai.ChatMessage, _ ...ai.CompletionOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var call llmCall
	call.Msgs = append([]ai.ChatMessage(nil), msgs...)
	for _, m := range msgs {
		switch m.Role {
		case "system":
			call.System = m.Content
		case "user":
			call.User = m.Content
		}
	}
	f.calls = append(f.calls, call)
	if f.reply == nil {
		return "", errors.New("no reply configured")
	}
	return f.reply(call.System, call.User)
}

func (f *fakeLLM) StreamComplete(ctx context.Context, cfg ai.ChatConfig, msgs []ai.ChatMessage, onChunk func(string) error, opts ...ai.CompletionOption) (string, error) {
	out, err := f.Complete(ctx, cfg, msgs, opts...)
	if err != nil {
		return "", err
	}
	for _, part := range strings.SplitAfter(out, ",") {
		if err := onChunk(part); err != nil {
			return "", err
		}
	}
	return out, nil
}

func (f *fakeLLM) Embed(_ context.Context, _ ai.ChatConfig, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedInputs = append(f.embedInputs, text)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeLLM) EmbedBatch(_ context.Context, _ ai.ChatConfig, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedInputs = append(f.embedInputs, texts...)
	f.embedBatches++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
	}
	return out, nil
}

func (f *fakeLLM) GenerateImage(_ context.Context, _ ai.ChatConfig, prompt, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	return f.imageURL, f.imageErr
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastCall() llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return llmCall{}
	}
	return f.calls[len(f.calls)-1]
}

func fixedReply(raw string) func(string, string) (string, error) {
	return func(string, string) (string, error) { return raw, nil }
}

type fakeSearch struct {
	disabled  bool
	docs      []search.Document
	searchErr func(q search.Query) error
	nextID    int

	queries []search.Query
	uploads map[string][]search.Document
	schemas []search.IndexSchema
}

func (f *fakeSearch) Enabled() bool { return !f.disabled }

func (f *fakeSearch) CreateOrUpdateIndex(_ context.Context, schema search.IndexSchema) error {
	f.schemas = append(f.schemas, schema)
	return nil
}

func (f *fakeSearch) Upload(_ context.Context, index string, docs []search.Document) (search.UploadResult, error) {
	if f.uploads == nil {
		f.uploads = map[string][]search.Document{}
	}
	f.uploads[index] = append(f.uploads[index], docs...)
	return search.UploadResult{Success: len(docs), Total: len(docs)}, nil
}

func (f *fakeSearch) Search(_ context.Context, _ string, q search.Query) ([]search.Document, error) {
	f.queries = append(f.queries, q)
	if f.searchErr != nil {
		if err := f.searchErr(q); err != nil {
			return nil, err
		}
	}
	return f.docs, nil
}

func (f *fakeSearch) NextID(context.Context, string) int {
	if f.nextID == 0 {
		return 1
	}
	return f.nextID
}

type fakeSpeech struct {
	enabled    bool
	text       string
	recErr     error
	audio      []byte
	recognized [][]byte
	spoken     []string
}

func (f *fakeSpeech) Enabled() bool { return f.enabled }

func (f *fakeSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.spoken = append(f.spoken, text)
	return f.audio, nil
}

func (f *fakeSpeech) Recognize(_ context.Context, audio []byte) (string, error) {
	f.recognized = append(f.recognized, audio)
	return f.text, f.recErr
}

type fakeProfileStore struct {
	profiles map[uint]model.StudentProfile
	partial  map[uint]bool
	err      error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[uint]model.StudentProfile{}, partial: map[uint]bool{}}
}

func (f *fakeProfileStore) Upsert(userID uint, profile model.StudentProfile, partial bool) error {
	if f.err != nil {
		return f.err
	}
	f.profiles[userID] = profile
	f.partial[userID] = partial
	return nil
}

func (f *fakeProfileStore) GetByUserID(userID uint) (*model.StudentProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type fakePublisher struct {
	events []model.ArchiveEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event model.ArchiveEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeUsers struct {
	byID   map[uint]*model.User
	nextID uint
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint]*model.User{}}
}

func (f *fakeUsers) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByUsername(username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByEmail(email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(id uint) (*model.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) UpdateDisplayName(id uint, name string) error {
	if u, ok := f.byID[id]; ok {
		u.DisplayName = name
	}
	return nil
}

var testModels = Models{
	Chat:      ai.ChatConfig{Model: "gpt-4"},
	Embedding: ai.ChatConfig{Model: "text-embedding-ada-002"},
	Image:     ai.ChatConfig{Model: "dall-e-3"},
}

func scorePtr(v float64) *float64 { return &v }
