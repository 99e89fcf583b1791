// Package session keeps the per-user practice state between requests.
package session

import (
	"context"
	"sync"
	"time"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/model"
)

// State is everything a user accumulates during one practice session.
type State struct {
	Profile         *model.StudentProfile       `json:"profile,omitempty"`
	ProfilePartial  bool                        `json:"profile_partial,omitempty"`
	CurrentQuestion *CurrentQuestion            `json:"current_question,omitempty"`
	QA              []model.QARecord            `json:"qa"`
	RequirementChat []ai.ChatMessage            `json:"requirement_chat,omitempty"`
	Requirements    *model.QuestionRequirements `json:"requirements,omitempty"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// CurrentQuestion is the last question handed to the user with the context it
// was generated from.
type CurrentQuestion struct {
	Mode     string `json:"mode"`
	Question string `json:"question"`
	Context  string `json:"context"`
}

type Store interface {
	// Get returns an empty state when the user has none.
	Get(ctx context.Context, userID uint) (*State, error)
	Save(ctx context.Context, userID uint, state *State) error
	Clear(ctx context.Context, userID uint) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.Mutex
	states map[uint]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[uint]State)}
}

func (s *MemoryStore) Get(_ context.Context, userID uint) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return &State{}, nil
	}
	cp := st
	cp.QA = append([]model.QARecord(nil), st.QA...)
	cp.RequirementChat = append([]ai.ChatMessage(nil), st.RequirementChat...)
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, userID uint, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := *state
	st.UpdatedAt = time.Now()
	s.states[userID] = st
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
