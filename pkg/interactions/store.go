// Package interactions keeps a record of prompt/response exchanges served
// by the generation endpoint. Storage is in-memory; restarting the gateway
// clears the history.
package interactions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("interaction not found")

// Interaction is one recorded prompt/response exchange.
type Interaction struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a thread-safe in-memory interaction log.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Interaction
	order []string // insertion order of IDs
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]*Interaction),
	}
}

// Add records a new interaction and returns a copy of it.
func (s *Store) Add(prompt, response, model string) Interaction {
	now := time.Now()
	it := &Interaction{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Response:  response,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.items[it.ID] = it
	s.order = append(s.order, it.ID)
	s.mu.Unlock()

	return *it
}

// List returns all interactions in insertion order.
func (s *Store) List() []Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Interaction, 0, len(s.order))
	for _, id := range s.order {
		if it, ok := s.items[id]; ok {
			out = append(out, *it)
		}
	}
	return out
}

// Get returns one interaction by ID.
func (s *Store) Get(id string) (Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	return *it, nil
}

// Update replaces the prompt and/or response of an existing interaction.
// Empty arguments leave the corresponding field untouched.
func (s *Store) Update(id, prompt, response string) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	if prompt != "" {
		it.Prompt = prompt
	}
	if response != "" {
		it.Response = response
	}
	it.UpdatedAt = time.Now()
	return *it, nil
}

// Delete removes an interaction by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of stored interactions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
