// Package persona holds the catalog of AI voice characters that screen
// calls. The catalog is small and static: personas are authored alongside
// their voice-AI assistants, not created by subscribers.
package persona

import (
	"context"
	"sync"

	id "spamstopper/pkg/domain"
	pkgerrors "spamstopper/pkg/domain-errors"
)

// Persona is one screening character and its voice-AI assistant binding.
type Persona struct {
	ID          id.PersonaID
	Name        string
	Description string
	Personality string
	// AssistantID is the identifier of the assistant on the voice-AI
	// platform that plays this character.
	AssistantID string
}

// Store reads the persona catalog.
type Store interface {
	List(ctx context.Context) ([]Persona, error)
	FindByID(ctx context.Context, personaID id.PersonaID) (*Persona, error)
	FindByAssistantID(ctx context.Context, assistantID string) (*Persona, error)
}

var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "persona not found")

// InMemoryStore serves the catalog from memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	personas []Persona
}

// NewInMemoryStore constructs a catalog store with the given personas.
func NewInMemoryStore(personas []Persona) *InMemoryStore {
	return &InMemoryStore{personas: append([]Persona(nil), personas...)}
}

func (s *InMemoryStore) List(_ context.Context) ([]Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Persona(nil), s.personas...), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, personaID id.PersonaID) (*Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.personas {
		if p.ID == personaID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByAssistantID(_ context.Context, assistantID string) (*Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.personas {
		if p.AssistantID == assistantID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
