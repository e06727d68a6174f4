package httpapi

import (
	"slices"
	"sync"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

// Store holds the consumers served by the API, keyed by consumer id.
type Store struct {
	mu        sync.RWMutex
	consumers map[string]*spectrum.Consumer
	order     []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{consumers: make(map[string]*spectrum.Consumer)}
}

// Add registers c, replacing any consumer with the same id.
func (s *Store) Add(c *spectrum.Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.ID().String()
	if _, ok := s.consumers[id]; !ok {
		s.order = append(s.order, id)
	}
	s.consumers[id] = c
}

// Remove drops the consumer with id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.consumers[id]; !ok {
		return
	}
	delete(s.consumers, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

// Get returns the consumer with id.
func (s *Store) Get(id string) (*spectrum.Consumer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consumers[id]
	return c, ok
}

// List returns every consumer in insertion order.
func (s *Store) List() []*spectrum.Consumer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*spectrum.Consumer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.consumers[id])
	}
	return out
}
