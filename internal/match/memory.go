package match

import (
	"context"
	"sync"
)

// Memory guarda partidas em memória; usado nos testes e no modo local.
type Memory struct {
	mu      sync.Mutex
	matches map[string]*Match
}

func NewMemory() *Memory {
	return &Memory{matches: make(map[string]*Match)}
}

func (s *Memory) Create(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Memory) Transition(_ context.Context, id string, fn func(*Match) error) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	if err := fn(&cp); err != nil {
		return nil, err
	}
	s.matches[id] = &cp
	out := cp
	return &out, nil
}

func (s *Memory) Guard(_ context.Context, id string, fn func(*Match) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	cp := *m
	return fn(&cp)
}

func (s *Memory) MarkSettled(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	m.Settled = true
	return nil
}
