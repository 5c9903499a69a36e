package challenge

import (
	"context"
	"sync"
)

type Memory struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
}

func NewMemory() *Memory {
	return &Memory{challenges: make(map[string]*Challenge)}
}

func (s *Memory) Create(_ context.Context, c *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.ID] = &cp
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Memory) Transition(_ context.Context, id string, fn func(*Challenge) error) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	if err := fn(&cp); err != nil {
		return nil, err
	}
	s.challenges[id] = &cp
	out := cp
	return &out, nil
}

func (s *Memory) MarkSettled(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return ErrNotFound
	}
	c.Settled = true
	return nil
}
