package wager

import (
	"context"
	"sort"
	"sync"
)

type Memory struct {
	mu     sync.Mutex
	wagers map[string]*Wager
}

func NewMemory() *Memory {
	return &Memory{wagers: make(map[string]*Wager)}
}

func (s *Memory) Create(_ context.Context, w *Wager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.wagers[w.ID] = &cp
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (*Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wagers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Memory) ListUnsettledByMatch(_ context.Context, matchID string) ([]*Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Wager
	for _, w := range s.wagers {
		if w.MatchID == matchID && !w.Settled {
			cp := *w
			out = append(out, &cp)
		}
	}
	// ordem estável pra varredura determinística
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) MarkSettled(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wagers[id]
	if !ok {
		return ErrNotFound
	}
	if w.Settled {
		return nil
	}
	w.Status = status
	w.Settled = true
	return nil
}
