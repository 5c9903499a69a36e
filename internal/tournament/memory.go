package tournament

import (
	"context"
	"sync"
)

type Memory struct {
	mu          sync.Mutex
	tournaments map[string]*Tournament
}

func NewMemory() *Memory {
	return &Memory{tournaments: make(map[string]*Tournament)}
}

func clone(t *Tournament) *Tournament {
	cp := *t
	cp.Entries = make([]Entry, len(t.Entries))
	copy(cp.Entries, t.Entries)
	return &cp
}

func (s *Memory) Create(_ context.Context, t *Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[t.ID] = clone(t)
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (*Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t), nil
}

func (s *Memory) Transition(_ context.Context, id string, fn func(*Tournament) error) (*Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clone(t)
	if err := fn(cp); err != nil {
		return nil, err
	}
	s.tournaments[id] = cp
	return clone(cp), nil
}

func (s *Memory) AddEntry(_ context.Context, id string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status != StatusScheduled {
		return ErrNotOpen
	}
	if t.HasEntry(e.AccountID) {
		return ErrAlreadyJoined
	}
	t.Entries = append(t.Entries, e)
	t.PrizePoolCents += e.FeeCents
	return nil
}

func (s *Memory) CASPayoutStatus(_ context.Context, id string, from, to PayoutStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.PayoutStatus != from {
		return false, nil
	}
	t.PayoutStatus = to
	return true, nil
}
