package wager

import (
	"errors"
	"testing"
	"time"

	"github.com/radieske/wager-engine/internal/match"
)

func terminalMatch(status match.Status, winner string) *match.Match {
	return &match.Match{
		ID:           "m1",
		Participants: []string{"alpha", "beta"},
		Status:       status,
		Winner:       winner,
	}
}

func TestPotentialPayoutRounds(t *testing.T) {
	w := &Wager{StakeCents: 1000, OddValue: 1.855}
	if got := w.PotentialPayoutCents(); got != 1855 {
		t.Fatalf("expected 1855, got %d", got)
	}
	w = &Wager{StakeCents: 333, OddValue: 1.5}
	if got := w.PotentialPayoutCents(); got != 500 { // 499.5 arredonda pra cima
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestResolve(t *testing.T) {
	base := Wager{ID: "w1", AccountID: "acc1", StakeCents: 1000, Outcome: "alpha", OddValue: 3}

	tests := []struct {
		name   string
		m      *match.Match
		status Status
		payout int64
		err    error
	}{
		{name: "won", m: terminalMatch(match.StatusCompleted, "alpha"), status: StatusWon, payout: 3000},
		{name: "lost", m: terminalMatch(match.StatusCompleted, "beta"), status: StatusLost, payout: 0},
		{name: "void on cancel", m: terminalMatch(match.StatusCancelled, ""), status: StatusVoid, payout: 1000},
		{name: "no winner recorded", m: terminalMatch(match.StatusCompleted, ""), err: ErrNoWinner},
		{name: "not terminal", m: terminalMatch(match.StatusLive, ""), err: ErrMatchNotTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := base
			status, payout, err := Resolve(&w, tt.m)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected err %v, got %v", tt.err, err)
			}
			if err != nil {
				return
			}
			if status != tt.status || payout != tt.payout {
				t.Fatalf("expected %s/%d, got %s/%d", tt.status, tt.payout, status, payout)
			}
		})
	}
}

func TestResolveDraw(t *testing.T) {
	w := &Wager{StakeCents: 500, Outcome: match.OutcomeDraw, OddValue: 2, CreatedAt: time.Now()}
	status, payout, err := Resolve(w, terminalMatch(match.StatusCompleted, match.OutcomeDraw))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if status != StatusWon || payout != 1000 {
		t.Fatalf("draw prediction must win on draw: %s/%d", status, payout)
	}
}
