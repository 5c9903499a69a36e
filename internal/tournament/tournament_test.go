package tournament

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/ledger"
)

var poolNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type poolFixture struct {
	pool   *Pool
	ledger *ledger.Memory
	pub    *duePub
}

func newPoolFixture(t *testing.T) *poolFixture {
	t.Helper()
	ctx := context.Background()
	lg := ledger.NewMemory()
	for _, acct := range []string{"host", "p1", "p2", "p3"} {
		if _, err := lg.Deposit(ctx, acct, 10000, "seed-"+acct); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}
	pub := &duePub{}
	p := NewPool(zap.NewNop(), NewMemory(), lg, pub)
	p.now = func() time.Time { return poolNow }
	return &poolFixture{pool: p, ledger: lg, pub: pub}
}

func TestCreateDebitsHostSeed(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, err := f.pool.Create(ctx, "host", "spring cup", 500, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.PrizePoolCents != 2000 {
		t.Fatalf("seed must enter the pool: %d", tr.PrizePoolCents)
	}
	bal, _ := f.ledger.Balance(ctx, "host")
	if bal != 8000 {
		t.Fatalf("host must be debited the seed: %d", bal)
	}
}

func TestJoinAccumulatesFees(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 2000)
	for _, acct := range []string{"p1", "p2", "p3"} {
		if _, err := f.pool.Join(ctx, tr.ID, acct); err != nil {
			t.Fatalf("join %s: %v", acct, err)
		}
	}

	got, _ := f.pool.Get(ctx, tr.ID)
	if got.PrizePoolCents != 2000+3*500 {
		t.Fatalf("pool = seed + fees: got %d", got.PrizePoolCents)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got.Entries))
	}
	bal, _ := f.ledger.Balance(ctx, "p1")
	if bal != 9500 {
		t.Fatalf("fee must be debited at join: %d", bal)
	}
}

func TestJoinRejectsDuplicateAndClosed(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 0)
	if _, err := f.pool.Join(ctx, tr.ID, "p1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.pool.Join(ctx, tr.ID, "p1"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	bal, _ := f.ledger.Balance(ctx, "p1")
	if bal != 9500 {
		t.Fatalf("duplicate join must not debit again: %d", bal)
	}

	if _, err := f.pool.Start(ctx, tr.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.pool.Join(ctx, tr.ID, "p2"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after start, got %v", err)
	}
	bal, _ = f.ledger.Balance(ctx, "p2")
	if bal != 10000 {
		t.Fatalf("rejected join must refund the fee: %d", bal)
	}
}

func TestJoinInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "big buy-in", 50000, 0)
	if _, err := f.pool.Join(ctx, tr.ID, "p1"); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	got, _ := f.pool.Get(ctx, tr.ID)
	if len(got.Entries) != 0 || got.PrizePoolCents != 0 {
		t.Fatalf("failed join must not touch the pool: %d entries / %d cents",
			len(got.Entries), got.PrizePoolCents)
	}
}

func TestConcurrentJoinsDebitOnce(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 0)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = f.pool.Join(ctx, tr.ID, "p1")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrAlreadyJoined) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one join may succeed, got %d", ok)
	}
	bal, _ := f.ledger.Balance(ctx, "p1")
	if bal != 9500 {
		t.Fatalf("account must be debited exactly once: %d", bal)
	}
	got, _ := f.pool.Get(ctx, tr.ID)
	if got.PrizePoolCents != 500 {
		t.Fatalf("pool must grow by one fee: %d", got.PrizePoolCents)
	}
}

func TestResolvePublishesDue(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 0)
	_, _ = f.pool.Join(ctx, tr.ID, "p1")
	_, _ = f.pool.Join(ctx, tr.ID, "p2")
	_, _ = f.pool.Start(ctx, tr.ID)

	got, err := f.pool.Resolve(ctx, tr.ID, "p1", "p2", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Status != StatusCompleted || got.Winner != "p1" || got.RunnerUp != "p2" {
		t.Fatalf("expected COMPLETED/p1/p2, got %s/%s/%s", got.Status, got.Winner, got.RunnerUp)
	}
	if len(f.pub.due) != 1 || f.pub.due[0] != tr.ID {
		t.Fatalf("expected one settlement_due for %s, got %v", tr.ID, f.pub.due)
	}
}

func TestResolveRejectsOutsiderWinner(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 0)
	_, _ = f.pool.Join(ctx, tr.ID, "p1")

	if _, err := f.pool.Resolve(ctx, tr.ID, "p3", "", false); !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
	if len(f.pub.due) != 0 {
		t.Fatalf("failed resolve must not publish")
	}
}

func TestResolveRejectsWinnerAsRunnerUp(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t)

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 0)
	_, _ = f.pool.Join(ctx, tr.ID, "p1")
	_, _ = f.pool.Join(ctx, tr.ID, "p2")

	// vencedor dobrado como vice levaria 80% do pool sozinho
	if _, err := f.pool.Resolve(ctx, tr.ID, "p1", "p1", false); !errors.Is(err, ErrSamePlacement) {
		t.Fatalf("expected ErrSamePlacement, got %v", err)
	}

	got, _ := f.pool.Get(ctx, tr.ID)
	if got.Status != StatusScheduled {
		t.Fatalf("failed resolve must not transition: %s", got.Status)
	}
}

func TestDefaultPayoutPolicyNeverExceedsPool(t *testing.T) {
	tr := &Tournament{PrizePoolCents: 999, Winner: "p1", RunnerUp: "p2"}
	payouts := DefaultPayoutPolicy(tr)

	var total int64
	for _, p := range payouts {
		total += p.AmountCents
	}
	if total > tr.PrizePoolCents {
		t.Fatalf("payouts %d exceed pool %d", total, tr.PrizePoolCents)
	}
	if payouts[0].AmountCents != 499 || payouts[1].AmountCents != 299 {
		t.Fatalf("expected 499/299, got %d/%d", payouts[0].AmountCents, payouts[1].AmountCents)
	}

	// sem vice o vencedor continua com 50%
	tr.RunnerUp = ""
	payouts = DefaultPayoutPolicy(tr)
	if len(payouts) != 1 || payouts[0].AmountCents != 499 {
		t.Fatalf("expected single 499 payout, got %v", payouts)
	}
}

func TestCASPayoutStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tr, _ := New("t1", "cup", "host", 0, 0, poolNow)
	_ = s.Create(ctx, tr)

	ok, err := s.CASPayoutStatus(ctx, "t1", PayoutNotPaid, PayoutPending)
	if err != nil || !ok {
		t.Fatalf("first cas must win: %v/%v", ok, err)
	}
	ok, err = s.CASPayoutStatus(ctx, "t1", PayoutNotPaid, PayoutPending)
	if err != nil || ok {
		t.Fatalf("second cas must lose: %v/%v", ok, err)
	}
	ok, err = s.CASPayoutStatus(ctx, "t1", PayoutPending, PayoutCompleted)
	if err != nil || !ok {
		t.Fatalf("pending to completed: %v/%v", ok, err)
	}
}

type duePub struct{ due []string }

func (p *duePub) SettlementDue(_ context.Context, _ string, id string) error {
	p.due = append(p.due, id)
	return nil
}
