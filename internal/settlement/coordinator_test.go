package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/challenge"
	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/internal/tournament"
	"github.com/radieske/wager-engine/internal/wager"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

type fixture struct {
	ledger      *ledger.Memory
	matches     *match.Memory
	wagers      *wager.Memory
	challenges  *challenge.Memory
	tournaments *tournament.Memory

	matchSvc *match.Service
	book     *wager.Book
	escrow   *challenge.Escrow
	pool     *tournament.Pool
	coord    *Coordinator
}

func newFixture(t *testing.T, accounts ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	f := &fixture{
		ledger:      ledger.NewMemory(),
		matches:     match.NewMemory(),
		wagers:      wager.NewMemory(),
		challenges:  challenge.NewMemory(),
		tournaments: tournament.NewMemory(),
	}
	for _, acct := range accounts {
		if _, err := f.ledger.Deposit(ctx, acct, 10000, "seed-"+acct); err != nil {
			t.Fatalf("deposit %s: %v", acct, err)
		}
	}

	f.matchSvc = match.NewService(log, f.matches, nil, 10*time.Minute)
	f.book = wager.NewBook(log, f.wagers, f.matches, f.ledger, nil, nil, 100, 1000000)
	f.escrow = challenge.NewEscrow(log, f.challenges, f.ledger, nil)
	f.pool = tournament.NewPool(log, f.tournaments, f.ledger, nil)
	f.coord = NewCoordinator(log, f.ledger, f.matches, f.wagers, f.challenges, f.tournaments, nil)
	return f
}

func (f *fixture) balance(t *testing.T, acct string) int64 {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), acct)
	if err != nil {
		t.Fatalf("balance %s: %v", acct, err)
	}
	return bal
}

// openMatch cria uma partida com kickoff longe o bastante pra janela estar aberta.
func (f *fixture) openMatch(t *testing.T) *match.Match {
	t.Helper()
	m, err := f.matchSvc.Create(context.Background(), []string{"alpha", "beta"}, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

func TestMatchSettlementPaysWinnersOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "winner", "loser")
	m := f.openMatch(t)

	if _, err := f.book.Place(ctx, "winner", m.ID, 1000, "alpha", 3); err != nil {
		t.Fatalf("place winning wager: %v", err)
	}
	if _, err := f.book.Place(ctx, "loser", m.ID, 500, "beta", 2); err != nil {
		t.Fatalf("place losing wager: %v", err)
	}

	if _, err := f.matchSvc.Resolve(ctx, m.ID, "alpha", false); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	sum, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if sum.RecordsSettled != 2 || sum.PaidOutCents != 3000 {
		t.Fatalf("expected 2 records / 3000 paid, got %d/%d", sum.RecordsSettled, sum.PaidOutCents)
	}

	if bal := f.balance(t, "winner"); bal != 12000 {
		t.Fatalf("winner: 10000 - 1000 + 3000 = 12000, got %d", bal)
	}
	if bal := f.balance(t, "loser"); bal != 9500 {
		t.Fatalf("loser keeps nothing back: expected 9500, got %d", bal)
	}
}

func TestMatchSettlementIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "winner")
	m := f.openMatch(t)

	if _, err := f.book.Place(ctx, "winner", m.ID, 1000, "alpha", 3); err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.matchSvc.Resolve(ctx, m.ID, "alpha", false); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	after := f.balance(t, "winner")

	sum, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if sum.RecordsSettled != 0 || sum.PaidOutCents != 0 {
		t.Fatalf("second sweep must settle nothing, got %d/%d", sum.RecordsSettled, sum.PaidOutCents)
	}
	if bal := f.balance(t, "winner"); bal != after {
		t.Fatalf("second sweep must not move balances: %d -> %d", after, bal)
	}
}

func TestRedeliverySettlesStragglerWager(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "acc1")
	m := f.openMatch(t)

	if _, err := f.matchSvc.Resolve(ctx, m.ID, "alpha", false); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	// aposta que escapou da primeira varredura: stake já retido, registro gravado
	// depois da partida estar liquidada
	straggler := &wager.Wager{
		ID:         "w-late",
		AccountID:  "acc1",
		MatchID:    m.ID,
		StakeCents: 1000,
		Outcome:    "alpha",
		OddValue:   3,
		Status:     wager.StatusPending,
	}
	if err := f.ledger.Debit(ctx, "acc1", 1000, "stake:w-late"); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := f.wagers.Create(ctx, straggler); err != nil {
		t.Fatalf("create: %v", err)
	}

	sum, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID)
	if err != nil {
		t.Fatalf("resettle: %v", err)
	}
	if sum.RecordsSettled != 1 || sum.PaidOutCents != 3000 {
		t.Fatalf("redelivery must sweep the straggler: %d/%d", sum.RecordsSettled, sum.PaidOutCents)
	}

	got, _ := f.wagers.Get(ctx, "w-late")
	if got.Status != wager.StatusWon || !got.Settled {
		t.Fatalf("expected WON/settled, got %s/%v", got.Status, got.Settled)
	}
	if bal := f.balance(t, "acc1"); bal != 12000 {
		t.Fatalf("straggler stake must be paid out: expected 12000, got %d", bal)
	}
}

func TestConcurrentSettlementPaysOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "winner")
	m := f.openMatch(t)

	_, _ = f.book.Place(ctx, "winner", m.ID, 1000, "alpha", 3)
	_, _ = f.matchSvc.Resolve(ctx, m.ID, "alpha", false)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.coord.OnTerminalState(ctx, events.KindMatch, m.ID)
		}()
	}
	wg.Wait()

	if bal := f.balance(t, "winner"); bal != 12000 {
		t.Fatalf("payout must land exactly once: expected 12000, got %d", bal)
	}
}

func TestCancelledMatchRefundsStakes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "acc1")
	m := f.openMatch(t)

	w, err := f.book.Place(ctx, "acc1", m.ID, 1000, "alpha", 3)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.matchSvc.Resolve(ctx, m.ID, "", true); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.coord.OnTerminalState(ctx, events.KindMatch, m.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if bal := f.balance(t, "acc1"); bal != 10000 {
		t.Fatalf("void must refund the stake, got %d", bal)
	}
	got, _ := f.wagers.Get(ctx, w.ID)
	if got.Status != wager.StatusVoid || !got.Settled {
		t.Fatalf("expected VOID/settled, got %s/%v", got.Status, got.Settled)
	}
}

func TestCompletedMatchWithoutWinnerCreditsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "acc1")

	// registro corrompido gravado direto no store, sem passar pelo ciclo de vida
	bad := &match.Match{
		ID:           "bad1",
		Participants: []string{"alpha", "beta"},
		Status:       match.StatusCompleted,
	}
	if err := f.matches.Create(ctx, bad); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := f.coord.OnTerminalState(ctx, events.KindMatch, "bad1")
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if total := f.ledger.TotalCents(); total != 10000 {
		t.Fatalf("no credit may happen on violation: total %d", total)
	}
}

func TestUnknownKind(t *testing.T) {
	f := newFixture(t)
	if _, err := f.coord.OnTerminalState(context.Background(), "lottery", "x"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestChallengeSettlementPaysPot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1", "p2")

	c, err := f.escrow.Request(ctx, "p1", "p2", 500, "chess")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.escrow.Respond(ctx, c.ID, "p2", true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := f.escrow.Complete(ctx, c.ID, "p1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	sum, err := f.coord.OnTerminalState(ctx, events.KindChallenge, c.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if sum.PaidOutCents != 1000 {
		t.Fatalf("expected pot 1000 paid, got %d", sum.PaidOutCents)
	}

	if bal := f.balance(t, "p1"); bal != 10500 {
		t.Fatalf("winner: 10000 - 500 + 1000 = 10500, got %d", bal)
	}
	if bal := f.balance(t, "p2"); bal != 9500 {
		t.Fatalf("loser: 10000 - 500 = 9500, got %d", bal)
	}
	if total := f.ledger.TotalCents(); total != 20000 {
		t.Fatalf("challenge settlement must conserve funds: total %d", total)
	}

	// reexecução não move nada
	if _, err := f.coord.OnTerminalState(ctx, events.KindChallenge, c.ID); err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if bal := f.balance(t, "p1"); bal != 10500 {
		t.Fatalf("second sweep moved funds: %d", bal)
	}
}

func TestChallengeCancelAfterAcceptRefundsBoth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1", "p2")

	c, _ := f.escrow.Request(ctx, "p1", "p2", 500, "chess")
	if _, err := f.escrow.Respond(ctx, c.ID, "p2", true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := f.escrow.Cancel(ctx, c.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.coord.OnTerminalState(ctx, events.KindChallenge, c.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if b1, b2 := f.balance(t, "p1"), f.balance(t, "p2"); b1 != 10000 || b2 != 10000 {
		t.Fatalf("both stakes must come back: %d/%d", b1, b2)
	}
}

func TestRejectedChallengeSettlesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1", "p2")

	c, _ := f.escrow.Request(ctx, "p1", "p2", 500, "chess")
	if _, err := f.escrow.Respond(ctx, c.ID, "p2", false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	sum, err := f.coord.OnTerminalState(ctx, events.KindChallenge, c.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if sum.PaidOutCents != 0 {
		t.Fatalf("rejected challenge pays nothing, got %d", sum.PaidOutCents)
	}
	if total := f.ledger.TotalCents(); total != 20000 {
		t.Fatalf("total changed: %d", total)
	}
}

func TestTournamentPayoutDistribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "host", "p1", "p2", "p3")

	tr, err := f.pool.Create(ctx, "host", "spring cup", 500, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, acct := range []string{"p1", "p2", "p3"} {
		if _, err := f.pool.Join(ctx, tr.ID, acct); err != nil {
			t.Fatalf("join %s: %v", acct, err)
		}
	}
	if _, err := f.pool.Start(ctx, tr.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.pool.Resolve(ctx, tr.ID, "p1", "p2", false); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// pool 3500: vencedor 1750, vice 1050, 700 retidos
	sum, err := f.coord.OnTerminalState(ctx, events.KindTournament, tr.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if sum.PaidOutCents != 2800 {
		t.Fatalf("expected 2800 paid out, got %d", sum.PaidOutCents)
	}

	if bal := f.balance(t, "p1"); bal != 11250 {
		t.Fatalf("winner: 10000 - 500 + 1750 = 11250, got %d", bal)
	}
	if bal := f.balance(t, "p2"); bal != 10550 {
		t.Fatalf("runner-up: 10000 - 500 + 1050 = 10550, got %d", bal)
	}
	if bal := f.balance(t, "p3"); bal != 9500 {
		t.Fatalf("third place: expected 9500, got %d", bal)
	}
	if bal := f.balance(t, "host"); bal != 8000 {
		t.Fatalf("host seed stays in the pool: expected 8000, got %d", bal)
	}

	got, _ := f.tournaments.Get(ctx, tr.ID)
	if got.PayoutStatus != tournament.PayoutCompleted {
		t.Fatalf("expected payout COMPLETED, got %s", got.PayoutStatus)
	}

	// reexecução não paga de novo
	sum, err = f.coord.OnTerminalState(ctx, events.KindTournament, tr.ID)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if sum.PaidOutCents != 0 {
		t.Fatalf("second sweep paid %d", sum.PaidOutCents)
	}
	if bal := f.balance(t, "p1"); bal != 11250 {
		t.Fatalf("second sweep moved funds: %d", bal)
	}
}

func TestCancelledTournamentRefundsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "host", "p1", "p2")

	tr, _ := f.pool.Create(ctx, "host", "spring cup", 500, 2000)
	_, _ = f.pool.Join(ctx, tr.ID, "p1")
	_, _ = f.pool.Join(ctx, tr.ID, "p2")
	if _, err := f.pool.Resolve(ctx, tr.ID, "", "", true); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.coord.OnTerminalState(ctx, events.KindTournament, tr.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}

	for _, acct := range []string{"host", "p1", "p2"} {
		if bal := f.balance(t, acct); bal != 10000 {
			t.Fatalf("%s must be made whole, got %d", acct, bal)
		}
	}
	if total := f.ledger.TotalCents(); total != 30000 {
		t.Fatalf("cancellation must conserve funds: total %d", total)
	}
}
