package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/challenge"
	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/internal/tournament"
	"github.com/radieske/wager-engine/internal/wager"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

var (
	ErrUnknownKind = errors.New("unknown settlement kind")

	// ErrInvariantViolation sinaliza dado corrompido vindo de cima (ex.: partida
	// COMPLETED sem vencedor). Nunca é engolido: vira log de erro + métrica.
	ErrInvariantViolation = errors.New("settlement invariant violation")
)

// Summary é o resultado de uma varredura de liquidação.
type Summary struct {
	Kind           string
	ID             string
	RecordsSettled int
	PaidOutCents   int64
	Payouts        []tournament.Payout // preenchido só para torneios
}

// Coordinator é o único ponto que converte estados terminais em créditos no
// ledger. Cada entidade é varrida sob um lock próprio; os flags settled dos
// registros e os refs únicos do journal tornam reexecuções no-ops.
type Coordinator struct {
	log         *zap.Logger
	ledger      ledger.Store
	matches     match.Store
	wagers      wager.Store
	challenges  challenge.Store
	tournaments tournament.Store
	policy      tournament.PayoutPolicy

	mu    sync.Mutex
	locks map[string]*sync.Mutex // liquidação em andamento, por kind:id
}

func NewCoordinator(log *zap.Logger, lg ledger.Store, matches match.Store, wagers wager.Store,
	challenges challenge.Store, tournaments tournament.Store, policy tournament.PayoutPolicy) *Coordinator {
	if policy == nil {
		policy = tournament.DefaultPayoutPolicy
	}
	return &Coordinator{
		log:         log,
		ledger:      lg,
		matches:     matches,
		wagers:      wagers,
		challenges:  challenges,
		tournaments: tournaments,
		policy:      policy,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) entityLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// OnTerminalState liquida todos os registros pendentes da entidade. Uma segunda
// chamada pro mesmo kind+id espera a primeira terminar e então não move saldo
// nenhum: liquidar duas vezes produz os mesmos saldos de liquidar uma.
func (c *Coordinator) OnTerminalState(ctx context.Context, kind, id string) (Summary, error) {
	l := c.entityLock(kind + ":" + id)
	l.Lock()
	defer l.Unlock()

	var (
		sum Summary
		err error
	)
	switch kind {
	case events.KindMatch:
		sum, err = c.settleMatch(ctx, id)
	case events.KindChallenge:
		sum, err = c.settleChallenge(ctx, id)
	case events.KindTournament:
		sum, err = c.settleTournament(ctx, id)
	default:
		return Summary{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return sum, err
	}

	sum.Kind, sum.ID = kind, id
	sweepsTotal.WithLabelValues(kind).Inc()
	recordsSettled.WithLabelValues(kind).Add(float64(sum.RecordsSettled))
	paidOutCents.WithLabelValues(kind).Add(float64(sum.PaidOutCents))
	return sum, nil
}

func (c *Coordinator) invariant(msg string, fields ...zap.Field) error {
	invariantViolations.Inc()
	c.log.Error("INVARIANT VIOLATION: "+msg, fields...)
	return fmt.Errorf("%w: %s", ErrInvariantViolation, msg)
}

func (c *Coordinator) settleMatch(ctx context.Context, id string) (Summary, error) {
	m, err := c.matches.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if !m.Terminal() {
		return Summary{}, wager.ErrMatchNotTerminal
	}
	// sem atalho pelo flag settled da partida: a varredura sempre relista as
	// apostas não liquidadas, então uma re-entrega repara qualquer retardatária
	if m.Status == match.StatusCompleted && m.Winner == "" {
		// contrato violado por quem resolveu a partida; nada é creditado
		return Summary{}, c.invariant("completed match has no winner", zap.String("matchId", id))
	}

	ws, err := c.wagers.ListUnsettledByMatch(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, w := range ws {
		status, payout, err := wager.Resolve(w, m)
		if err != nil {
			return sum, c.invariant("wager resolve failed",
				zap.String("wagerId", w.ID), zap.Error(err))
		}
		if payout > 0 {
			if err := c.ledger.Credit(ctx, w.AccountID, payout, "settle:wager:"+w.ID); err != nil {
				// varredura parcial: flags e refs deixam o retry seguro
				return sum, fmt.Errorf("credit wager %s: %w", w.ID, err)
			}
		}
		if err := c.wagers.MarkSettled(ctx, w.ID, status); err != nil {
			return sum, fmt.Errorf("mark wager %s settled: %w", w.ID, err)
		}
		sum.RecordsSettled++
		sum.PaidOutCents += payout
	}

	if err := c.matches.MarkSettled(ctx, id); err != nil {
		return sum, err
	}
	return sum, nil
}

func (c *Coordinator) settleChallenge(ctx context.Context, id string) (Summary, error) {
	ch, err := c.challenges.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if !ch.Terminal() {
		return Summary{}, challenge.ErrInvalidState
	}
	if ch.Settled {
		return Summary{}, nil
	}

	var sum Summary
	switch ch.Status {
	case challenge.StatusCompleted:
		if ch.Winner == "" {
			return Summary{}, c.invariant("completed challenge has no winner", zap.String("challengeId", id))
		}
		if ch.EscrowHeld {
			pot := ch.PotCents()
			if err := c.ledger.Credit(ctx, ch.Winner, pot, "settle:challenge:"+id); err != nil {
				return sum, fmt.Errorf("credit challenge winner: %w", err)
			}
			sum.PaidOutCents += pot
		}
	case challenge.StatusCancelled:
		if ch.EscrowHeld {
			// desistência depois do aceite: devolve o stake às duas partes
			for _, acct := range []string{ch.Challenger, ch.Opponent} {
				if err := c.ledger.Credit(ctx, acct, ch.StakeCents, "refund:challenge:"+id+":"+acct); err != nil {
					return sum, fmt.Errorf("refund challenge party %s: %w", acct, err)
				}
				sum.PaidOutCents += ch.StakeCents
			}
		}
	case challenge.StatusRejected:
		// nada foi retido
	}

	if err := c.challenges.MarkSettled(ctx, id); err != nil {
		return sum, err
	}
	sum.RecordsSettled = 1
	return sum, nil
}

func (c *Coordinator) settleTournament(ctx context.Context, id string) (Summary, error) {
	t, err := c.tournaments.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if !t.Terminal() {
		return Summary{}, tournament.ErrInvalidState
	}
	if t.PayoutStatus == tournament.PayoutCompleted {
		return Summary{}, nil
	}

	// NOT_PAID→PENDING antes de qualquer crédito; se já está PENDING, é uma
	// retomada de tentativa interrompida e os refs evitam pagamento dobrado
	moved, err := c.tournaments.CASPayoutStatus(ctx, id, tournament.PayoutNotPaid, tournament.PayoutPending)
	if err != nil {
		return Summary{}, err
	}
	if !moved {
		t, err = c.tournaments.Get(ctx, id)
		if err != nil {
			return Summary{}, err
		}
		if t.PayoutStatus != tournament.PayoutPending {
			return Summary{}, nil
		}
	}

	var payouts []tournament.Payout
	switch t.Status {
	case tournament.StatusCompleted:
		if t.Winner == "" {
			return Summary{}, c.invariant("completed tournament has no winner", zap.String("tournamentId", id))
		}
		payouts = c.policy(t)
		var total int64
		for _, p := range payouts {
			total += p.AmountCents
		}
		if total > t.PrizePoolCents {
			return Summary{}, c.invariant("payout policy exceeds prize pool",
				zap.String("tournamentId", id), zap.Int64("total", total), zap.Int64("pool", t.PrizePoolCents))
		}
		for i, p := range payouts {
			if err := c.ledger.Credit(ctx, p.AccountID, p.AmountCents,
				fmt.Sprintf("payout:%s:%d:%s", id, i, p.AccountID)); err != nil {
				return Summary{}, fmt.Errorf("credit payout %s: %w", p.AccountID, err)
			}
		}
	case tournament.StatusCancelled:
		// devolve taxas de inscrição e o seed do host
		for _, e := range t.Entries {
			if e.FeeCents == 0 {
				continue
			}
			payouts = append(payouts, tournament.Payout{AccountID: e.AccountID, AmountCents: e.FeeCents})
			if err := c.ledger.Credit(ctx, e.AccountID, e.FeeCents, "refund:entry:"+id+":"+e.AccountID); err != nil {
				return Summary{}, fmt.Errorf("refund entry %s: %w", e.AccountID, err)
			}
		}
		if t.SeedCents > 0 {
			payouts = append(payouts, tournament.Payout{AccountID: t.HostID, AmountCents: t.SeedCents})
			if err := c.ledger.Credit(ctx, t.HostID, t.SeedCents, "refund:seed:"+id); err != nil {
				return Summary{}, fmt.Errorf("refund seed: %w", err)
			}
		}
	}

	if _, err := c.tournaments.CASPayoutStatus(ctx, id, tournament.PayoutPending, tournament.PayoutCompleted); err != nil {
		return Summary{}, err
	}

	var sum Summary
	sum.Payouts = payouts
	sum.RecordsSettled = len(payouts)
	for _, p := range payouts {
		sum.PaidOutCents += p.AmountCents
	}
	return sum, nil
}
