package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// DuePublisher avisa o coordenador que o desafio atingiu estado terminal.
type DuePublisher interface {
	SettlementDue(ctx context.Context, kind, id string) error
}

// Escrow administra desafios par-a-par: criação, resposta com retenção
// tudo-ou-nada das duas partes, conclusão e cancelamento.
type Escrow struct {
	log       *zap.Logger
	store     Store
	ledger    ledger.Store
	publisher DuePublisher // nil ok
	now       func() time.Time
}

func NewEscrow(log *zap.Logger, store Store, lg ledger.Store, publisher DuePublisher) *Escrow {
	return &Escrow{log: log, store: store, ledger: lg, publisher: publisher, now: time.Now}
}

func (e *Escrow) Request(ctx context.Context, challenger, opponent string, stakeCents int64, game string) (*Challenge, error) {
	c, err := New(uuid.NewString(), challenger, opponent, stakeCents, game, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Escrow) Get(ctx context.Context, id string) (*Challenge, error) {
	return e.store.Get(ctx, id)
}

// Respond aceita ou rejeita um desafio PENDING. Na aceitação com stake > 0 as
// duas contas são debitadas juntas: se qualquer uma não tiver saldo, nenhuma é
// tocada e o desafio continua PENDING.
func (e *Escrow) Respond(ctx context.Context, id, responder string, accept bool) (*Challenge, error) {
	c, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !accept {
		return e.store.Transition(ctx, id, func(c *Challenge) error {
			return c.Reject(responder, e.now())
		})
	}

	// valida antes de mexer em saldo
	probe := *c
	if err := probe.Accept(responder, e.now()); err != nil {
		return nil, err
	}

	// ref único por tentativa: uma aceitação concorrente perdedora devolve o
	// que ela mesma reteve, sem colidir com o escrow da vencedora
	attempt := uuid.NewString()
	held := false
	if c.StakeCents > 0 {
		if err := e.ledger.DebitPair(ctx, c.Challenger, c.Opponent, c.StakeCents, "escrow:"+c.ID+":"+attempt); err != nil {
			return nil, err // ErrInsufficientFunds: desafio segue PENDING, saldos intactos
		}
		held = true
	}

	out, err := e.store.Transition(ctx, id, func(c *Challenge) error {
		if err := c.Accept(responder, e.now()); err != nil {
			return err
		}
		c.EscrowHeld = held
		return nil
	})
	if err != nil && held {
		// transição perdeu a corrida (ex.: cancelado no meio); devolve o escrow
		e.refundBoth(ctx, c, "escrow-revert:"+c.ID+":"+attempt)
	}
	return out, err
}

// Complete encerra o desafio com um vencedor; o crédito de 2×stake é feito
// pela liquidação, exatamente uma vez.
func (e *Escrow) Complete(ctx context.Context, id, winner string) (*Challenge, error) {
	c, err := e.store.Transition(ctx, id, func(c *Challenge) error {
		return c.Complete(winner, e.now())
	})
	if err != nil {
		return nil, err
	}
	e.publishDue(ctx, c.ID)
	return c, nil
}

// Cancel desiste do desafio. De PENDING nada foi retido; de ACCEPTED a
// liquidação devolve o stake às duas partes.
func (e *Escrow) Cancel(ctx context.Context, id string) (*Challenge, error) {
	c, err := e.store.Transition(ctx, id, func(c *Challenge) error {
		return c.Cancel(e.now())
	})
	if err != nil {
		return nil, err
	}
	if c.EscrowHeld {
		e.publishDue(ctx, c.ID)
	}
	return c, nil
}

func (e *Escrow) publishDue(ctx context.Context, id string) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.SettlementDue(ctx, events.KindChallenge, id); err != nil {
		e.log.Error("publish settlement_due", zap.String("challengeId", id), zap.Error(err))
	}
}

func (e *Escrow) refundBoth(ctx context.Context, c *Challenge, refBase string) {
	for _, acct := range []string{c.Challenger, c.Opponent} {
		if err := e.ledger.Credit(ctx, acct, c.StakeCents, refBase+":"+acct); err != nil {
			e.log.Error("escrow refund failed", zap.String("challengeId", c.ID),
				zap.String("accountId", acct), zap.Error(err))
		}
	}
}
