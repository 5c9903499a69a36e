package tournament

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// DuePublisher avisa o coordenador que o torneio atingiu estado terminal.
type DuePublisher interface {
	SettlementDue(ctx context.Context, kind, id string) error
}

// Pool administra inscrições e ciclo de vida do torneio. A distribuição do
// prize pool é executada pelo coordenador de liquidação.
type Pool struct {
	log       *zap.Logger
	store     Store
	ledger    ledger.Store
	publisher DuePublisher // nil ok
	now       func() time.Time
}

func NewPool(log *zap.Logger, store Store, lg ledger.Store, publisher DuePublisher) *Pool {
	return &Pool{log: log, store: store, ledger: lg, publisher: publisher, now: time.Now}
}

// Create abre um torneio. Seed > 0 é debitado do host na criação e já entra no pool.
func (p *Pool) Create(ctx context.Context, hostID, name string, entryFeeCents, seedCents int64) (*Tournament, error) {
	t, err := New(uuid.NewString(), name, hostID, entryFeeCents, seedCents, p.now())
	if err != nil {
		return nil, err
	}
	if seedCents > 0 {
		if err := p.ledger.Debit(ctx, hostID, seedCents, "seed:"+t.ID); err != nil {
			return nil, err
		}
	}
	if err := p.store.Create(ctx, t); err != nil {
		if seedCents > 0 {
			if cerr := p.ledger.Credit(ctx, hostID, seedCents, "seed-revert:"+t.ID); cerr != nil {
				p.log.Error("seed revert failed", zap.String("tournamentId", t.ID), zap.Error(cerr))
			}
		}
		return nil, err
	}
	return t, nil
}

func (p *Pool) Get(ctx context.Context, id string) (*Tournament, error) {
	return p.store.Get(ctx, id)
}

// Join debita a taxa de inscrição e registra o participante. A taxa só entra
// no pool se a inscrição for aceita; qualquer falha devolve o débito.
func (p *Pool) Join(ctx context.Context, id, accountID string) (*Tournament, error) {
	t, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusScheduled {
		return nil, ErrNotOpen
	}
	if t.HasEntry(accountID) {
		return nil, ErrAlreadyJoined
	}

	// ref único por tentativa: se duas inscrições correm juntas, cada débito
	// é real e a compensação da perdedora devolve exatamente o que ela reteve
	attempt := uuid.NewString()
	fee := t.EntryFeeCents
	if fee > 0 {
		if err := p.ledger.Debit(ctx, accountID, fee, "entry:"+id+":"+attempt); err != nil {
			return nil, err
		}
	}

	if err := p.store.AddEntry(ctx, id, Entry{AccountID: accountID, FeeCents: fee, JoinedAt: p.now()}); err != nil {
		if fee > 0 {
			if cerr := p.ledger.Credit(ctx, accountID, fee, "entry-revert:"+id+":"+attempt); cerr != nil {
				p.log.Error("entry revert failed", zap.String("tournamentId", id),
					zap.String("accountId", accountID), zap.Error(cerr))
			}
		}
		return nil, err
	}
	return p.store.Get(ctx, id)
}

func (p *Pool) Start(ctx context.Context, id string) (*Tournament, error) {
	return p.store.Transition(ctx, id, func(t *Tournament) error {
		return t.Start(p.now())
	})
}

// Resolve encerra o torneio (vencedor/vice ou cancelamento) e dispara a liquidação.
func (p *Pool) Resolve(ctx context.Context, id, winner, runnerUp string, cancel bool) (*Tournament, error) {
	t, err := p.store.Transition(ctx, id, func(t *Tournament) error {
		if cancel {
			return t.Cancel(p.now())
		}
		return t.Complete(winner, runnerUp, p.now())
	})
	if err != nil {
		return nil, err
	}

	if p.publisher != nil {
		if err := p.publisher.SettlementDue(ctx, events.KindTournament, t.ID); err != nil {
			p.log.Error("publish settlement_due", zap.String("tournamentId", t.ID), zap.Error(err))
		}
	}
	return t, nil
}
