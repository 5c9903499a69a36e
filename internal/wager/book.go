package wager

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-engine/internal/ledger"
	"github.com/radieske/wager-engine/internal/match"
	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// OddSource lê a odd corrente do feed de preços (cache Redis).
type OddSource interface {
	CurrentOdd(ctx context.Context, matchID, outcome string) (string, error)
}

// PlacedPublisher publica o evento wager_placed.
type PlacedPublisher interface {
	WagerPlaced(ctx context.Context, e events.WagerPlaced) error
}

// Book registra apostas contra partidas. O stake é retido no ledger na criação;
// o pagamento (ou a perda) sai exclusivamente desse valor retido.
type Book struct {
	log       *zap.Logger
	store     Store
	matches   match.Store
	ledger    ledger.Store
	odds      OddSource       // nil => sem verificação de odd
	publisher PlacedPublisher // nil => sem evento
	minStake  int64
	maxStake  int64
	now       func() time.Time
}

func NewBook(log *zap.Logger, store Store, matches match.Store, lg ledger.Store,
	odds OddSource, publisher PlacedPublisher, minStake, maxStake int64) *Book {
	return &Book{
		log:       log,
		store:     store,
		matches:   matches,
		ledger:    lg,
		odds:      odds,
		publisher: publisher,
		minStake:  minStake,
		maxStake:  maxStake,
		now:       time.Now,
	}
}

// Place valida janela, resultado previsto e stake, retém o valor no ledger e
// grava a aposta PENDING. Toda falha deixa o saldo exatamente como estava.
func (b *Book) Place(ctx context.Context, accountID, matchID string, stakeCents int64, outcome string, odd float64) (*Wager, error) {
	if stakeCents < b.minStake || stakeCents > b.maxStake {
		return nil, ErrInvalidStake
	}
	if odd <= 0 {
		return nil, ErrInvalidOdd
	}

	m, err := b.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.BettingOpen(b.now()) {
		return nil, ErrMatchNotBettable
	}
	if !m.ValidOutcome(outcome) {
		return nil, ErrInvalidOutcome
	}

	// confere a odd enviada contra a corrente no cache, quando disponível
	if b.odds != nil {
		if cur, err := b.odds.CurrentOdd(ctx, matchID, outcome); err == nil && cur != "" {
			if cur != strconv.FormatFloat(odd, 'f', -1, 64) {
				return nil, ErrOddChanged
			}
		}
	}

	w := &Wager{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		MatchID:    matchID,
		StakeCents: stakeCents,
		Outcome:    outcome,
		OddValue:   odd,
		Status:     StatusPending,
		CreatedAt:  b.now(),
	}

	// retém o stake; tudo-ou-nada, sem estado intermediário visível
	if err := b.ledger.Debit(ctx, accountID, stakeCents, "stake:"+w.ID); err != nil {
		return nil, err
	}

	// a janela é reavaliada com a partida travada e a aposta é gravada ali
	// dentro: toda aposta persistida fica ordenada antes de qualquer transição
	// terminal, então nenhuma escapa da varredura de liquidação
	err = b.matches.Guard(ctx, matchID, func(m *match.Match) error {
		if !m.BettingOpen(b.now()) {
			return ErrMatchNotBettable
		}
		return b.store.Create(ctx, w)
	})
	if err != nil {
		// compensação: devolve o stake retido
		if cerr := b.ledger.Credit(ctx, accountID, stakeCents, "stake-revert:"+w.ID); cerr != nil {
			b.log.Error("stake revert failed", zap.String("wagerId", w.ID), zap.Error(cerr))
		}
		return nil, err
	}

	if b.publisher != nil {
		_ = b.publisher.WagerPlaced(ctx, events.WagerPlaced{
			WagerID:    w.ID,
			AccountID:  w.AccountID,
			MatchID:    w.MatchID,
			Outcome:    w.Outcome,
			StakeCents: w.StakeCents,
			OddValue:   w.OddValue,
		})
	}
	return w, nil
}

func (b *Book) Get(ctx context.Context, id string) (*Wager, error) {
	return b.store.Get(ctx, id)
}
