package match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-engine/pkg/contracts/events"
)

// DuePublisher avisa que uma entidade atingiu estado terminal e precisa ser liquidada.
type DuePublisher interface {
	SettlementDue(ctx context.Context, kind, id string) error
}

// Service é o dono do ciclo de vida das partidas. Ele não liquida nada:
// emite o evento terminal que o coordenador de liquidação consome.
type Service struct {
	log           *zap.Logger
	store         Store
	publisher     DuePublisher // pode ser nil em testes
	bettingBuffer time.Duration
	now           func() time.Time
}

func NewService(log *zap.Logger, store Store, publisher DuePublisher, bettingBuffer time.Duration) *Service {
	return &Service{
		log:           log,
		store:         store,
		publisher:     publisher,
		bettingBuffer: bettingBuffer,
		now:           time.Now,
	}
}

func (s *Service) Create(ctx context.Context, participants []string, startTime time.Time) (*Match, error) {
	m, err := New(uuid.NewString(), participants, startTime, s.bettingBuffer, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Match, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Start(ctx context.Context, id string) (*Match, error) {
	return s.store.Transition(ctx, id, func(m *Match) error {
		return m.Start(s.now())
	})
}

// Resolve encerra a partida: com winner preenchido ela é COMPLETED, com cancel
// ela é CANCELLED. O evento settlement_due só sai depois da transição persistida.
func (s *Service) Resolve(ctx context.Context, id string, winner string, cancel bool) (*Match, error) {
	m, err := s.store.Transition(ctx, id, func(m *Match) error {
		if cancel {
			return m.Cancel(s.now())
		}
		return m.Complete(winner, s.now())
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.SettlementDue(ctx, events.KindMatch, m.ID); err != nil {
			// a transição já está durável; a liquidação pode ser re-disparada depois
			s.log.Error("publish settlement_due", zap.String("matchId", m.ID), zap.Error(err))
		}
	}
	return m, nil
}
