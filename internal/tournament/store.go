package tournament

import "context"

// Store persiste torneios. AddEntry valida inscrição aberta e duplicidade
// atomicamente com o incremento do pool; CASPayoutStatus é o guard de
// exatamente-uma-vez da distribuição.
type Store interface {
	Create(ctx context.Context, t *Tournament) error
	Get(ctx context.Context, id string) (*Tournament, error)
	Transition(ctx context.Context, id string, fn func(*Tournament) error) (*Tournament, error)
	AddEntry(ctx context.Context, id string, e Entry) error
	CASPayoutStatus(ctx context.Context, id string, from, to PayoutStatus) (bool, error)
}
