package challenge

import "context"

// Store persiste desafios. Transition segue o mesmo contrato do store de
// partidas: fn roda com a linha travada e a escrita é atômica.
type Store interface {
	Create(ctx context.Context, c *Challenge) error
	Get(ctx context.Context, id string) (*Challenge, error)
	Transition(ctx context.Context, id string, fn func(*Challenge) error) (*Challenge, error)
	MarkSettled(ctx context.Context, id string) error
}
