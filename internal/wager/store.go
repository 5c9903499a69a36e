package wager

import "context"

// Store persiste apostas. MarkSettled grava status e settled=true na mesma
// operação; chamar de novo sobre aposta já liquidada é no-op.
type Store interface {
	Create(ctx context.Context, w *Wager) error
	Get(ctx context.Context, id string) (*Wager, error)
	ListUnsettledByMatch(ctx context.Context, matchID string) ([]*Wager, error)
	MarkSettled(ctx context.Context, id string, status Status) error
}
