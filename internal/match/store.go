package match

import "context"

// Store persiste partidas. Transition executa fn com a linha da partida
// travada (mutex em memória, FOR UPDATE no Postgres): a leitura do estado,
// a transição e a escrita acontecem sem interleaving com outros chamadores.
// Guard dá o mesmo isolamento sem escrever nada: fn roda com a partida
// travada, então tudo que fn fizer fica ordenado antes de qualquer
// transição terminal concorrente.
type Store interface {
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, id string) (*Match, error)
	Transition(ctx context.Context, id string, fn func(*Match) error) (*Match, error)
	Guard(ctx context.Context, id string, fn func(*Match) error) error
	MarkSettled(ctx context.Context, id string) error
}
