package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Operações registradas no journal.
const (
	OpDeposit = "DEPOSIT"
	OpDebit   = "DEBIT"
	OpCredit  = "CREDIT"
)

// Account representa uma conta com saldo em centavos. Saldo nunca fica negativo.
type Account struct {
	ID           string
	BalanceCents int64
	CreatedAt    time.Time
}

// Entry é uma linha do journal. Todo débito/crédito gera exatamente uma entrada,
// e o ref é único: repetir um ref é no-op (idempotência de liquidação).
type Entry struct {
	AccountID   string
	Operation   string
	AmountCents int64
	Ref         string
	CreatedAt   time.Time
}

// Store é o contrato do ledger de contas. Todas as operações sobre a mesma conta
// são serializadas pela implementação (mutex por conta ou lock de linha no banco).
type Store interface {
	GetOrCreate(ctx context.Context, accountID string) (Account, error)
	Balance(ctx context.Context, accountID string) (int64, error)

	// Deposit credita saldo vindo da fonte de recursos externa (fora do motor).
	Deposit(ctx context.Context, accountID string, amountCents int64, ref string) (newBalance int64, err error)

	// Debit falha com ErrInsufficientFunds sem mutação se o saldo for menor que o valor.
	Debit(ctx context.Context, accountID string, amountCents int64, ref string) error

	// Credit é idempotente por ref: um ref já registrado no journal não credita de novo.
	Credit(ctx context.Context, accountID string, amountCents int64, ref string) error

	// DebitPair debita o mesmo valor de duas contas, tudo-ou-nada. Se qualquer uma
	// não tiver saldo, nenhuma é debitada. Os locks são adquiridos em ordem de id
	// pra evitar deadlock entre pares sobrepostos.
	DebitPair(ctx context.Context, accountA, accountB string, amountCents int64, ref string) error
}
