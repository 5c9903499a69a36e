package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory implementa o Store em memória com um mutex por conta.
// Usado nos testes e no modo local; o Postgres é o store de produção.
type Memory struct {
	mu       sync.Mutex // protege accounts, refs e entries
	accounts map[string]*memAccount
	refs     map[string]bool
	entries  []Entry
}

type memAccount struct {
	mu        sync.Mutex // serializa débito/crédito na conta
	balance   int64
	createdAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*memAccount),
		refs:     make(map[string]bool),
	}
}

// acct retorna a conta, criando se não existir.
func (m *Memory) acct(id string) *memAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		a = &memAccount{createdAt: time.Now()}
		m.accounts[id] = a
	}
	return a
}

// journal registra a entrada se o ref ainda não foi usado.
// Retorna false quando o ref já existe (operação deve virar no-op).
func (m *Memory) journal(accountID, op string, amount int64, ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref != "" {
		if m.refs[ref] {
			return false
		}
		m.refs[ref] = true
	}
	m.entries = append(m.entries, Entry{
		AccountID:   accountID,
		Operation:   op,
		AmountCents: amount,
		Ref:         ref,
		CreatedAt:   time.Now(),
	})
	return true
}

func (m *Memory) GetOrCreate(_ context.Context, accountID string) (Account, error) {
	a := m.acct(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return Account{ID: accountID, BalanceCents: a.balance, CreatedAt: a.createdAt}, nil
}

func (m *Memory) Balance(_ context.Context, accountID string) (int64, error) {
	a := m.acct(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

func (m *Memory) Deposit(_ context.Context, accountID string, amountCents int64, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	a := m.acct(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if !m.journal(accountID, OpDeposit, amountCents, ref) {
		return a.balance, nil
	}
	a.balance += amountCents
	return a.balance, nil
}

func (m *Memory) Debit(_ context.Context, accountID string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	a := m.acct(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance < amountCents {
		return ErrInsufficientFunds
	}
	if !m.journal(accountID, OpDebit, amountCents, ref) {
		return nil
	}
	a.balance -= amountCents
	return nil
}

func (m *Memory) Credit(_ context.Context, accountID string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	a := m.acct(accountID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if !m.journal(accountID, OpCredit, amountCents, ref) {
		return nil
	}
	a.balance += amountCents
	return nil
}

func (m *Memory) DebitPair(_ context.Context, accountA, accountB string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	if accountA == accountB {
		return m.Debit(context.Background(), accountA, 2*amountCents, ref)
	}

	a, b := m.acct(accountA), m.acct(accountB)

	// ordem global fixa de aquisição (por id) pra evitar deadlock
	first, second := a, b
	if accountB < accountA {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if a.balance < amountCents || b.balance < amountCents {
		return ErrInsufficientFunds
	}
	refA, refB := "", ""
	if ref != "" {
		refA, refB = ref+":"+accountA, ref+":"+accountB
	}
	if !m.journal(accountA, OpDebit, amountCents, refA) {
		return nil // par já debitado por uma chamada anterior
	}
	m.journal(accountB, OpDebit, amountCents, refB)
	a.balance -= amountCents
	b.balance -= amountCents
	return nil
}

// TotalCents soma todos os saldos; usado nos testes de conservação.
func (m *Memory) TotalCents() int64 {
	m.mu.Lock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var total int64
	for _, id := range ids {
		a := m.acct(id)
		a.mu.Lock()
		total += a.balance
		a.mu.Unlock()
	}
	return total
}

// Entries retorna uma cópia do journal.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
