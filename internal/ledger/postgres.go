package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Postgres implementa o Store com locks pessimistas de linha.
// Schema:
//
//	accounts(id TEXT PK, balance_cents BIGINT NOT NULL CHECK (balance_cents >= 0),
//	         version BIGINT NOT NULL, created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
//	ledger_entries(id BIGSERIAL PK, account_id TEXT REFERENCES accounts(id),
//	               operation TEXT NOT NULL, amount_cents BIGINT NOT NULL,
//	               ref TEXT UNIQUE, created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
//
// O UNIQUE em ref dá a idempotência: a entrada é inserida com ON CONFLICT DO NOTHING
// e o saldo só muda quando a inserção acontece de fato.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) GetOrCreate(ctx context.Context, accountID string) (Account, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback()

	var acc Account
	acc.ID = accountID
	err = tx.QueryRowContext(ctx,
		`SELECT balance_cents, created_at FROM accounts WHERE id=$1`, accountID).
		Scan(&acc.BalanceCents, &acc.CreatedAt)
	if err == sql.ErrNoRows {
		acc.CreatedAt = time.Now()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO accounts(id, balance_cents, version, created_at) VALUES($1,0,1,$2)`,
			accountID, acc.CreatedAt); err != nil {
			return Account{}, err
		}
	} else if err != nil {
		return Account{}, err
	}

	if err = tx.Commit(); err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (p *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id=$1`, accountID).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return bal, err
}

// journal insere a entrada e diz se ela foi criada agora (ref inédito).
func journal(ctx context.Context, tx *sql.Tx, accountID, op string, amount int64, ref string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(account_id, operation, amount_cents, ref)
		VALUES($1,$2,$3,NULLIF($4,''))
		ON CONFLICT (ref) DO NOTHING`,
		accountID, op, amount, ref)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *Postgres) Deposit(ctx context.Context, accountID string, amountCents int64, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	if err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id=$1 FOR UPDATE`, accountID).Scan(&balance); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}

	applied, err := journal(ctx, tx, accountID, OpDeposit, amountCents, ref)
	if err != nil {
		return 0, err
	}
	if !applied {
		return balance, tx.Commit() // ref repetido, saldo inalterado
	}

	if err = tx.QueryRowContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $1, version = version + 1
		WHERE id=$2 RETURNING balance_cents`, amountCents, accountID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

func (p *Postgres) Debit(ctx context.Context, accountID string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance int64
	if err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id=$1 FOR UPDATE`, accountID).Scan(&balance); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if balance < amountCents {
		return ErrInsufficientFunds
	}

	applied, err := journal(ctx, tx, accountID, OpDebit, amountCents, ref)
	if err != nil {
		return err
	}
	if applied {
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET balance_cents = balance_cents - $1, version = version + 1
			WHERE id=$2`, amountCents, accountID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) Credit(ctx context.Context, accountID string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`SELECT id FROM accounts WHERE id=$1 FOR UPDATE`, accountID); err != nil {
		return err
	}

	applied, err := journal(ctx, tx, accountID, OpCredit, amountCents, ref)
	if err != nil {
		return err
	}
	if applied {
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET balance_cents = balance_cents + $1, version = version + 1
			WHERE id=$2`, amountCents, accountID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) DebitPair(ctx context.Context, accountA, accountB string, amountCents int64, ref string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// ORDER BY id garante ordem global de aquisição dos locks de linha
	rows, err := tx.QueryContext(ctx, `
		SELECT id, balance_cents FROM accounts
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		pq.Array([]string{accountA, accountB}))
	if err != nil {
		return err
	}
	balances := map[string]int64{}
	for rows.Next() {
		var id string
		var bal int64
		if err := rows.Scan(&id, &bal); err != nil {
			rows.Close()
			return err
		}
		balances[id] = bal
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(balances) != 2 {
		return ErrNotFound
	}
	if balances[accountA] < amountCents || balances[accountB] < amountCents {
		return ErrInsufficientFunds // tudo-ou-nada: nenhuma conta foi tocada
	}

	refA, refB := "", ""
	if ref != "" {
		refA, refB = ref+":"+accountA, ref+":"+accountB
	}
	applied, err := journal(ctx, tx, accountA, OpDebit, amountCents, refA)
	if err != nil {
		return err
	}
	if !applied {
		return tx.Commit() // par já debitado
	}
	if _, err = journal(ctx, tx, accountB, OpDebit, amountCents, refB); err != nil {
		return err
	}

	for _, id := range []string{accountA, accountB} {
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET balance_cents = balance_cents - $1, version = version + 1
			WHERE id=$2`, amountCents, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
