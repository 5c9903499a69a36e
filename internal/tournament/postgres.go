package tournament

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Postgres persiste torneios.
// Schema:
//
//	tournaments(id TEXT PK, name TEXT NOT NULL, host_id TEXT NOT NULL,
//	            entry_fee_cents BIGINT NOT NULL, seed_cents BIGINT NOT NULL,
//	            prize_pool_cents BIGINT NOT NULL, status TEXT NOT NULL,
//	            payout_status TEXT NOT NULL, winner TEXT NOT NULL DEFAULT '',
//	            runner_up TEXT NOT NULL DEFAULT '',
//	            created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL)
//	tournament_entries(tournament_id TEXT REFERENCES tournaments(id),
//	                   account_id TEXT NOT NULL, fee_cents BIGINT NOT NULL,
//	                   joined_at TIMESTAMPTZ NOT NULL,
//	                   PRIMARY KEY (tournament_id, account_id))
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const tournamentCols = `id, name, host_id, entry_fee_cents, seed_cents, prize_pool_cents, status, payout_status, winner, runner_up, created_at, updated_at`

func scanTournament(row interface{ Scan(...any) error }) (*Tournament, error) {
	var t Tournament
	err := row.Scan(&t.ID, &t.Name, &t.HostID, &t.EntryFeeCents, &t.SeedCents,
		&t.PrizePoolCents, &t.Status, &t.PayoutStatus, &t.Winner, &t.RunnerUp,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) Create(ctx context.Context, t *Tournament) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO tournaments (`+tournamentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.Name, t.HostID, t.EntryFeeCents, t.SeedCents, t.PrizePoolCents,
		t.Status, t.PayoutStatus, t.Winner, t.RunnerUp, t.CreatedAt, t.UpdatedAt)
	return err
}

func (p *Postgres) loadEntries(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, t *Tournament) error {
	rows, err := q.QueryContext(ctx, `
		SELECT account_id, fee_cents, joined_at FROM tournament_entries
		WHERE tournament_id=$1 ORDER BY joined_at`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AccountID, &e.FeeCents, &e.JoinedAt); err != nil {
			return err
		}
		t.Entries = append(t.Entries, e)
	}
	return rows.Err()
}

func (p *Postgres) Get(ctx context.Context, id string) (*Tournament, error) {
	t, err := scanTournament(p.db.QueryRowContext(ctx,
		`SELECT `+tournamentCols+` FROM tournaments WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := p.loadEntries(ctx, p.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Postgres) Transition(ctx context.Context, id string, fn func(*Tournament) error) (*Tournament, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := scanTournament(tx.QueryRowContext(ctx,
		`SELECT `+tournamentCols+` FROM tournaments WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := p.loadEntries(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE tournaments SET status=$1, payout_status=$2, winner=$3, runner_up=$4, updated_at=$5
		WHERE id=$6`,
		t.Status, t.PayoutStatus, t.Winner, t.RunnerUp, t.UpdatedAt, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// AddEntry valida inscrição aberta e duplicidade com a linha do torneio travada,
// insere a entrada e soma a taxa ao pool na mesma transação.
func (p *Postgres) AddEntry(ctx context.Context, id string, e Entry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status Status
	if err = tx.QueryRowContext(ctx,
		`SELECT status FROM tournaments WHERE id=$1 FOR UPDATE`, id).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if status != StatusScheduled {
		return ErrNotOpen
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO tournament_entries (tournament_id, account_id, fee_cents, joined_at)
		VALUES ($1,$2,$3,$4)`, id, e.AccountID, e.FeeCents, e.JoinedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrAlreadyJoined
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE tournaments SET prize_pool_cents = prize_pool_cents + $1, updated_at=NOW()
		WHERE id=$2`, e.FeeCents, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) CASPayoutStatus(ctx context.Context, id string, from, to PayoutStatus) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE tournaments SET payout_status=$1, updated_at=NOW()
		WHERE id=$2 AND payout_status=$3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		var exists bool
		if err := p.db.QueryRowContext(ctx,
			`SELECT TRUE FROM tournaments WHERE id=$1`, id).Scan(&exists); err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, nil
	}
	return true, nil
}
