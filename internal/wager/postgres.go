package wager

import (
	"context"
	"database/sql"
)

// Postgres persiste apostas.
// Schema:
//
//	wagers(id TEXT PK, account_id TEXT NOT NULL, match_id TEXT NOT NULL,
//	       stake_cents BIGINT NOT NULL CHECK (stake_cents > 0),
//	       outcome TEXT NOT NULL, odd_value DOUBLE PRECISION NOT NULL,
//	       status TEXT NOT NULL, settled BOOLEAN NOT NULL DEFAULT FALSE,
//	       created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Create(ctx context.Context, w *Wager) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wagers (id, account_id, match_id, stake_cents, outcome, odd_value, status, settled, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, w.AccountID, w.MatchID, w.StakeCents, w.Outcome, w.OddValue, w.Status, w.Settled, w.CreatedAt)
	return err
}

func (p *Postgres) Get(ctx context.Context, id string) (*Wager, error) {
	var w Wager
	err := p.db.QueryRowContext(ctx, `
		SELECT id, account_id, match_id, stake_cents, outcome, odd_value, status, settled, created_at
		FROM wagers WHERE id=$1`, id).
		Scan(&w.ID, &w.AccountID, &w.MatchID, &w.StakeCents, &w.Outcome, &w.OddValue, &w.Status, &w.Settled, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) ListUnsettledByMatch(ctx context.Context, matchID string) ([]*Wager, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, match_id, stake_cents, outcome, odd_value, status, settled, created_at
		FROM wagers WHERE match_id=$1 AND settled=FALSE ORDER BY id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Wager
	for rows.Next() {
		var w Wager
		if err := rows.Scan(&w.ID, &w.AccountID, &w.MatchID, &w.StakeCents, &w.Outcome,
			&w.OddValue, &w.Status, &w.Settled, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// MarkSettled só toca em linhas ainda não liquidadas; repetição é no-op.
func (p *Postgres) MarkSettled(ctx context.Context, id string, status Status) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE wagers SET status=$1, settled=TRUE WHERE id=$2 AND settled=FALSE`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := p.db.QueryRowContext(ctx,
			`SELECT TRUE FROM wagers WHERE id=$1`, id).Scan(&exists); err == sql.ErrNoRows {
			return ErrNotFound
		}
	}
	return nil
}
