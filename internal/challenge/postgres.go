package challenge

import (
	"context"
	"database/sql"
)

// Postgres persiste desafios.
// Schema:
//
//	challenges(id TEXT PK, challenger TEXT NOT NULL, opponent TEXT NOT NULL,
//	           game TEXT NOT NULL DEFAULT '', stake_cents BIGINT NOT NULL CHECK (stake_cents >= 0),
//	           status TEXT NOT NULL, winner TEXT NOT NULL DEFAULT '',
//	           escrow_held BOOLEAN NOT NULL DEFAULT FALSE, settled BOOLEAN NOT NULL DEFAULT FALSE,
//	           created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL)
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const challengeCols = `id, challenger, opponent, game, stake_cents, status, winner, escrow_held, settled, created_at, updated_at`

func scanChallenge(row interface{ Scan(...any) error }) (*Challenge, error) {
	var c Challenge
	err := row.Scan(&c.ID, &c.Challenger, &c.Opponent, &c.Game, &c.StakeCents,
		&c.Status, &c.Winner, &c.EscrowHeld, &c.Settled, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) Create(ctx context.Context, c *Challenge) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.Challenger, c.Opponent, c.Game, c.StakeCents, c.Status, c.Winner,
		c.EscrowHeld, c.Settled, c.CreatedAt, c.UpdatedAt)
	return err
}

func (p *Postgres) Get(ctx context.Context, id string) (*Challenge, error) {
	return scanChallenge(p.db.QueryRowContext(ctx,
		`SELECT `+challengeCols+` FROM challenges WHERE id=$1`, id))
}

func (p *Postgres) Transition(ctx context.Context, id string, fn func(*Challenge) error) (*Challenge, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := scanChallenge(tx.QueryRowContext(ctx,
		`SELECT `+challengeCols+` FROM challenges WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE challenges SET status=$1, winner=$2, escrow_held=$3, updated_at=$4 WHERE id=$5`,
		c.Status, c.Winner, c.EscrowHeld, c.UpdatedAt, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Postgres) MarkSettled(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE challenges SET settled=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
