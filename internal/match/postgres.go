package match

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Postgres persiste partidas.
// Schema:
//
//	matches(id TEXT PK, participants TEXT[] NOT NULL, status TEXT NOT NULL,
//	        start_time TIMESTAMPTZ NOT NULL, betting_deadline TIMESTAMPTZ NOT NULL,
//	        winner TEXT NOT NULL DEFAULT '', settled BOOLEAN NOT NULL DEFAULT FALSE,
//	        created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL)
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Create(ctx context.Context, m *Match) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO matches (id, participants, status, start_time, betting_deadline, winner, settled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, pq.Array(m.Participants), m.Status, m.StartTime, m.BettingDeadline,
		m.Winner, m.Settled, m.CreatedAt, m.UpdatedAt)
	return err
}

func scanMatch(row interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	var participants pq.StringArray
	err := row.Scan(&m.ID, &participants, &m.Status, &m.StartTime, &m.BettingDeadline,
		&m.Winner, &m.Settled, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Participants = participants
	return &m, nil
}

const matchCols = `id, participants, status, start_time, betting_deadline, winner, settled, created_at, updated_at`

func (p *Postgres) Get(ctx context.Context, id string) (*Match, error) {
	return scanMatch(p.db.QueryRowContext(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id=$1`, id))
}

// Transition roda fn com a linha travada (FOR UPDATE) e persiste o resultado.
// A transição fica durável antes de qualquer evento de liquidação ser publicado.
func (p *Postgres) Transition(ctx context.Context, id string, fn func(*Match) error) (*Match, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := scanMatch(tx.QueryRowContext(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE matches SET status=$1, winner=$2, updated_at=$3 WHERE id=$4`,
		m.Status, m.Winner, m.UpdatedAt, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// Guard segura o lock da linha enquanto fn roda, sem alterar o registro.
// Uma transição terminal concorrente só prossegue depois do commit daqui.
func (p *Postgres) Guard(ctx context.Context, id string, fn func(*Match) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m, err := scanMatch(tx.QueryRowContext(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) MarkSettled(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE matches SET settled=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
