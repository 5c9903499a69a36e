package challenge

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("challenge not found")
	ErrInvalidState  = errors.New("invalid challenge state transition")
	ErrNotOpponent   = errors.New("only the challenged party can respond")
	ErrNotAParty     = errors.New("winner is not a party of the challenge")
	ErrSelfChallenge = errors.New("challenger and opponent must differ")
	ErrInvalidStake  = errors.New("stake must not be negative")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Challenge é uma aposta par-a-par: o stake é retido das DUAS contas na
// aceitação (escrow) e o vencedor leva o pote inteiro (2×stake) na conclusão.
type Challenge struct {
	ID         string
	Challenger string
	Opponent   string
	Game       string
	StakeCents int64 // por lado, ≥0
	Status     Status
	Winner     string
	EscrowHeld bool // stake retido das duas partes
	Settled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, challenger, opponent string, stakeCents int64, game string, now time.Time) (*Challenge, error) {
	if challenger == opponent {
		return nil, ErrSelfChallenge
	}
	if stakeCents < 0 {
		return nil, ErrInvalidStake
	}
	return &Challenge{
		ID:         id,
		Challenger: challenger,
		Opponent:   opponent,
		Game:       game,
		StakeCents: stakeCents,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (c *Challenge) IsParty(accountID string) bool {
	return accountID == c.Challenger || accountID == c.Opponent
}

// Other devolve a outra parte do desafio.
func (c *Challenge) Other(accountID string) string {
	if accountID == c.Challenger {
		return c.Opponent
	}
	return c.Challenger
}

func (c *Challenge) Terminal() bool {
	return c.Status == StatusRejected || c.Status == StatusCompleted || c.Status == StatusCancelled
}

// PotCents é o total em escrow quando aceito.
func (c *Challenge) PotCents() int64 { return 2 * c.StakeCents }

func (c *Challenge) Accept(responder string, now time.Time) error {
	if c.Status != StatusPending {
		return ErrInvalidState
	}
	if responder != c.Opponent {
		return ErrNotOpponent
	}
	c.Status = StatusAccepted
	c.UpdatedAt = now
	return nil
}

func (c *Challenge) Reject(responder string, now time.Time) error {
	if c.Status != StatusPending {
		return ErrInvalidState
	}
	if responder != c.Opponent {
		return ErrNotOpponent
	}
	c.Status = StatusRejected
	c.UpdatedAt = now
	return nil
}

// Complete só vale a partir de ACCEPTED e exige vencedor entre as duas partes.
func (c *Challenge) Complete(winner string, now time.Time) error {
	if c.Status != StatusAccepted {
		return ErrInvalidState
	}
	if !c.IsParty(winner) {
		return ErrNotAParty
	}
	c.Status = StatusCompleted
	c.Winner = winner
	c.UpdatedAt = now
	return nil
}

// Cancel vale a partir de PENDING (nada retido) ou ACCEPTED (caminho de
// desistência; a liquidação devolve o stake às duas partes).
func (c *Challenge) Cancel(now time.Time) error {
	if c.Status != StatusPending && c.Status != StatusAccepted {
		return ErrInvalidState
	}
	c.Status = StatusCancelled
	c.Winner = ""
	c.UpdatedAt = now
	return nil
}
