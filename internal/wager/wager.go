package wager

import (
	"errors"
	"math"
	"time"

	"github.com/radieske/wager-engine/internal/match"
)

var (
	ErrNotFound         = errors.New("wager not found")
	ErrMatchNotBettable = errors.New("betting window is closed for this match")
	ErrInvalidOutcome   = errors.New("predicted outcome is not a participant of the match")
	ErrInvalidStake     = errors.New("stake outside the permitted range")
	ErrInvalidOdd       = errors.New("odd must be positive")
	ErrOddChanged       = errors.New("odd changed since quote")
	ErrMatchNotTerminal = errors.New("match is not in a terminal state")

	// ErrNoWinner indica partida COMPLETED sem vencedor gravado: violação de
	// contrato de quem resolveu a partida, nunca tratada como cancelamento.
	ErrNoWinner = errors.New("completed match has no winner recorded")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusWon     Status = "WON"
	StatusLost    Status = "LOST"
	StatusVoid    Status = "VOID"
)

// Wager é o registro histórico de uma aposta. O stake é debitado na criação e a
// odd fica congelada; Settled transiciona false→true exatamente uma vez, junto
// com a mudança de status feita pelo coordenador de liquidação.
type Wager struct {
	ID         string
	AccountID  string
	MatchID    string
	StakeCents int64
	Outcome    string // participante previsto ou match.OutcomeDraw
	OddValue   float64
	Status     Status
	Settled    bool
	CreatedAt  time.Time
}

// PotentialPayoutCents é o retorno total em caso de vitória: stake × odd.
func (w *Wager) PotentialPayoutCents() int64 {
	return int64(math.Round(float64(w.StakeCents) * w.OddValue))
}

// Resolve calcula o desfecho de uma aposta contra uma partida terminal.
// Função pura: devolve o novo status e o crédito devido, sem tocar em saldo.
func Resolve(w *Wager, m *match.Match) (Status, int64, error) {
	switch m.Status {
	case match.StatusCancelled:
		return StatusVoid, w.StakeCents, nil // devolve o stake
	case match.StatusCompleted:
		if m.Winner == "" {
			return "", 0, ErrNoWinner
		}
		if w.Outcome == m.Winner {
			return StatusWon, w.PotentialPayoutCents(), nil
		}
		return StatusLost, 0, nil
	default:
		return "", 0, ErrMatchNotTerminal
	}
}
