package match

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("match not found")
	ErrInvalidState        = errors.New("invalid match state transition")
	ErrInvalidWinner       = errors.New("winner is not a participant of the match")
	ErrTooFewParticipants  = errors.New("match needs at least two participants")
	ErrStartTimeNotReached = errors.New("match start time not reached")
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// OutcomeDraw é o marcador de empate aceito como resultado previsto e como vencedor.
const OutcomeDraw = "DRAW"

// Match é criado pelo agendador externo e só muda de estado por transições
// monotônicas: SCHEDULED→LIVE→COMPLETED, ou qualquer não-terminal→CANCELLED.
// Winner é preenchido se e somente se o status for COMPLETED.
type Match struct {
	ID              string
	Participants    []string // ordenada, ≥2
	Status          Status
	StartTime       time.Time
	BettingDeadline time.Time // StartTime - buffer
	Winner          string
	Settled         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func New(id string, participants []string, startTime time.Time, bettingBuffer time.Duration, now time.Time) (*Match, error) {
	if len(participants) < 2 {
		return nil, ErrTooFewParticipants
	}
	return &Match{
		ID:              id,
		Participants:    participants,
		Status:          StatusScheduled,
		StartTime:       startTime,
		BettingDeadline: startTime.Add(-bettingBuffer),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (m *Match) HasParticipant(p string) bool {
	for _, it := range m.Participants {
		if it == p {
			return true
		}
	}
	return false
}

// ValidOutcome aceita qualquer participante ou o marcador de empate.
func (m *Match) ValidOutcome(outcome string) bool {
	return outcome == OutcomeDraw || m.HasParticipant(outcome)
}

func (m *Match) Terminal() bool {
	return m.Status == StatusCompleted || m.Status == StatusCancelled
}

// BettingOpen é a única leitura autoritativa da janela de apostas: uma checagem
// de status + deadline feita no caminho de escrita da aposta.
func (m *Match) BettingOpen(now time.Time) bool {
	if m.Status != StatusScheduled && m.Status != StatusLive {
		return false
	}
	return now.Before(m.BettingDeadline)
}

// Start transiciona SCHEDULED→LIVE. Exige que o horário de início já tenha chegado.
func (m *Match) Start(now time.Time) error {
	if m.Status != StatusScheduled {
		return ErrInvalidState
	}
	if now.Before(m.StartTime) {
		return ErrStartTimeNotReached
	}
	m.Status = StatusLive
	m.UpdatedAt = now
	return nil
}

// Complete encerra a partida com um vencedor (ou empate). Válido a partir de
// SCHEDULED ou LIVE: o resultado pode chegar sem a transição explícita pra LIVE.
func (m *Match) Complete(winner string, now time.Time) error {
	if m.Status != StatusScheduled && m.Status != StatusLive {
		return ErrInvalidState
	}
	if !m.ValidOutcome(winner) {
		return ErrInvalidWinner
	}
	m.Status = StatusCompleted
	m.Winner = winner
	m.UpdatedAt = now
	return nil
}

// Cancel é válido a partir de qualquer estado não-terminal e limpa o vencedor.
func (m *Match) Cancel(now time.Time) error {
	if m.Terminal() {
		return ErrInvalidState
	}
	m.Status = StatusCancelled
	m.Winner = ""
	m.UpdatedAt = now
	return nil
}
