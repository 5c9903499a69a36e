package tournament

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("tournament not found")
	ErrNotOpen         = errors.New("tournament registration is not open")
	ErrAlreadyJoined   = errors.New("account already joined this tournament")
	ErrInvalidState    = errors.New("invalid tournament state transition")
	ErrNotAParticipant = errors.New("account is not a participant of the tournament")
	ErrInvalidEntryFee = errors.New("entry fee must not be negative")
	ErrNameRequired    = errors.New("tournament name is required")
	ErrSamePlacement   = errors.New("winner and runner-up must differ")
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type PayoutStatus string

const (
	PayoutNotPaid   PayoutStatus = "NOT_PAID"
	PayoutPending   PayoutStatus = "PENDING"
	PayoutCompleted PayoutStatus = "COMPLETED"
)

// Entry amarra o participante ao débito da taxa de inscrição.
type Entry struct {
	AccountID string
	FeeCents  int64
	JoinedAt  time.Time
}

// Tournament acumula taxas de inscrição (e opcionalmente um seed do host)
// num prize pool distribuído na conclusão. PayoutStatus avança
// NOT_PAID→PENDING→COMPLETED exatamente uma vez; o total distribuído
// nunca excede o pool.
type Tournament struct {
	ID             string
	Name           string
	HostID         string
	EntryFeeCents  int64
	SeedCents      int64
	PrizePoolCents int64
	Entries        []Entry
	Status         Status
	PayoutStatus   PayoutStatus
	Winner         string
	RunnerUp       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(id, name, hostID string, entryFeeCents, seedCents int64, now time.Time) (*Tournament, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if entryFeeCents < 0 || seedCents < 0 {
		return nil, ErrInvalidEntryFee
	}
	return &Tournament{
		ID:             id,
		Name:           name,
		HostID:         hostID,
		EntryFeeCents:  entryFeeCents,
		SeedCents:      seedCents,
		PrizePoolCents: seedCents,
		Status:         StatusScheduled,
		PayoutStatus:   PayoutNotPaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (t *Tournament) HasEntry(accountID string) bool {
	for _, e := range t.Entries {
		if e.AccountID == accountID {
			return true
		}
	}
	return false
}

func (t *Tournament) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

func (t *Tournament) Start(now time.Time) error {
	if t.Status != StatusScheduled {
		return ErrInvalidState
	}
	t.Status = StatusInProgress
	t.UpdatedAt = now
	return nil
}

// Complete aceita vencedor obrigatório e vice opcional, ambos participantes.
func (t *Tournament) Complete(winner, runnerUp string, now time.Time) error {
	if t.Status != StatusScheduled && t.Status != StatusInProgress {
		return ErrInvalidState
	}
	if !t.HasEntry(winner) {
		return ErrNotAParticipant
	}
	if runnerUp != "" {
		if runnerUp == winner {
			return ErrSamePlacement
		}
		if !t.HasEntry(runnerUp) {
			return ErrNotAParticipant
		}
	}
	t.Status = StatusCompleted
	t.Winner = winner
	t.RunnerUp = runnerUp
	t.UpdatedAt = now
	return nil
}

func (t *Tournament) Cancel(now time.Time) error {
	if t.Terminal() {
		return ErrInvalidState
	}
	t.Status = StatusCancelled
	t.Winner = ""
	t.RunnerUp = ""
	t.UpdatedAt = now
	return nil
}

// Payout é um crédito individual da distribuição do pool.
type Payout struct {
	AccountID   string
	AmountCents int64
}

// PayoutPolicy decide como o pool é repartido num torneio COMPLETED.
type PayoutPolicy func(t *Tournament) []Payout

// DefaultPayoutPolicy: vencedor 50%, vice 30%, resto retido pela plataforma.
// A soma nunca passa do pool (divisão inteira arredonda pra baixo).
func DefaultPayoutPolicy(t *Tournament) []Payout {
	var out []Payout
	if t.Winner != "" {
		out = append(out, Payout{AccountID: t.Winner, AmountCents: t.PrizePoolCents * 50 / 100})
	}
	if t.RunnerUp != "" {
		out = append(out, Payout{AccountID: t.RunnerUp, AmountCents: t.PrizePoolCents * 30 / 100})
	}
	return out
}
