package dto

import "time"

type DepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ idempotência da fonte externa
}

type CreateMatchRequest struct {
	Participants []string  `json:"participants"`
	StartTime    time.Time `json:"start_time"`
}

type ResolveMatchRequest struct {
	Winner string `json:"winner,omitempty"` // participante ou "DRAW"
	Cancel bool   `json:"cancel,omitempty"`
}

type PlaceWagerRequest struct {
	AccountID  string  `json:"account_id"`
	MatchID    string  `json:"match_id"`
	StakeCents int64   `json:"stake_cents"`
	Outcome    string  `json:"outcome"`
	OddValue   float64 `json:"odd_value"`
}

type CreateChallengeRequest struct {
	ChallengerID string `json:"challenger_id"`
	OpponentID   string `json:"opponent_id"`
	StakeCents   int64  `json:"stake_cents"`
	Game         string `json:"game,omitempty"`
}

type RespondChallengeRequest struct {
	ResponderID string `json:"responder_id"`
	Accept      bool   `json:"accept"`
}

type CompleteChallengeRequest struct {
	WinnerID string `json:"winner_id"`
}

type CreateTournamentRequest struct {
	HostID        string `json:"host_id"`
	Name          string `json:"name"`
	EntryFeeCents int64  `json:"entry_fee_cents"`
	SeedCents     int64  `json:"seed_cents,omitempty"`
}

type JoinTournamentRequest struct {
	AccountID string `json:"account_id"`
}

type ResolveTournamentRequest struct {
	Winner   string `json:"winner,omitempty"`
	RunnerUp string `json:"runner_up,omitempty"`
	Cancel   bool   `json:"cancel,omitempty"`
}
