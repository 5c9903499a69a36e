package dto

import "time"

type BalanceResponse struct {
	AccountID    string `json:"account_id"`
	BalanceCents int64  `json:"balance_cents"`
}

type MatchResponse struct {
	MatchID         string    `json:"match_id"`
	Participants    []string  `json:"participants"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	BettingDeadline time.Time `json:"betting_deadline"`
	Winner          string    `json:"winner,omitempty"`
	Settled         bool      `json:"settled"`
}

type WagerResponse struct {
	WagerID    string  `json:"wager_id"`
	AccountID  string  `json:"account_id"`
	MatchID    string  `json:"match_id"`
	StakeCents int64   `json:"stake_cents"`
	Outcome    string  `json:"outcome"`
	OddValue   float64 `json:"odd_value"`
	Status     string  `json:"status"`
	Settled    bool    `json:"settled"`
}

type ChallengeResponse struct {
	ChallengeID string `json:"challenge_id"`
	Challenger  string `json:"challenger"`
	Opponent    string `json:"opponent"`
	Game        string `json:"game,omitempty"`
	StakeCents  int64  `json:"stake_cents"`
	Status      string `json:"status"`
	Winner      string `json:"winner,omitempty"`
	Settled     bool   `json:"settled"`
}

type TournamentResponse struct {
	TournamentID   string `json:"tournament_id"`
	Name           string `json:"name"`
	HostID         string `json:"host_id"`
	EntryFeeCents  int64  `json:"entry_fee_cents"`
	PrizePoolCents int64  `json:"prize_pool_cents"`
	Participants   int    `json:"participants"`
	Status         string `json:"status"`
	PayoutStatus   string `json:"payout_status"`
	Winner         string `json:"winner,omitempty"`
	RunnerUp       string `json:"runner_up,omitempty"`
}

type PayoutItem struct {
	AccountID   string `json:"account_id"`
	AmountCents int64  `json:"amount_cents"`
}

type PayoutSummaryResponse struct {
	TournamentID string       `json:"tournament_id"`
	Payouts      []PayoutItem `json:"payouts"`
	PaidOutCents int64        `json:"paid_out_cents"`
}
