package events

type WagerPlaced struct {
	WagerID    string  `json:"wager_id"`
	AccountID  string  `json:"account_id"`
	MatchID    string  `json:"match_id"`
	Outcome    string  `json:"outcome"`
	StakeCents int64   `json:"stake_cents"`
	OddValue   float64 `json:"odd_value"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}
