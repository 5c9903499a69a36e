package events

import "time"

// Evento emitido pelo settlement-worker após varrer todos os registros de uma entidade.
type SettlementCompleted struct {
	Kind           string    `json:"kind"`
	ID             string    `json:"id"`
	RecordsSettled int       `json:"records_settled"`
	PaidOutCents   int64     `json:"paid_out_cents"`
	Ts             time.Time `json:"ts"`
}
