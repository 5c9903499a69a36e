package events

// Tipos de entidade que disparam liquidação (união etiquetada kind+id).
const (
	KindMatch      = "match"
	KindChallenge  = "challenge"
	KindTournament = "tournament"
)

// SettlementDue é emitido quando uma entidade atinge estado terminal
// (partida resolvida/cancelada, desafio encerrado, torneio encerrado).
// O settlement-worker consome este evento e executa a varredura de liquidação.
type SettlementDue struct {
	Kind     string `json:"kind"` // "match" | "challenge" | "tournament"
	ID       string `json:"id"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
