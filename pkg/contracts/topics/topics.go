package topics

const (
	// Liquidação
	SettlementDue       = "settlement_due"
	SettlementCompleted = "settlement_completed"

	// Apostas
	WagerPlaced = "wager_placed"

	// DLQs
	SettlementDueDLQ = "settlement_due_dlq"
)
