package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_sweeps_total",
		Help: "Varreduras de liquidação concluídas, por tipo de entidade.",
	}, []string{"kind"})

	recordsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_records_settled_total",
		Help: "Registros (apostas, desafios, payouts) liquidados.",
	}, []string{"kind"})

	paidOutCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_paid_out_cents_total",
		Help: "Centavos creditados pela liquidação.",
	}, []string{"kind"})

	invariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_invariant_violations_total",
		Help: "Violações de invariante detectadas (indicam bug upstream).",
	})
)
