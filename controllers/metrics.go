package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	compositionReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_compose_controller_reconcile_total",
			Help: "Number of Composition reconciles by resulting phase.",
		},
		[]string{"phase"},
	)
	compositionUnresolvedRequired = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bindery_compose_controller_unresolved_required",
			Help: "Unresolved required dependencies reported for a Composition.",
		},
		[]string{"namespace", "name"},
	)
)

func init() {
	metrics.Registry.MustRegister(compositionReconcileTotal, compositionUnresolvedRequired)
}
