package compose

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	composeRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_compose_runs_total",
			Help: "Number of composition runs by mode and result.",
		},
		[]string{"mode", "result"},
	)
	composeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_compose_failures_total",
			Help: "Number of failed composition runs by reason.",
		},
		[]string{"reason"},
	)

	composeModulesLoadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bindery_compose_modules_loaded_total",
			Help: "Total number of modules loaded across composition runs.",
		},
	)
	composeComponentsConstructedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bindery_compose_components_constructed_total",
			Help: "Total number of components constructed across composition runs.",
		},
	)

	composeUnresolvedRequired = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bindery_compose_unresolved_required",
			Help: "Number of unresolved scalar dependencies observed in the last composition run.",
		},
	)

	composeRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bindery_compose_run_duration_seconds",
			Help:    "Time taken by a composition run.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		composeRunsTotal,
		composeFailuresTotal,
		composeModulesLoadedTotal,
		composeComponentsConstructedTotal,
		composeUnresolvedRequired,
		composeRunDuration,
	)
}

// failureReason maps an engine error onto a low-cardinality label.
func failureReason(err error) string {
	switch {
	case IsModuleLoadError(err):
		return "module_load"
	case IsAmbiguousConstructor(err):
		return "ambiguous_constructor"
	case IsCircularDependency(err):
		return "circular_dependency"
	case IsExtraImplementation(err):
		return "extra_implementation"
	case IsConstructorError(err):
		return "constructor"
	case IsUnresolvedDependency(err):
		return "unresolved_dependency"
	default:
		return "other"
	}
}
