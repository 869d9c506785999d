package controllers

import (
	"context"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/internal/manifest"
)

const maxUnresolvedInMessage = 4

// CompositionReconciler plans every Composition against the modules compiled
// into the binary and reports the outcome in its status. Manifest locations
// are read from the cluster (k8s:// and configmap://).
//
// RBAC:
// +kubebuilder:rbac:groups=compose.bindery.dev,resources=compositions,verbs=get;list;watch
// +kubebuilder:rbac:groups=compose.bindery.dev,resources=compositions/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=compose.bindery.dev,resources=modulemanifests,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch;update
type CompositionReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Catalog  *compose.Catalog
	Recorder record.EventRecorder
	// Supplied objects are handed to every planning run, typically the
	// process settings.
	Supplied []any
}

func (r *CompositionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).WithValues(
		"controller", "Composition",
		"namespace", req.Namespace,
		"composition", req.Name,
	)
	ctx = log.IntoContext(ctx, logger)

	var comp v1alpha1.Composition
	if err := r.Get(ctx, req.NamespacedName, &comp); err != nil {
		if apierrors.IsNotFound(err) {
			compositionUnresolvedRequired.DeleteLabelValues(req.Namespace, req.Name)
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}
	if err := manifest.ValidateComposition(&comp).ToAggregate(); err != nil {
		logger.Info("invalid composition", "error", err.Error())
		r.recordEventf(&comp, "Warning", "InvalidComposition", "%v", err)
		return ctrl.Result{}, r.patchStatus(ctx, &comp, v1alpha1.CompositionPhaseError, err.Error(), nil,
			metav1.Condition{
				Type:    v1alpha1.ConditionModulesLoaded,
				Status:  metav1.ConditionFalse,
				Reason:  "InvalidComposition",
				Message: err.Error(),
			},
		)
	}

	plan, err := r.plan(ctx, &comp)
	if err != nil {
		reason := "PlanFailed"
		loaded := metav1.ConditionTrue
		if compose.IsModuleLoadError(err) {
			reason = "ModuleLoadFailed"
			loaded = metav1.ConditionFalse
		}
		logger.Info("composition cannot be planned", "reason", reason, "error", err.Error())
		r.recordEventf(&comp, "Warning", reason, "%v", err)
		return ctrl.Result{}, r.patchStatus(ctx, &comp, v1alpha1.CompositionPhaseError, err.Error(), nil,
			metav1.Condition{Type: v1alpha1.ConditionModulesLoaded, Status: loaded, Reason: reason, Message: err.Error()},
			metav1.Condition{Type: v1alpha1.ConditionDependenciesResolved, Status: metav1.ConditionFalse, Reason: reason, Message: err.Error()},
		)
	}

	var unresolved []compose.PlannedUnresolved
	for _, u := range plan.Unresolved {
		if u.Required {
			unresolved = append(unresolved, u)
		}
	}

	resolved := metav1.Condition{
		Type:    v1alpha1.ConditionDependenciesResolved,
		Status:  metav1.ConditionTrue,
		Reason:  "AllDependenciesResolved",
		Message: fmt.Sprintf("%d components can be built", len(plan.Components)),
	}
	phase := v1alpha1.CompositionPhasePlanned
	message := resolved.Message
	if len(unresolved) > 0 && !comp.Spec.AllowUnresolved {
		resolved.Status = metav1.ConditionFalse
		resolved.Reason = "UnresolvedDependencies"
		resolved.Message = summarizeUnresolved(unresolved)
		phase = v1alpha1.CompositionPhaseError
		message = resolved.Message
		r.recordEventf(&comp, "Warning", "UnresolvedDependencies", "%s", resolved.Message)
	}

	logger.Info("planned composition",
		"modules", len(plan.Modules),
		"components", len(plan.Components),
		"unresolvedRequired", len(unresolved),
	)
	return ctrl.Result{}, r.patchStatus(ctx, &comp, phase, message, plan,
		metav1.Condition{
			Type:    v1alpha1.ConditionModulesLoaded,
			Status:  metav1.ConditionTrue,
			Reason:  "ModulesLoaded",
			Message: modulesLoadedMessage(len(plan.Modules)),
		},
		resolved,
	)
}

func (r *CompositionReconciler) plan(ctx context.Context, comp *v1alpha1.Composition) (*compose.Plan, error) {
	opts := []compose.Option{
		compose.WithManifestReader(&manifest.ClusterSource{Client: r.Client}),
		compose.WithPlatform(comp.Spec.Platform),
	}
	if comp.Spec.AllowUnresolved {
		opts = append(opts, compose.WithZeroValueForUnresolved())
	}
	engine := compose.NewEngine(r.Catalog, opts...)
	engine.Supply(r.Supplied...)
	engine.QueueLoad(comp.Spec.Modules...)
	engine.Exclude(comp.Spec.Exclude...)
	return engine.Plan(ctx)
}

func (r *CompositionReconciler) patchStatus(ctx context.Context, comp *v1alpha1.Composition, phase, message string, plan *compose.Plan, conds ...metav1.Condition) error {
	before := comp.DeepCopy()
	comp.Status.ObservedGeneration = comp.Generation
	comp.Status.Phase = phase
	comp.Status.Message = message
	comp.Status.Modules = nil
	comp.Status.Components = 0
	comp.Status.Unresolved = nil
	if plan != nil {
		for _, m := range plan.Modules {
			comp.Status.Modules = append(comp.Status.Modules, m.Name+"@"+m.Version)
		}
		comp.Status.Components = int32(len(plan.Components))
		for _, u := range plan.Unresolved {
			if u.Required {
				comp.Status.Unresolved = append(comp.Status.Unresolved, fmt.Sprintf("%s[%d] %s", u.Component, u.Parameter, u.Type))
			}
		}
	}
	for _, c := range conds {
		setCompositionCondition(comp, c)
	}
	compositionReconcileTotal.WithLabelValues(phase).Inc()
	compositionUnresolvedRequired.WithLabelValues(comp.Namespace, comp.Name).Set(float64(len(comp.Status.Unresolved)))
	return r.Status().Patch(ctx, comp, client.MergeFrom(before))
}

func summarizeUnresolved(reqs []compose.PlannedUnresolved) string {
	if len(reqs) == 0 {
		return ""
	}
	parts := make([]string, 0, min(len(reqs), maxUnresolvedInMessage))
	for i := 0; i < len(reqs) && i < maxUnresolvedInMessage; i++ {
		u := reqs[i]
		parts = append(parts, fmt.Sprintf("%s requires %s (%s)", u.Component, u.Type, u.Reason))
	}
	if len(reqs) > maxUnresolvedInMessage {
		parts = append(parts, fmt.Sprintf("...and %d more", len(reqs)-maxUnresolvedInMessage))
	}
	return strings.Join(parts, "; ")
}

func (r *CompositionReconciler) recordEventf(obj client.Object, eventType, reason, messageFmt string, args ...any) {
	if r.Recorder == nil || obj == nil {
		return
	}
	r.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

func (r *CompositionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	// A manifest change can alter the plan of any composition in its
	// namespace.
	manifestToCompositions := handler.EnqueueRequestsFromMapFunc(func(ctx context.Context, obj client.Object) []reconcile.Request {
		var list v1alpha1.CompositionList
		if err := r.List(ctx, &list, client.InNamespace(obj.GetNamespace())); err != nil {
			log.FromContext(ctx).Error(err, "list compositions for manifest", "manifest", obj.GetName())
			return nil
		}
		out := make([]reconcile.Request, 0, len(list.Items))
		for _, c := range list.Items {
			out = append(out, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: c.Namespace, Name: c.Name}})
		}
		return out
	})

	return ctrl.NewControllerManagedBy(mgr).
		Named("composition").
		For(&v1alpha1.Composition{}).
		Watches(&v1alpha1.ModuleManifest{}, manifestToCompositions).
		Complete(r)
}
