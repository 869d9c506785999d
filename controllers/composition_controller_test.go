package controllers

import (
	"context"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/internal/manifest"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const testNamespace = "bindery-demo"

func newComposition(name string, modules ...string) *v1alpha1.Composition {
	return &v1alpha1.Composition{
		TypeMeta:   metav1.TypeMeta{APIVersion: "compose.bindery.dev/v1alpha1", Kind: "Composition"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: testNamespace, Generation: 3},
		Spec:       v1alpha1.CompositionSpec{Modules: modules, Platform: "linux/amd64"},
	}
}

func newTestReconciler(t *testing.T, supplied []any, objs ...client.Object) (*CompositionReconciler, *record.FakeRecorder) {
	t.Helper()

	catalog, err := builtin.Catalog()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	c := fake.NewClientBuilder().
		WithScheme(manifest.Scheme).
		WithObjects(objs...).
		WithStatusSubresource(&v1alpha1.Composition{}).
		Build()
	recorder := record.NewFakeRecorder(16)
	return &CompositionReconciler{
		Client:   c,
		Scheme:   manifest.Scheme,
		Catalog:  catalog,
		Recorder: recorder,
		Supplied: supplied,
	}, recorder
}

func reconcileComposition(t *testing.T, r *CompositionReconciler, name string) *v1alpha1.Composition {
	t.Helper()

	ctx := context.Background()
	key := types.NamespacedName{Namespace: testNamespace, Name: name}
	if _, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: key}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	var got v1alpha1.Composition
	if err := r.Get(ctx, key, &got); err != nil {
		t.Fatalf("get composition: %v", err)
	}
	return &got
}

func drainEvents(rec *record.FakeRecorder) []string {
	var out []string
	for {
		select {
		case e := <-rec.Events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestCompositionReconcile_PlansClusterManifest(t *testing.T) {
	player := &v1alpha1.ModuleManifest{
		TypeMeta:   metav1.TypeMeta{APIVersion: "compose.bindery.dev/v1alpha1", Kind: "ModuleManifest"},
		ObjectMeta: metav1.ObjectMeta{Name: "player", Namespace: testNamespace},
		Spec: v1alpha1.ModuleManifestSpec{
			Module: v1alpha1.ModuleIdentity{ID: builtin.PlayerModuleName, Version: "1.0.0"},
			Dependencies: []v1alpha1.ModuleDependency{
				{ID: "bindery.admin", Version: "1.0.0", Plugin: true},
			},
		},
	}
	comp := newComposition("player", "k8s://"+testNamespace+"/player")
	r, recorder := newTestReconciler(t, []any{&settings.Settings{Locale: "en-US"}}, player, comp)

	got := reconcileComposition(t, r, "player")

	if got.Status.Phase != v1alpha1.CompositionPhasePlanned {
		t.Fatalf("expected phase %q, got %q (%s)", v1alpha1.CompositionPhasePlanned, got.Status.Phase, got.Status.Message)
	}
	if got.Status.ObservedGeneration != 3 {
		t.Fatalf("expected observedGeneration 3, got %d", got.Status.ObservedGeneration)
	}
	if len(got.Status.Modules) == 0 || got.Status.Modules[0] != "bindery.player@1.0.0" {
		t.Fatalf("expected bindery.player@1.0.0 to be loaded first, got %v", got.Status.Modules)
	}
	if got.Status.Components == 0 {
		t.Fatalf("expected components in plan")
	}
	if len(got.Status.Unresolved) != 0 {
		t.Fatalf("expected no unresolved dependencies, got %v", got.Status.Unresolved)
	}
	for _, condType := range []string{v1alpha1.ConditionModulesLoaded, v1alpha1.ConditionDependenciesResolved} {
		if !meta.IsStatusConditionTrue(got.Status.Conditions, condType) {
			t.Fatalf("expected %s=True, got %+v", condType, meta.FindStatusCondition(got.Status.Conditions, condType))
		}
	}
	if events := drainEvents(recorder); len(events) != 0 {
		t.Fatalf("expected no warning events, got %v", events)
	}
}

func TestCompositionReconcile_ReportsUnresolvedDependencies(t *testing.T) {
	comp := newComposition("settings-only", settings.ModuleName)
	r, recorder := newTestReconciler(t, nil, comp)

	got := reconcileComposition(t, r, "settings-only")

	if got.Status.Phase != v1alpha1.CompositionPhaseError {
		t.Fatalf("expected phase %q, got %q", v1alpha1.CompositionPhaseError, got.Status.Phase)
	}
	if len(got.Status.Unresolved) != 1 || !strings.Contains(got.Status.Unresolved[0], "settings.Settings") {
		t.Fatalf("expected the settings dependency to be unresolved, got %v", got.Status.Unresolved)
	}
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionDependenciesResolved)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != "UnresolvedDependencies" {
		t.Fatalf("unexpected DependenciesResolved condition: %+v", cond)
	}
	if cond.ObservedGeneration != 3 {
		t.Fatalf("expected condition observedGeneration 3, got %d", cond.ObservedGeneration)
	}
	events := drainEvents(recorder)
	if len(events) != 1 || !strings.HasPrefix(events[0], "Warning UnresolvedDependencies") {
		t.Fatalf("expected one UnresolvedDependencies warning, got %v", events)
	}

	// Zero values make the same composition plannable.
	got.Spec.AllowUnresolved = true
	if err := r.Update(context.Background(), got); err != nil {
		t.Fatalf("update composition: %v", err)
	}
	got = reconcileComposition(t, r, "settings-only")
	if got.Status.Phase != v1alpha1.CompositionPhasePlanned {
		t.Fatalf("expected phase %q with allowUnresolved, got %q", v1alpha1.CompositionPhasePlanned, got.Status.Phase)
	}
}

func TestCompositionReconcile_MissingManifest(t *testing.T) {
	comp := newComposition("broken", "k8s://"+testNamespace+"/missing")
	r, recorder := newTestReconciler(t, nil, comp)

	got := reconcileComposition(t, r, "broken")

	if got.Status.Phase != v1alpha1.CompositionPhaseError {
		t.Fatalf("expected phase %q, got %q", v1alpha1.CompositionPhaseError, got.Status.Phase)
	}
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionModulesLoaded)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != "ModuleLoadFailed" {
		t.Fatalf("unexpected ModulesLoaded condition: %+v", cond)
	}
	if len(got.Status.Modules) != 0 || got.Status.Components != 0 {
		t.Fatalf("expected empty plan summary, got %v/%d", got.Status.Modules, got.Status.Components)
	}
	events := drainEvents(recorder)
	if len(events) != 1 || !strings.HasPrefix(events[0], "Warning ModuleLoadFailed") {
		t.Fatalf("expected one ModuleLoadFailed warning, got %v", events)
	}
}

func TestCompositionReconcile_InvalidComposition(t *testing.T) {
	comp := newComposition("empty")
	r, _ := newTestReconciler(t, nil, comp)

	got := reconcileComposition(t, r, "empty")

	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionModulesLoaded)
	if cond == nil || cond.Reason != "InvalidComposition" {
		t.Fatalf("unexpected ModulesLoaded condition: %+v", cond)
	}
}

func TestCompositionReconcile_NotFound(t *testing.T) {
	r, _ := newTestReconciler(t, nil)
	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: testNamespace, Name: "gone"}})
	if err != nil {
		t.Fatalf("expected missing composition to be ignored, got %v", err)
	}
}

func TestSummarizeUnresolved_Truncates(t *testing.T) {
	var reqs []compose.PlannedUnresolved
	for i := 0; i < maxUnresolvedInMessage+2; i++ {
		reqs = append(reqs, compose.PlannedUnresolved{Component: "c", Type: "T", Reason: "no implementation", Required: true})
	}
	msg := summarizeUnresolved(reqs)
	if !strings.HasSuffix(msg, "...and 2 more") {
		t.Fatalf("expected truncated summary, got %q", msg)
	}
	if summarizeUnresolved(nil) != "" {
		t.Fatalf("expected empty summary for no requirements")
	}
}
