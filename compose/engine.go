package compose

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/bindery-compose/internal/resolver"
)

const tracerName = "github.com/bayleafwalker/bindery-compose/compose"

// Engine runs one composition. Create a new Engine for every run, including
// nested runs.
type Engine struct {
	catalog  *Catalog
	opts     options
	roots    []string
	exclude  sets.Set[string]
	supplied map[reflect.Type]reflect.Value
	runID    string

	lifecycle    *lifecycle
	lifecycleErr error
	used         bool
}

func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	lc, err := newLifecycle()
	return &Engine{
		catalog:      catalog,
		opts:         o,
		exclude:      sets.New[string](),
		supplied:     map[reflect.Type]reflect.Value{},
		runID:        uuid.NewString(),
		lifecycle:    lc,
		lifecycleErr: err,
	}
}

// QueueLoad adds root module references ("name", "name@version") or manifest
// locations to load when the engine runs.
func (e *Engine) QueueLoad(refs ...string) {
	e.roots = append(e.roots, refs...)
}

// Exclude keeps the named component identities out of the run.
func (e *Engine) Exclude(identities ...string) {
	e.exclude.Insert(identities...)
}

// Supply seeds the run with prebuilt objects. A supplied object is injected
// into any constructor parameter of exactly its dynamic type.
func (e *Engine) Supply(objects ...any) {
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		v := reflect.ValueOf(obj)
		e.supplied[v.Type()] = v
	}
}

// SupplyAs seeds the run with value under the static type T, typically an
// interface handed down from a parent composition.
func SupplyAs[T any](e *Engine, value T) {
	e.supplied[reflect.TypeOf((*T)(nil)).Elem()] = reflect.ValueOf(&value).Elem()
}

func (e *Engine) RunID() string {
	return e.runID
}

func (e *Engine) State() State {
	if e.lifecycle == nil {
		return StateFailed
	}
	return e.lifecycle.state()
}

// prepared is everything known about a run before construction starts.
type prepared struct {
	modules []*LoadedModule
	scan    *scanResult
	link    *linkResult
	order   []int
}

// Execute loads, links, orders and constructs every eligible component. It
// either returns the complete ImplementationMap or an error; components built
// before a failure are not torn down.
func (e *Engine) Execute(ctx context.Context) (*ImplementationMap, error) {
	ctx, finish, err := e.begin(ctx, "execute")
	if err != nil {
		return nil, err
	}

	prep, err := e.prepare(ctx)
	if err == nil && !e.opts.zeroUnresolved {
		err = missingDependencies(prep.link.plan)
	}
	if err != nil {
		return nil, finish(err)
	}

	e.lifecycle.send(EventInstantiate)
	m := newImplementationMap(prep.scan.contracts)
	inst := &instantiator{
		supplied:       e.supplied,
		zeroUnresolved: e.opts.zeroUnresolved,
		onBuilt: func(*componentInfo) {
			composeComponentsConstructedTotal.Inc()
		},
	}
	err = e.phase(ctx, "instantiate", func(ctx context.Context) error {
		return inst.run(ctx, prep.scan.components, prep.order, m)
	})
	if err != nil {
		return nil, finish(err)
	}

	log.FromContext(ctx).Info("composition complete",
		"modules", len(prep.modules), "components", len(m.registrations))
	return m, finish(nil)
}

// Plan runs every phase except construction and reports what Execute would
// build. Unresolved dependencies are reported rather than failing the plan.
func (e *Engine) Plan(ctx context.Context) (*Plan, error) {
	ctx, finish, err := e.begin(ctx, "plan")
	if err != nil {
		return nil, err
	}

	prep, err := e.prepare(ctx)
	if err != nil {
		return nil, finish(err)
	}
	return newPlan(e.runID, prep), finish(nil)
}

// begin marks the engine used and opens the run span. The returned finish
// function records the outcome and moves the state machine to its terminal
// state.
func (e *Engine) begin(ctx context.Context, mode string) (context.Context, func(error) error, error) {
	if e.lifecycleErr != nil {
		return ctx, nil, e.lifecycleErr
	}
	if e.used {
		return ctx, nil, ErrEngineUsed
	}
	e.used = true

	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "compose."+mode,
		trace.WithAttributes(attribute.String("compose.run_id", e.runID)))
	logger := log.FromContext(ctx).WithValues("run", e.runID)
	ctx = log.IntoContext(ctx, logger)
	logger.V(1).Info("composition started", "mode", mode, "roots", e.roots)

	finish := func(err error) error {
		defer span.End()
		composeRunDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			e.lifecycle.send(EventFail)
			reason := failureReason(err)
			composeRunsTotal.WithLabelValues(mode, "failure").Inc()
			composeFailuresTotal.WithLabelValues(reason).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, reason)
			logger.Error(err, "composition failed", "state", e.State())
			return err
		}
		e.lifecycle.send(EventFinish)
		composeRunsTotal.WithLabelValues(mode, "success").Inc()
		return nil
	}
	return ctx, finish, nil
}

func (e *Engine) prepare(ctx context.Context) (*prepared, error) {
	prep := &prepared{}

	e.lifecycle.send(EventLoad)
	err := e.phase(ctx, "load", func(ctx context.Context) error {
		reg := newRegistry(e.catalog, e.opts.reader, e.opts.policy.matcher())
		modules, err := reg.load(ctx, e.roots)
		prep.modules = modules
		return err
	})
	if err != nil {
		return nil, err
	}
	composeModulesLoadedTotal.Add(float64(len(prep.modules)))

	e.lifecycle.send(EventLoaded)
	err = e.phase(ctx, "scan", func(ctx context.Context) error {
		s := &scanner{exclude: e.exclude, goos: e.opts.goos, goarch: e.opts.goarch}
		res, err := s.scan(prep.modules)
		if err != nil {
			return err
		}
		prep.scan = res
		prep.link, err = link(ctx, res, e.supplied, resolver.NewDefault())
		return err
	})
	if err != nil {
		return nil, err
	}
	e.reportDiagnostics(ctx, prep.link.plan.Diagnostics)

	e.lifecycle.send(EventLinked)
	err = e.phase(ctx, "sort", func(context.Context) error {
		order, err := schedule(prep.link)
		prep.order = order
		return err
	})
	if err != nil {
		return nil, err
	}
	e.lifecycle.send(EventSorted)
	return prep, nil
}

func (e *Engine) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "compose."+name)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return err
}

func (e *Engine) reportDiagnostics(ctx context.Context, diag resolver.Diagnostics) {
	logger := log.FromContext(ctx)
	composeUnresolvedRequired.Set(float64(len(diag.UnresolvedRequired)))
	for _, u := range diag.UnresolvedRequired {
		logger.Info("unresolved dependency", "component", u.Component, "parameter", u.Param,
			"type", typeName(u.Key), "reason", u.Reason, "providers", u.Providers)
	}
	for _, u := range diag.UnresolvedOptional {
		logger.V(1).Info("empty collection dependency", "component", u.Component, "parameter", u.Param,
			"type", typeName(u.Key))
	}
}
