package compose

import (
	"context"
	"fmt"
	"reflect"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

type instantiator struct {
	supplied map[reflect.Type]reflect.Value
	// zeroUnresolved injects the zero value for parameters nothing can
	// satisfy instead of failing.
	zeroUnresolved bool
	onBuilt        func(comp *componentInfo)
}

// run builds every component in order and records it in m. The first failure
// aborts the run; components built before it are not torn down.
func (in *instantiator) run(ctx context.Context, comps []*componentInfo, order []int, m *ImplementationMap) error {
	logger := log.FromContext(ctx)

	for _, n := range order {
		comp := comps[n]

		args, err := in.arguments(comp, m)
		if err != nil {
			return err
		}

		instance, err := construct(comp, args)
		if err != nil {
			return err
		}
		if err := m.register(comp, instance); err != nil {
			return err
		}

		logger.V(1).Info("component constructed", "component", comp.name, "contracts", len(comp.contracts))
		if in.onBuilt != nil {
			in.onBuilt(comp)
		}
	}
	return nil
}

// arguments resolves each parameter: a supplied object of exactly the
// parameter type first, then built instances.
func (in *instantiator) arguments(comp *componentInfo, m *ImplementationMap) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(comp.params))
	for i, p := range comp.params {
		if v, ok := in.supplied[p.typ]; ok {
			args[i] = v
			continue
		}

		built := m.lookup(p.key)
		if p.many {
			slice := reflect.MakeSlice(p.typ, 0, len(built))
			for _, inst := range built {
				slice = reflect.Append(slice, reflect.ValueOf(inst))
			}
			args[i] = slice
			continue
		}

		if len(built) == 1 {
			args[i] = reflect.ValueOf(built[0])
			continue
		}

		if in.zeroUnresolved {
			args[i] = reflect.Zero(p.typ)
			continue
		}
		return nil, &UnresolvedDependencyError{
			Component:  comp.name,
			Parameter:  i,
			Type:       typeName(p.typ),
			Candidates: append([]string(nil), m.owners[p.key]...),
		}
	}
	return args, nil
}

// construct calls the constructor, turning a returned error, a panic or a nil
// product into a ConstructorError.
func construct(comp *componentInfo, args []reflect.Value) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("panic: %v", r)
			} else {
				perr = fmt.Errorf("panic: %w", perr)
			}
			instance = nil
			err = &ConstructorError{Component: comp.name, Err: perr}
		}
	}()

	out := comp.ctor.Call(args)
	if comp.withError && !out[1].IsNil() {
		return nil, &ConstructorError{Component: comp.name, Err: out[1].Interface().(error)}
	}

	product := out[0]
	switch product.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if product.IsNil() {
			return nil, &ConstructorError{Component: comp.name, Err: ErrNilProduct}
		}
	}
	return product.Interface(), nil
}
