package compose

import (
	"context"
	"errors"
	"reflect"

	"github.com/bayleafwalker/bindery-compose/internal/graph"
	"github.com/bayleafwalker/bindery-compose/internal/resolver"
)

// linkResult is the dependency graph of one run. Node ids are indexes into
// scanResult.components.
type linkResult struct {
	graph *graph.DependencyGraph
	plan  resolver.Plan
}

// link turns constructor parameters into provider -> consumer edges.
func link(ctx context.Context, res *scanResult, supplied map[reflect.Type]reflect.Value, r resolver.Resolver) (*linkResult, error) {
	in := resolver.Input{}
	g := graph.New()

	for n, comp := range res.components {
		g.AddNode(comp.name)

		in.Providers = append(in.Providers, resolver.Provider{Node: n, Component: comp.name, Key: comp.product})
		for _, c := range comp.contracts {
			if c.typ == comp.product {
				continue
			}
			in.Providers = append(in.Providers, resolver.Provider{Node: n, Component: comp.name, Key: c.typ})
		}

		for i, p := range comp.params {
			multiplicity := resolver.MultiplicityOne
			if p.many {
				multiplicity = resolver.MultiplicityMany
			}
			_, external := supplied[p.typ]
			in.Requirements = append(in.Requirements, resolver.Requirement{
				Node:         n,
				Component:    comp.name,
				Param:        i,
				Key:          p.key,
				Multiplicity: multiplicity,
				External:     external,
			})
		}
	}

	plan, err := r.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, b := range plan.Bindings {
		if err := g.AddEdge(b.Provider, b.Consumer); err != nil {
			return nil, err
		}
	}
	return &linkResult{graph: g, plan: plan}, nil
}

// missingDependencies reports scalar requirements nothing can ever satisfy.
// Requirements with several providers are left to the instantiator, since a
// singleton contract fails with a more precise error when the second
// provider registers.
func missingDependencies(plan resolver.Plan) error {
	var errs []error
	for _, u := range plan.Diagnostics.UnresolvedRequired {
		if u.Reason != resolver.ReasonNoProvider {
			continue
		}
		errs = append(errs, &UnresolvedDependencyError{
			Component: u.Component,
			Parameter: u.Param,
			Type:      typeName(u.Key),
		})
	}
	return errors.Join(errs...)
}

// schedule orders the graph or reports the cycle it found.
func schedule(l *linkResult) ([]int, error) {
	order, err := l.graph.TopologicalSort()
	if err != nil {
		var cycleErr *graph.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &CircularDependencyError{Component: cycleErr.Node, Cycle: cycleErr.Cycle}
		}
		return nil, err
	}
	return order, nil
}
