package resolver

import (
	"context"
	"reflect"
	"sort"
)

const (
	ReasonNoProvider        = "no provider registered"
	ReasonMultipleProviders = "more than one provider registered"
)

// DefaultResolver binds every requirement to all providers registered under
// the required key.
type DefaultResolver struct{}

func NewDefault() *DefaultResolver {
	return &DefaultResolver{}
}

func (r *DefaultResolver) Resolve(ctx context.Context, in Input) (Plan, error) {
	_ = ctx

	byKey := map[reflect.Type][]Provider{}
	nodes := map[int]struct{}{}
	for _, p := range in.Providers {
		byKey[p.Key] = append(byKey[p.Key], p)
		nodes[p.Node] = struct{}{}
	}

	plan := Plan{}
	consumed := map[int]struct{}{}

	for _, req := range in.Requirements {
		nodes[req.Node] = struct{}{}
		if req.External {
			continue
		}

		multiplicity := req.Multiplicity
		if multiplicity == "" {
			multiplicity = MultiplicityOne
		}

		candidates := byKey[req.Key]
		switch {
		case len(candidates) == 0:
			addUnresolved(&plan.Diagnostics, req, multiplicity, nil, ReasonNoProvider)
			continue
		case len(candidates) > 1 && multiplicity == MultiplicityOne:
			// Every candidate is still bound so the build order stays
			// correct; the consumer cannot pick one of them at construction.
			addUnresolved(&plan.Diagnostics, req, multiplicity, candidates, ReasonMultipleProviders)
		}

		for _, p := range candidates {
			plan.Bindings = append(plan.Bindings, Binding{
				Provider: p.Node,
				Consumer: req.Node,
				Param:    req.Param,
				Key:      req.Key,
			})
			consumed[p.Node] = struct{}{}
		}
	}

	for n := range nodes {
		if _, ok := consumed[n]; !ok {
			plan.Roots = append(plan.Roots, n)
		}
	}
	sort.Ints(plan.Roots)

	// Deterministic ordering:
	// 1) consumer node
	// 2) parameter position
	// 3) provider node
	sort.SliceStable(plan.Bindings, func(i, j int) bool {
		a := plan.Bindings[i]
		b := plan.Bindings[j]
		if a.Consumer != b.Consumer {
			return a.Consumer < b.Consumer
		}
		if a.Param != b.Param {
			return a.Param < b.Param
		}
		return a.Provider < b.Provider
	})

	return plan, nil
}

// addUnresolved files collection requirements as optional since an empty
// collection is a valid injection.
func addUnresolved(diag *Diagnostics, req Requirement, multiplicity Multiplicity, candidates []Provider, reason string) {
	unresolved := UnresolvedRequirement{
		Component: req.Component,
		Param:     req.Param,
		Key:       req.Key,
		Reason:    reason,
	}
	for _, p := range candidates {
		unresolved.Providers = append(unresolved.Providers, p.Component)
	}
	if multiplicity == MultiplicityMany {
		diag.UnresolvedOptional = append(diag.UnresolvedOptional, unresolved)
		return
	}
	diag.UnresolvedRequired = append(diag.UnresolvedRequired, unresolved)
}
