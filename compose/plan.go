package compose

import (
	"github.com/bayleafwalker/bindery-compose/internal/resolver"
)

// Plan describes a composition run without constructing anything.
type Plan struct {
	RunID   string
	Modules []PlannedModule
	// Components are listed in construction order.
	Components []PlannedComponent
	Edges      []PlannedEdge
	Unresolved []PlannedUnresolved
	// Skipped lists components left out by exclusion or platform.
	Skipped []string
}

type PlannedModule struct {
	Name    string
	Version string
	Plugin  bool
}

type PlannedComponent struct {
	Name         string
	Module       string
	Contracts    []string
	Dependencies []string
}

// PlannedEdge means From is built before To.
type PlannedEdge struct {
	From string
	To   string
}

type PlannedUnresolved struct {
	Component string
	Parameter int
	Type      string
	Reason    string
	// Required is false for collection parameters, which receive an empty
	// slice.
	Required bool
}

func newPlan(runID string, prep *prepared) *Plan {
	p := &Plan{RunID: runID, Skipped: prep.scan.skipped}

	for _, lm := range prep.modules {
		p.Modules = append(p.Modules, PlannedModule{
			Name:    lm.Module.Name,
			Version: lm.version.String(),
			Plugin:  lm.Plugin,
		})
	}

	comps := prep.scan.components
	for _, n := range prep.order {
		comp := comps[n]
		pc := PlannedComponent{Name: comp.name}
		if comp.module != nil {
			pc.Module = comp.module.String()
		}
		for _, c := range comp.contracts {
			pc.Contracts = append(pc.Contracts, c.String())
		}
		for _, prm := range comp.params {
			dep := typeName(prm.key)
			if prm.many {
				dep = "[]" + dep
			}
			pc.Dependencies = append(pc.Dependencies, dep)
		}
		p.Components = append(p.Components, pc)
	}

	for _, e := range prep.link.graph.Edges() {
		p.Edges = append(p.Edges, PlannedEdge{From: comps[e.From].name, To: comps[e.To].name})
	}

	add := func(list []resolver.UnresolvedRequirement, required bool) {
		for _, u := range list {
			p.Unresolved = append(p.Unresolved, PlannedUnresolved{
				Component: u.Component,
				Parameter: u.Param,
				Type:      typeName(u.Key),
				Reason:    u.Reason,
				Required:  required,
			})
		}
	}
	add(prep.link.plan.Diagnostics.UnresolvedRequired, true)
	add(prep.link.plan.Diagnostics.UnresolvedOptional, false)
	return p
}
