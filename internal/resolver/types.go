package resolver

import "reflect"

type Multiplicity string

const (
	// MultiplicityOne asks for exactly one provider (a scalar constructor parameter).
	MultiplicityOne Multiplicity = "1"
	// MultiplicityMany asks for every provider (a slice constructor parameter).
	MultiplicityMany Multiplicity = "many"
)

// Provider states that the component at Node is registered under Key once built.
type Provider struct {
	Node      int
	Component string
	Key       reflect.Type
}

// Requirement is one constructor parameter of the component at Node.
type Requirement struct {
	Node         int
	Component    string
	Param        int
	Key          reflect.Type
	Multiplicity Multiplicity
	// External is set when the caller supplied an object of exactly the
	// parameter type; such requirements never bind to a provider.
	External bool
}

// Input is the normalized view of an eligible component set.
type Input struct {
	Providers    []Provider
	Requirements []Requirement
}

// Binding is a provider -> consumer edge for one parameter.
type Binding struct {
	Provider int
	Consumer int
	Param    int
	Key      reflect.Type
}

// Plan is the output of the resolver.
type Plan struct {
	Bindings []Binding
	// Roots are the nodes that no other node consumes, in node order.
	Roots       []int
	Diagnostics Diagnostics
}

// Diagnostics captures human-readable information about resolution.
//
// This is useful for logging and for the plan report.
type Diagnostics struct {
	UnresolvedRequired []UnresolvedRequirement
	UnresolvedOptional []UnresolvedRequirement
}

type UnresolvedRequirement struct {
	Component string
	Param     int
	Key       reflect.Type
	Providers []string
	Reason    string
}
