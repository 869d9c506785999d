package resolver

import "context"

// Resolver computes a Plan (bindings between components) for a given Input.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (Plan, error)
}
