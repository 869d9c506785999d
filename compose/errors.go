package compose

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineUsed is returned when Execute or Plan is called on an engine
	// that already ran.
	ErrEngineUsed = errors.New("engine already ran; create a new engine for another composition")
	// ErrNilProduct is wrapped by a ConstructorError when a constructor
	// returns a nil instance without an error.
	ErrNilProduct = errors.New("constructor returned a nil instance")
)

// ModuleLoadError indicates a referenced module or manifest could not be
// loaded, or no version-compatible module exists.
type ModuleLoadError struct {
	Reference string
	Reason    string
	Err       error
}

func (e *ModuleLoadError) Error() string {
	msg := fmt.Sprintf("load module %q: %s", e.Reference, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// IsModuleLoadError returns true if the error is a ModuleLoadError.
func IsModuleLoadError(err error) bool {
	var loadErr *ModuleLoadError
	return errors.As(err, &loadErr)
}

// AmbiguousConstructorError indicates a component does not declare exactly
// one usable constructor.
type AmbiguousConstructorError struct {
	Component string
	Count     int
	Reason    string
}

func (e *AmbiguousConstructorError) Error() string {
	return fmt.Sprintf("component %q: %s (%d constructors declared)", e.Component, e.Reason, e.Count)
}

func IsAmbiguousConstructor(err error) bool {
	var ambiguousErr *AmbiguousConstructorError
	return errors.As(err, &ambiguousErr)
}

// CircularDependencyError indicates the components cannot be ordered.
// Component is a member of Cycle.
type CircularDependencyError struct {
	Component string
	Cycle     []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency involving %q: %s", e.Component, strings.Join(e.Cycle, " -> "))
}

func IsCircularDependency(err error) bool {
	var cycleErr *CircularDependencyError
	return errors.As(err, &cycleErr)
}

// ExtraImplementationError indicates a second instance was registered under a
// singleton contract.
type ExtraImplementationError struct {
	Contract  string
	Existing  string
	Component string
}

func (e *ExtraImplementationError) Error() string {
	return fmt.Sprintf("singleton contract %s already implemented by %q; cannot register %q", e.Contract, e.Existing, e.Component)
}

func IsExtraImplementation(err error) bool {
	var extraErr *ExtraImplementationError
	return errors.As(err, &extraErr)
}

// ConstructorError wraps whatever a component's constructor failed with,
// including recovered panics.
type ConstructorError struct {
	Component string
	Err       error
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("construct %q: %v", e.Component, e.Err)
}

func (e *ConstructorError) Unwrap() error {
	return e.Err
}

func IsConstructorError(err error) bool {
	var ctorErr *ConstructorError
	return errors.As(err, &ctorErr)
}

// UnresolvedDependencyError indicates a constructor parameter that neither a
// supplied object nor exactly one built instance can satisfy.
type UnresolvedDependencyError struct {
	Component string
	Parameter int
	Type      string
	// Candidates lists the components registered under Type when more than
	// one could serve a scalar parameter.
	Candidates []string
}

func (e *UnresolvedDependencyError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("component %q parameter %d (%s): ambiguous between %s",
			e.Component, e.Parameter, e.Type, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("component %q parameter %d (%s): nothing provides it", e.Component, e.Parameter, e.Type)
}

func IsUnresolvedDependency(err error) bool {
	var unresolvedErr *UnresolvedDependencyError
	return errors.As(err, &unresolvedErr)
}

func IsEngineUsed(err error) bool {
	return errors.Is(err, ErrEngineUsed)
}
