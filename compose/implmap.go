package compose

import (
	"reflect"
)

// ImplementationMap is the result of a composition run: every built instance
// keyed by the contracts it implements and by its own product type.
//
// The map is not modified after Execute returns it, so concurrent readers are
// safe.
type ImplementationMap struct {
	singleton     map[reflect.Type]bool
	instances     map[reflect.Type][]any
	owners        map[reflect.Type][]string
	registrations []Registration
}

// Registration records one constructed component.
type Registration struct {
	Component string
	Module    string
	// Keys are the contracts and product type the instance was registered
	// under, rendered as fully-qualified type names.
	Keys     []string
	Instance any
}

func newImplementationMap(contracts []Contract) *ImplementationMap {
	m := &ImplementationMap{
		singleton: map[reflect.Type]bool{},
		instances: map[reflect.Type][]any{},
		owners:    map[reflect.Type][]string{},
	}
	for _, c := range contracts {
		if c.singleton {
			m.singleton[c.typ] = true
		}
	}
	return m
}

// register adds instance under every contract comp implements and under its
// product type. Singleton contracts are checked before anything is recorded.
func (m *ImplementationMap) register(comp *componentInfo, instance any) error {
	keys := make([]reflect.Type, 0, len(comp.contracts)+1)
	for _, c := range comp.contracts {
		keys = append(keys, c.typ)
	}
	if !containsType(keys, comp.product) {
		keys = append(keys, comp.product)
	}

	for _, k := range keys {
		if m.singleton[k] && len(m.instances[k]) > 0 {
			return &ExtraImplementationError{
				Contract:  typeName(k),
				Existing:  m.owners[k][0],
				Component: comp.name,
			}
		}
	}

	reg := Registration{Component: comp.name, Instance: instance}
	if comp.module != nil {
		reg.Module = comp.module.String()
	}
	for _, k := range keys {
		m.instances[k] = append(m.instances[k], instance)
		m.owners[k] = append(m.owners[k], comp.name)
		reg.Keys = append(reg.Keys, typeName(k))
	}
	m.registrations = append(m.registrations, reg)
	return nil
}

func (m *ImplementationMap) lookup(t reflect.Type) []any {
	return m.instances[t]
}

// TryGetSingleton returns the instance registered under c if there is exactly
// one.
func (m *ImplementationMap) TryGetSingleton(c Contract) (any, bool) {
	return m.TryGetSingletonOf(c.typ)
}

// TryGetSingletonOf is TryGetSingleton for any registry key, including a
// component's product type.
func (m *ImplementationMap) TryGetSingletonOf(t reflect.Type) (any, bool) {
	instances := m.instances[t]
	if len(instances) != 1 {
		return nil, false
	}
	return instances[0], true
}

// TryGetImplementations returns every instance registered under c in
// construction order. The result is never nil.
func (m *ImplementationMap) TryGetImplementations(c Contract) []any {
	return m.TryGetImplementationsOf(c.typ)
}

func (m *ImplementationMap) TryGetImplementationsOf(t reflect.Type) []any {
	out := make([]any, len(m.instances[t]))
	copy(out, m.instances[t])
	return out
}

// Registrations lists constructed components in construction order.
func (m *ImplementationMap) Registrations() []Registration {
	out := make([]Registration, len(m.registrations))
	copy(out, m.registrations)
	return out
}

// TryGetSingleton looks up the single instance registered under T.
func TryGetSingleton[T any](m *ImplementationMap) (T, bool) {
	var zero T
	v, ok := m.TryGetSingletonOf(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// TryGetImplementations returns every instance registered under T in
// construction order.
func TryGetImplementations[T any](m *ImplementationMap) []T {
	instances := m.instances[reflect.TypeOf((*T)(nil)).Elem()]
	out := make([]T, 0, len(instances))
	for _, v := range instances {
		if typed, ok := v.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func containsType(types []reflect.Type, t reflect.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
